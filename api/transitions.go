package api

import "fmt"

// Entity statuses.
const (
	StatusCreated   = "CREATED"
	StatusActive    = "ACTIVE"
	StatusInactive  = "INACTIVE"
	StatusClosed    = "CLOSED"
	StatusStarted   = "STARTED"
	StatusFinished  = "FINISHED"
	StatusSent      = "SENT"
	StatusResent    = "RESENT"
	StatusWithdrawn = "WITHDRAWN"
	StatusReturned  = "RETURNED"
	StatusAccepted  = "ACCEPTED"
	StatusRejected  = "REJECTED"
)

// transition is one edge of a status machine.
type transition struct {
	from []string
	to   string
}

type machine map[string]transition

var jobMachine = machine{
	"activate":   {from: []string{StatusCreated, StatusInactive}, to: StatusActive},
	"deactivate": {from: []string{StatusActive}, to: StatusInactive},
	"close":      {from: []string{StatusCreated, StatusActive, StatusInactive}, to: StatusClosed},
	"start":      {from: []string{StatusActive, StatusClosed}, to: StatusStarted},
	"finish":     {from: []string{StatusStarted}, to: StatusFinished},
}

var offerMachine = machine{
	"send":     {from: []string{StatusCreated}, to: StatusSent},
	"resend":   {from: []string{StatusReturned}, to: StatusResent},
	"withdraw": {from: []string{StatusSent, StatusResent}, to: StatusWithdrawn},
	"return":   {from: []string{StatusSent, StatusResent}, to: StatusReturned},
	"accept":   {from: []string{StatusSent, StatusResent}, to: StatusAccepted},
	"reject":   {from: []string{StatusSent, StatusResent}, to: StatusRejected},
}

var invitationMachine = machine{
	"send":     {from: []string{StatusCreated}, to: StatusSent},
	"withdraw": {from: []string{StatusSent}, to: StatusWithdrawn},
	"accept":   {from: []string{StatusSent}, to: StatusAccepted},
	"reject":   {from: []string{StatusSent}, to: StatusRejected},
}

// has reports whether action is known, so unknown actions can 404 like an
// unrouted path.
func (m machine) has(action string) bool {
	_, ok := m[action]
	return ok
}

// next returns the status reached by applying action to current.
func (m machine) next(action, current string) (string, error) {
	t, ok := m[action]
	if !ok {
		return "", fmt.Errorf("unknown action %q", action)
	}
	for _, s := range t.from {
		if s == current {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("cannot %s when status is %s", action, current)
}
