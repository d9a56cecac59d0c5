package tdjobs

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongAttributes is returned when the server rejects the given data or an id is not an integer.
	ErrWrongAttributes = errors.New("tdjobs: wrong attributes")
	// ErrEntityNotFound is returned when the referenced entity does not exist.
	ErrEntityNotFound = errors.New("tdjobs: entity not found")
	// ErrInvalidStatus is returned when a status transition is not allowed for the entity's current status.
	ErrInvalidStatus = errors.New("tdjobs: invalid status")
	// ErrUnauthorizedRequest is returned when the server rejects the application secret.
	ErrUnauthorizedRequest = errors.New("tdjobs: unauthorized request")
	// ErrUnexpectedStatus is returned for any status code the operation has no mapping for.
	ErrUnexpectedStatus = errors.New("tdjobs: unexpected status")
	// ErrUnbound is returned by instance methods of entities that are not attached to a service.
	ErrUnbound = errors.New("tdjobs: entity is not bound to a client")
)

// Error is a failure reported by the TDJobs server, or detected locally before a request was made.
type Error struct {
	Kind       error
	StatusCode int // 0 when the error was detected client-side
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, status int, msg string) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: msg}
}

// statusMap assigns an error kind to the status codes an operation recognises.
type statusMap map[int]error

var (
	createErrors     = statusMap{400: ErrWrongAttributes}
	findErrors       = statusMap{404: ErrEntityNotFound}
	searchErrors     = statusMap{400: ErrWrongAttributes}
	updateErrors     = statusMap{400: ErrWrongAttributes, 404: ErrEntityNotFound}
	transitionErrors = statusMap{400: ErrInvalidStatus, 404: ErrEntityNotFound}
	// creating offers and invitations may reference a job that does not exist
	createRefErrors = statusMap{400: ErrWrongAttributes, 404: ErrEntityNotFound}
	noErrors        = statusMap{}
)

// classify maps a non-2xx response onto the error taxonomy. A 401 is always
// reported as ErrUnauthorizedRequest; codes without a mapping become
// ErrUnexpectedStatus.
func (m statusMap) classify(status int, msg string) error {
	if kind, ok := m[status]; ok {
		return newError(kind, status, msg)
	}
	if status == 401 {
		return newError(ErrUnauthorizedRequest, status, msg)
	}
	return newError(ErrUnexpectedStatus, status, msg)
}
