package tdjobs

import (
	"context"
	"net/http"
	"time"
)

// Invitation actions accepted by InvitationService.StatusRequest.
const (
	InvitationSend     = "send"
	InvitationWithdraw = "withdraw"
	InvitationAccept   = "accept"
	InvitationReject   = "reject"
)

// Invitation asks a provider to make an offer for a job. Status and
// CreatedAt are assigned by the server.
type Invitation struct {
	ID          int64      `json:"id,omitempty"`
	ProviderID  string     `json:"provider_id,omitempty"`
	Job         *Job       `json:"job,omitempty"`
	JobID       int64      `json:"job_id,omitempty"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`

	svc *InvitationService
}

type invitationAttributes struct {
	ProviderID  string `json:"provider_id,omitempty"`
	JobID       int64  `json:"job_id,omitempty"`
	Description string `json:"description,omitempty"`
}

func (inv *Invitation) attributes() invitationAttributes {
	attrs := invitationAttributes{
		ProviderID:  inv.ProviderID,
		JobID:       inv.JobID,
		Description: inv.Description,
	}
	if attrs.JobID == 0 && inv.Job != nil {
		attrs.JobID = inv.Job.ID
	}
	return attrs
}

// InvitationService wraps the /invitations endpoints.
type InvitationService struct {
	res  resource
	jobs *JobService
}

// Bind attaches inv, and its embedded job, to the client. JobID is filled
// from the embedded job when missing.
func (s *InvitationService) Bind(inv *Invitation) *Invitation {
	if inv == nil {
		return nil
	}
	inv.svc = s
	if inv.JobID == 0 && inv.Job != nil {
		inv.JobID = inv.Job.ID
	}
	s.jobs.Bind(inv.Job)
	return inv
}

// Create creates an invitation for provider_id on job_id.
// Returns ErrWrongAttributes on a 400 and ErrEntityNotFound when the job does not exist.
func (s *InvitationService) Create(ctx context.Context, inv Invitation) (*Invitation, error) {
	var out Invitation
	if err := s.res.call(ctx, http.MethodPost, "", nil, inv.attributes(), createRefErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// Find returns the invitation with the given id.
func (s *InvitationService) Find(ctx context.Context, id any) (*Invitation, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out Invitation
	if err := s.res.call(ctx, http.MethodGet, idPath(n, ""), nil, nil, findErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// Search returns all invitations matching query (provider_id, job_id,
// status, created_at_from, created_at_to). The endpoint defines no client
// error, so any non-2xx is reported as ErrUnexpectedStatus.
func (s *InvitationService) Search(ctx context.Context, query Query) ([]Invitation, error) {
	var out []Invitation
	if err := s.res.call(ctx, http.MethodGet, "", query, nil, noErrors, &out); err != nil {
		return nil, err
	}
	for i := range out {
		s.Bind(&out[i])
	}
	if out == nil {
		out = []Invitation{}
	}
	return out, nil
}

// PaginatedSearch is Search arranged in pages.
func (s *InvitationService) PaginatedSearch(ctx context.Context, query Query, page, perPage int) (*Page[Invitation], error) {
	p, err := fetchPage[Invitation](ctx, s.res, "/pagination", paginate(query, page, perPage), "invitations")
	if err != nil {
		return nil, err
	}
	for i := range p.Items {
		s.Bind(&p.Items[i])
	}
	return p, nil
}

// Send delivers a created invitation to its provider.
func (s *InvitationService) Send(ctx context.Context, id any) (*Invitation, error) {
	return s.StatusRequest(ctx, id, InvitationSend)
}

// Withdraw retracts a sent invitation.
func (s *InvitationService) Withdraw(ctx context.Context, id any) (*Invitation, error) {
	return s.StatusRequest(ctx, id, InvitationWithdraw)
}

// Accept accepts a sent invitation.
func (s *InvitationService) Accept(ctx context.Context, id any) (*Invitation, error) {
	return s.StatusRequest(ctx, id, InvitationAccept)
}

// Reject declines a sent invitation.
func (s *InvitationService) Reject(ctx context.Context, id any) (*Invitation, error) {
	return s.StatusRequest(ctx, id, InvitationReject)
}

// StatusRequest sends PUT /invitations/{id}/{action}.
func (s *InvitationService) StatusRequest(ctx context.Context, id any, action string) (*Invitation, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out Invitation
	if err := s.res.call(ctx, http.MethodPut, idPath(n, action), nil, nil, transitionErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

func (inv *Invitation) refresh(fn func(s *InvitationService) (*Invitation, error)) (bool, error) {
	if inv.svc == nil {
		return false, ErrUnbound
	}
	out, err := fn(inv.svc)
	if err != nil {
		return false, err
	}
	*inv = *out
	return true, nil
}

// Create sends the invitation's attributes and refreshes it from the response.
func (inv *Invitation) Create(ctx context.Context) (bool, error) {
	attrs := *inv
	return inv.refresh(func(s *InvitationService) (*Invitation, error) { return s.Create(ctx, attrs) })
}

// Send sends the invitation and refreshes it.
func (inv *Invitation) Send(ctx context.Context) (bool, error) {
	return inv.transition(ctx, InvitationSend)
}

// Withdraw withdraws the invitation and refreshes it.
func (inv *Invitation) Withdraw(ctx context.Context) (bool, error) {
	return inv.transition(ctx, InvitationWithdraw)
}

// Accept accepts the invitation and refreshes it.
func (inv *Invitation) Accept(ctx context.Context) (bool, error) {
	return inv.transition(ctx, InvitationAccept)
}

// Reject rejects the invitation and refreshes it.
func (inv *Invitation) Reject(ctx context.Context) (bool, error) {
	return inv.transition(ctx, InvitationReject)
}

func (inv *Invitation) transition(ctx context.Context, action string) (bool, error) {
	id := inv.ID
	return inv.refresh(func(s *InvitationService) (*Invitation, error) { return s.StatusRequest(ctx, id, action) })
}
