package tdjobs

import (
	"context"
	"net/http"
)

// Offer actions accepted by OfferService.StatusRequest.
const (
	OfferSend     = "send"
	OfferResend   = "resend"
	OfferWithdraw = "withdraw"
	OfferReturn   = "return"
	OfferAccept   = "accept"
	OfferReject   = "reject"
)

// Offer is a provider's proposal for a job, optionally answering an invitation.
type Offer struct {
	ID           int64            `json:"id,omitempty"`
	Status       string           `json:"status,omitempty"`
	Job          *Job             `json:"job,omitempty"`
	JobID        int64            `json:"job_id,omitempty"`
	ProviderID   string           `json:"provider_id,omitempty"`
	InvitationID int64            `json:"invitation_id,omitempty"`
	Invitation   *Invitation      `json:"invitation,omitempty"`
	Description  string           `json:"description,omitempty"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
	Records      []map[string]any `json:"records,omitempty"`

	svc *OfferService
}

// offerAttributes is the body of POST /offers: the job is referenced by id only.
type offerAttributes struct {
	JobID        int64          `json:"job_id,omitempty"`
	InvitationID int64          `json:"invitation_id,omitempty"`
	ProviderID   string         `json:"provider_id,omitempty"`
	Description  string         `json:"description,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (o *Offer) attributes() offerAttributes {
	attrs := offerAttributes{
		JobID:        o.JobID,
		InvitationID: o.InvitationID,
		ProviderID:   o.ProviderID,
		Description:  o.Description,
		Metadata:     o.Metadata,
	}
	if o.Job != nil {
		attrs.JobID = o.Job.ID
	}
	return attrs
}

// ResendParams is the body of PUT /offers/{id}/resend.
type ResendParams struct {
	Reason   string         `json:"reason,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ReturnParams is the body of PUT /offers/{id}/return.
type ReturnParams struct {
	Reason string `json:"reason,omitempty"`
}

// OfferService wraps the /offers endpoints.
type OfferService struct {
	res         resource
	jobs        *JobService
	invitations *InvitationService
}

// Bind attaches o, and any job or invitation embedded in it, to the client.
// JobID and InvitationID are filled from the embedded objects when the
// server only sent those.
func (s *OfferService) Bind(o *Offer) *Offer {
	if o == nil {
		return nil
	}
	o.svc = s
	if o.JobID == 0 && o.Job != nil {
		o.JobID = o.Job.ID
	}
	if o.Invitation != nil && o.Invitation.ID != 0 {
		o.InvitationID = o.Invitation.ID
	}
	s.jobs.Bind(o.Job)
	s.invitations.Bind(o.Invitation)
	return o
}

// Create creates an offer. The embedded job is sent as job_id; the job in
// the response is returned as a typed Job. A 404 means the referenced job or
// invitation does not exist.
func (s *OfferService) Create(ctx context.Context, offer Offer) (*Offer, error) {
	var out Offer
	if err := s.res.call(ctx, http.MethodPost, "", nil, offer.attributes(), createRefErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// Find returns the offer with the given id.
func (s *OfferService) Find(ctx context.Context, id any) (*Offer, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out Offer
	if err := s.res.call(ctx, http.MethodGet, idPath(n, ""), nil, nil, findErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// Search returns all offers matching query. Recognised keys are provider_id,
// job_id, status (string or list), created_at_from, created_at_to and
// job_filter.
func (s *OfferService) Search(ctx context.Context, query Query) ([]Offer, error) {
	var out []Offer
	if err := s.res.call(ctx, http.MethodGet, "", query, nil, searchErrors, &out); err != nil {
		return nil, err
	}
	for i := range out {
		s.Bind(&out[i])
	}
	if out == nil {
		out = []Offer{}
	}
	return out, nil
}

// PaginatedSearch is Search arranged in pages.
func (s *OfferService) PaginatedSearch(ctx context.Context, query Query, page, perPage int) (*Page[Offer], error) {
	p, err := fetchPage[Offer](ctx, s.res, "/pagination", paginate(query, page, perPage), "offers")
	if err != nil {
		return nil, err
	}
	for i := range p.Items {
		s.Bind(&p.Items[i])
	}
	return p, nil
}

// Send submits a created offer to the job owner.
func (s *OfferService) Send(ctx context.Context, id any) (*Offer, error) {
	return s.StatusRequest(ctx, id, OfferSend, nil)
}

// Resend sends a returned offer again with a reason and new metadata.
func (s *OfferService) Resend(ctx context.Context, id any, params ResendParams) (*Offer, error) {
	return s.StatusRequest(ctx, id, OfferResend, params)
}

// Withdraw retracts a sent or resent offer.
func (s *OfferService) Withdraw(ctx context.Context, id any) (*Offer, error) {
	return s.StatusRequest(ctx, id, OfferWithdraw, nil)
}

// Return hands the offer back to its provider for changes.
func (s *OfferService) Return(ctx context.Context, id any, params ReturnParams) (*Offer, error) {
	return s.StatusRequest(ctx, id, OfferReturn, params)
}

// Accept accepts a sent or resent offer.
func (s *OfferService) Accept(ctx context.Context, id any) (*Offer, error) {
	return s.StatusRequest(ctx, id, OfferAccept, nil)
}

// Reject rejects a sent or resent offer.
func (s *OfferService) Reject(ctx context.Context, id any) (*Offer, error) {
	return s.StatusRequest(ctx, id, OfferReject, nil)
}

// StatusRequest sends PUT /offers/{id}/{action} with an optional body.
func (s *OfferService) StatusRequest(ctx context.Context, id any, action string, body any) (*Offer, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out Offer
	if err := s.res.call(ctx, http.MethodPut, idPath(n, action), nil, body, transitionErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

func (o *Offer) refresh(fn func(s *OfferService) (*Offer, error)) (bool, error) {
	if o.svc == nil {
		return false, ErrUnbound
	}
	out, err := fn(o.svc)
	if err != nil {
		return false, err
	}
	*o = *out
	return true, nil
}

// Create sends the offer's attributes, with job_id taken from the embedded
// job, and refreshes the offer from the response.
func (o *Offer) Create(ctx context.Context) (bool, error) {
	attrs := *o
	return o.refresh(func(s *OfferService) (*Offer, error) { return s.Create(ctx, attrs) })
}

// Send sends the offer and refreshes it.
func (o *Offer) Send(ctx context.Context) (bool, error) {
	return o.transition(ctx, OfferSend, nil)
}

// Resend resends the offer with its current metadata.
func (o *Offer) Resend(ctx context.Context, reason string) (bool, error) {
	return o.transition(ctx, OfferResend, ResendParams{Reason: reason, Metadata: o.Metadata})
}

// Withdraw withdraws the offer and refreshes it.
func (o *Offer) Withdraw(ctx context.Context) (bool, error) {
	return o.transition(ctx, OfferWithdraw, nil)
}

// Return returns the offer with a reason and refreshes it.
func (o *Offer) Return(ctx context.Context, reason string) (bool, error) {
	return o.transition(ctx, OfferReturn, ReturnParams{Reason: reason})
}

// Accept accepts the offer and refreshes it.
func (o *Offer) Accept(ctx context.Context) (bool, error) {
	return o.transition(ctx, OfferAccept, nil)
}

// Reject rejects the offer and refreshes it.
func (o *Offer) Reject(ctx context.Context) (bool, error) {
	return o.transition(ctx, OfferReject, nil)
}

func (o *Offer) transition(ctx context.Context, action string, body any) (bool, error) {
	id := o.ID
	return o.refresh(func(s *OfferService) (*Offer, error) { return s.StatusRequest(ctx, id, action, body) })
}
