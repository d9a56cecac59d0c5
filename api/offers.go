package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/talosdigital/tdjobs/pkg/repository"
	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

var offerFilterKeys = map[string]bool{
	"id": true, "job_id": true, "invitation_id": true, "provider_id": true,
	"description": true, "metadata": true, "status": true,
}

type createOfferRequest struct {
	JobID        int64          `json:"job_id"`
	InvitationID int64          `json:"invitation_id"`
	ProviderID   string         `json:"provider_id"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata"`
}

type offerReasonRequest struct {
	Reason   string         `json:"reason"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) CreateOffer(w http.ResponseWriter, r *http.Request) {
	body, ok := s.payload(w, r, s.schemas.createOffer)
	if !ok {
		return
	}
	var req createOfferRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	job, ok := s.loadJob(ctx, w, req.JobID)
	if !ok {
		return
	}
	if req.InvitationID != 0 {
		inv, ok := s.loadInvitation(ctx, w, req.InvitationID)
		if !ok {
			return
		}
		if inv.JobID != job.ID {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invitation %d is not for job %d", inv.ID, job.ID))
			return
		}
		if inv.ProviderID != req.ProviderID {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invitation %d is not for provider %s", inv.ID, req.ProviderID))
			return
		}
	} else if job.InvitationOnly != nil && *job.InvitationOnly {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("job %d only accepts offers with an invitation", job.ID))
		return
	}

	o := &tdjobs.Offer{
		Status:       StatusCreated,
		JobID:        job.ID,
		ProviderID:   req.ProviderID,
		InvitationID: req.InvitationID,
		Description:  req.Description,
		Metadata:     req.Metadata,
		Records:      []map[string]any{},
	}
	id, err := s.store.CreateOffer(ctx, o)
	if err != nil {
		s.internal(w, "create offer", err)
		return
	}
	o.ID = id
	s.respondOffer(ctx, w, o, http.StatusCreated)
}

func (s *Server) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	o, ok := s.loadOffer(r.Context(), w, id)
	if !ok {
		return
	}
	s.respondOffer(r.Context(), w, o, http.StatusOK)
}

// OfferAction applies a status transition. Every transition is appended to
// the offer's records; resend also replaces the metadata.
func (s *Server) OfferAction(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	action := mux.Vars(r)["action"]
	if !offerMachine.has(action) {
		writeError(w, http.StatusNotFound, "unknown action "+action)
		return
	}
	body, ok := s.payload(w, r, s.schemas.offerReason)
	if !ok {
		return
	}
	var req offerReasonRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	o, ok := s.loadOffer(ctx, w, id)
	if !ok {
		return
	}
	next, err := offerMachine.next(action, o.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record := map[string]any{
		"action":     action,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if req.Reason != "" {
		record["reason"] = req.Reason
	}
	if action == "resend" && req.Metadata != nil {
		o.Metadata = req.Metadata
	}
	o.Status = next
	o.Records = append(o.Records, record)

	if err := s.store.UpdateOffer(ctx, o); err != nil {
		s.internal(w, "update offer", err)
		return
	}
	s.respondOffer(ctx, w, o, http.StatusOK)
}

func (s *Server) SearchOffers(w http.ResponseWriter, r *http.Request) {
	offers, ok := s.searchOffers(w, r)
	if !ok {
		return
	}
	writeJSON(w, offers, http.StatusOK)
}

func (s *Server) PaginatedSearchOffers(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pagination(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	offers, ok := s.searchOffers(w, r)
	if !ok {
		return
	}
	writeJSON(w, paginate(offers, page, perPage, "offers"), http.StatusOK)
}

// offerSearch is a parsed offer search request.
type offerSearch struct {
	filters   map[string]any
	jobFilter map[string]any
	from, to  time.Time
}

func parseOfferSearch(params map[string]any) (*offerSearch, error) {
	q := &offerSearch{filters: map[string]any{}}
	jobFilter, err := filterParam(params, "job_filter")
	if err != nil {
		return nil, err
	}
	if err := checkKeys(jobFilter, jobFilterKeys); err != nil {
		return nil, err
	}
	q.jobFilter = jobFilter

	for k, v := range params {
		switch k {
		case "page", "per_page", "job_filter":
		case "created_at_from", "created_at_to":
			raw, _ := v.(string)
			t, err := parseBound(raw, k == "created_at_to")
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if k == "created_at_from" {
				q.from = t
			} else {
				q.to = t
			}
		default:
			if !offerFilterKeys[k] {
				return nil, fmt.Errorf("invalid filter %q", k)
			}
			q.filters[k] = v
		}
	}
	return q, nil
}

// parseBound reads a creation time bound. A plain date used as an upper
// bound covers the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := tdjobs.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		return d.Add(24*time.Hour - time.Nanosecond), nil
	}
	return d.Time, nil
}

func (q *offerSearch) match(row repository.OfferRow, job *tdjobs.Job) (bool, error) {
	if !q.from.IsZero() && row.Created.Before(q.from) {
		return false, nil
	}
	if !q.to.IsZero() && row.Created.After(q.to) {
		return false, nil
	}
	doc, err := toDoc(row.Offer)
	if err != nil {
		return false, err
	}
	if !matchAll(doc, q.filters) {
		return false, nil
	}
	if len(q.jobFilter) == 0 {
		return true, nil
	}
	if job == nil {
		return false, nil
	}
	jobDoc, err := toDoc(job)
	if err != nil {
		return false, err
	}
	return matchAll(jobDoc, q.jobFilter), nil
}

func (s *Server) searchOffers(w http.ResponseWriter, r *http.Request) ([]tdjobs.Offer, bool) {
	q, err := parseOfferSearch(parseNested(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	ctx := r.Context()
	rows, err := s.store.ListOffers(ctx)
	if err != nil {
		s.internal(w, "list offers", err)
		return nil, false
	}

	out := []tdjobs.Offer{}
	for _, row := range rows {
		job, err := s.store.GetJob(ctx, row.Offer.JobID)
		if err != nil {
			s.internal(w, "get job", err)
			return nil, false
		}
		ok, err := q.match(row, job)
		if err != nil {
			s.internal(w, "match offer", err)
			return nil, false
		}
		if !ok {
			continue
		}
		o := row.Offer
		if err := s.embedOffer(ctx, &o); err != nil {
			s.internal(w, "embed offer", err)
			return nil, false
		}
		out = append(out, o)
	}
	return out, true
}

// embedOffer attaches the offer's job and invitation.
func (s *Server) embedOffer(ctx context.Context, o *tdjobs.Offer) error {
	job, err := s.store.GetJob(ctx, o.JobID)
	if err != nil {
		return err
	}
	o.Job = job
	if o.InvitationID == 0 {
		return nil
	}
	inv, err := s.store.GetInvitation(ctx, o.InvitationID)
	if err != nil {
		return err
	}
	o.Invitation = inv
	return nil
}

func (s *Server) respondOffer(ctx context.Context, w http.ResponseWriter, o *tdjobs.Offer, status int) {
	if err := s.embedOffer(ctx, o); err != nil {
		s.internal(w, "embed offer", err)
		return
	}
	writeJSON(w, o, status)
}
