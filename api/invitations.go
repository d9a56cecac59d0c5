package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

type createInvitationRequest struct {
	JobID       int64  `json:"job_id"`
	ProviderID  string `json:"provider_id"`
	Description string `json:"description"`
}

func (s *Server) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	body, ok := s.payload(w, r, s.schemas.createInvitation)
	if !ok {
		return
	}
	var req createInvitationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	job, ok := s.loadJob(ctx, w, req.JobID)
	if !ok {
		return
	}

	created := time.Now().UTC().Truncate(time.Second)
	inv := &tdjobs.Invitation{
		ProviderID:  req.ProviderID,
		JobID:       job.ID,
		Description: req.Description,
		Status:      StatusCreated,
		CreatedAt:   &created,
	}
	id, err := s.store.CreateInvitation(ctx, inv)
	if err != nil {
		s.internal(w, "create invitation", err)
		return
	}
	inv.ID = id
	inv.Job = job
	writeJSON(w, inv, http.StatusCreated)
}

func (s *Server) GetInvitation(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	inv, ok := s.loadInvitation(r.Context(), w, id)
	if !ok {
		return
	}
	s.respondInvitation(r.Context(), w, inv, http.StatusOK)
}

func (s *Server) InvitationAction(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	action := mux.Vars(r)["action"]
	if !invitationMachine.has(action) {
		writeError(w, http.StatusNotFound, "unknown action "+action)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := r.Context()
	inv, ok := s.loadInvitation(ctx, w, id)
	if !ok {
		return
	}
	next, err := invitationMachine.next(action, inv.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	inv.Status = next
	if err := s.store.UpdateInvitation(ctx, inv); err != nil {
		s.internal(w, "update invitation", err)
		return
	}
	s.respondInvitation(ctx, w, inv, http.StatusOK)
}

func (s *Server) SearchInvitations(w http.ResponseWriter, r *http.Request) {
	invs, ok := s.searchInvitations(w, r)
	if !ok {
		return
	}
	writeJSON(w, invs, http.StatusOK)
}

func (s *Server) PaginatedSearchInvitations(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pagination(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	invs, ok := s.searchInvitations(w, r)
	if !ok {
		return
	}
	writeJSON(w, paginate(invs, page, perPage, "invitations"), http.StatusOK)
}

// searchInvitations filters on any top-level parameter; unknown fields
// simply match nothing.
func (s *Server) searchInvitations(w http.ResponseWriter, r *http.Request) ([]tdjobs.Invitation, bool) {
	filters := parseNested(r.URL.Query())
	delete(filters, "page")
	delete(filters, "per_page")

	var from, to time.Time
	for key, bound := range map[string]*time.Time{"created_at_from": &from, "created_at_to": &to} {
		raw, ok := filters[key].(string)
		if !ok {
			continue
		}
		delete(filters, key)
		t, err := parseBound(raw, key == "created_at_to")
		if err != nil {
			writeError(w, http.StatusBadRequest, key+": "+err.Error())
			return nil, false
		}
		*bound = t
	}

	ctx := r.Context()
	all, err := s.store.ListInvitations(ctx)
	if err != nil {
		s.internal(w, "list invitations", err)
		return nil, false
	}

	out := []tdjobs.Invitation{}
	for _, inv := range all {
		doc, err := toDoc(inv)
		if err != nil {
			s.internal(w, "encode invitation", err)
			return nil, false
		}
		if !matchAll(doc, filters) || !within(inv.CreatedAt, from, to) {
			continue
		}
		if inv.Job, err = s.store.GetJob(ctx, inv.JobID); err != nil {
			s.internal(w, "get job", err)
			return nil, false
		}
		out = append(out, inv)
	}
	return out, true
}

func (s *Server) respondInvitation(ctx context.Context, w http.ResponseWriter, inv *tdjobs.Invitation, status int) {
	job, err := s.store.GetJob(ctx, inv.JobID)
	if err != nil {
		s.internal(w, "get job", err)
		return
	}
	inv.Job = job
	writeJSON(w, inv, status)
}

// within reports whether t lies in [from, to]; zero bounds are open.
func within(t *time.Time, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	return (from.IsZero() || !t.Before(from)) && (to.IsZero() || !t.After(to))
}
