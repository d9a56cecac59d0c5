package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

var jobFilterKeys = map[string]bool{
	"id": true, "name": true, "description": true, "owner_id": true, "due_date": true,
	"invitation_only": true, "metadata": true, "start_date": true, "finish_date": true, "status": true,
}

func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	body, ok := s.payload(w, r, s.schemas.createJob)
	if !ok {
		return
	}

	var job tdjobs.Job
	if err := json.Unmarshal(body, &job); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if job.FinishDate.Before(job.StartDate.Time) {
		writeError(w, http.StatusBadRequest, "finish_date must not be before start_date")
		return
	}
	if job.InvitationOnly == nil {
		closed := false
		job.InvitationOnly = &closed
	}
	job.ID = 0
	job.Status = StatusCreated

	id, err := s.store.CreateJob(r.Context(), &job)
	if err != nil {
		s.internal(w, "create job", err)
		return
	}
	job.ID = id
	writeJSON(w, job, http.StatusCreated)
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	job, ok := s.loadJob(r.Context(), w, id)
	if !ok {
		return
	}
	writeJSON(w, job, http.StatusOK)
}

// UpdateJob applies the attributes present in the body. Id and status are
// never changed through an update.
func (s *Server) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	body, ok := s.payload(w, r, s.schemas.updateJob)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.loadJob(r.Context(), w, id)
	if !ok {
		return
	}

	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &present); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := present["metadata"]; ok {
		job.Metadata = nil
	}
	status := job.Status
	if err := json.Unmarshal(body, job); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job.ID, job.Status = id, status
	if job.StartDate != nil && job.FinishDate != nil && job.FinishDate.Before(job.StartDate.Time) {
		writeError(w, http.StatusBadRequest, "finish_date must not be before start_date")
		return
	}

	if err := s.store.UpdateJob(r.Context(), job); err != nil {
		s.internal(w, "update job", err)
		return
	}
	writeJSON(w, job, http.StatusOK)
}

func (s *Server) JobAction(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	action := mux.Vars(r)["action"]
	if !jobMachine.has(action) {
		writeError(w, http.StatusNotFound, "unknown action "+action)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.loadJob(r.Context(), w, id)
	if !ok {
		return
	}
	next, err := jobMachine.next(action, job.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job.Status = next
	if err := s.store.UpdateJob(r.Context(), job); err != nil {
		s.internal(w, "update job", err)
		return
	}
	writeJSON(w, job, http.StatusOK)
}

// SearchJobs answers GET /jobs/search with every job matching the
// filters nested under query.
func (s *Server) SearchJobs(w http.ResponseWriter, r *http.Request) {
	jobs, ok := s.searchJobs(w, r)
	if !ok {
		return
	}
	writeJSON(w, jobs, http.StatusOK)
}

func (s *Server) PaginatedSearchJobs(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := pagination(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	jobs, ok := s.searchJobs(w, r)
	if !ok {
		return
	}
	writeJSON(w, paginate(jobs, page, perPage, "jobs"), http.StatusOK)
}

func (s *Server) searchJobs(w http.ResponseWriter, r *http.Request) ([]tdjobs.Job, bool) {
	filters, err := filterParam(parseNested(r.URL.Query()), "query")
	if err == nil {
		err = checkKeys(filters, jobFilterKeys)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	all, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.internal(w, "list jobs", err)
		return nil, false
	}

	out := []tdjobs.Job{}
	for _, job := range all {
		doc, err := toDoc(job)
		if err != nil {
			s.internal(w, "encode job", err)
			return nil, false
		}
		if matchAll(doc, filters) {
			out = append(out, job)
		}
	}
	return out, true
}
