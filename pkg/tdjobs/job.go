package tdjobs

import (
	"context"
	"encoding/json"
	"net/http"
)

// Job actions accepted by JobService.StatusRequest.
const (
	JobActivate   = "activate"
	JobDeactivate = "deactivate"
	JobClose      = "close"
	JobStart      = "start"
	JobFinish     = "finish"
)

// Job is a piece of work published by an owner. Status is assigned by the
// server and never sent back.
type Job struct {
	ID             int64          `json:"id,omitempty"`
	Name           string         `json:"name,omitempty"`
	Description    string         `json:"description,omitempty"`
	OwnerID        string         `json:"owner_id,omitempty"`
	DueDate        *Date          `json:"due_date,omitempty"`
	InvitationOnly *bool          `json:"invitation_only,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	StartDate      *Date          `json:"start_date,omitempty"`
	FinishDate     *Date          `json:"finish_date,omitempty"`
	Status         string         `json:"status,omitempty"`

	svc *JobService
}

// jobAttributes is the writable subset of a Job sent on create and update.
type jobAttributes struct {
	Name           string         `json:"name,omitempty"`
	Description    string         `json:"description,omitempty"`
	OwnerID        string         `json:"owner_id,omitempty"`
	DueDate        *Date          `json:"due_date,omitempty"`
	InvitationOnly *bool          `json:"invitation_only,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	StartDate      *Date          `json:"start_date,omitempty"`
	FinishDate     *Date          `json:"finish_date,omitempty"`
}

func (j *Job) attributes() jobAttributes {
	return jobAttributes{
		Name:           j.Name,
		Description:    j.Description,
		OwnerID:        j.OwnerID,
		DueDate:        j.DueDate,
		InvitationOnly: j.InvitationOnly,
		Metadata:       j.Metadata,
		StartDate:      j.StartDate,
		FinishDate:     j.FinishDate,
	}
}

// JobService wraps the /jobs endpoints.
type JobService struct {
	res resource
}

// Bind attaches j to the service so its instance methods can be used.
func (s *JobService) Bind(j *Job) *Job {
	if j != nil {
		j.svc = s
	}
	return j
}

// Create creates a job from the writable attributes of job.
// Returns ErrWrongAttributes when the server rejects them.
func (s *JobService) Create(ctx context.Context, job Job) (*Job, error) {
	var out Job
	if err := s.res.call(ctx, http.MethodPost, "", nil, job.attributes(), createErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// Find returns the job with the given id.
func (s *JobService) Find(ctx context.Context, id any) (*Job, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out Job
	if err := s.res.call(ctx, http.MethodGet, idPath(n, ""), nil, nil, findErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// Search returns every job matching all the filters in query. The filters
// travel as one JSON document in the query parameter. Allowed modifiers are
// gt, lt, geq, leq, like and in; metadata fields are filtered the same way,
// e.g.
//
//	Query{
//		"owner_id": "abcdef",
//		"status":   map[string]any{"in": []string{"CREATED", "ACTIVE"}},
//		"metadata": map[string]any{"price": map[string]any{"lt": 2.25, "geq": 2.20}},
//	}
//
// A query that cannot be encoded as JSON fails with ErrWrongAttributes.
func (s *JobService) Search(ctx context.Context, query Query) ([]Job, error) {
	params, err := jobQuery(query)
	if err != nil {
		return nil, err
	}
	var out []Job
	if err := s.res.call(ctx, http.MethodGet, "/search", params, nil, searchErrors, &out); err != nil {
		return nil, err
	}
	for i := range out {
		s.Bind(&out[i])
	}
	if out == nil {
		out = []Job{}
	}
	return out, nil
}

// PaginatedSearch is Search arranged in pages. page and perPage are left to
// the server defaults when not positive.
func (s *JobService) PaginatedSearch(ctx context.Context, query Query, page, perPage int) (*Page[Job], error) {
	params, err := jobQuery(query)
	if err != nil {
		return nil, err
	}
	p, err := fetchPage[Job](ctx, s.res, "/search/pagination", paginate(params, page, perPage), "jobs")
	if err != nil {
		return nil, err
	}
	for i := range p.Items {
		s.Bind(&p.Items[i])
	}
	return p, nil
}

// jobQuery encodes the filters as the JSON string the job search endpoints
// read from query. A nil query is the empty object.
func jobQuery(query Query) (Query, error) {
	if query == nil {
		query = Query{}
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, newError(ErrWrongAttributes, 0, "query is not valid JSON: "+err.Error())
	}
	return Query{"query": string(b)}, nil
}

// Update replaces the writable attributes of the job with the given id.
func (s *JobService) Update(ctx context.Context, id any, job Job) (*Job, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out Job
	if err := s.res.call(ctx, http.MethodPut, idPath(n, ""), nil, job.attributes(), updateErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// Activate makes the job visible to providers.
func (s *JobService) Activate(ctx context.Context, id any) (*Job, error) {
	return s.StatusRequest(ctx, id, JobActivate)
}

// Deactivate hides an active job from providers.
func (s *JobService) Deactivate(ctx context.Context, id any) (*Job, error) {
	return s.StatusRequest(ctx, id, JobDeactivate)
}

// Close stops the job from taking new offers.
func (s *JobService) Close(ctx context.Context, id any) (*Job, error) {
	return s.StatusRequest(ctx, id, JobClose)
}

// Start marks an active or closed job as in progress.
func (s *JobService) Start(ctx context.Context, id any) (*Job, error) {
	return s.StatusRequest(ctx, id, JobStart)
}

// Finish completes a started job.
func (s *JobService) Finish(ctx context.Context, id any) (*Job, error) {
	return s.StatusRequest(ctx, id, JobFinish)
}

// StatusRequest sends PUT /jobs/{id}/{action}. A 400 means the job's
// current status does not allow the action (ErrInvalidStatus).
func (s *JobService) StatusRequest(ctx context.Context, id any, action string) (*Job, error) {
	n, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var out Job
	if err := s.res.call(ctx, http.MethodPut, idPath(n, action), nil, nil, transitionErrors, &out); err != nil {
		return nil, err
	}
	return s.Bind(&out), nil
}

// refresh overwrites j with the result of a class-level call.
func (j *Job) refresh(fn func(s *JobService) (*Job, error)) (bool, error) {
	if j.svc == nil {
		return false, ErrUnbound
	}
	out, err := fn(j.svc)
	if err != nil {
		return false, err
	}
	*j = *out
	return true, nil
}

// Create sends the job's attributes to the server and refreshes the job from the response.
func (j *Job) Create(ctx context.Context) (bool, error) {
	attrs := *j
	return j.refresh(func(s *JobService) (*Job, error) { return s.Create(ctx, attrs) })
}

// Update sends the job's attributes for its own id and refreshes the job.
func (j *Job) Update(ctx context.Context) (bool, error) {
	attrs := *j
	return j.refresh(func(s *JobService) (*Job, error) { return s.Update(ctx, attrs.ID, attrs) })
}

// Activate activates the job and refreshes it.
func (j *Job) Activate(ctx context.Context) (bool, error) {
	return j.transition(ctx, JobActivate)
}

// Deactivate deactivates the job and refreshes it.
func (j *Job) Deactivate(ctx context.Context) (bool, error) {
	return j.transition(ctx, JobDeactivate)
}

// Close closes the job and refreshes it.
func (j *Job) Close(ctx context.Context) (bool, error) {
	return j.transition(ctx, JobClose)
}

// Start starts the job and refreshes it.
func (j *Job) Start(ctx context.Context) (bool, error) {
	return j.transition(ctx, JobStart)
}

// Finish finishes the job and refreshes it.
func (j *Job) Finish(ctx context.Context) (bool, error) {
	return j.transition(ctx, JobFinish)
}

func (j *Job) transition(ctx context.Context, action string) (bool, error) {
	id := j.ID
	return j.refresh(func(s *JobService) (*Job, error) { return s.StatusRequest(ctx, id, action) })
}
