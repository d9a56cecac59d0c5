package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/qri-io/jsonschema"

	"github.com/talosdigital/tdjobs/pkg/repository"
	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

// Server serves the jobs, offers and invitations endpoints from a Store.
type Server struct {
	store   repository.Store
	schemas *schemaSet

	// serializes read-modify-write sequences such as status transitions
	mu sync.Mutex
}

func NewServer(store repository.Store) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	schemas, err := newSchemaSet()
	if err != nil {
		return nil, err
	}
	return &Server{store: store, schemas: schemas}, nil
}

// payload reads the request body and checks it against schema. It writes
// the error response itself and reports false when the handler must stop.
func (s *Server) payload(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema) ([]byte, bool) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read body")
		return nil, false
	}
	msg, err := validate(r.Context(), schema, body)
	if err != nil {
		s.internal(w, "validate payload", err)
		return nil, false
	}
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	return body, true
}

func (s *Server) internal(w http.ResponseWriter, op string, err error) {
	logger.Error(op, slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func notFound(w http.ResponseWriter, kind string, id int64) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("%s %d not found", kind, id))
}

// loadJob fetches a job or writes 404/500.
func (s *Server) loadJob(ctx context.Context, w http.ResponseWriter, id int64) (*tdjobs.Job, bool) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		s.internal(w, "get job", err)
		return nil, false
	}
	if job == nil {
		notFound(w, "job", id)
		return nil, false
	}
	return job, true
}

func (s *Server) loadInvitation(ctx context.Context, w http.ResponseWriter, id int64) (*tdjobs.Invitation, bool) {
	inv, err := s.store.GetInvitation(ctx, id)
	if err != nil {
		s.internal(w, "get invitation", err)
		return nil, false
	}
	if inv == nil {
		notFound(w, "invitation", id)
		return nil, false
	}
	return inv, true
}

func (s *Server) loadOffer(ctx context.Context, w http.ResponseWriter, id int64) (*tdjobs.Offer, bool) {
	o, err := s.store.GetOffer(ctx, id)
	if err != nil {
		s.internal(w, "get offer", err)
		return nil, false
	}
	if o == nil {
		notFound(w, "offer", id)
		return nil, false
	}
	return o, true
}

// filterParam extracts the nested filters a search request carries under
// key, which may also be a JSON encoded object.
func filterParam(params map[string]any, key string) (map[string]any, error) {
	switch v := params[key].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return map[string]any{}, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("%s must be an object", key)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%s must be an object", key)
	}
}
