package tdjobs_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

const testSecret = "s3cret"

// captured is the last request a fake server received.
type captured struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type fakeServer struct {
	*httptest.Server

	mu    sync.Mutex
	last  captured
	calls int
}

func (f *fakeServer) Last() captured {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeServer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// BodyMap decodes the last request body.
func (f *fakeServer) BodyMap(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(f.Last().Body, &m); err != nil {
		t.Fatalf("request body is not JSON: %v (%s)", err, f.Last().Body)
	}
	return m
}

// newFake starts a server answering every request with status and body.
func newFake(t *testing.T, status int, body string) *fakeServer {
	t.Helper()
	f := &fakeServer{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.last = captured{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Header: r.Header.Clone(), Body: b}
		f.calls++
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.Close)
	return f
}

func newTestClient(t *testing.T, f *fakeServer) *tdjobs.Client {
	t.Helper()
	c, err := tdjobs.NewClient(tdjobs.Config{BaseURL: f.URL, ApplicationSecret: testSecret, Timeout: 2 * time.Second}, f.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}
