package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newClient(t *testing.T, h http.HandlerFunc) *tdjobs.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := tdjobs.NewClient(tdjobs.Config{BaseURL: ts.URL, Timeout: time.Second}, ts.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestRun_Usage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL)
	})

	cases := [][]string{
		nil,
		{"jobs"},
		{"boats", "find", "1"},
		{"jobs", "explode", "1"},
		{"jobs", "find"},
		{"jobs", "create", "{not json"},
		{"offers", "page", "one", "10"},
		{"offers", "resend", "1"},
		{"invitations", "page", "1"},
	}
	for _, args := range cases {
		err := run(context.Background(), c, args, &bytes.Buffer{})
		if !errors.Is(err, errUsage) {
			t.Fatalf("%v: expected errUsage, got %v", args, err)
		}
	}
}

func TestRun_FindPrintsJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/jobs/7" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":7,"name":"Paint","status":"ACTIVE"}`))
	})

	var out bytes.Buffer
	if err := run(context.Background(), c, []string{"jobs", "find", "7"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "Paint"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRun_PagePrintsItems(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/offers/pagination" || r.URL.Query().Get("per_page") != "5" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"current_page":1,"total_pages":1,"total_items":1,"offers":[{"id":3,"status":"SENT"}]}`))
	})

	var out bytes.Buffer
	if err := run(context.Background(), c, []string{"offers", "page", "1", "5"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), `"items"`) || !strings.Contains(out.String(), `"SENT"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRun_ServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"job is closed"}`))
	})

	err := run(context.Background(), c, []string{"invitations", "send", "2"}, &bytes.Buffer{})
	if !errors.Is(err, tdjobs.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
