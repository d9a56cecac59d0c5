package tdjobs_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

const invitationJSON = `{"id":3,"provider_id":"prov","description":"join us","status":"CREATED",
	"created_at":"2025-01-02T03:04:05Z","job":{"id":5,"name":"Paint","status":"ACTIVE"}}`

func TestInvitations_Create(t *testing.T) {
	f := newFake(t, http.StatusCreated, invitationJSON)
	c := newTestClient(t, f)

	inv, err := c.Invitations.Create(context.Background(), tdjobs.Invitation{
		Job:         &tdjobs.Job{ID: 5},
		ProviderID:  "prov",
		Description: "join us",
		Status:      "ACCEPTED",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	body := f.BodyMap(t)
	if body["job_id"] != float64(5) || body["provider_id"] != "prov" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["status"]; ok {
		t.Fatalf("status must not be sent: %v", body)
	}
	if inv.JobID != 5 || inv.Job == nil || inv.CreatedAt == nil || inv.CreatedAt.Year() != 2025 {
		t.Fatalf("unexpected invitation %#v", inv)
	}
}

func TestInvitations_CreateErrors(t *testing.T) {
	for status, want := range map[int]error{
		http.StatusBadRequest: tdjobs.ErrWrongAttributes,
		http.StatusNotFound:   tdjobs.ErrEntityNotFound,
	} {
		f := newFake(t, status, `{"error":"x"}`)
		c := newTestClient(t, f)
		if _, err := c.Invitations.Create(context.Background(), tdjobs.Invitation{JobID: 1}); !errors.Is(err, want) {
			t.Fatalf("status %d: expected %v got %v", status, want, err)
		}
	}
}

func TestInvitations_Find(t *testing.T) {
	f := newFake(t, http.StatusOK, invitationJSON)
	c := newTestClient(t, f)

	inv, err := c.Invitations.Find(context.Background(), "3")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if inv.ID != 3 || f.Last().Path != "/invitations/3" {
		t.Fatalf("unexpected find %#v %s", inv, f.Last().Path)
	}

	nf := newFake(t, http.StatusNotFound, `{"error":"invitation 3 not found"}`)
	cn := newTestClient(t, nf)
	if _, err := cn.Invitations.Find(context.Background(), 3); !errors.Is(err, tdjobs.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}
}

func TestInvitations_Search(t *testing.T) {
	f := newFake(t, http.StatusOK, `[`+invitationJSON+`]`)
	c := newTestClient(t, f)

	invs, err := c.Invitations.Search(context.Background(), tdjobs.Query{"provider_id": "prov", "created_at_from": "2025-01-01"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(invs) != 1 || invs[0].JobID != 5 {
		t.Fatalf("unexpected invitations %#v", invs)
	}
	last := f.Last()
	q, _ := url.ParseQuery(last.Query)
	if last.Path != "/invitations" || q.Get("provider_id") != "prov" || q.Get("created_at_from") != "2025-01-01" {
		t.Fatalf("unexpected request %s?%s", last.Path, last.Query)
	}
}

func TestInvitations_SearchBadRequestIsUnexpected(t *testing.T) {
	f := newFake(t, http.StatusBadRequest, `{"error":"bad"}`)
	c := newTestClient(t, f)

	if _, err := c.Invitations.Search(context.Background(), nil); !errors.Is(err, tdjobs.ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestInvitations_PaginatedSearch(t *testing.T) {
	f := newFake(t, http.StatusOK, `{"current_page":1,"total_pages":1,"total_items":1,"invitations":[`+invitationJSON+`]}`)
	c := newTestClient(t, f)

	p, err := c.Invitations.PaginatedSearch(context.Background(), nil, 1, 5)
	if err != nil {
		t.Fatalf("PaginatedSearch: %v", err)
	}
	if len(p.Items) != 1 || f.Last().Path != "/invitations/pagination" {
		t.Fatalf("unexpected page %#v %s", p, f.Last().Path)
	}
}

func TestInvitations_StatusRequests(t *testing.T) {
	f := newFake(t, http.StatusOK, invitationJSON)
	c := newTestClient(t, f)
	ctx := context.Background()

	calls := map[string]func() (*tdjobs.Invitation, error){
		"send":     func() (*tdjobs.Invitation, error) { return c.Invitations.Send(ctx, 3) },
		"withdraw": func() (*tdjobs.Invitation, error) { return c.Invitations.Withdraw(ctx, 3) },
		"accept":   func() (*tdjobs.Invitation, error) { return c.Invitations.Accept(ctx, 3) },
		"reject":   func() (*tdjobs.Invitation, error) { return c.Invitations.Reject(ctx, 3) },
	}
	for action, call := range calls {
		if _, err := call(); err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		if last := f.Last(); last.Method != http.MethodPut || last.Path != "/invitations/3/"+action {
			t.Fatalf("%s: unexpected request %s %s", action, last.Method, last.Path)
		}
	}

	bad := newFake(t, http.StatusBadRequest, `{"error":"cannot accept"}`)
	cb := newTestClient(t, bad)
	if _, err := cb.Invitations.Accept(ctx, 3); !errors.Is(err, tdjobs.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestInvitation_InstanceMethods(t *testing.T) {
	f := newFake(t, http.StatusOK, invitationJSON)
	c := newTestClient(t, f)
	ctx := context.Background()

	inv := c.Invitations.Bind(&tdjobs.Invitation{JobID: 5, ProviderID: "prov"})
	if ok, err := inv.Create(ctx); err != nil || !ok {
		t.Fatalf("Create: %v %v", ok, err)
	}
	if inv.ID != 3 || inv.Status != "CREATED" {
		t.Fatalf("receiver not refreshed: %#v", inv)
	}

	for name, fn := range map[string]func(context.Context) (bool, error){
		"send": inv.Send, "withdraw": inv.Withdraw, "accept": inv.Accept, "reject": inv.Reject,
	} {
		if ok, err := fn(ctx); err != nil || !ok {
			t.Fatalf("%s: %v %v", name, ok, err)
		}
		if f.Last().Path != "/invitations/3/"+name {
			t.Fatalf("%s: unexpected path %s", name, f.Last().Path)
		}
	}

	unbound := &tdjobs.Invitation{ID: 3}
	if ok, err := unbound.Send(ctx); ok || !errors.Is(err, tdjobs.ErrUnbound) {
		t.Fatalf("expected ErrUnbound, got %v %v", ok, err)
	}
}
