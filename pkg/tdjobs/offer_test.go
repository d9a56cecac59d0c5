package tdjobs_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

const offerJSON = `{"id":7,"status":"CREATED","provider_id":"prov","description":"I can",
	"job":{"id":5,"name":"Paint","status":"ACTIVE"},
	"invitation":{"id":3,"provider_id":"prov","status":"SENT","job_id":5},
	"metadata":{"rate":10},"records":[]}`

func TestOffers_CreateSendsJobID(t *testing.T) {
	f := newFake(t, http.StatusCreated, offerJSON)
	c := newTestClient(t, f)

	offer, err := c.Offers.Create(context.Background(), tdjobs.Offer{
		Job:          &tdjobs.Job{ID: 5, Name: "Paint"},
		ProviderID:   "prov",
		InvitationID: 3,
		Description:  "I can",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	last := f.Last()
	if last.Method != http.MethodPost || last.Path != "/offers" {
		t.Fatalf("unexpected request %s %s", last.Method, last.Path)
	}
	body := f.BodyMap(t)
	if _, ok := body["job"]; ok {
		t.Fatalf("embedded job must not be sent: %v", body)
	}
	if body["job_id"] != float64(5) || body["invitation_id"] != float64(3) || body["provider_id"] != "prov" {
		t.Fatalf("unexpected body %v", body)
	}

	if offer.Job == nil || offer.Job.Name != "Paint" {
		t.Fatalf("expected typed job in response, got %#v", offer.Job)
	}
	if offer.JobID != 5 || offer.InvitationID != 3 {
		t.Fatalf("ids not filled from embedded entities: %#v", offer)
	}
}

func TestOffers_CreateErrors(t *testing.T) {
	for status, want := range map[int]error{
		http.StatusBadRequest: tdjobs.ErrWrongAttributes,
		http.StatusNotFound:   tdjobs.ErrEntityNotFound,
	} {
		f := newFake(t, status, `{"error":"x"}`)
		c := newTestClient(t, f)
		if _, err := c.Offers.Create(context.Background(), tdjobs.Offer{JobID: 1}); !errors.Is(err, want) {
			t.Fatalf("status %d: expected %v got %v", status, want, err)
		}
	}
}

func TestOffers_FindAndSearch(t *testing.T) {
	f := newFake(t, http.StatusOK, offerJSON)
	c := newTestClient(t, f)
	ctx := context.Background()

	o, err := c.Offers.Find(ctx, int64(7))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if o.ID != 7 || f.Last().Path != "/offers/7" {
		t.Fatalf("unexpected find %#v %s", o, f.Last().Path)
	}

	list := newFake(t, http.StatusOK, `[`+offerJSON+`]`)
	cl := newTestClient(t, list)
	offers, err := cl.Offers.Search(ctx, tdjobs.Query{
		"provider_id": "prov",
		"status":      []string{"SENT", "RESENT"},
		"job_filter":  map[string]any{"owner_id": "own"},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("unexpected offers %#v", offers)
	}
	last := list.Last()
	if last.Path != "/offers" || last.Method != http.MethodGet {
		t.Fatalf("unexpected request %s %s", last.Method, last.Path)
	}
	q, _ := url.ParseQuery(last.Query)
	if q.Get("provider_id") != "prov" || len(q["status[]"]) != 2 || q.Get("job_filter[owner_id]") != "own" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestOffers_PaginatedSearch(t *testing.T) {
	f := newFake(t, http.StatusOK, `{"current_page":1,"total_pages":1,"total_items":1,"offers":[`+offerJSON+`]}`)
	c := newTestClient(t, f)

	p, err := c.Offers.PaginatedSearch(context.Background(), tdjobs.Query{"provider_id": "prov"}, 1, 10)
	if err != nil {
		t.Fatalf("PaginatedSearch: %v", err)
	}
	if len(p.Items) != 1 || p.Items[0].Job == nil {
		t.Fatalf("unexpected page %#v", p)
	}
	last := f.Last()
	q, _ := url.ParseQuery(last.Query)
	if last.Path != "/offers/pagination" || q.Get("provider_id") != "prov" || q.Get("per_page") != "10" {
		t.Fatalf("unexpected request %s?%s", last.Path, last.Query)
	}
}

func TestOffers_StatusRequests(t *testing.T) {
	f := newFake(t, http.StatusOK, offerJSON)
	c := newTestClient(t, f)
	ctx := context.Background()

	calls := map[string]func() (*tdjobs.Offer, error){
		"send":     func() (*tdjobs.Offer, error) { return c.Offers.Send(ctx, 7) },
		"withdraw": func() (*tdjobs.Offer, error) { return c.Offers.Withdraw(ctx, 7) },
		"accept":   func() (*tdjobs.Offer, error) { return c.Offers.Accept(ctx, 7) },
		"reject":   func() (*tdjobs.Offer, error) { return c.Offers.Reject(ctx, 7) },
		"return": func() (*tdjobs.Offer, error) {
			return c.Offers.Return(ctx, 7, tdjobs.ReturnParams{Reason: "too high"})
		},
		"resend": func() (*tdjobs.Offer, error) {
			return c.Offers.Resend(ctx, 7, tdjobs.ResendParams{Reason: "lowered", Metadata: map[string]any{"rate": 8}})
		},
	}
	for action, call := range calls {
		if _, err := call(); err != nil {
			t.Fatalf("%s: %v", action, err)
		}
		last := f.Last()
		if last.Method != http.MethodPut || last.Path != "/offers/7/"+action {
			t.Fatalf("%s: unexpected request %s %s", action, last.Method, last.Path)
		}
		switch action {
		case "return":
			if body := f.BodyMap(t); body["reason"] != "too high" {
				t.Fatalf("return: unexpected body %v", body)
			}
		case "resend":
			body := f.BodyMap(t)
			meta, _ := body["metadata"].(map[string]any)
			if body["reason"] != "lowered" || meta["rate"] != float64(8) {
				t.Fatalf("resend: unexpected body %v", body)
			}
		default:
			if len(last.Body) != 0 {
				t.Fatalf("%s: expected no body, got %s", action, last.Body)
			}
		}
	}
}

func TestOffers_StatusRequestInvalid(t *testing.T) {
	f := newFake(t, http.StatusBadRequest, `{"error":"cannot accept when status is CREATED"}`)
	c := newTestClient(t, f)

	if _, err := c.Offers.Accept(context.Background(), 7); !errors.Is(err, tdjobs.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestOffer_InstanceMethods(t *testing.T) {
	f := newFake(t, http.StatusOK, offerJSON)
	c := newTestClient(t, f)
	ctx := context.Background()

	o := c.Offers.Bind(&tdjobs.Offer{Job: &tdjobs.Job{ID: 5}, ProviderID: "prov"})
	if ok, err := o.Create(ctx); err != nil || !ok {
		t.Fatalf("Create: %v %v", ok, err)
	}
	if o.ID != 7 || o.Job.Name != "Paint" {
		t.Fatalf("receiver not refreshed: %#v", o)
	}
	if body := f.BodyMap(t); body["job_id"] != float64(5) {
		t.Fatalf("unexpected create body %v", body)
	}

	// nested entities come back bound as well
	if ok, err := o.Job.Activate(ctx); err != nil || !ok {
		t.Fatalf("nested job Activate: %v %v", ok, err)
	}

	o.Metadata = map[string]any{"rate": 9}
	if ok, err := o.Resend(ctx, "new rate"); err != nil || !ok {
		t.Fatalf("Resend: %v %v", ok, err)
	}
	body := f.BodyMap(t)
	meta, _ := body["metadata"].(map[string]any)
	if f.Last().Path != "/offers/7/resend" || meta["rate"] != float64(9) || body["reason"] != "new rate" {
		t.Fatalf("unexpected resend %s %v", f.Last().Path, body)
	}

	if ok, err := o.Return(ctx, "why"); err != nil || !ok {
		t.Fatalf("Return: %v %v", ok, err)
	}
	for name, fn := range map[string]func(context.Context) (bool, error){
		"send": o.Send, "withdraw": o.Withdraw, "accept": o.Accept, "reject": o.Reject,
	} {
		if ok, err := fn(ctx); err != nil || !ok {
			t.Fatalf("%s: %v %v", name, ok, err)
		}
		if f.Last().Path != "/offers/7/"+name {
			t.Fatalf("%s: unexpected path %s", name, f.Last().Path)
		}
	}
}

func TestOffer_Unbound(t *testing.T) {
	o := &tdjobs.Offer{ID: 1}
	if ok, err := o.Send(context.Background()); ok || !errors.Is(err, tdjobs.ErrUnbound) {
		t.Fatalf("expected ErrUnbound, got %v %v", ok, err)
	}
}
