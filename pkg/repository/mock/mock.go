package mock

import (
	"context"
	"sync"
	"time"

	"github.com/talosdigital/tdjobs/pkg/repository"
	"github.com/talosdigital/tdjobs/pkg/tdjobs"
)

// Store is an in-memory repository.Store for tests. Err, when set, is
// returned by every call so error paths can be exercised.
type Store struct {
	mu          sync.Mutex
	Err         error
	jobs        map[int64]tdjobs.Job
	offers      map[int64]repository.OfferRow
	invitations map[int64]tdjobs.Invitation
	nextID      int64
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		jobs:        map[int64]tdjobs.Job{},
		offers:      map[int64]repository.OfferRow{},
		invitations: map[int64]tdjobs.Invitation{},
	}
}

// Fail makes every following call return err; nil restores normal behaviour.
func (m *Store) Fail(err error) {
	m.mu.Lock()
	m.Err = err
	m.mu.Unlock()
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Store) CreateJob(ctx context.Context, j *tdjobs.Job) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	id := m.id()
	stored := *j
	stored.ID = id
	m.jobs[id] = stored
	return id, nil
}

func (m *Store) GetJob(ctx context.Context, id int64) (*tdjobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (m *Store) UpdateJob(ctx context.Context, j *tdjobs.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.jobs[j.ID] = *j
	return nil
}

func (m *Store) ListJobs(ctx context.Context) ([]tdjobs.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []tdjobs.Job{}
	for id := int64(1); id <= m.nextID; id++ {
		if j, ok := m.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *Store) CreateOffer(ctx context.Context, o *tdjobs.Offer) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	id := m.id()
	stored := *o
	stored.ID, stored.Job, stored.Invitation = id, nil, nil
	m.offers[id] = repository.OfferRow{Offer: stored, Created: time.Now().UTC()}
	return id, nil
}

func (m *Store) GetOffer(ctx context.Context, id int64) (*tdjobs.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	row, ok := m.offers[id]
	if !ok {
		return nil, nil
	}
	o := row.Offer
	return &o, nil
}

func (m *Store) UpdateOffer(ctx context.Context, o *tdjobs.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	row := m.offers[o.ID]
	row.Offer = *o
	row.Offer.Job, row.Offer.Invitation = nil, nil
	m.offers[o.ID] = row
	return nil
}

func (m *Store) ListOffers(ctx context.Context) ([]repository.OfferRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []repository.OfferRow{}
	for id := int64(1); id <= m.nextID; id++ {
		if row, ok := m.offers[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *Store) CreateInvitation(ctx context.Context, inv *tdjobs.Invitation) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	id := m.id()
	stored := *inv
	stored.ID, stored.Job = id, nil
	m.invitations[id] = stored
	return id, nil
}

func (m *Store) GetInvitation(ctx context.Context, id int64) (*tdjobs.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	inv, ok := m.invitations[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (m *Store) UpdateInvitation(ctx context.Context, inv *tdjobs.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	stored := *inv
	stored.Job = nil
	m.invitations[inv.ID] = stored
	return nil
}

func (m *Store) ListInvitations(ctx context.Context) ([]tdjobs.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []tdjobs.Invitation{}
	for id := int64(1); id <= m.nextID; id++ {
		if inv, ok := m.invitations[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}
