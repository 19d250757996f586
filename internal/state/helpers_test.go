package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"trip-sync/internal/models"
)

type fakeRepo struct {
	mu          sync.Mutex
	trips       []*models.Trip
	upserts     []*models.Trip
	deletes     []string
	upsertErr   error
	loadErr     error
	subscribers map[string]func(*models.Trip)
	unsubs      []string
	// calls records upserts and deletes as "upsert:<id>" / "delete:<id>"
	calls []string
	// beforeUpsert runs outside the lock and may block
	beforeUpsert func(trip *models.Trip)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subscribers: make(map[string]func(*models.Trip))}
}

func (r *fakeRepo) LoadAll(ctx context.Context) ([]*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trips, r.loadErr
}

func (r *fakeRepo) Upsert(ctx context.Context, trip *models.Trip) error {
	if r.beforeUpsert != nil {
		r.beforeUpsert(trip)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts = append(r.upserts, trip)
	r.calls = append(r.calls, "upsert:"+trip.ID)
	return r.upsertErr
}

func (r *fakeRepo) Delete(ctx context.Context, tripID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, tripID)
	r.calls = append(r.calls, "delete:"+tripID)
	return r.upsertErr
}

func (r *fakeRepo) Subscribe(ctx context.Context, tripID string, onChange func(*models.Trip)) (func() error, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers[tripID] = onChange
	return func() error {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, tripID)
		r.unsubs = append(r.unsubs, tripID)
		return nil
	}, nil
}

func (r *fakeRepo) push(t *models.Trip) error {
	r.mu.Lock()
	fn, ok := r.subscribers[t.ID]
	r.mu.Unlock()
	if !ok {
		return errors.New("no subscriber for " + t.ID)
	}
	fn(t)
	return nil
}

func (r *fakeRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserts)
}

func (r *fakeRepo) upsertTitles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	titles := make([]string, 0, len(r.upserts))
	for _, t := range r.upserts {
		titles = append(titles, t.Title)
	}
	return titles
}

func (r *fakeRepo) lastUpsert() *models.Trip {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.upserts) == 0 {
		return nil
	}
	return r.upserts[len(r.upserts)-1]
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(ctx context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func activity(id, at string) *models.Activity {
	return &models.Activity{ID: id, Time: at, Location: "loc-" + id}
}

// tripWithDays builds a trip whose days hold the given activities
func tripWithDays(id string, days ...[]*models.Activity) *models.Trip {
	t := &models.Trip{ID: id, Title: "Trip " + id, StartDate: "2025-04-01"}
	for i, acts := range days {
		if acts == nil {
			acts = []*models.Activity{}
		}
		t.DailyItinerary = append(t.DailyItinerary, models.DailyItinerary{
			Day:        i + 1,
			Date:       fmt.Sprintf("2025-04-%02d", i+1),
			Activities: acts,
		})
	}
	if len(t.DailyItinerary) > 0 {
		t.EndDate = t.DailyItinerary[len(t.DailyItinerary)-1].Date
	}
	return t
}

func newTestDispatcher(cfg *Config, trips ...*models.Trip) (*Dispatcher, *fakeRepo) {
	repo := newFakeRepo()
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.NewID == nil {
		cfg.NewID = sequentialIDs()
	}
	initial := &State{Trips: trips}
	if len(trips) > 0 {
		initial.ActiveTripID = trips[0].ID
	}
	return NewDispatcher(NewStore(initial), repo, cfg), repo
}

func activityIDs(t *models.Trip, dayIndex int) []string {
	var ids []string
	for _, a := range t.DailyItinerary[dayIndex].Activities {
		ids = append(ids, a.ID)
	}
	return ids
}

func mustTrip(s *State, id string) *models.Trip {
	t, ok := s.Trip(id)
	if !ok {
		panic("trip " + id + " missing")
	}
	return t
}

func ptr[T any](v T) *T { return &v }
