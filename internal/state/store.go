package state

import (
	"slices"
	"sync"
	"sync/atomic"

	"trip-sync/internal/models"
)

// State is one immutable snapshot of the tree. A new State is built for every
// visible change; trips that did not change keep their pointer identity.
type State struct {
	Trips        []*models.Trip `json:"trips"`
	ActiveTripID string         `json:"activeTripId"`
}

// Trip finds a trip by id in this snapshot
func (s *State) Trip(id string) (*models.Trip, bool) {
	if i := s.index(id); i >= 0 {
		return s.Trips[i], true
	}
	return nil, false
}

// ActiveTrip resolves the active trip id. A dangling id reports false.
func (s *State) ActiveTrip() (*models.Trip, bool) {
	if s.ActiveTripID == "" {
		return nil, false
	}
	return s.Trip(s.ActiveTripID)
}

func (s *State) index(id string) int {
	return slices.IndexFunc(s.Trips, func(t *models.Trip) bool { return t.ID == id })
}

// withTrip returns a new State with the trip at i swapped for trip
func (s *State) withTrip(i int, trip *models.Trip) *State {
	trips := slices.Clone(s.Trips)
	trips[i] = trip
	return &State{Trips: trips, ActiveTripID: s.ActiveTripID}
}

// ChangeFunc receives the previous and next snapshot after a replace
type ChangeFunc func(prev, next *State)

// Store owns the current snapshot. The sync counter is an indicator only:
// it never blocks operations.
type Store struct {
	mu        sync.Mutex
	state     *State
	inFlight  atomic.Int64
	listeners []ChangeFunc
}

// NewStore creates a store holding initial, or an empty tree when nil
func NewStore(initial *State) *Store {
	if initial == nil {
		initial = &State{}
	}
	return &Store{state: initial}
}

// Snapshot returns the current tree. Callers must not modify it.
func (s *Store) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Trips returns the trips of the current snapshot
func (s *Store) Trips() []*models.Trip {
	return s.Snapshot().Trips
}

func (s *Store) Trip(id string) (*models.Trip, bool) {
	return s.Snapshot().Trip(id)
}

func (s *Store) ActiveTrip() (*models.Trip, bool) {
	return s.Snapshot().ActiveTrip()
}

// Syncing reports whether any remote call is outstanding
func (s *Store) Syncing() bool {
	return s.inFlight.Load() > 0
}

func (s *Store) beginSync() { s.inFlight.Add(1) }
func (s *Store) endSync()   { s.inFlight.Add(-1) }

// OnChange registers fn to run after every replace that produced a new tree
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// replace is the single write primitive. fn runs under the store lock and
// returns the next tree; returning prev itself means nothing changed.
func (s *Store) replace(fn func(prev *State) *State) (prev, next *State) {
	s.mu.Lock()
	prev = s.state
	next = fn(prev)
	if next == nil {
		next = prev
	}
	s.state = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	if next != prev {
		for _, l := range listeners {
			l(prev, next)
		}
	}
	return prev, next
}
