package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"trip-sync/internal/models"
)

// LoadAll replaces the trip list with the remote one. Every trip goes
// through the sanitizer first. Trips whose remote row could not be read keep
// their local copy. The active trip id survives when the trip is still
// present.
func (d *Dispatcher) LoadAll(ctx context.Context) (*State, error) {
	d.store.beginSync()
	defer d.store.endSync()

	remote, err := d.repo.LoadAll(ctx)
	var unreadable *UnreadableTripsError
	if errors.As(err, &unreadable) {
		d.log.Warn().Strs("trips", unreadable.TripIDs).Msg("Keeping local copies of unreadable trips")
	} else if err != nil {
		return d.store.Snapshot(), fmt.Errorf("failed to load trips: %w", err)
	}

	trips := make([]*models.Trip, 0, len(remote))
	for _, t := range remote {
		if clean := d.sanitize(t); clean != nil {
			trips = append(trips, clean)
		}
	}

	_, next := d.store.replace(func(prev *State) *State {
		s := &State{Trips: trips}
		if unreadable != nil {
			for _, id := range unreadable.TripIDs {
				local, ok := prev.Trip(id)
				if _, dup := s.Trip(id); ok && !dup {
					s.Trips = append(s.Trips, local)
				}
			}
		}
		if _, ok := s.Trip(prev.ActiveTripID); ok {
			s.ActiveTripID = prev.ActiveTripID
		}
		return s
	})
	d.log.Info().Int("trips", len(next.Trips)).Msg("Loaded trips from remote store")
	return next, nil
}

// Restore seeds the store from a locally cached tree, sanitizing each trip
func (d *Dispatcher) Restore(cached *State) *State {
	if cached == nil {
		return d.store.Snapshot()
	}
	trips := make([]*models.Trip, 0, len(cached.Trips))
	for _, t := range cached.Trips {
		if clean := d.sanitize(t); clean != nil {
			trips = append(trips, clean)
		}
	}
	_, next := d.store.replace(func(*State) *State {
		return &State{Trips: trips, ActiveTripID: cached.ActiveTripID}
	})
	return next
}

// ApplyRemote handles a change-feed push: the sanitized trip replaces the
// local one wholesale. Pushes for trips not held locally are ignored. With
// the revision guard on, pushes that are not newer than the local trip are
// dropped; otherwise the latest write wins, even when it is stale.
func (d *Dispatcher) ApplyRemote(trip *models.Trip) *State {
	clean := d.sanitize(trip)
	if clean == nil {
		d.metrics.push("dropped")
		return d.store.Snapshot()
	}

	outcome := "applied"
	_, next := d.store.replace(func(prev *State) *State {
		i := prev.index(clean.ID)
		if i < 0 {
			outcome = "unknown_trip"
			return prev
		}
		if d.guard && clean.Revision <= prev.Trips[i].Revision {
			outcome = "stale"
			return prev
		}
		return prev.withTrip(i, clean)
	})
	d.metrics.push(outcome)
	d.log.Debug().Str("trip", clean.ID).Str("outcome", outcome).Msg("Change feed push")
	return next
}

// Subscribe routes the remote change feed of one trip into ApplyRemote
func (d *Dispatcher) Subscribe(ctx context.Context, tripID string) (func() error, error) {
	unsubscribe, err := d.repo.Subscribe(ctx, tripID, func(t *models.Trip) {
		d.ApplyRemote(t)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to trip %s: %w", tripID, err)
	}
	return unsubscribe, nil
}

// WatchActive keeps exactly one change-feed subscription open: the one for
// the active trip. It follows active trip changes until ctx is done.
func (d *Dispatcher) WatchActive(ctx context.Context) {
	var (
		mu          sync.Mutex
		watching    string
		unsubscribe func() error
	)
	switchTo := func(tripID string) {
		mu.Lock()
		defer mu.Unlock()
		if tripID == watching {
			return
		}
		if unsubscribe != nil {
			if err := unsubscribe(); err != nil {
				d.log.Warn().Err(err).Str("trip", watching).Msg("Failed to unsubscribe")
			}
			unsubscribe = nil
		}
		watching = tripID
		if tripID == "" || ctx.Err() != nil {
			return
		}
		unsub, err := d.Subscribe(ctx, tripID)
		if err != nil {
			d.log.Error().Err(err).Msg("Change feed unavailable")
			return
		}
		unsubscribe = unsub
	}

	d.store.OnChange(func(prev, next *State) {
		if prev.ActiveTripID != next.ActiveTripID {
			switchTo(next.ActiveTripID)
		}
	})
	switchTo(d.store.Snapshot().ActiveTripID)

	go func() {
		<-ctx.Done()
		switchTo("")
	}()
}

func (d *Dispatcher) sanitize(t *models.Trip) *models.Trip {
	if t == nil || t.ID == "" {
		d.log.Debug().Msg("Dropped trip without id")
		return nil
	}
	clean, dropped := Sanitize(t)
	if dropped > 0 {
		d.metrics.dropped(dropped)
		d.log.Debug().Str("trip", t.ID).Int("dropped", dropped).Msg("Sanitized malformed activities")
	}
	return clean
}
