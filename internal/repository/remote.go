package repository

import (
	"context"
	"fmt"

	"trip-sync/internal/models"
)

// Remote joins the trip table and the change feed into the repository the
// dispatcher talks to. Feed may be nil, in which case nothing is broadcast
// and subscriptions never fire.
type Remote struct {
	Trips *TripRepository
	Feed  *Feed
}

func (r *Remote) LoadAll(ctx context.Context) ([]*models.Trip, error) {
	return r.Trips.LoadAll(ctx)
}

// Upsert stores the trip and then broadcasts it. A failed broadcast is
// reported even though the row was written.
func (r *Remote) Upsert(ctx context.Context, trip *models.Trip) error {
	if err := r.Trips.Upsert(ctx, trip); err != nil {
		return err
	}
	if r.Feed == nil {
		return nil
	}
	if err := r.Feed.Publish(ctx, trip); err != nil {
		return fmt.Errorf("trip saved but not broadcast: %w", err)
	}
	return nil
}

func (r *Remote) Delete(ctx context.Context, tripID string) error {
	return r.Trips.Delete(ctx, tripID)
}

func (r *Remote) Subscribe(ctx context.Context, tripID string, onChange func(*models.Trip)) (func() error, error) {
	if r.Feed == nil {
		return func() error { return nil }, nil
	}
	return r.Feed.Subscribe(ctx, tripID, onChange)
}
