package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"trip-sync/internal/models"
	"trip-sync/internal/state"
)

const schema = `CREATE TABLE IF NOT EXISTS trips (
	id         TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// TripRepository stores one row per trip: the full trip blob plus the time
// of the last write.
type TripRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
	now func() time.Time
}

type tripRow struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OpenTripRepository opens the sqlite database at path and creates the
// trips table when missing
func OpenTripRepository(path string, log zerolog.Logger) (*TripRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sqlx.Connect("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open trip database: %w", err)
	}
	return NewTripRepository(db, log)
}

// NewTripRepository wraps an open connection
func NewTripRepository(db *sqlx.DB, log zerolog.Logger) (*TripRepository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create trips table: %w", err)
	}
	return &TripRepository{
		db:  db,
		log: log.With().Str("component", "TripRepository").Logger(),
		now: time.Now,
	}, nil
}

// LoadAll returns every stored trip. Rows whose blob does not decode are
// skipped and reported in a *state.UnreadableTripsError next to the trips
// that did decode.
func (r *TripRepository) LoadAll(ctx context.Context) ([]*models.Trip, error) {
	var rows []tripRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, data, updated_at FROM trips ORDER BY updated_at, id`); err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	trips := make([]*models.Trip, 0, len(rows))
	var unreadable []string
	for _, row := range rows {
		var trip *models.Trip
		if err := json.Unmarshal([]byte(row.Data), &trip); err != nil {
			r.log.Warn().Err(err).Str("trip", row.ID).Msg("Skipping undecodable trip row")
			unreadable = append(unreadable, row.ID)
			continue
		}
		if trip == nil {
			r.log.Warn().Str("trip", row.ID).Msg("Skipping null trip row")
			unreadable = append(unreadable, row.ID)
			continue
		}
		for _, b := range trip.Bookings {
			if err := b.DetailsError(); err != nil {
				r.log.Warn().Err(err).Str("trip", row.ID).Str("booking", b.ID).Msg("Dropped undecodable booking details")
			}
		}
		trips = append(trips, trip)
	}
	if len(unreadable) > 0 {
		return trips, &state.UnreadableTripsError{TripIDs: unreadable}
	}
	return trips, nil
}

// Upsert replaces the whole row for trip.ID
func (r *TripRepository) Upsert(ctx context.Context, trip *models.Trip) error {
	data, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO trips (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		trip.ID, string(data), r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert trip %s: %w", trip.ID, err)
	}
	return nil
}

// Delete removes the row for tripID. Deleting a missing trip is not an error.
func (r *TripRepository) Delete(ctx context.Context, tripID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, tripID); err != nil {
		return fmt.Errorf("failed to delete trip %s: %w", tripID, err)
	}
	return nil
}

// UpdatedAt returns the last write time of a trip row
func (r *TripRepository) UpdatedAt(ctx context.Context, tripID string) (time.Time, error) {
	var at time.Time
	if err := r.db.GetContext(ctx, &at, `SELECT updated_at FROM trips WHERE id = ?`, tripID); err != nil {
		return time.Time{}, fmt.Errorf("failed to read trip %s: %w", tripID, err)
	}
	return at, nil
}

func (r *TripRepository) Close() error {
	return r.db.Close()
}
