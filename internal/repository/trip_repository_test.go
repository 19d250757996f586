package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-sync/internal/models"
	"trip-sync/internal/state"
)

var _ state.Repository = (*Remote)(nil)

func newTestRepository(t *testing.T) *TripRepository {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo, err := NewTripRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func TestTripRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return at }

	trip := &models.Trip{
		ID:    "T",
		Title: "Hokkaido",
		DailyItinerary: []models.DailyItinerary{
			{Day: 1, Date: "2025-02-01", Activities: []*models.Activity{{ID: "a", Time: "09:00", Location: "Otaru"}}},
		},
		Bookings: []models.Booking{{ID: "b", Type: models.BookingRental, Details: models.RentalDetails{Company: "Toyota"}}},
	}
	require.NoError(t, repo.Upsert(ctx, trip))

	trip.Title = "Hokkaido in winter"
	require.NoError(t, repo.Upsert(ctx, trip))

	trips, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "Hokkaido in winter", trips[0].Title)
	assert.Equal(t, "Otaru", trips[0].DailyItinerary[0].Activities[0].Location)
	assert.Equal(t, models.RentalDetails{Company: "Toyota"}, trips[0].Bookings[0].Details)

	updated, err := repo.UpdatedAt(ctx, "T")
	require.NoError(t, err)
	assert.True(t, at.Equal(updated))

	require.NoError(t, repo.Delete(ctx, "T"))
	require.NoError(t, repo.Delete(ctx, "T"))
	trips, err = repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestTripRepositorySkipsCorruptRows(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.db.Exec(`INSERT INTO trips (id, data, updated_at) VALUES
		('bad', '{not json', CURRENT_TIMESTAMP),
		('null', 'null', CURRENT_TIMESTAMP),
		('ok', '{"id":"ok","dailyItinerary":[{"day":1,"activities":[null,{"id":"a"}]}]}', CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	trips, err := repo.LoadAll(ctx)
	var unreadable *state.UnreadableTripsError
	require.ErrorAs(t, err, &unreadable)
	assert.Equal(t, []string{"bad", "null"}, unreadable.TripIDs)
	require.Len(t, trips, 1)
	assert.Equal(t, "ok", trips[0].ID)
	assert.Len(t, trips[0].DailyItinerary[0].Activities, 2, "sanitizing is the core's job")
}

func TestTripRepositoryToleratesLooseFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, err := repo.db.Exec(`INSERT INTO trips (id, data, updated_at) VALUES ('T', ?, CURRENT_TIMESTAMP)`,
		`{"id":"T","title":"Porto","budgetTotal":"","dailyItinerary":[{"day":1,"activities":[null,{"id":"a","cost":""}]}],`+
			`"bookings":[{"id":"h","type":"Hotel","title":"Inn","details":{"nights":"2"}}]}`)
	require.NoError(t, err)

	trips, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.True(t, trips[0].DailyItinerary[0].Activities[1].Cost.IsZero())
	assert.True(t, trips[0].BudgetTotal.IsZero())
	require.Len(t, trips[0].Bookings, 1)
	assert.Equal(t, "Inn", trips[0].Bookings[0].Title)
	assert.Nil(t, trips[0].Bookings[0].Details)
}

func TestLoadAllKeepsActiveTripWithLooseRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	_, err := repo.db.Exec(`INSERT INTO trips (id, data, updated_at) VALUES ('T', ?, CURRENT_TIMESTAMP)`,
		`{"id":"T","title":"Remote","dailyItinerary":[{"day":1,"activities":[null,{"id":"a","cost":""}]}]}`)
	require.NoError(t, err)

	local := &models.Trip{ID: "T", Title: "Local", DailyItinerary: []models.DailyItinerary{{Day: 1, Activities: []*models.Activity{}}}}
	d := state.NewDispatcher(state.NewStore(&state.State{Trips: []*models.Trip{local}, ActiveTripID: "T"}), &Remote{Trips: repo}, nil)

	s, err := d.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, s.Trips, 1)
	assert.Equal(t, "T", s.ActiveTripID)
	assert.Equal(t, "Remote", s.Trips[0].Title)
	require.Len(t, s.Trips[0].DailyItinerary[0].Activities, 1)
	assert.Equal(t, "a", s.Trips[0].DailyItinerary[0].Activities[0].ID)

	_, err = repo.db.Exec(`UPDATE trips SET data = '{broken' WHERE id = 'T'`)
	require.NoError(t, err)
	s, err = d.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, s.Trips, 1)
	assert.Equal(t, "T", s.ActiveTripID)
	assert.Equal(t, "Remote", s.Trips[0].Title)
}

func TestRemoteWithoutFeed(t *testing.T) {
	ctx := context.Background()
	remote := &Remote{Trips: newTestRepository(t)}

	require.NoError(t, remote.Upsert(ctx, &models.Trip{ID: "T"}))
	unsubscribe, err := remote.Subscribe(ctx, "T", func(*models.Trip) { t.Fatal("no feed, no pushes") })
	require.NoError(t, err)
	assert.NoError(t, unsubscribe())

	trips, err := remote.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, trips, 1)
}

func TestDecodeTrip(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"id":"T","title":"x"}`, false},
		{"null", `null`, true},
		{"no id", `{"title":"x"}`, true},
		{"garbage", `<html>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip, err := DecodeTrip([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "T", trip.ID)
		})
	}
}

func TestFeedSubject(t *testing.T) {
	f := NewFeed(nil, "", zerolog.Nop())
	assert.Equal(t, "tripsync.trips.abc", f.Subject("abc"))
}
