package repository

import (
	"context"
	"testing"
	"time"

	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-sync/internal/models"
)

func newTestFeed(t *testing.T) (*Feed, *nats.Conn) {
	t.Helper()
	srv := natstest.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return NewFeed(nc, "", zerolog.Nop()), nc
}

func receive(t *testing.T, ch <-chan *models.Trip) *models.Trip {
	t.Helper()
	select {
	case trip := <-ch:
		return trip
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
		return nil
	}
}

func TestFeedPublishReachesSubscriber(t *testing.T) {
	ctx := context.Background()
	feed, nc := newTestFeed(t)

	got := make(chan *models.Trip, 4)
	unsubscribe, err := feed.Subscribe(ctx, "T", func(trip *models.Trip) { got <- trip })
	require.NoError(t, err)
	other, err := feed.Subscribe(ctx, "U", func(trip *models.Trip) { t.Errorf("unexpected change for %s", trip.ID) })
	require.NoError(t, err)
	defer other()
	require.NoError(t, nc.Flush())

	trip := &models.Trip{
		ID:    "T",
		Title: "Madeira",
		DailyItinerary: []models.DailyItinerary{
			{Day: 1, Activities: []*models.Activity{{ID: "a", Time: "08:00", Location: "Pico do Arieiro"}}},
		},
		Bookings: []models.Booking{{ID: "f", Type: models.BookingFlight, Details: models.FlightDetails{FlightNumber: "TP1687"}}},
	}
	require.NoError(t, feed.Publish(ctx, trip))

	pushed := receive(t, got)
	assert.Equal(t, "Madeira", pushed.Title)
	assert.Equal(t, "Pico do Arieiro", pushed.DailyItinerary[0].Activities[0].Location)
	assert.Equal(t, models.FlightDetails{FlightNumber: "TP1687"}, pushed.Bookings[0].Details)
	assert.NotSame(t, trip, pushed)

	require.NoError(t, unsubscribe())
	require.NoError(t, feed.Publish(ctx, trip))
	require.NoError(t, nc.Flush())
	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestFeedDropsMalformedMessages(t *testing.T) {
	ctx := context.Background()
	feed, nc := newTestFeed(t)

	got := make(chan *models.Trip, 4)
	_, err := feed.Subscribe(ctx, "T", func(trip *models.Trip) { got <- trip })
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	require.NoError(t, nc.Publish(feed.Subject("T"), []byte("{broken")))
	require.NoError(t, nc.Publish(feed.Subject("T"), []byte("null")))
	require.NoError(t, feed.Publish(ctx, &models.Trip{ID: "T", Title: "after"}))

	assert.Equal(t, "after", receive(t, got).Title)
	assert.Empty(t, got)
}

func TestFeedPublishHonorsCancelledContext(t *testing.T) {
	feed, _ := newTestFeed(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, feed.Publish(ctx, &models.Trip{ID: "T"}), context.Canceled)
}

func TestRemoteFansOutThroughFeed(t *testing.T) {
	ctx := context.Background()
	feed, nc := newTestFeed(t)
	remote := &Remote{Trips: newTestRepository(t), Feed: feed}

	got := make(chan *models.Trip, 1)
	unsubscribe, err := remote.Subscribe(ctx, "T", func(trip *models.Trip) { got <- trip })
	require.NoError(t, err)
	defer unsubscribe()
	require.NoError(t, nc.Flush())

	require.NoError(t, remote.Upsert(ctx, &models.Trip{ID: "T", Title: "Azores"}))
	assert.Equal(t, "Azores", receive(t, got).Title)

	trips, err := remote.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, trips, 1)
}
