package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"trip-sync/internal/models"
)

// DefaultSubjectPrefix is the subject namespace of trip change messages
const DefaultSubjectPrefix = "tripsync.trips"

// Feed is the realtime change channel: every stored trip is broadcast in
// full on its own subject.
type Feed struct {
	nc     *nats.Conn
	prefix string
	log    zerolog.Logger
}

// ConnectFeed dials the NATS server at url
func ConnectFeed(url, prefix string, log zerolog.Logger) (*Feed, error) {
	feedLog := log.With().Str("component", "ChangeFeed").Logger()
	nc, err := nats.Connect(url,
		nats.Name("tripsync"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				feedLog.Warn().Err(err).Msg("Disconnected from NATS")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			feedLog.Info().Str("url", c.ConnectedUrl()).Msg("Reconnected to NATS")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewFeed(nc, prefix, log), nil
}

// NewFeed wraps an existing connection
func NewFeed(nc *nats.Conn, prefix string, log zerolog.Logger) *Feed {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Feed{nc: nc, prefix: prefix, log: log.With().Str("component", "ChangeFeed").Logger()}
}

// Subject returns the subject carrying changes of tripID
func (f *Feed) Subject(tripID string) string {
	return f.prefix + "." + tripID
}

// Publish broadcasts the full trip. NATS publishes are not cancelable, so
// the context is only checked up front.
func (f *Feed) Publish(ctx context.Context, trip *models.Trip) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip: %w", err)
	}
	if err := f.nc.Publish(f.Subject(trip.ID), data); err != nil {
		return fmt.Errorf("failed to publish trip %s: %w", trip.ID, err)
	}
	return nil
}

// Subscribe delivers every decodable change of tripID to onChange.
// Undecodable payloads are logged and dropped.
func (f *Feed) Subscribe(ctx context.Context, tripID string, onChange func(*models.Trip)) (func() error, error) {
	sub, err := f.nc.Subscribe(f.Subject(tripID), func(msg *nats.Msg) {
		trip, err := DecodeTrip(msg.Data)
		if err != nil {
			f.log.Warn().Err(err).Str("subject", msg.Subject).Msg("Dropping malformed change message")
			return
		}
		onChange(trip)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", f.Subject(tripID), err)
	}
	return sub.Unsubscribe, nil
}

// Close drains pending messages and closes the connection
func (f *Feed) Close() error {
	return f.nc.Drain()
}

// DecodeTrip parses a change message. A null payload or one without an id
// is an error.
func DecodeTrip(data []byte) (*models.Trip, error) {
	var trip *models.Trip
	if err := json.Unmarshal(data, &trip); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trip: %w", err)
	}
	if trip == nil || trip.ID == "" {
		return nil, fmt.Errorf("trip payload without id")
	}
	return trip, nil
}
