package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trip-sync/internal/models"
)

// ErrTripNotFound is returned by lookups on ids the store does not hold
var ErrTripNotFound = errors.New("trip not found")

// UnreadableTripsError is returned by Repository.LoadAll together with the
// trips that did decode. Local copies of the listed trips are kept.
type UnreadableTripsError struct {
	TripIDs []string
}

func (e *UnreadableTripsError) Error() string {
	return fmt.Sprintf("unreadable trip rows: %s", strings.Join(e.TripIDs, ", "))
}

// Repository is the remote store the dispatcher persists trips to.
type Repository interface {
	LoadAll(ctx context.Context) ([]*models.Trip, error)
	Upsert(ctx context.Context, trip *models.Trip) error
	Delete(ctx context.Context, tripID string) error
	Subscribe(ctx context.Context, tripID string, onChange func(*models.Trip)) (func() error, error)
}

// Notifier shows a non-blocking message to the user
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type Config struct {
	Logger   zerolog.Logger
	Notifier Notifier
	Metrics  *Metrics
	// StrictReorder rejects manual orders that are not a permutation of the
	// current ids instead of applying them as given.
	StrictReorder bool
	// RevisionGuard stamps local writes with an increasing revision and drops
	// change-feed pushes that are not newer than the local trip.
	RevisionGuard bool
	// NewID generates entity ids; defaults to random UUIDs.
	NewID func() string
}

// Dispatcher applies named mutations to the store and persists the affected
// trip in the background. Remote calls for one trip run one at a time in
// mutation order. Persistence failures are reported, never retried and never
// rolled back.
type Dispatcher struct {
	store    *Store
	repo     Repository
	log      zerolog.Logger
	notifier Notifier
	metrics  *Metrics
	strict   bool
	guard    bool
	newID    func() string
	pending  sync.WaitGroup

	writersMu sync.Mutex
	writers   map[string]*tripWriter
}

// writeJob is one remote call for a trip
type writeJob struct {
	op   string
	call func(ctx context.Context) error
}

// tripWriter serializes the remote calls of one trip. Only the newest queued
// job is kept: it carries the whole trip, so older queued ones are obsolete.
type tripWriter struct {
	next *writeJob
}

// NewDispatcher creates a dispatcher over store persisting to repo
func NewDispatcher(store *Store, repo Repository, cfg *Config) *Dispatcher {
	if cfg == nil {
		cfg = &Config{Logger: zerolog.Nop()}
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Dispatcher{
		store:    store,
		repo:     repo,
		log:      cfg.Logger.With().Str("component", "Dispatcher").Logger(),
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		strict:   cfg.StrictReorder,
		guard:    cfg.RevisionGuard,
		newID:    newID,
		writers:  make(map[string]*tripWriter),
	}
}

// Store returns the store the dispatcher writes to
func (d *Dispatcher) Store() *Store {
	return d.store
}

// Wait blocks until every background remote call started so far finished
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// mutateTrip runs fn on a deep copy of the trip. fn reports whether it
// changed anything; when it did not, or the trip is missing, the previous
// tree is returned untouched and nothing is persisted.
func (d *Dispatcher) mutateTrip(op, tripID string, fn func(t *models.Trip) bool) *State {
	_, next := d.store.replace(func(prev *State) *State {
		i := prev.index(tripID)
		if i < 0 {
			d.log.Debug().Str("op", op).Str("trip", tripID).Msg("Trip not found, ignoring")
			return prev
		}
		trip := prev.Trips[i].Clone()
		if !fn(trip) {
			return prev
		}
		if d.guard {
			trip.Revision++
		}
		d.persist(op, trip)
		return prev.withTrip(i, trip)
	})
	return next
}

// persist upserts the whole trip without blocking the caller. It is called
// under the store lock so jobs are queued in the order the trees were built.
func (d *Dispatcher) persist(op string, trip *models.Trip) {
	d.remote(op, trip.ID, func(ctx context.Context) error {
		return d.repo.Upsert(ctx, trip)
	})
}

// remote queues call behind the in-flight call of the same trip, replacing
// any job still waiting there. A trip without a writer gets one.
func (d *Dispatcher) remote(op, tripID string, call func(ctx context.Context) error) {
	if d.repo == nil {
		return
	}
	job := &writeJob{op: op, call: call}

	d.writersMu.Lock()
	defer d.writersMu.Unlock()
	if w, ok := d.writers[tripID]; ok {
		if w.next != nil {
			d.metrics.superseded(w.next.op)
			d.log.Debug().Str("op", w.next.op).Str("trip", tripID).Msg("Queued write superseded")
		}
		w.next = job
		return
	}

	w := &tripWriter{next: job}
	d.writers[tripID] = w
	d.store.beginSync()
	d.metrics.syncStarted()
	d.pending.Add(1)
	go d.drain(tripID, w)
}

// drain runs the jobs of one trip until none is queued
func (d *Dispatcher) drain(tripID string, w *tripWriter) {
	defer d.pending.Done()
	defer d.store.endSync()
	defer d.metrics.syncFinished()

	for {
		d.writersMu.Lock()
		job := w.next
		if job == nil {
			delete(d.writers, tripID)
			d.writersMu.Unlock()
			return
		}
		w.next = nil
		d.writersMu.Unlock()

		d.run(tripID, job)
	}
}

func (d *Dispatcher) run(tripID string, job *writeJob) {
	ctx := context.Background()
	if err := job.call(ctx); err != nil {
		d.metrics.persistResult(job.op, err)
		d.log.Error().Err(err).Str("op", job.op).Str("trip", tripID).Msg("Remote sync failed")
		d.notify(ctx, fmt.Sprintf("⚠️ Could not save trip changes (%s). Your edits are kept on this device.", job.op))
		return
	}
	d.metrics.persistResult(job.op, nil)
	d.log.Debug().Str("op", job.op).Str("trip", tripID).Msg("Trip synced")
}

func (d *Dispatcher) notify(ctx context.Context, message string) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, message); err != nil {
		d.log.Warn().Err(err).Msg("Failed to deliver notification")
	}
}

func (d *Dispatcher) id(given string) string {
	if given != "" {
		return given
	}
	return d.newID()
}
