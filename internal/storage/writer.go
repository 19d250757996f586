package storage

import (
	"sync"

	"github.com/rs/zerolog"

	"trip-sync/internal/state"
)

// Writer saves the tree from a single goroutine. Notify never blocks and a
// burst of changes collapses into one save of whatever current returns at
// that moment, so the file only ever moves forward.
type Writer struct {
	storage *Storage
	current func() *state.State
	log     zerolog.Logger

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWriter starts the background saver
func NewWriter(s *Storage, current func() *state.State, log zerolog.Logger) *Writer {
	w := &Writer{
		storage: s,
		current: current,
		log:     log.With().Str("component", "CacheWriter").Logger(),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

// Notify schedules a save
func (w *Writer) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			if err := w.save(); err != nil {
				w.log.Error().Err(err).Str("path", w.storage.Path()).Msg("Failed to write local cache")
			}
		case <-w.stop:
			return
		}
	}
}

func (w *Writer) save() error {
	return w.storage.Save(w.current())
}

// Close stops the saver and writes the newest tree one last time
func (w *Writer) Close() error {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
	return w.save()
}
