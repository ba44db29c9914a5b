package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/obs-osc-bridge/internal/bridge"
)

const (
	defaultBufferSize = 256
	writeTimeout      = 5 * time.Second
)

// Logger interface for optional logging.
type Logger interface {
	Warn(msg string, keysAndValues ...any)
}

// Recorder journals bridge activity. It implements bridge.Recorder.
//
// Records are queued and written by a single goroutine so command workers
// never wait on SQLite. When the queue is full the record is dropped and
// counted.
type Recorder struct {
	repo    Repository
	logger  Logger
	entries chan Entry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewRecorder starts a recorder writing to repo. bufferSize <= 0 uses the
// default; logger may be nil.
func NewRecorder(repo Repository, bufferSize int, logger Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	r := &Recorder{
		repo:    repo,
		logger:  logger,
		entries: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// RecordCommand implements bridge.Recorder.
func (r *Recorder) RecordCommand(rec bridge.CommandRecord) {
	r.enqueue(Entry{
		Kind:      KindCommand,
		Source:    rec.Source,
		Route:     rec.Route,
		Address:   rec.Address,
		Args:      rec.Args,
		Outcome:   rec.Outcome,
		Error:     rec.Error,
		Duration:  rec.Duration,
		CreatedAt: rec.Time,
	})
}

// RecordCue implements bridge.Recorder.
func (r *Recorder) RecordCue(rec bridge.CueRecord) {
	outcome := OutcomeSent
	if rec.Error != "" {
		outcome = OutcomeFailed
	}
	r.enqueue(Entry{
		Kind:      KindCue,
		Source:    rec.Trigger,
		Address:   rec.Address,
		Scene:     rec.Scene,
		Token:     rec.Token,
		Outcome:   outcome,
		Error:     rec.Error,
		CreatedAt: rec.Time,
	})
}

// RecordEvent implements bridge.Recorder. OBS events are not journaled;
// the cues they trigger are.
func (r *Recorder) RecordEvent(bridge.EventRecord) {}

// Dropped returns the number of records discarded because the queue was
// full or the recorder was closed.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Failed returns the number of records the repository rejected.
func (r *Recorder) Failed() uint64 {
	return r.failed.Load()
}

// Close stops accepting records and waits for queued ones to be written.
// Safe to call more than once.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.entries)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) enqueue(e Entry) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.entries <- e:
	default:
		r.dropped.Add(1)
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for e := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.repo.Create(ctx, &e)
		cancel()

		if err != nil {
			r.failed.Add(1)
			if r.logger != nil {
				r.logger.Warn("journal write failed", "kind", e.Kind, "address", e.Address, "error", err)
			}
		}
	}
}
