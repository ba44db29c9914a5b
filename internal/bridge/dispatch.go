package bridge

import (
	"sync"
	"sync/atomic"
)

// Dispatcher defaults.
const (
	// DefaultQueueSize is the command buffer between receive and execution.
	DefaultQueueSize = 64

	// DefaultWorkers is the number of concurrent command workers.
	DefaultWorkers = 4
)

// Dispatcher runs commands on a bounded worker pool. A full queue drops
// the command rather than blocking the receiver.
type Dispatcher struct {
	queue   chan func()
	workers int

	mu      sync.RWMutex
	running bool
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup

	dropped atomic.Uint64

	// onPanic is called with the recovered value when a job panics.
	onPanic func(r any)
}

// NewDispatcher creates a dispatcher. Non-positive sizes use the defaults.
func NewDispatcher(queueSize, workers int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{
		queue:   make(chan func(), queueSize),
		workers: workers,
		done:    make(chan struct{}),
	}
}

// Start launches the workers. Calling Start again, or after Stop, is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running || d.stopped {
		return
	}
	d.running = true

	for range d.workers {
		d.wg.Add(1)
		go d.worker()
	}
}

// Submit enqueues job without blocking.
//
// Returns:
//   - ErrNotStarted before Start or after Stop
//   - ErrQueueFull when the queue is at capacity (the job is dropped)
func (d *Dispatcher) Submit(job func()) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.running {
		return ErrNotStarted
	}

	select {
	case d.queue <- job:
		return nil
	default:
		d.dropped.Add(1)
		return ErrQueueFull
	}
}

// Stop signals the workers and waits for running jobs to finish. Jobs
// still queued are discarded. Safe to call multiple times.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.running = false
	close(d.done)
	d.mu.Unlock()

	d.wg.Wait()
}

// Dropped returns the number of jobs rejected with ErrQueueFull.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Pending returns the number of queued jobs.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			d.drain()
			return
		case job := <-d.queue:
			d.run(job)
		}
	}
}

func (d *Dispatcher) run(job func()) {
	defer func() {
		if r := recover(); r != nil && d.onPanic != nil {
			d.onPanic(r)
		}
	}()
	job()
}

// drain discards queued jobs so nothing is left referencing a stopped bridge.
func (d *Dispatcher) drain() {
	for {
		select {
		case <-d.queue:
		default:
			return
		}
	}
}
