package worker

import (
	"errors"
	"sync"
)

// Worker errors.
var (
	// ErrNilEntry indicates a worker was created without an entry point.
	ErrNilEntry = errors.New("nil worker entry point")
)

// Options configures a worker.
type Options struct {
	// Label is a human-readable name used in diagnostics.
	//
	// Stack size and scheduling priority are managed by the Go
	// runtime and are not configurable.
	Label string
}

// Worker is a single parked goroutine that runs its entry point once
// per wake. The zero value is not usable; create workers with New.
type Worker struct {
	entry func()
	label string

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	destroyOnce sync.Once
}

// New creates a worker and starts its goroutine in the parked state.
// The entry point is never invoked before the first Wake.
func New(entry func(), opts Options) (*Worker, error) {
	if entry == nil {
		return nil, ErrNilEntry
	}

	w := &Worker{
		entry: entry,
		label: opts.Label,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Label returns the worker's diagnostic label.
func (w *Worker) Label() string {
	return w.label
}

// Wake schedules one run of the entry point. It never blocks: a wake
// arriving while a previous wake is still pending coalesces with it,
// and a wake after Destroy is a no-op.
func (w *Worker) Wake() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Destroy stops the worker and blocks until its goroutine has exited.
// If the entry point is running, Destroy waits for it to return; a
// pending wake that has not started yet is discarded. Destroy is
// idempotent and safe to call from multiple goroutines.
func (w *Worker) Destroy() {
	w.destroyOnce.Do(func() {
		close(w.stop)
	})
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			return
		case <-w.wake:
			// Stop wins over a simultaneously pending wake.
			select {
			case <-w.stop:
				return
			default:
			}
			w.entry()
		}
	}
}
