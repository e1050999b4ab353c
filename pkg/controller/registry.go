package controller

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/maplebus/maple-go/pkg/wire"
	"github.com/maplebus/maple-go/pkg/worker"
)

// Callback is invoked, on the watcher's own worker goroutine, with the
// address of the controller that matched and the full button bitfield
// at the time of the match.
//
// A callback must not unregister its own watcher: unregistration joins
// the watcher's worker and would deadlock on itself.
type Callback func(addr wire.Address, buttons Button)

// DefaultMaxWatchers is the default cap on registered combo watchers.
const DefaultMaxWatchers = 64

// watcher is one registered (address filter, button mask, callback)
// triple and its worker context.
type watcher struct {
	addr wire.Address // AddressAny matches every controller
	mask Button
	fn   Callback
	wrk  *worker.Worker

	// latched packs the matched address (high byte of the upper half)
	// and button bitfield, stored by dispatch and loaded by the worker
	// entry. Atomic because the worker reads it without the registry
	// lock.
	latched atomic.Uint32
}

func (w *watcher) latch(addr wire.Address, buttons Button) {
	w.latched.Store(uint32(addr)<<16 | uint32(buttons))
}

func (w *watcher) latchedPair() (wire.Address, Button) {
	v := w.latched.Load()
	return wire.Address(v >> 16), Button(v)
}

// matchesFilter reports whether this watcher is removed by an
// unregister request for (addr, mask, fn). A nil fn matches any stored
// callback; a non-nil fn must be the stored one.
func (w *watcher) matchesFilter(addr wire.Address, mask Button, fn Callback) bool {
	if w.addr != addr || w.mask != mask {
		return false
	}
	if fn == nil {
		return true
	}
	return reflect.ValueOf(fn).Pointer() == reflect.ValueOf(w.fn).Pointer()
}

// ComboRegistry is the thread-safe collection of combo watchers.
//
// One mutex serializes every mutation and every dispatch scan. Mutation
// paths (Register, Unregister) block on the lock; the dispatch path
// only ever tries the lock and skips the cycle when it is contended,
// because it runs on the bus delivery goroutine.
type ComboRegistry struct {
	mu       sync.Mutex
	watchers []*watcher
	closed   bool
	max      int
}

// NewComboRegistry creates an empty registry. maxWatchers <= 0 selects
// DefaultMaxWatchers.
func NewComboRegistry(maxWatchers int) *ComboRegistry {
	if maxWatchers <= 0 {
		maxWatchers = DefaultMaxWatchers
	}
	return &ComboRegistry{max: maxWatchers}
}

// Register adds a watcher for the button combination mask on the
// controller at addr (AddressAny for any controller). The watcher's
// worker context is created first; if that fails, or the registry is
// full or closed, the registry is left unchanged and the error
// returned.
//
// Address-specific watchers are inserted at the head of the scan
// order, wildcard watchers at the tail. Scan order does not affect
// match semantics: dispatch evaluates every watcher.
func (r *ComboRegistry) Register(addr wire.Address, mask Button, fn Callback) error {
	if fn == nil {
		return ErrNilCallback
	}

	w := &watcher{addr: addr, mask: mask, fn: fn}
	wrk, err := worker.New(func() {
		a, b := w.latchedPair()
		w.fn(a, b)
	}, worker.Options{
		Label: fmt.Sprintf("combo %s %s", addr, mask),
	})
	if err != nil {
		return fmt.Errorf("creating combo worker: %w", err)
	}
	w.wrk = wrk

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		wrk.Destroy()
		return ErrRegistryClosed
	}
	if len(r.watchers) >= r.max {
		r.mu.Unlock()
		wrk.Destroy()
		return fmt.Errorf("%w: limit %d", ErrTooManyWatchers, r.max)
	}
	if addr.IsWildcard() {
		r.watchers = append(r.watchers, w)
	} else {
		r.watchers = append([]*watcher{w}, r.watchers...)
	}
	r.mu.Unlock()
	return nil
}

// Unregister removes every watcher registered for exactly (addr, mask).
// A nil fn removes them regardless of their callback; a non-nil fn
// removes only watchers holding that same callback. Callback identity
// is by code pointer, so closures built from the same function literal
// count as the same callback. Each removed
// watcher's worker is destroyed synchronously, so no callback for it
// can start after Unregister returns; a callback already running is
// allowed to finish first. Returns the number of watchers removed.
func (r *ComboRegistry) Unregister(addr wire.Address, mask Button, fn Callback) int {
	return r.remove(func(w *watcher) bool {
		return w.matchesFilter(addr, mask, fn)
	})
}

// UnregisterAll removes every watcher and destroys every worker.
// Returns the number of watchers removed.
func (r *ComboRegistry) UnregisterAll() int {
	return r.remove(func(*watcher) bool { return true })
}

func (r *ComboRegistry) remove(match func(*watcher) bool) int {
	r.mu.Lock()
	var removed []*watcher
	kept := r.watchers[:0]
	for _, w := range r.watchers {
		if match(w) {
			removed = append(removed, w)
		} else {
			kept = append(kept, w)
		}
	}
	r.watchers = kept
	r.mu.Unlock()

	// Workers are joined outside the list lock so a callback that is
	// mid-flight and touching the registry cannot deadlock the
	// removal.
	for _, w := range removed {
		w.wrk.Destroy()
	}
	return len(removed)
}

// Close removes every watcher and rejects further registrations.
func (r *ComboRegistry) Close() int {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.UnregisterAll()
}

// Len returns the number of registered watchers.
func (r *ComboRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watchers)
}

// Dispatch scans the registry against one translated poll response.
// It never blocks: when the lock is contended by a concurrent
// registration or removal, the whole cycle is skipped and Dispatch
// reports ok=false.
//
// For every watcher whose filter is wildcard or equal to addr and
// whose full mask is held, the current (address, bitfield) pair is
// latched and the watcher's worker woken. Dispatch is level-triggered;
// there is no edge detection or debounce.
func (r *ComboRegistry) Dispatch(addr wire.Address, st State) (matched int, ok bool) {
	if !r.mu.TryLock() {
		return 0, false
	}
	defer r.mu.Unlock()

	for _, w := range r.watchers {
		if !w.addr.IsWildcard() && w.addr != addr {
			continue
		}
		if st.Buttons.Has(w.mask) {
			w.latch(addr, st.Buttons)
			w.wrk.Wake()
			matched++
		}
	}
	return matched, true
}
