package controller

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplebus/maple-go/pkg/wire"
)

// fired collects callback invocations from watcher workers.
type fired struct {
	ch chan firing
}

type firing struct {
	addr    wire.Address
	buttons Button
}

func newFired() *fired {
	return &fired{ch: make(chan firing, 16)}
}

func (f *fired) callback(addr wire.Address, buttons Button) {
	f.ch <- firing{addr, buttons}
}

// wait returns the next firing, failing the test after a timeout.
func (f *fired) wait(t *testing.T) firing {
	t.Helper()
	select {
	case fi := <-f.ch:
		return fi
	case <-time.After(time.Second):
		t.Fatal("watcher callback did not fire")
		return firing{}
	}
}

// none asserts no firing arrives within the window.
func (f *fired) none(t *testing.T) {
	t.Helper()
	select {
	case fi := <-f.ch:
		t.Fatalf("unexpected firing: %+v", fi)
	case <-time.After(100 * time.Millisecond):
	}
}

var (
	padA = wire.MustAddress(wire.PortA, 0)
	padB = wire.MustAddress(wire.PortB, 0)
)

func TestRegisterNilCallback(t *testing.T) {
	r := NewComboRegistry(0)
	err := r.Register(wire.AddressAny, ButtonA, nil)
	require.ErrorIs(t, err, ErrNilCallback)
	assert.Equal(t, 0, r.Len())
}

func TestRegisterCap(t *testing.T) {
	r := NewComboRegistry(2)
	f := newFired()

	require.NoError(t, r.Register(wire.AddressAny, ButtonA, f.callback))
	require.NoError(t, r.Register(wire.AddressAny, ButtonB, f.callback))

	err := r.Register(wire.AddressAny, ButtonX, f.callback)
	require.ErrorIs(t, err, ErrTooManyWatchers)
	assert.Equal(t, 2, r.Len(), "failed registration must not mutate the list")
}

func TestWildcardWatcherFires(t *testing.T) {
	r := NewComboRegistry(0)
	defer r.Close()
	f := newFired()

	mask := ButtonStart | ButtonA | ButtonB
	require.NoError(t, r.Register(wire.AddressAny, mask, f.callback))

	// START+A+B+X held: the mask is satisfied, the latched bitfield
	// carries the extra button too.
	matched, ok := r.Dispatch(padA, State{Buttons: mask | ButtonX})
	require.True(t, ok)
	assert.Equal(t, 1, matched)

	fi := f.wait(t)
	assert.Equal(t, padA, fi.addr)
	assert.Equal(t, mask|ButtonX, fi.buttons)

	// Only START+A held: no wake.
	matched, ok = r.Dispatch(padA, State{Buttons: ButtonStart | ButtonA})
	require.True(t, ok)
	assert.Equal(t, 0, matched)
	f.none(t)
}

func TestAddressFilter(t *testing.T) {
	r := NewComboRegistry(0)
	defer r.Close()
	specific := newFired()
	wildcard := newFired()

	require.NoError(t, r.Register(padA, ButtonA, specific.callback))
	require.NoError(t, r.Register(wire.AddressAny, ButtonA, wildcard.callback))

	// A pressed on pad A: both fire.
	matched, ok := r.Dispatch(padA, State{Buttons: ButtonA})
	require.True(t, ok)
	assert.Equal(t, 2, matched)
	specific.wait(t)
	wildcard.wait(t)

	// A pressed on pad B: only the wildcard fires.
	matched, ok = r.Dispatch(padB, State{Buttons: ButtonA})
	require.True(t, ok)
	assert.Equal(t, 1, matched)
	fi := wildcard.wait(t)
	assert.Equal(t, padB, fi.addr)
	specific.none(t)
}

func TestHeldComboRefiresEveryTick(t *testing.T) {
	r := NewComboRegistry(0)
	defer r.Close()
	f := newFired()

	require.NoError(t, r.Register(wire.AddressAny, ButtonA, f.callback))

	for i := 0; i < 3; i++ {
		_, ok := r.Dispatch(padA, State{Buttons: ButtonA})
		require.True(t, ok)
		f.wait(t)
	}
}

func TestUnregisterMatching(t *testing.T) {
	r := NewComboRegistry(0)
	defer r.Close()
	f := newFired()

	require.NoError(t, r.Register(padA, ButtonA, f.callback))
	require.NoError(t, r.Register(padA, ButtonB, f.callback))
	require.NoError(t, r.Register(wire.AddressAny, ButtonA, f.callback))
	require.Equal(t, 3, r.Len())

	// Only the (padA, A) watcher matches.
	assert.Equal(t, 1, r.Unregister(padA, ButtonA, nil))
	assert.Equal(t, 2, r.Len())

	// Removed watcher no longer fires; the others are untouched.
	matched, ok := r.Dispatch(padA, State{Buttons: ButtonA})
	require.True(t, ok)
	assert.Equal(t, 1, matched)
	f.wait(t)

	// No matching watcher: a no-op.
	assert.Equal(t, 0, r.Unregister(padB, ButtonX, nil))
	assert.Equal(t, 2, r.Len())
}

func TestUnregisterByCallback(t *testing.T) {
	r := NewComboRegistry(0)
	defer r.Close()
	keep := newFired()
	drop := newFired()

	// Callback identity is compared by code pointer, so the two
	// watchers need distinct function literals.
	keepCb := Callback(func(addr wire.Address, b Button) { keep.ch <- firing{addr, b} })
	dropCb := Callback(func(addr wire.Address, b Button) { drop.ch <- firing{addr, b} })

	require.NoError(t, r.Register(padA, ButtonA, keepCb))
	require.NoError(t, r.Register(padA, ButtonA, dropCb))

	// A specific callback only removes watchers holding it.
	assert.Equal(t, 1, r.Unregister(padA, ButtonA, dropCb))
	assert.Equal(t, 1, r.Len())

	matched, _ := r.Dispatch(padA, State{Buttons: ButtonA})
	assert.Equal(t, 1, matched)
	keep.wait(t)
	drop.none(t)
}

func TestUnregisterJoinsInFlightCallback(t *testing.T) {
	r := NewComboRegistry(0)

	inCallback := make(chan struct{})
	release := make(chan struct{})
	done := false
	var mu sync.Mutex

	err := r.Register(wire.AddressAny, ButtonA, func(wire.Address, Button) {
		inCallback <- struct{}{}
		<-release
		mu.Lock()
		done = true
		mu.Unlock()
	})
	require.NoError(t, err)

	_, ok := r.Dispatch(padA, State{Buttons: ButtonA})
	require.True(t, ok)
	<-inCallback

	unregistered := make(chan struct{})
	go func() {
		r.Unregister(wire.AddressAny, ButtonA, nil)
		close(unregistered)
	}()

	select {
	case <-unregistered:
		t.Fatal("Unregister returned while callback still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-unregistered:
	case <-time.After(time.Second):
		t.Fatal("Unregister did not return after callback finished")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, done, "worker joined before callback completed")
}

func TestDispatchSkipsWhenLockContended(t *testing.T) {
	r := NewComboRegistry(0)
	defer r.Close()
	f := newFired()
	require.NoError(t, r.Register(wire.AddressAny, ButtonA, f.callback))

	r.mu.Lock()
	matched, ok := r.Dispatch(padA, State{Buttons: ButtonA})
	r.mu.Unlock()

	assert.False(t, ok, "dispatch must skip under contention")
	assert.Equal(t, 0, matched)
	f.none(t)
}

func TestCloseRejectsRegistration(t *testing.T) {
	r := NewComboRegistry(0)
	f := newFired()
	require.NoError(t, r.Register(wire.AddressAny, ButtonA, f.callback))

	assert.Equal(t, 1, r.Close())
	assert.Equal(t, 0, r.Len())

	err := r.Register(wire.AddressAny, ButtonB, f.callback)
	require.ErrorIs(t, err, ErrRegistryClosed)
}

func TestInsertionOrder(t *testing.T) {
	r := NewComboRegistry(0)
	defer r.Close()
	f := newFired()

	// Wildcards go to the tail, specifics to the head.
	require.NoError(t, r.Register(wire.AddressAny, ButtonA, f.callback))
	require.NoError(t, r.Register(padA, ButtonB, f.callback))
	require.NoError(t, r.Register(padB, ButtonX, f.callback))
	require.NoError(t, r.Register(wire.AddressAny, ButtonY, f.callback))

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.watchers, 4)
	assert.Equal(t, padB, r.watchers[0].addr)
	assert.Equal(t, padA, r.watchers[1].addr)
	assert.Equal(t, wire.AddressAny, r.watchers[2].addr)
	assert.Equal(t, wire.AddressAny, r.watchers[3].addr)
}
