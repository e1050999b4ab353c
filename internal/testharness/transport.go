package testharness

import (
	"fmt"
	"sync"

	"github.com/maplebus/maple-go/pkg/bus"
	"github.com/maplebus/maple-go/pkg/wire"
)

// SimTransport is an in-memory bus transport backed by simulated pads.
// Replies are delivered on a single goroutine, mirroring how a real
// transport delivers completions from its interrupt path.
//
// Fault injection: FailReserve makes upcoming slot reservations fail,
// ScriptReply substitutes the next reply to a device with an arbitrary
// one.
type SimTransport struct {
	mu       sync.Mutex
	pads     map[wire.Address]*SimPad
	reserved map[wire.Address]bool
	busy     map[wire.Address]int
	scripted map[wire.Address][]bus.Reply
	closed   bool

	jobs    chan delivery
	stop    chan struct{}
	done    chan struct{}
	pending sync.WaitGroup
}

type delivery struct {
	dev      *bus.Device
	rep      bus.Reply
	complete bus.CompletionFunc
}

// NewSimTransport creates a transport with no pads attached and starts
// its delivery goroutine. Call Close when done.
func NewSimTransport() *SimTransport {
	t := &SimTransport{
		pads:     make(map[wire.Address]*SimPad),
		reserved: make(map[wire.Address]bool),
		busy:     make(map[wire.Address]int),
		scripted: make(map[wire.Address][]bus.Reply),
		jobs:     make(chan delivery, 64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *SimTransport) run() {
	defer close(t.done)
	for {
		select {
		case <-t.stop:
			return
		case d := <-t.jobs:
			d.complete(d.dev, d.rep)
			t.mu.Lock()
			t.reserved[d.dev.Address()] = false
			t.mu.Unlock()
			t.pending.Done()
		}
	}
}

// AttachPad places a pad at the given bus address. Polls to that
// address answer with the pad's current condition.
func (t *SimTransport) AttachPad(addr wire.Address, pad *SimPad) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pads[addr] = pad
}

// DetachPad removes the pad at addr. Subsequent polls to the address
// get no response.
func (t *SimTransport) DetachPad(addr wire.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pads, addr)
}

// FailReserve makes the next n slot reservations for addr fail, as if
// the hardware queue were full.
func (t *SimTransport) FailReserve(addr wire.Address, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.busy[addr] += n
}

// ScriptReply queues a reply that overrides the pad's natural response
// to the next request for addr. Scripted replies are consumed in order.
func (t *SimTransport) ScriptReply(addr wire.Address, rep bus.Reply) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scripted[addr] = append(t.scripted[addr], rep)
}

// TryReserveSendSlot implements bus.Transport.
func (t *SimTransport) TryReserveSendSlot(dev *bus.Device) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	addr := dev.Address()
	if t.busy[addr] > 0 {
		t.busy[addr]--
		return false
	}
	if t.reserved[addr] {
		return false
	}
	t.reserved[addr] = true
	return true
}

// SubmitRequest implements bus.Transport. The reply is computed from
// the attached pad (or the scripted override) and handed to the
// delivery goroutine.
func (t *SimTransport) SubmitRequest(dev *bus.Device, frame *wire.Frame, complete bus.CompletionFunc) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return bus.ErrTransportClosed
	}
	addr := dev.Address()
	rep := t.replyForLocked(addr, frame)
	t.pending.Add(1)
	t.mu.Unlock()

	select {
	case t.jobs <- delivery{dev: dev, rep: rep, complete: complete}:
		return nil
	case <-t.stop:
		t.pending.Done()
		return bus.ErrTransportClosed
	}
}

// replyForLocked computes the reply for a request. Callers hold t.mu.
func (t *SimTransport) replyForLocked(addr wire.Address, frame *wire.Frame) bus.Reply {
	if queue := t.scripted[addr]; len(queue) > 0 {
		rep := queue[0]
		t.scripted[addr] = queue[1:]
		return rep
	}

	pad, ok := t.pads[addr]
	if !ok {
		return bus.Reply{Response: wire.ResponseNone}
	}

	switch frame.Command {
	case wire.CommandGetCondition:
		fn, err := wire.FunctionWord(frame.Payload)
		if err != nil || !wire.FunctionController.Contains(fn) {
			return bus.Reply{Response: wire.ResponseBadFunction}
		}
		payload := make([]byte, wire.WordSize+wire.ConditionSize)
		wire.PutFunctionWord(payload, wire.FunctionController)
		copy(payload[wire.WordSize:], pad.Condition().Encode())
		return bus.Reply{Response: wire.ResponseDataTransfer, Payload: payload}
	default:
		return bus.Reply{Response: wire.ResponseBadCommand}
	}
}

// Drain blocks until every submitted request has had its completion
// delivered. Tests call this after a tick to observe its effects.
func (t *SimTransport) Drain() {
	t.pending.Wait()
}

// Close shuts the transport down. Pending completions may be dropped;
// further submissions return bus.ErrTransportClosed.
func (t *SimTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()
	close(t.stop)
	<-t.done
}

var _ bus.Transport = (*SimTransport)(nil)

// NewPadRegistry is a convenience for tests and the monitor: it builds
// a registry over a fresh transport with one standard pad attached at
// the given address.
func NewPadRegistry(addr wire.Address, opts bus.Options) (*bus.Registry, *SimTransport, *SimPad, error) {
	tr := NewSimTransport()
	pad := NewSimPad()
	tr.AttachPad(addr, pad)

	reg := bus.NewRegistry(tr, opts)
	if _, err := reg.AddDevice(addr.Port(), addr.Unit(), StandardPadInfo()); err != nil {
		tr.Close()
		return nil, nil, nil, fmt.Errorf("attach pad: %w", err)
	}
	return reg, tr, pad, nil
}
