package controller

import (
	"time"

	"github.com/maplebus/maple-go/pkg/bus"
	"github.com/maplebus/maple-go/pkg/log"
	"github.com/maplebus/maple-go/pkg/wire"
)

// Config configures the controller driver.
type Config struct {
	// MaxWatchers caps the combo watcher registry (default
	// DefaultMaxWatchers).
	MaxWatchers int

	// Logger receives diagnostic events (default NoopLogger).
	Logger log.Logger
}

// Driver is the controller function driver. Create one with Attach,
// which also registers it on the bus, or with NewDriver for direct
// use in tests.
type Driver struct {
	combos *ComboRegistry
	logger log.Logger
	busID  string

	registry *bus.Registry // nil unless attached
}

// NewDriver creates a driver that is not yet attached to a bus.
func NewDriver(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	return &Driver{
		combos: NewComboRegistry(cfg.MaxWatchers),
		logger: logger,
	}
}

// Attach creates a controller driver and registers it with the bus
// registry, entering it into the periodic poll rotation.
func Attach(registry *bus.Registry, cfg Config) (*Driver, error) {
	d := NewDriver(cfg)
	if err := registry.RegisterDriver(d); err != nil {
		return nil, err
	}
	d.registry = registry
	d.busID = registry.ID()
	return d, nil
}

// Close unregisters every combo watcher, destroys their workers, and
// detaches the driver from the bus registry.
func (d *Driver) Close() {
	removed := d.combos.Close()
	if removed > 0 {
		d.logWatcherState("REGISTERED", "REMOVED", "shutdown")
	}
	if d.registry != nil {
		d.registry.UnregisterDriver(d)
		d.registry = nil
	}
}

// Functions identifies the driver to the bus registry.
func (d *Driver) Functions() wire.Function {
	return wire.FunctionController
}

// Periodic issues one get-condition poll per attached controller. A
// device whose send slot is busy is skipped silently; the next natural
// tick retries. Periodic never blocks.
func (d *Driver) Periodic(tx bus.Transport, devices []*bus.Device) {
	for _, dev := range devices {
		d.poll(tx, dev)
	}
}

func (d *Driver) poll(tx bus.Transport, dev *bus.Device) {
	if !tx.TryReserveSendSlot(dev) {
		d.logPoll(dev, false, "slot-busy")
		return
	}

	frame := &wire.Frame{
		Command: wire.CommandGetCondition,
		Dst:     dev.Address(),
		Payload: wire.GetConditionPayload(wire.FunctionController),
	}
	if err := tx.SubmitRequest(dev, frame, d.handleReply); err != nil {
		d.logPoll(dev, false, "submit-failed")
		return
	}
	d.logPoll(dev, true, "")
}

// handleReply runs on the transport delivery goroutine. It validates
// the response, publishes the canonical state, and dispatches combo
// watchers. Every failure drops the response and nothing else; a
// malformed reply must never take the bus down.
func (d *Driver) handleReply(dev *bus.Device, rep bus.Reply) {
	if rep.Response != wire.ResponseDataTransfer {
		d.logDrop(dev, rep, dropReasonResponse)
		return
	}

	fn, err := wire.FunctionWord(rep.Payload)
	if err != nil {
		d.logDrop(dev, rep, dropReasonShort)
		return
	}
	if fn != wire.FunctionController {
		d.logDrop(dev, rep, dropReasonFunction)
		return
	}

	if dev == nil || !dev.Present() {
		d.logDrop(dev, rep, dropReasonGone)
		return
	}

	// The record follows the function word. A size mismatch is a
	// contract violation by the device, reported and survived.
	cond, err := wire.ParseCondition(rep.Payload[wire.WordSize:])
	if err != nil {
		d.logDrop(dev, rep, dropReasonRecordLen)
		return
	}

	st := TranslateCondition(cond)
	dev.StoreStatus(&st)

	matched, ok := d.combos.Dispatch(dev.Address(), st)
	d.logger.Log(log.Event{
		Timestamp: time.Now(),
		BusID:     d.busID,
		Layer:     log.LayerDriver,
		Category:  log.CategoryDispatch,
		Device:    dev.Address().String(),
		Dispatch: &log.DispatchEvent{
			Buttons: uint16(st.Buttons),
			Matched: matched,
			Skipped: !ok,
		},
	})
}

// StateOf returns the latest canonical state published for the device.
// ok is false until the device has answered its first poll.
func (d *Driver) StateOf(dev *bus.Device) (State, bool) {
	if dev == nil {
		return State{}, false
	}
	st, ok := dev.LoadStatus().(*State)
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Register adds a combo watcher. See ComboRegistry.Register.
func (d *Driver) Register(addr wire.Address, mask Button, fn Callback) error {
	if err := d.combos.Register(addr, mask, fn); err != nil {
		return err
	}
	d.logWatcherState("", "REGISTERED", "")
	return nil
}

// Unregister removes matching combo watchers. See
// ComboRegistry.Unregister.
func (d *Driver) Unregister(addr wire.Address, mask Button, fn Callback) int {
	removed := d.combos.Unregister(addr, mask, fn)
	if removed > 0 {
		d.logWatcherState("REGISTERED", "REMOVED", "")
	}
	return removed
}

// UnregisterAll removes every combo watcher.
func (d *Driver) UnregisterAll() int {
	return d.combos.UnregisterAll()
}

// RegisterCombo is the compatibility entry point covering both add and
// remove: a nil callback removes every watcher matching (addr, mask)
// instead of registering one.
func (d *Driver) RegisterCombo(addr wire.Address, mask Button, fn Callback) error {
	if fn == nil {
		d.Unregister(addr, mask, nil)
		return nil
	}
	return d.Register(addr, mask, fn)
}

// WatcherCount returns the number of registered combo watchers.
func (d *Driver) WatcherCount() int {
	return d.combos.Len()
}

func (d *Driver) logPoll(dev *bus.Device, submitted bool, skipReason string) {
	d.logger.Log(log.Event{
		Timestamp: time.Now(),
		BusID:     d.busID,
		Layer:     log.LayerBus,
		Category:  log.CategoryPoll,
		Device:    dev.Address().String(),
		Poll: &log.PollEvent{
			Submitted:  submitted,
			SkipReason: skipReason,
		},
	})
}

func (d *Driver) logDrop(dev *bus.Device, rep bus.Reply, reason string) {
	var device string
	if dev != nil {
		device = dev.Address().String()
	}
	d.logger.Log(log.Event{
		Timestamp: time.Now(),
		BusID:     d.busID,
		Layer:     log.LayerDriver,
		Category:  log.CategoryReply,
		Device:    device,
		Reply: &log.ReplyEvent{
			Response:    rep.Response.String(),
			PayloadSize: len(rep.Payload),
			DropReason:  reason,
		},
	})
}

func (d *Driver) logWatcherState(oldState, newState, reason string) {
	d.logger.Log(log.Event{
		Timestamp: time.Now(),
		BusID:     d.busID,
		Layer:     log.LayerDriver,
		Category:  log.CategoryState,
		State: &log.StateChangeEvent{
			Entity:   log.StateEntityWatcher,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
