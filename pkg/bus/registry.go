package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/maplebus/maple-go/pkg/log"
	"github.com/maplebus/maple-go/pkg/wire"
)

// Registry errors.
var (
	// ErrAddressInUse indicates a device is already attached at the
	// address.
	ErrAddressInUse = errors.New("bus address already in use")

	// ErrDriverRegistered indicates the driver is already registered.
	ErrDriverRegistered = errors.New("driver already registered")
)

// DefaultPollInterval is the default periodic tick interval, one tick
// per frame at 60 Hz.
const DefaultPollInterval = time.Second / 60

// Driver is a function driver that polls its devices once per tick.
type Driver interface {
	// Functions returns the function bitmap this driver services.
	// A device is offered to the driver when the bitmaps intersect.
	Functions() wire.Function

	// Periodic is invoked once per tick with every matching attached
	// device. It must not block.
	Periodic(tx Transport, devices []*Device)
}

// AttachHandler is implemented by drivers that want attach callbacks.
type AttachHandler interface {
	Attach(dev *Device)
}

// DetachHandler is implemented by drivers that want detach callbacks.
type DetachHandler interface {
	Detach(dev *Device)
}

// Options configures a Registry.
type Options struct {
	// PollInterval is the tick period for Run (default 1/60 s).
	PollInterval time.Duration

	// Logger receives diagnostic events (default NoopLogger).
	Logger log.Logger
}

// Registry owns the set of attached devices and registered drivers,
// and drives the periodic poll cycle.
type Registry struct {
	id       string
	tx       Transport
	logger   log.Logger
	interval time.Duration

	mu      sync.RWMutex
	devices map[wire.Address]*Device
	drivers []Driver

	running   atomic.Bool
	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRegistry creates a registry over the given transport.
func NewRegistry(tx Transport, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Registry{
		id:       uuid.NewString(),
		tx:       tx,
		logger:   logger,
		interval: interval,
		devices:  make(map[wire.Address]*Device),
		stop:     make(chan struct{}),
	}
}

// ID returns the UUID identifying this bus instance in diagnostics.
func (r *Registry) ID() string {
	return r.id
}

// Transport returns the transport the registry polls over.
func (r *Registry) Transport() Transport {
	return r.tx
}

// AddDevice attaches a device at (port, unit) and offers it to every
// matching driver's attach hook.
func (r *Registry) AddDevice(port wire.Port, unit int, info DeviceInfo) (*Device, error) {
	dev, err := NewDevice(port, unit, info)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.devices[dev.Address()]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAddressInUse, dev.Address())
	}
	r.devices[dev.Address()] = dev
	drivers := r.matchingDriversLocked(dev.Info().Functions)
	r.mu.Unlock()

	for _, drv := range drivers {
		if h, ok := drv.(AttachHandler); ok {
			h.Attach(dev)
		}
	}

	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		BusID:     r.id,
		Layer:     log.LayerBus,
		Category:  log.CategoryState,
		Device:    dev.Address().String(),
		State: &log.StateChangeEvent{
			Entity:   log.StateEntityDevice,
			NewState: "ATTACHED",
			Reason:   dev.Info().ProductName,
		},
	})
	return dev, nil
}

// RemoveDevice detaches the device at addr. The device is marked
// absent before detach hooks run, so in-flight completions observe the
// device as gone.
func (r *Registry) RemoveDevice(addr wire.Address) bool {
	r.mu.Lock()
	dev, ok := r.devices[addr]
	if ok {
		delete(r.devices, addr)
	}
	var drivers []Driver
	if ok {
		drivers = r.matchingDriversLocked(dev.Info().Functions)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	dev.setPresent(false)

	for _, drv := range drivers {
		if h, ok := drv.(DetachHandler); ok {
			h.Detach(dev)
		}
	}

	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		BusID:     r.id,
		Layer:     log.LayerBus,
		Category:  log.CategoryState,
		Device:    addr.String(),
		State: &log.StateChangeEvent{
			Entity:   log.StateEntityDevice,
			OldState: "ATTACHED",
			NewState: "DETACHED",
		},
	})
	return true
}

// DeviceAt returns the attached device at addr.
func (r *Registry) DeviceAt(addr wire.Address) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.devices[addr]
	return dev, ok
}

// Devices returns a snapshot of every attached device.
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	devs := make([]*Device, 0, len(r.devices))
	for _, dev := range r.devices {
		devs = append(devs, dev)
	}
	return devs
}

// RegisterDriver adds a driver to the poll rotation and replays attach
// hooks for devices already present.
func (r *Registry) RegisterDriver(drv Driver) error {
	r.mu.Lock()
	for _, existing := range r.drivers {
		if existing == drv {
			r.mu.Unlock()
			return ErrDriverRegistered
		}
	}
	r.drivers = append(r.drivers, drv)
	matching := r.matchingDevicesLocked(drv.Functions())
	r.mu.Unlock()

	if h, ok := drv.(AttachHandler); ok {
		for _, dev := range matching {
			h.Attach(dev)
		}
	}
	return nil
}

// UnregisterDriver removes a driver from the poll rotation.
func (r *Registry) UnregisterDriver(drv Driver) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.drivers {
		if existing == drv {
			r.drivers = append(r.drivers[:i], r.drivers[i+1:]...)
			return true
		}
	}
	return false
}

// Tick runs one poll pass: every registered driver receives its
// matching devices exactly once. Tick never blocks on the transport.
func (r *Registry) Tick() {
	r.mu.RLock()
	drivers := make([]Driver, len(r.drivers))
	copy(drivers, r.drivers)
	r.mu.RUnlock()

	for _, drv := range drivers {
		r.mu.RLock()
		devs := r.matchingDevicesLocked(drv.Functions())
		r.mu.RUnlock()
		drv.Periodic(r.tx, devs)
	}
}

// Run ticks the poll cycle until ctx is cancelled or Close is called.
func (r *Registry) Run(ctx context.Context) error {
	if r.running.Swap(true) {
		return nil // already running
	}

	r.logBusState("", "RUNNING")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.running.Store(false)
	defer r.logBusState("RUNNING", "STOPPED")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Start runs the poll cycle on a background goroutine.
func (r *Registry) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.Run(ctx)
	}()
}

// Close stops a running poll cycle and waits for it to exit.
// It is safe to call Close multiple times.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
	})
	r.wg.Wait()
}

func (r *Registry) matchingDevicesLocked(fn wire.Function) []*Device {
	var devs []*Device
	for _, dev := range r.devices {
		if dev.Info().Functions&fn != 0 {
			devs = append(devs, dev)
		}
	}
	return devs
}

func (r *Registry) matchingDriversLocked(fn wire.Function) []Driver {
	var drivers []Driver
	for _, drv := range r.drivers {
		if drv.Functions()&fn != 0 {
			drivers = append(drivers, drv)
		}
	}
	return drivers
}

func (r *Registry) logBusState(oldState, newState string) {
	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		BusID:     r.id,
		Layer:     log.LayerBus,
		Category:  log.CategoryState,
		State: &log.StateChangeEvent{
			Entity:   log.StateEntityBus,
			OldState: oldState,
			NewState: newState,
		},
	})
}
