package bus

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/maplebus/maple-go/pkg/wire"
)

// DeviceInfo is the identification record a device reports at attach
// time.
type DeviceInfo struct {
	// Functions is the bitmap of functions the device exposes.
	Functions wire.Function

	// FunctionData holds one capability word per function, in the
	// order the functions appear in the bitmap. For a controller,
	// word 0 carries the button/axis capability bits.
	FunctionData [3]uint32

	// ProductName is the device's self-reported name.
	ProductName string

	// StandbyPower and MaxPower are the device's power draw in
	// tenths of a milliwatt, as reported on the wire.
	StandbyPower uint16
	MaxPower     uint16
}

// Device is one attached peripheral at a fixed (port, unit) address.
// Devices are created by the Registry on attach and marked absent on
// detach; drivers must treat an absent device as gone.
type Device struct {
	addr      wire.Address
	info      DeviceInfo
	sessionID string

	present atomic.Bool

	// status is the driver-owned condition snapshot. Exactly one
	// writer (the delivery path of the owning driver) stores here;
	// readers get the latest complete snapshot or nil.
	status atomic.Value
}

// NewDevice creates a device at the given (port, unit) address.
// Devices begin present; the registry flips presence on detach.
func NewDevice(port wire.Port, unit int, info DeviceInfo) (*Device, error) {
	addr, err := wire.NewAddress(port, unit)
	if err != nil {
		return nil, err
	}
	d := &Device{
		addr:      addr,
		info:      info,
		sessionID: uuid.NewString(),
	}
	d.present.Store(true)
	return d, nil
}

// Address returns the device's packed bus address.
func (d *Device) Address() wire.Address {
	return d.addr
}

// Port returns the device's bus port.
func (d *Device) Port() wire.Port {
	return d.addr.Port()
}

// Unit returns the device's unit number.
func (d *Device) Unit() int {
	return d.addr.Unit()
}

// Info returns the device's identification record.
func (d *Device) Info() DeviceInfo {
	return d.info
}

// SessionID returns the UUID assigned to this attachment, used to
// correlate diagnostic events.
func (d *Device) SessionID() string {
	return d.sessionID
}

// Present reports whether the device is still attached.
func (d *Device) Present() bool {
	return d.present.Load()
}

func (d *Device) setPresent(present bool) {
	d.present.Store(present)
}

// StoreStatus publishes a new condition snapshot. Only the owning
// driver's delivery path may call this, once per poll response.
func (d *Device) StoreStatus(v any) {
	d.status.Store(v)
}

// LoadStatus returns the latest condition snapshot, or nil if the
// device has not answered a poll yet.
func (d *Device) LoadStatus() any {
	return d.status.Load()
}
