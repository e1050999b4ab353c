package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maplebus/maple-go/pkg/wire"
)

// recordingTransport captures submitted requests without delivering
// replies.
type recordingTransport struct {
	busy      bool
	submitted []*wire.Frame
}

func (t *recordingTransport) TryReserveSendSlot(*Device) bool {
	return !t.busy
}

func (t *recordingTransport) SubmitRequest(dev *Device, frame *wire.Frame, complete CompletionFunc) error {
	t.submitted = append(t.submitted, frame)
	return nil
}

// pollCountDriver counts Periodic invocations and devices seen.
type pollCountDriver struct {
	fn      wire.Function
	ticks   int
	devices []*Device
	attach  []*Device
	detach  []*Device
}

func (d *pollCountDriver) Functions() wire.Function { return d.fn }

func (d *pollCountDriver) Periodic(tx Transport, devices []*Device) {
	d.ticks++
	d.devices = devices
}

func (d *pollCountDriver) Attach(dev *Device) { d.attach = append(d.attach, dev) }
func (d *pollCountDriver) Detach(dev *Device) { d.detach = append(d.detach, dev) }

func controllerInfo() DeviceInfo {
	return DeviceInfo{
		Functions:   wire.FunctionController,
		ProductName: "Dreamcast Controller",
	}
}

func TestAddDevice(t *testing.T) {
	r := NewRegistry(&recordingTransport{}, Options{})

	dev, err := r.AddDevice(wire.PortA, 0, controllerInfo())
	if err != nil {
		t.Fatalf("AddDevice() error: %v", err)
	}
	if !dev.Present() {
		t.Error("new device not present")
	}
	if dev.SessionID() == "" {
		t.Error("device has no session ID")
	}

	got, ok := r.DeviceAt(dev.Address())
	if !ok || got != dev {
		t.Errorf("DeviceAt(%s) = %v, %v; want the added device", dev.Address(), got, ok)
	}

	if _, err := r.AddDevice(wire.PortA, 0, controllerInfo()); !errors.Is(err, ErrAddressInUse) {
		t.Errorf("duplicate AddDevice err = %v, want ErrAddressInUse", err)
	}
}

func TestRemoveDeviceMarksAbsent(t *testing.T) {
	r := NewRegistry(&recordingTransport{}, Options{})
	dev, err := r.AddDevice(wire.PortB, 0, controllerInfo())
	if err != nil {
		t.Fatalf("AddDevice() error: %v", err)
	}

	if !r.RemoveDevice(dev.Address()) {
		t.Fatal("RemoveDevice() = false, want true")
	}
	if dev.Present() {
		t.Error("removed device still present")
	}
	if _, ok := r.DeviceAt(dev.Address()); ok {
		t.Error("removed device still in registry")
	}
	if r.RemoveDevice(dev.Address()) {
		t.Error("second RemoveDevice() = true, want false")
	}
}

func TestTickOffersMatchingDevices(t *testing.T) {
	r := NewRegistry(&recordingTransport{}, Options{})

	pad, err := r.AddDevice(wire.PortA, 0, controllerInfo())
	if err != nil {
		t.Fatalf("AddDevice() error: %v", err)
	}
	if _, err := r.AddDevice(wire.PortA, 1, DeviceInfo{Functions: wire.FunctionMemoryCard}); err != nil {
		t.Fatalf("AddDevice() error: %v", err)
	}

	drv := &pollCountDriver{fn: wire.FunctionController}
	if err := r.RegisterDriver(drv); err != nil {
		t.Fatalf("RegisterDriver() error: %v", err)
	}

	r.Tick()
	r.Tick()

	if drv.ticks != 2 {
		t.Errorf("Periodic ran %d times, want 2", drv.ticks)
	}
	if len(drv.devices) != 1 || drv.devices[0] != pad {
		t.Errorf("Periodic saw %d devices, want just the controller", len(drv.devices))
	}
}

func TestRegisterDriverReplaysAttach(t *testing.T) {
	r := NewRegistry(&recordingTransport{}, Options{})
	dev, err := r.AddDevice(wire.PortC, 0, controllerInfo())
	if err != nil {
		t.Fatalf("AddDevice() error: %v", err)
	}

	drv := &pollCountDriver{fn: wire.FunctionController}
	if err := r.RegisterDriver(drv); err != nil {
		t.Fatalf("RegisterDriver() error: %v", err)
	}
	if len(drv.attach) != 1 || drv.attach[0] != dev {
		t.Errorf("attach hooks = %v, want the pre-existing device", drv.attach)
	}

	if err := r.RegisterDriver(drv); !errors.Is(err, ErrDriverRegistered) {
		t.Errorf("duplicate RegisterDriver err = %v, want ErrDriverRegistered", err)
	}
}

func TestAttachDetachHooks(t *testing.T) {
	r := NewRegistry(&recordingTransport{}, Options{})
	drv := &pollCountDriver{fn: wire.FunctionController}
	if err := r.RegisterDriver(drv); err != nil {
		t.Fatalf("RegisterDriver() error: %v", err)
	}

	dev, err := r.AddDevice(wire.PortD, 0, controllerInfo())
	if err != nil {
		t.Fatalf("AddDevice() error: %v", err)
	}
	if len(drv.attach) != 1 {
		t.Fatalf("attach hooks = %d, want 1", len(drv.attach))
	}

	// A non-matching device triggers no hooks.
	if _, err := r.AddDevice(wire.PortD, 1, DeviceInfo{Functions: wire.FunctionClock}); err != nil {
		t.Fatalf("AddDevice() error: %v", err)
	}
	if len(drv.attach) != 1 {
		t.Errorf("attach hooks after clock attach = %d, want 1", len(drv.attach))
	}

	r.RemoveDevice(dev.Address())
	if len(drv.detach) != 1 || drv.detach[0] != dev {
		t.Errorf("detach hooks = %v, want the controller", drv.detach)
	}
}

func TestUnregisterDriverStopsPolling(t *testing.T) {
	r := NewRegistry(&recordingTransport{}, Options{})
	drv := &pollCountDriver{fn: wire.FunctionController}
	if err := r.RegisterDriver(drv); err != nil {
		t.Fatalf("RegisterDriver() error: %v", err)
	}

	if !r.UnregisterDriver(drv) {
		t.Fatal("UnregisterDriver() = false, want true")
	}
	r.Tick()
	if drv.ticks != 0 {
		t.Errorf("Periodic ran %d times after unregister, want 0", drv.ticks)
	}
	if r.UnregisterDriver(drv) {
		t.Error("second UnregisterDriver() = true, want false")
	}
}

func TestRunTicksUntilClose(t *testing.T) {
	r := NewRegistry(&recordingTransport{}, Options{PollInterval: time.Millisecond})
	drv := &pollCountDriver{fn: wire.FunctionController}
	if err := r.RegisterDriver(drv); err != nil {
		t.Fatalf("RegisterDriver() error: %v", err)
	}

	r.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	r.Close()

	if drv.ticks == 0 {
		t.Error("Periodic never ran under Run")
	}
	ticks := drv.ticks
	time.Sleep(20 * time.Millisecond)
	if drv.ticks != ticks {
		t.Error("Periodic still running after Close")
	}
}

func TestDeviceStatusSnapshot(t *testing.T) {
	dev, err := NewDevice(wire.PortA, 0, controllerInfo())
	if err != nil {
		t.Fatalf("NewDevice() error: %v", err)
	}

	if dev.LoadStatus() != nil {
		t.Error("LoadStatus() before any store should be nil")
	}

	type snap struct{ buttons uint16 }
	dev.StoreStatus(&snap{buttons: 0x0c})

	got, ok := dev.LoadStatus().(*snap)
	if !ok || got.buttons != 0x0c {
		t.Errorf("LoadStatus() = %v, want stored snapshot", dev.LoadStatus())
	}
}
