package bus

import (
	"errors"

	"github.com/maplebus/maple-go/pkg/wire"
)

// Transport errors.
var (
	// ErrTransportClosed indicates the transport has shut down.
	ErrTransportClosed = errors.New("transport closed")

	// ErrDeviceGone indicates the target device is no longer attached.
	ErrDeviceGone = errors.New("device no longer attached")
)

// Reply is a completed bus exchange as delivered to a completion
// callback. Payload is only valid for the duration of the callback;
// implementations may reuse the buffer afterwards.
type Reply struct {
	// Response is the response code from the device.
	Response wire.Command

	// Payload is the response payload (word-aligned).
	Payload []byte
}

// CompletionFunc is invoked exactly once per submitted request, on the
// transport's delivery goroutine. It must not block.
type CompletionFunc func(dev *Device, rep Reply)

// Transport moves frames between the host and attached devices.
//
// Each device has one send slot. A request may only be submitted after
// the slot is reserved; the transport releases the slot when the
// completion callback has been delivered.
type Transport interface {
	// TryReserveSendSlot attempts to reserve the device's send slot
	// without blocking. It returns false if the slot is in use.
	TryReserveSendSlot(dev *Device) bool

	// SubmitRequest queues a frame for the device and arranges for
	// complete to run on the delivery goroutine when the exchange
	// finishes. The caller must hold the device's send slot.
	SubmitRequest(dev *Device, frame *wire.Frame, complete CompletionFunc) error
}
