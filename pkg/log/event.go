package log

import (
	"time"
)

// Event represents a diagnostic event captured at any layer of the bus
// stack. CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// BusID uniquely identifies the bus instance (UUID).
	BusID string `cbor:"2,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Device is the bus address of the device involved, in "port/unit"
	// form (empty when no single device applies).
	Device string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Poll     *PollEvent        `cbor:"10,keyasint,omitempty"` // Poll scheduling
	Reply    *ReplyEvent       `cbor:"11,keyasint,omitempty"` // Poll responses
	Dispatch *DispatchEvent    `cbor:"12,keyasint,omitempty"` // Combo dispatch
	State    *StateChangeEvent `cbor:"13,keyasint,omitempty"` // Lifecycle
	Error    *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Layer indicates which layer of the stack captured the event.
type Layer uint8

const (
	// LayerBus is the poll scheduler and device lifecycle layer.
	LayerBus Layer = 0
	// LayerWire is the frame encoding layer.
	LayerWire Layer = 1
	// LayerDriver is the function driver layer (translation, dispatch).
	LayerDriver Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerBus:
		return "BUS"
	case LayerWire:
		return "WIRE"
	case LayerDriver:
		return "DRIVER"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPoll indicates a poll request was issued or skipped.
	CategoryPoll Category = 0
	// CategoryReply indicates a poll response was delivered or dropped.
	CategoryReply Category = 1
	// CategoryDispatch indicates a combo dispatch cycle.
	CategoryDispatch Category = 2
	// CategoryState indicates a lifecycle state change.
	CategoryState Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPoll:
		return "POLL"
	case CategoryReply:
		return "REPLY"
	case CategoryDispatch:
		return "DISPATCH"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PollEvent captures one poll attempt for one device.
type PollEvent struct {
	// Submitted is true if a request was handed to the transport.
	Submitted bool `cbor:"1,keyasint"`

	// SkipReason explains why no request was submitted ("slot-busy",
	// "submit-failed"). Empty when Submitted is true.
	SkipReason string `cbor:"2,keyasint,omitempty"`
}

// ReplyEvent captures the handling of one poll response.
type ReplyEvent struct {
	// Response is the response code name (e.g. "DATATRF", "AGAIN").
	Response string `cbor:"1,keyasint"`

	// PayloadSize is the response payload size in bytes.
	PayloadSize int `cbor:"2,keyasint"`

	// DropReason explains why the response was discarded without a
	// state update. Empty when the response was accepted.
	DropReason string `cbor:"3,keyasint,omitempty"`
}

// DispatchEvent captures one combo dispatch cycle.
type DispatchEvent struct {
	// Buttons is the canonical button bitfield that was scanned.
	Buttons uint16 `cbor:"1,keyasint"`

	// Matched is the number of watchers woken this cycle.
	Matched int `cbor:"2,keyasint"`

	// Skipped is true when the registry lock was contended and the
	// whole cycle was abandoned.
	Skipped bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures bus and driver lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityBus indicates a bus lifecycle change.
	StateEntityBus StateEntity = 0
	// StateEntityDevice indicates a device attach/detach.
	StateEntityDevice StateEntity = 1
	// StateEntityWatcher indicates a watcher registration change.
	StateEntityWatcher StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityBus:
		return "BUS"
	case StateEntityDevice:
		return "DEVICE"
	case StateEntityWatcher:
		return "WATCHER"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Message is the error text.
	Message string `cbor:"1,keyasint"`

	// Context describes what was being done when the error occurred.
	Context string `cbor:"2,keyasint,omitempty"`
}
