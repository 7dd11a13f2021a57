package log

import "time"

// Event is a single provisioning log entry.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the provisioning session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates record flow for frame events.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Address is the transport handle of the device (radio address or
	// access-point network name).
	Address string `cbor:"6,keyasint,omitempty"`

	// DeviceName is the advertised device name.
	DeviceName string `cbor:"7,keyasint,omitempty"`

	// DeviceID is the numeric device identifier, once known.
	DeviceID string `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
	Outcome     *OutcomeEvent     `cbor:"13,keyasint,omitempty"`
}

// Direction indicates the direction of record flow.
type Direction uint8

const (
	// DirectionIn indicates a record received from the device.
	DirectionIn Direction = 0
	// DirectionOut indicates a record sent to the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerSession is the provisioning state machine.
	LayerSession Layer = 0
	// LayerRadio is the BLE transport.
	LayerRadio Layer = 1
	// LayerAccessPoint is the temporary access-point transport.
	LayerAccessPoint Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerSession:
		return "SESSION"
	case LayerRadio:
		return "RADIO"
	case LayerAccessPoint:
		return "ACCESS_POINT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame indicates a record crossing the transport.
	CategoryFrame Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategoryOutcome indicates the terminal session result.
	CategoryOutcome Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryOutcome:
		return "OUTCOME"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent describes a record written to or read from a transport.
type FrameEvent struct {
	// Size is the encoded record size in bytes.
	Size int `cbor:"1,keyasint"`

	// Record names the record type ("credentials", "ack").
	Record string `cbor:"2,keyasint,omitempty"`

	// Data is the raw record bytes. Empty when Redacted is set.
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Redacted indicates Data was withheld.
	Redacted bool `cbor:"4,keyasint,omitempty"`

	// Codec names the encoding ("json", "cbor").
	Codec string `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures a session state transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Step is the progress label reported to the caller.
	Step string `cbor:"3,keyasint,omitempty"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures a failure at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Kind is the failure classification (e.g. "CONNECTION_ERROR").
	Kind string `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

// OutcomeEvent records how a session ended.
type OutcomeEvent struct {
	Success bool `cbor:"1,keyasint"`

	// Kind is the failure classification; empty on success.
	Kind string `cbor:"2,keyasint,omitempty"`

	Message string `cbor:"3,keyasint,omitempty"`

	// ConnectivityRestored is only meaningful for the access-point transport.
	ConnectivityRestored *bool `cbor:"4,keyasint,omitempty"`

	// Duration is the session wall time. Stored as nanoseconds.
	Duration time.Duration `cbor:"5,keyasint"`
}
