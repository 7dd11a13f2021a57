package provisioning

import (
	"fmt"
	"time"
)

// Result is the terminal outcome of a session.
type Result struct {
	Success bool

	// DeviceID is set on success when the device reported one or its name
	// carried one.
	DeviceID *int

	// Kind and Message describe a failure.
	Kind    Kind
	Message string

	// ConnectivityRestored is only set by transports that switch the host
	// network; it never changes Success.
	ConnectivityRestored *bool

	Transport TransportKind
	SessionID string
	Device    *DiscoveredDevice
	Steps     []string
	Duration  time.Duration
}

// Err returns the failure as an *Error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message}
}

// Restored reports ConnectivityRestored, treating unset as restored.
func (r Result) Restored() bool {
	return r.ConnectivityRestored == nil || *r.ConnectivityRestored
}

// String summarises the result for logs and CLI output.
func (r Result) String() string {
	if r.Success {
		if r.DeviceID != nil {
			return fmt.Sprintf("provisioned device %d in %s", *r.DeviceID, r.Duration.Round(time.Millisecond))
		}
		return fmt.Sprintf("provisioned in %s", r.Duration.Round(time.Millisecond))
	}
	if r.Message != "" {
		return fmt.Sprintf("%s: %s", r.Kind, r.Message)
	}
	return r.Kind.String()
}
