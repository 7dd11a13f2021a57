package provisioning

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a session failed.
type Kind uint8

const (
	// KindNone is the kind of a successful session.
	KindNone Kind = iota
	KindPermissionDenied
	KindDeviceNotFound
	KindConnectionError
	KindTransmissionError
	KindConfirmationTimeout
	KindDeviceRejected
	KindNetworkSwitchFailed
	KindMalformedResponse
	KindCancelled
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindPermissionDenied:
		return "PERMISSION_DENIED"
	case KindDeviceNotFound:
		return "DEVICE_NOT_FOUND"
	case KindConnectionError:
		return "CONNECTION_ERROR"
	case KindTransmissionError:
		return "TRANSMISSION_ERROR"
	case KindConfirmationTimeout:
		return "CONFIRMATION_TIMEOUT"
	case KindDeviceRejected:
		return "DEVICE_REJECTED"
	case KindNetworkSwitchFailed:
		return "NETWORK_SWITCH_FAILED"
	case KindMalformedResponse:
		return "MALFORMED_RESPONSE"
	case KindCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Hint returns a remediation message suitable for showing to a user.
func (k Kind) Hint() string {
	switch k {
	case KindPermissionDenied:
		return "Allow Bluetooth and location access, or network control for access-point setup, then try again."
	case KindDeviceNotFound:
		return "Make sure the device is powered, in setup mode and within range."
	case KindConnectionError:
		return "Move closer to the device and try again."
	case KindTransmissionError:
		return "The credentials could not be delivered. Try again."
	case KindConfirmationTimeout:
		return "The device did not confirm in time. Check the network name and password, then retry."
	case KindDeviceRejected:
		return "The device could not join the network. Check the password and that the network uses 2.4 GHz."
	case KindNetworkSwitchFailed:
		return "Could not join the device setup network. Join it manually and retry."
	case KindMalformedResponse:
		return "The device sent an unexpected reply. Update its firmware and retry."
	case KindCancelled:
		return "Setup was cancelled."
	default:
		return ""
	}
}

// Error is a classified provisioning failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError creates a classified error.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error returns a string representation of the error.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied}
	ErrDeviceNotFound      = &Error{Kind: KindDeviceNotFound}
	ErrConnection          = &Error{Kind: KindConnectionError}
	ErrTransmission        = &Error{Kind: KindTransmissionError}
	ErrConfirmationTimeout = &Error{Kind: KindConfirmationTimeout}
	ErrDeviceRejected      = &Error{Kind: KindDeviceRejected}
	ErrNetworkSwitch       = &Error{Kind: KindNetworkSwitchFailed}
	ErrMalformedResponse   = &Error{Kind: KindMalformedResponse}
	ErrCancelled           = &Error{Kind: KindCancelled}
)

// Session errors. These are caller mistakes, not result kinds.
var (
	ErrSessionUsed        = errors.New("session already run")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoTransport        = errors.New("transport is required")
	ErrNoGate             = errors.New("permission gate is required")
)

// KindOf returns the kind carried by err, or def when err is unclassified.
// A cancelled context is always KindCancelled.
func KindOf(err error, def Kind) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return def
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
