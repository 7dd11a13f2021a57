package radio

import (
	"context"
	"errors"
)

// Default GATT identifiers of the provisioning service.
const (
	ServiceUUID        = "4fafc201-1fb5-459e-8fcc-c5c9c331914b"
	CharacteristicUUID = "beb5483e-36e1-4688-b7f5-ea07361b26a8"
)

// Stack errors.
var (
	ErrNotInitialized         = errors.New("radio stack not initialized")
	ErrScanInProgress         = errors.New("scan already in progress")
	ErrUnknownAddress         = errors.New("address not seen in a scan")
	ErrServiceNotFound        = errors.New("provisioning service not found")
	ErrCharacteristicNotFound = errors.New("provisioning characteristic not found")
)

// Advertisement is one scan result.
type Advertisement struct {
	Address string
	Name    string
	RSSI    int
}

// Stack is an owned handle to the host radio.
type Stack interface {
	// Init powers up the radio. Calling it again is a no-op.
	Init() error

	// Teardown stops any scan and releases the radio.
	Teardown() error

	// StartScan starts scanning without blocking. With a non-empty
	// serviceUUID only peripherals advertising that service are reported.
	// onAdv may be called from another goroutine.
	StartScan(serviceUUID string, onAdv func(Advertisement)) error

	// StopScan stops the running scan. No onAdv call happens after it
	// returns.
	StopScan() error

	// Connect opens a connection to a previously scanned address.
	Connect(ctx context.Context, address string) (Link, error)
}

// Link is a connected peripheral.
type Link interface {
	// Discover resolves the service and characteristic used for the
	// exchange.
	Discover(ctx context.Context, service, characteristic string) error

	// Subscribe enables notifications on the discovered characteristic.
	Subscribe(onData func([]byte)) error

	// Write writes p to the discovered characteristic, with or without a
	// link-level acknowledgment.
	Write(ctx context.Context, p []byte, withResponse bool) error

	// Disconnect closes the connection.
	Disconnect() error
}

// runWithContext runs fn and returns early if ctx is done first.
func runWithContext(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
