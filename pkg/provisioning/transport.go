package provisioning

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartmonitor/onboard-go/pkg/permission"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

// TransportKind identifies the physical path to the device.
type TransportKind uint8

const (
	TransportRadio TransportKind = iota + 1
	TransportAccessPoint
)

// String returns the transport name.
func (k TransportKind) String() string {
	switch k {
	case TransportRadio:
		return "RADIO"
	case TransportAccessPoint:
		return "ACCESS_POINT"
	default:
		return "UNKNOWN"
	}
}

// ParseTransportKind parses "radio"/"ble" or "ap"/"access-point".
func ParseTransportKind(s string) (TransportKind, error) {
	switch strings.ToLower(s) {
	case "radio", "ble":
		return TransportRadio, nil
	case "ap", "access-point", "access_point", "softap":
		return TransportAccessPoint, nil
	default:
		return 0, fmt.Errorf("unknown transport: %q", s)
	}
}

// Transport opens links to devices. Implementations return *Error values
// when they can classify a failure more precisely than the stage default.
type Transport interface {
	Kind() TransportKind

	// Capabilities lists what the permission gate must grant first.
	Capabilities() []permission.Capability

	// Codec is the encoding of records on this transport.
	Codec() wire.Codec

	// Connect opens a link to the device. It must not leave a partially
	// open link behind when it fails.
	Connect(ctx context.Context, device *DiscoveredDevice) (Link, error)
}

// Locator is implemented by transports that must find the device before
// connecting. Locate returns the matching device, or an error of
// KindDeviceNotFound when nothing matched within ctx.
type Locator interface {
	Locate(ctx context.Context, target *DiscoveredDevice) (*DiscoveredDevice, error)
}

// Reply is a decoded acknowledgment and the bytes it was decoded from.
type Reply struct {
	Ack *wire.Ack
	Raw []byte
}

// Link is an open control channel to one device.
type Link interface {
	// Prepare makes the link ready for the exchange: service discovery
	// and acknowledgment subscription on the radio transport.
	Prepare(ctx context.Context) error

	// Send delivers one encoded credentials record.
	Send(ctx context.Context, payload []byte) error

	// Await waits for the device acknowledgment.
	Await(ctx context.Context) (*Reply, error)

	// Close releases the link. It is called exactly once on every path
	// after Connect succeeded.
	Close(ctx context.Context) error
}

// Restorer is implemented by links that disturbed host connectivity.
// Restore is called before Close and its outcome becomes
// Result.ConnectivityRestored.
type Restorer interface {
	Restore(ctx context.Context) error
}
