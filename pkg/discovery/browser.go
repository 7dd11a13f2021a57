package discovery

import (
	"context"
	"time"
)

// Browser finds announced devices.
type Browser interface {
	// Browse emits each device once, the first time it is seen. The
	// channel is closed when ctx is done.
	Browse(ctx context.Context) (<-chan *DeviceService, error)

	// FindDevice returns the announcement of the device with deviceID, or
	// ctx's error when it does not appear in time.
	FindDevice(ctx context.Context, deviceID int) (*DeviceService, error)
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for browse operations.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}
