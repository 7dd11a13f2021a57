package softap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/connection"
	"github.com/smartmonitor/onboard-go/pkg/log"
	"github.com/smartmonitor/onboard-go/pkg/permission"
	"github.com/smartmonitor/onboard-go/pkg/provisioning"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

// Device network defaults.
const (
	DefaultDeviceSSID    = "SmartMonitor-Setup"
	DefaultDeviceURL     = "http://192.168.4.1"
	DefaultProvisionPath = "/provision"

	DefaultJoinTimeout  = 15 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultProbeTimeout = 1 * time.Second
)

// maxResponseSize bounds the response body read from the device.
const maxResponseSize = 4096

// ErrInvalidConfig is returned for an incomplete Config.
var ErrInvalidConfig = errors.New("invalid access point config")

// Config configures an AccessPoint.
type Config struct {
	// WiFi is the owned host network handle.
	WiFi WiFi

	// Gate checks permissions before each session.
	Gate permission.Gate

	// DeviceSSID is the temporary network the device hosts.
	DeviceSSID string

	// DevicePassword is the fixed passphrase of the device network, empty
	// when it is open.
	DevicePassword string

	// DeviceURL is the device's fixed address.
	DeviceURL string

	// ProvisionPath is the request path of the exchange.
	ProvisionPath string

	// JoinTimeout bounds the wait for the switch to the device network.
	JoinTimeout time.Duration

	// PollInterval is the period of the switch confirmation poll.
	PollInterval time.Duration

	// ProbeTimeout bounds one reachability probe of DeviceURL.
	ProbeTimeout time.Duration

	// HTTPClient is used for the probe and the exchange. Nil creates a
	// client without a global timeout; every request carries a context.
	HTTPClient *http.Client

	// Codec encodes the request body. Nil selects JSON.
	Codec wire.Codec

	// Timeouts are the session budgets. Provision overrides Confirmation
	// with its timeout argument.
	Timeouts provisioning.Timeouts

	// RejoinBackoff is the delay policy between rejoin attempts. Nil uses
	// connection.NewBackoff().
	RejoinBackoff func() *connection.Backoff

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// EventLog receives provisioning events.
	EventLog log.Logger
}

// DefaultConfig returns a Config for the device's default network.
func DefaultConfig() Config {
	return Config{
		DeviceSSID:    DefaultDeviceSSID,
		DeviceURL:     DefaultDeviceURL,
		ProvisionPath: DefaultProvisionPath,
		JoinTimeout:   DefaultJoinTimeout,
		PollInterval:  DefaultPollInterval,
		ProbeTimeout:  DefaultProbeTimeout,
		Codec:         wire.JSONCodec{},
		Timeouts:      provisioning.DefaultTimeouts(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.WiFi == nil {
		return fmt.Errorf("%w: wifi is required", ErrInvalidConfig)
	}
	if c.Gate == nil {
		return fmt.Errorf("%w: gate is required", ErrInvalidConfig)
	}
	if c.DeviceSSID == "" {
		return fmt.Errorf("%w: device ssid is required", ErrInvalidConfig)
	}
	if c.DeviceURL == "" {
		return fmt.Errorf("%w: device url is required", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 || c.JoinTimeout <= 0 {
		return fmt.Errorf("%w: join timeout and poll interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// AccessPoint is the access-point transport.
type AccessPoint struct {
	cfg    Config
	client *http.Client

	// lock admits one network switch at a time.
	lock chan struct{}
}

// New creates an AccessPoint.
func New(cfg Config) (*AccessPoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Codec == nil {
		cfg.Codec = wire.JSONCodec{}
	}
	if cfg.ProvisionPath == "" {
		cfg.ProvisionPath = DefaultProvisionPath
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.RejoinBackoff == nil {
		cfg.RejoinBackoff = connection.NewBackoff
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &AccessPoint{
		cfg:    cfg,
		client: client,
		lock:   make(chan struct{}, 1),
	}, nil
}

// IsDevicePresent reports whether the device network is in range or
// already joined. False negatives are possible; Provision does not depend
// on it.
func (a *AccessPoint) IsDevicePresent(ctx context.Context) bool {
	if a.OnDeviceNetwork(ctx) {
		return true
	}
	ok, err := a.cfg.WiFi.Visible(ctx, a.cfg.DeviceSSID)
	if err != nil {
		a.debugLog("visibility check failed", "error", err)
		return false
	}
	return ok
}

// OnDeviceNetwork reports whether the host is joined to the device network.
func (a *AccessPoint) OnDeviceNetwork(ctx context.Context) bool {
	name, ok := a.CurrentNetwork(ctx)
	return ok && name == a.cfg.DeviceSSID
}

// CurrentNetwork returns the active network name, if any.
func (a *AccessPoint) CurrentNetwork(ctx context.Context) (string, bool) {
	name, err := a.cfg.WiFi.CurrentNetwork(ctx)
	if err != nil {
		a.debugLog("active network query failed", "error", err)
		return "", false
	}
	return name, name != ""
}

// Provision runs a provisioning session through the device network.
// timeout bounds the wait for the device response. The returned error is
// only set for invalid input; every session outcome is in the Result.
func (a *AccessPoint) Provision(ctx context.Context, creds provisioning.Credentials, timeout time.Duration, onProgress provisioning.ProgressFunc) (provisioning.Result, error) {
	timeouts := a.cfg.Timeouts
	if timeout > 0 {
		timeouts.Confirmation = timeout
	}

	target := provisioning.NewDiscoveredDevice(a.cfg.DeviceURL, a.cfg.DeviceSSID, 0)
	s, err := provisioning.NewSession(provisioning.SessionConfig{
		Transport:   a,
		Gate:        a.cfg.Gate,
		Target:      &target,
		Credentials: creds,
		Timeouts:    timeouts,
		OnProgress:  onProgress,
		Logger:      a.cfg.Logger,
		EventLog:    a.cfg.EventLog,
	})
	if err != nil {
		return provisioning.Result{}, err
	}
	return s.Run(ctx)
}

// Kind returns TransportAccessPoint.
func (a *AccessPoint) Kind() provisioning.TransportKind {
	return provisioning.TransportAccessPoint
}

// Capabilities returns the permissions a network switch needs.
func (a *AccessPoint) Capabilities() []permission.Capability {
	return permission.AccessPointCapabilities()
}

// Codec returns the request body codec.
func (a *AccessPoint) Codec() wire.Codec {
	return a.cfg.Codec
}

// Connect takes the network switch lock and records the active network.
// The switch itself happens in the link's Prepare, so that every later
// failure reaches Restore.
func (a *AccessPoint) Connect(ctx context.Context, _ *provisioning.DiscoveredDevice) (provisioning.Link, error) {
	select {
	case a.lock <- struct{}{}:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, provisioning.NewError(provisioning.KindConnectionError, "another network switch is in progress", ctx.Err())
	}

	original, err := a.cfg.WiFi.CurrentNetwork(ctx)
	if err != nil {
		a.debugLog("active network unknown, nothing to restore", "error", err)
		original = ""
	}
	if original == a.cfg.DeviceSSID {
		original = ""
	}

	a.debugLog("network switch locked", "original", original)
	return &apLink{ap: a, original: original}, nil
}

func (a *AccessPoint) unlock() {
	<-a.lock
}

// debugLog logs a debug message if logging is enabled.
func (a *AccessPoint) debugLog(msg string, args ...any) {
	if a.cfg.Logger != nil {
		a.cfg.Logger.Debug(msg, args...)
	}
}

// Compile-time interface satisfaction check.
var _ provisioning.Transport = (*AccessPoint)(nil)
