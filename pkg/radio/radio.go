package radio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/log"
	"github.com/smartmonitor/onboard-go/pkg/permission"
	"github.com/smartmonitor/onboard-go/pkg/provisioning"
	"github.com/smartmonitor/onboard-go/pkg/telemetry"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

// ErrInvalidConfig is returned for an incomplete Config.
var ErrInvalidConfig = errors.New("invalid radio config")

var errScanStart = errors.New("failed to start scan")

// Config configures a Radio.
type Config struct {
	// Stack is the owned host radio handle.
	Stack Stack

	// Gate checks permissions before each session.
	Gate permission.Gate

	ServiceUUID        string
	CharacteristicUUID string

	// Codec encodes records. Nil selects JSON.
	Codec wire.Codec

	// Timeouts are the session budgets. Provision overrides Confirmation
	// with its timeout argument.
	Timeouts provisioning.Timeouts

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// EventLog receives provisioning events.
	EventLog log.Logger
}

// DefaultConfig returns a Config with the default GATT identifiers.
func DefaultConfig() Config {
	return Config{
		ServiceUUID:        ServiceUUID,
		CharacteristicUUID: CharacteristicUUID,
		Codec:              wire.JSONCodec{},
		Timeouts:           provisioning.DefaultTimeouts(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Stack == nil {
		return fmt.Errorf("%w: stack is required", ErrInvalidConfig)
	}
	if c.Gate == nil {
		return fmt.Errorf("%w: gate is required", ErrInvalidConfig)
	}
	if c.ServiceUUID == "" || c.CharacteristicUUID == "" {
		return fmt.Errorf("%w: service and characteristic uuids are required", ErrInvalidConfig)
	}
	return nil
}

// Radio is the BLE transport.
type Radio struct {
	cfg Config
}

// New creates a Radio.
func New(cfg Config) (*Radio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Codec == nil {
		cfg.Codec = wire.JSONCodec{}
	}
	cfg.Timeouts = cfg.Timeouts.WithDefaults()
	return &Radio{cfg: cfg}, nil
}

// Close tears the radio stack down.
func (r *Radio) Close() error {
	return r.cfg.Stack.Teardown()
}

// Scan reports provisionable devices advertising the provisioning service
// until timeout elapses. onFound, if set, is called once per new address
// and may be called from the scan goroutine. Zero results is an empty list.
// A denied permission fails with a PermissionDenied error before the radio
// is touched.
// When ctx ends early the devices found so far are returned with ctx's
// error.
func (r *Radio) Scan(ctx context.Context, timeout time.Duration, onFound func(provisioning.DiscoveredDevice)) ([]provisioning.DiscoveredDevice, error) {
	ctx, span := telemetry.StartScanSpan(ctx, provisioning.TransportRadio.String())

	devices, err := r.scan(ctx, timeout, onFound)

	telemetry.EndScanSpan(span, len(devices), err)
	return devices, err
}

func (r *Radio) scan(ctx context.Context, timeout time.Duration, onFound func(provisioning.DiscoveredDevice)) ([]provisioning.DiscoveredDevice, error) {
	devices := []provisioning.DiscoveredDevice{}

	pctx, cancel := context.WithTimeout(ctx, r.cfg.Timeouts.Permission)
	granted := r.cfg.Gate.Ensure(pctx, permission.ScanCapabilities()...)
	cancel()
	if !granted {
		r.debugLog("scan permissions denied")
		return devices, provisioning.NewError(provisioning.KindPermissionDenied, "scan permissions not granted", nil)
	}

	if err := r.cfg.Stack.Init(); err != nil {
		return devices, fmt.Errorf("failed to initialize radio: %w", err)
	}

	var mu sync.Mutex
	seen := make(map[string]bool)

	err := r.withScan(r.cfg.ServiceUUID, func(adv Advertisement) {
		mu.Lock()
		defer mu.Unlock()
		if seen[adv.Address] {
			return
		}
		seen[adv.Address] = true

		d := provisioning.NewDiscoveredDevice(adv.Address, adv.Name, adv.RSSI)
		devices = append(devices, d)
		if onFound != nil {
			onFound(d)
		}
	}, func() error {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	mu.Lock()
	defer mu.Unlock()
	r.debugLog("scan finished", "found", len(devices), "error", err)
	return devices, err
}

// withScan starts a scan, runs wait, and stops the scan exactly once,
// even when starting it failed.
func (r *Radio) withScan(serviceUUID string, onAdv func(Advertisement), wait func() error) (err error) {
	defer func() {
		if stopErr := r.cfg.Stack.StopScan(); stopErr != nil {
			r.debugLog("stop scan failed", "error", stopErr)
		}
	}()

	if err := r.cfg.Stack.StartScan(serviceUUID, onAdv); err != nil {
		return fmt.Errorf("%w: %w", errScanStart, err)
	}
	return wait()
}

// Provision runs a provisioning session against device. timeout bounds the
// wait for the device acknowledgment. The returned error is only set for
// invalid input; every session outcome is in the Result.
func (r *Radio) Provision(ctx context.Context, device provisioning.DiscoveredDevice, creds provisioning.Credentials, timeout time.Duration, onProgress provisioning.ProgressFunc) (provisioning.Result, error) {
	tr := &transport{
		radio:        r,
		serviceScan:  true,
		withResponse: true,
		match: func(adv Advertisement) bool {
			return adv.Address == device.Address
		},
	}
	return r.run(ctx, tr, &device, creds, r.timeouts(0, timeout), onProgress)
}

// timeouts returns the configured budgets with non-zero overrides applied.
func (r *Radio) timeouts(scan, confirmation time.Duration) provisioning.Timeouts {
	t := r.cfg.Timeouts
	if scan > 0 {
		t.Scan = scan
	}
	if confirmation > 0 {
		t.Confirmation = confirmation
	}
	return t
}

func (r *Radio) run(ctx context.Context, tr *transport, target *provisioning.DiscoveredDevice, creds provisioning.Credentials, timeouts provisioning.Timeouts, onProgress provisioning.ProgressFunc) (provisioning.Result, error) {
	s, err := provisioning.NewSession(provisioning.SessionConfig{
		Transport:   tr,
		Gate:        r.cfg.Gate,
		Target:      target,
		Credentials: creds,
		Timeouts:    timeouts,
		OnProgress:  onProgress,
		Logger:      r.cfg.Logger,
		EventLog:    r.cfg.EventLog,
	})
	if err != nil {
		return provisioning.Result{}, err
	}
	return s.Run(ctx)
}

// debugLog logs a debug message if logging is enabled.
func (r *Radio) debugLog(msg string, args ...any) {
	if r.cfg.Logger != nil {
		r.cfg.Logger.Debug(msg, args...)
	}
}

// transport adapts a Radio to provisioning.Transport for one session.
type transport struct {
	radio *Radio

	// serviceScan restricts locating to peripherals advertising the
	// provisioning service.
	serviceScan bool

	// match selects the advertisement to connect to.
	match func(Advertisement) bool

	// withResponse selects a link-level acknowledged write.
	withResponse bool
}

func (t *transport) Kind() provisioning.TransportKind { return provisioning.TransportRadio }

func (t *transport) Capabilities() []permission.Capability {
	return permission.RadioCapabilities()
}

func (t *transport) Codec() wire.Codec { return t.radio.cfg.Codec }

// Locate scans until an advertisement matches. The first match wins.
func (t *transport) Locate(ctx context.Context, _ *provisioning.DiscoveredDevice) (*provisioning.DiscoveredDevice, error) {
	stack := t.radio.cfg.Stack
	if err := stack.Init(); err != nil {
		return nil, provisioning.NewError(provisioning.KindConnectionError, "radio unavailable", err)
	}

	filter := ""
	if t.serviceScan {
		filter = t.radio.cfg.ServiceUUID
	}

	found := make(chan Advertisement, 1)
	var match Advertisement
	err := t.radio.withScan(filter, func(adv Advertisement) {
		if !t.match(adv) {
			return
		}
		select {
		case found <- adv:
		default:
		}
	}, func() error {
		select {
		case match = <-found:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	switch {
	case err == nil:
		d := provisioning.NewDiscoveredDevice(match.Address, match.Name, match.RSSI)
		return &d, nil
	case errors.Is(err, errScanStart):
		return nil, provisioning.NewError(provisioning.KindConnectionError, "radio unavailable", err)
	case errors.Is(err, context.Canceled):
		return nil, err
	default:
		return nil, provisioning.NewError(provisioning.KindDeviceNotFound, "no matching device advertised", err)
	}
}

func (t *transport) Connect(ctx context.Context, device *provisioning.DiscoveredDevice) (provisioning.Link, error) {
	link, err := t.radio.cfg.Stack.Connect(ctx, device.Address)
	if err != nil {
		return nil, err
	}
	return newRadioLink(link, t.radio.cfg, t.withResponse), nil
}
