// Package onboard is the caller-facing API of the onboarding engine. An
// Onboarder owns the configured transports, admits one operation at a
// time, and records metrics and the device registry around each session.
package onboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/discovery"
	"github.com/smartmonitor/onboard-go/pkg/metrics"
	"github.com/smartmonitor/onboard-go/pkg/persistence"
	"github.com/smartmonitor/onboard-go/pkg/provisioning"
	"github.com/smartmonitor/onboard-go/pkg/radio"
	"github.com/smartmonitor/onboard-go/pkg/softap"
)

// Errors returned by Onboarder.
var (
	ErrBusy             = errors.New("another onboarding operation is in progress")
	ErrNoRadio          = errors.New("radio transport not configured")
	ErrNoAccessPoint    = errors.New("access point transport not configured")
	ErrNoVerifier       = errors.New("network verification not configured")
	ErrNoTransport      = errors.New("at least one transport is required")
	ErrUnknownTransport = errors.New("unknown transport")
)

// Config configures an Onboarder.
type Config struct {
	// Radio is the BLE transport. Optional.
	Radio *radio.Radio

	// AccessPoint is the access-point transport. Optional.
	AccessPoint *softap.AccessPoint

	// Registry records provisioned devices. Optional.
	Registry *persistence.RegistryStore

	// Browser verifies that provisioned devices came online. Optional.
	Browser discovery.Browser

	// VerifyTimeout bounds VerifyDevice when ctx has no deadline.
	VerifyTimeout time.Duration

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Target selects the transport and, for the radio, the device.
type Target struct {
	Transport provisioning.TransportKind

	// Device is the scanned device. Required for the radio transport.
	Device provisioning.DiscoveredDevice

	// ConfirmationTimeout overrides the acknowledgment budget when set.
	ConfirmationTimeout time.Duration
}

// RadioTarget targets a device found by ScanForDevices.
func RadioTarget(d provisioning.DiscoveredDevice) Target {
	return Target{Transport: provisioning.TransportRadio, Device: d}
}

// AccessPointTarget targets the device hosting the temporary network.
func AccessPointTarget() Target {
	return Target{Transport: provisioning.TransportAccessPoint}
}

// Onboarder runs onboarding operations one at a time.
type Onboarder struct {
	cfg  Config
	busy atomic.Bool
}

// New creates an Onboarder.
func New(cfg Config) (*Onboarder, error) {
	if cfg.Radio == nil && cfg.AccessPoint == nil {
		return nil, ErrNoTransport
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = discovery.BrowseTimeout
	}
	return &Onboarder{cfg: cfg}, nil
}

// acquire admits one operation. The returned function releases it.
func (o *Onboarder) acquire() (func(), error) {
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	return func() { o.busy.Store(false) }, nil
}

// ScanForDevices scans over the radio for timeout. onFound is called for
// each new device, possibly from another goroutine.
func (o *Onboarder) ScanForDevices(ctx context.Context, onFound func(provisioning.DiscoveredDevice), timeout time.Duration) ([]provisioning.DiscoveredDevice, error) {
	if o.cfg.Radio == nil {
		return nil, ErrNoRadio
	}
	release, err := o.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	devices, err := o.cfg.Radio.Scan(ctx, timeout, onFound)
	metrics.RecordScan(provisioning.TransportRadio.String(), len(devices))
	return devices, err
}

// ProvisionDevice sends creds to the target. Session failures are in the
// Result; the error is set for caller mistakes and ErrBusy.
func (o *Onboarder) ProvisionDevice(ctx context.Context, target Target, creds provisioning.Credentials, onProgress provisioning.ProgressFunc) (provisioning.Result, error) {
	run, err := o.provisioner(target)
	if err != nil {
		return provisioning.Result{}, err
	}
	return o.session(ctx, creds, func(ctx context.Context) (provisioning.Result, error) {
		return run(ctx, creds, onProgress)
	})
}

func (o *Onboarder) provisioner(target Target) (func(context.Context, provisioning.Credentials, provisioning.ProgressFunc) (provisioning.Result, error), error) {
	switch target.Transport {
	case provisioning.TransportRadio:
		if o.cfg.Radio == nil {
			return nil, ErrNoRadio
		}
		if target.Device.Address == "" {
			return nil, fmt.Errorf("%w: radio target needs a device address", provisioning.ErrNoTarget)
		}
		return func(ctx context.Context, creds provisioning.Credentials, onProgress provisioning.ProgressFunc) (provisioning.Result, error) {
			return o.cfg.Radio.Provision(ctx, target.Device, creds, target.ConfirmationTimeout, onProgress)
		}, nil

	case provisioning.TransportAccessPoint:
		if o.cfg.AccessPoint == nil {
			return nil, ErrNoAccessPoint
		}
		return func(ctx context.Context, creds provisioning.Credentials, onProgress provisioning.ProgressFunc) (provisioning.Result, error) {
			return o.cfg.AccessPoint.Provision(ctx, creds, target.ConfirmationTimeout, onProgress)
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, target.Transport)
	}
}

// ReprovisionDevice moves an already provisioned device to new
// credentials over the radio.
func (o *Onboarder) ReprovisionDevice(ctx context.Context, opts radio.ReprovisionOptions) (provisioning.Result, error) {
	if o.cfg.Radio == nil {
		return provisioning.Result{}, ErrNoRadio
	}
	p := radio.NewReprovisioner(o.cfg.Radio)
	return o.session(ctx, opts.Credentials, func(ctx context.Context) (provisioning.Result, error) {
		return p.Reprovision(ctx, opts)
	})
}

// session runs fn under the busy guard and records its outcome.
func (o *Onboarder) session(ctx context.Context, creds provisioning.Credentials, fn func(context.Context) (provisioning.Result, error)) (provisioning.Result, error) {
	release, err := o.acquire()
	if err != nil {
		return provisioning.Result{}, err
	}
	defer release()

	done := metrics.RecordSessionStart()
	res, err := fn(ctx)
	done()
	if err != nil {
		return res, err
	}

	outcome := metrics.OutcomeSucceeded
	if !res.Success {
		outcome = res.Kind.String()
	}
	metrics.RecordSessionComplete(res.Transport.String(), outcome, res.Duration, res.ConnectivityRestored)

	if res.Success {
		o.record(res, creds)
	}
	o.debugLog("session finished", "session", res.SessionID, "result", res.String())
	return res, nil
}

// record adds a successful result to the registry. Registry failures are
// logged; they never change the result.
func (o *Onboarder) record(res provisioning.Result, creds provisioning.Credentials) {
	if o.cfg.Registry == nil {
		return
	}

	entry := persistence.ProvisionedDevice{
		Transport: res.Transport.String(),
		SSID:      creds.SSID,
	}
	if res.DeviceID != nil {
		entry.DeviceID = *res.DeviceID
	}
	if res.Device != nil {
		entry.Name = res.Device.Name
		entry.Address = res.Device.Address
	}

	if err := o.cfg.Registry.Record(entry); err != nil {
		o.debugLog("registry update failed", "error", err)
	}
}

// VerifyDevice waits for the device to announce itself on the local
// network.
func (o *Onboarder) VerifyDevice(ctx context.Context, deviceID int) (*discovery.DeviceService, error) {
	if o.cfg.Browser == nil {
		return nil, ErrNoVerifier
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.VerifyTimeout)
		defer cancel()
	}

	svc, err := o.cfg.Browser.FindDevice(ctx, deviceID)
	metrics.RecordVerification(err == nil)
	if err != nil {
		return nil, fmt.Errorf("device %d not seen on the network: %w", deviceID, err)
	}

	if o.cfg.Registry != nil {
		if err := o.cfg.Registry.MarkVerified(deviceID, time.Now()); err != nil {
			o.debugLog("registry update failed", "error", err)
		}
	}
	return svc, nil
}

// IsDevicePresent reports whether the device network is in range.
func (o *Onboarder) IsDevicePresent(ctx context.Context) bool {
	if o.cfg.AccessPoint == nil {
		return false
	}
	return o.cfg.AccessPoint.IsDevicePresent(ctx)
}

// IsConnectedToDeviceNetwork reports whether the host is currently joined
// to the device's temporary network.
func (o *Onboarder) IsConnectedToDeviceNetwork(ctx context.Context) bool {
	if o.cfg.AccessPoint == nil {
		return false
	}
	return o.cfg.AccessPoint.OnDeviceNetwork(ctx)
}

// CurrentNetworkName returns the active network name, if any.
func (o *Onboarder) CurrentNetworkName(ctx context.Context) (string, bool) {
	if o.cfg.AccessPoint == nil {
		return "", false
	}
	return o.cfg.AccessPoint.CurrentNetwork(ctx)
}

// Close releases the radio.
func (o *Onboarder) Close() error {
	if o.cfg.Radio == nil {
		return nil
	}
	return o.cfg.Radio.Close()
}

// debugLog logs a debug message if logging is enabled.
func (o *Onboarder) debugLog(msg string, args ...any) {
	if o.cfg.Logger != nil {
		o.cfg.Logger.Debug(msg, args...)
	}
}
