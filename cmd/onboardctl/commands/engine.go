package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/discovery"
	"github.com/smartmonitor/onboard-go/pkg/execx"
	"github.com/smartmonitor/onboard-go/pkg/log"
	"github.com/smartmonitor/onboard-go/pkg/metrics"
	"github.com/smartmonitor/onboard-go/pkg/onboard"
	"github.com/smartmonitor/onboard-go/pkg/permission"
	"github.com/smartmonitor/onboard-go/pkg/persistence"
	"github.com/smartmonitor/onboard-go/pkg/radio"
	"github.com/smartmonitor/onboard-go/pkg/softap"
	"github.com/smartmonitor/onboard-go/pkg/telemetry"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

const shutdownTimeout = 5 * time.Second

// buildOnboarder wires the host radio, the host WiFi and the registry into
// an Onboarder, and starts the metrics and tracing exporters when
// configured.
func (a *app) buildOnboarder(ctx context.Context) (*onboard.Onboarder, error) {
	if err := a.startTelemetry(ctx); err != nil {
		return nil, err
	}

	events, err := a.eventLogger()
	if err != nil {
		return nil, err
	}

	codec, err := wire.CodecByName(a.cfg.Codec)
	if err != nil {
		return nil, err
	}
	timeouts := a.cfg.ProvisioningTimeouts()
	runner := execx.NewOSRunner()
	stack := radio.NewBlueZStack(a.logger)

	// Linux ties no location permission to scanning, so LOCATION is left
	// ungated.
	gate := permission.NewHostGate(permission.HostGateConfig{
		Checkers: map[permission.Capability]permission.Checker{
			permission.CapabilityRadioScan:    permission.RadioChecker{Stack: stack},
			permission.CapabilityRadioConnect: permission.RadioChecker{Stack: stack},
			permission.CapabilityNetworkControl: permission.NMPermission{
				Runner:     runner,
				Permission: permission.NMNetworkControl,
			},
		},
		Interactive: a.cfg.Permissions.Interactive,
		Logger:      a.logger,
	})

	rcfg := radio.DefaultConfig()
	rcfg.Stack = stack
	rcfg.Gate = gate
	rcfg.ServiceUUID = a.cfg.Radio.ServiceUUID
	rcfg.CharacteristicUUID = a.cfg.Radio.CharacteristicUUID
	rcfg.Codec = codec
	rcfg.Timeouts = timeouts
	rcfg.Logger = a.logger
	rcfg.EventLog = events
	rad, err := radio.New(rcfg)
	if err != nil {
		return nil, err
	}

	wifi := softap.NewNMCLI(a.cfg.AccessPoint.Interface, a.logger)
	wifi.Runner = runner

	acfg := softap.DefaultConfig()
	acfg.WiFi = wifi
	acfg.Gate = gate
	acfg.DeviceSSID = a.cfg.AccessPoint.DeviceSSID
	acfg.DevicePassword = a.cfg.AccessPoint.DevicePassword
	acfg.DeviceURL = a.cfg.AccessPoint.DeviceURL
	acfg.JoinTimeout = a.cfg.AccessPoint.JoinTimeout.Std()
	acfg.PollInterval = a.cfg.AccessPoint.PollInterval.Std()
	acfg.Codec = codec
	acfg.Timeouts = timeouts
	acfg.Logger = a.logger
	acfg.EventLog = events
	ap, err := softap.New(acfg)
	if err != nil {
		return nil, err
	}

	registry, err := a.registry()
	if err != nil {
		return nil, err
	}

	return onboard.New(onboard.Config{
		Radio:         rad,
		AccessPoint:   ap,
		Registry:      registry,
		Browser:       a.newBrowser(),
		VerifyTimeout: a.cfg.Verify.Timeout.Std(),
		Logger:        a.logger,
	})
}

func (a *app) registry() (*persistence.RegistryStore, error) {
	path, err := a.cfg.RegistryPath()
	if err != nil {
		return nil, err
	}
	return persistence.NewRegistryStore(path), nil
}

func (a *app) browser() discovery.Browser {
	return discovery.NewMDNSBrowser(discovery.BrowserConfig{
		BrowseTimeout: a.cfg.Verify.Timeout.Std(),
		Interface:     a.cfg.Verify.Interface,
	})
}

// eventLogger sends provisioning events to the debug log and, when
// configured, to a CBOR event file.
func (a *app) eventLogger() (log.Logger, error) {
	loggers := []log.Logger{log.NewSlogAdapter(a.logger)}
	if a.cfg.EventLog != "" {
		fl, err := log.NewFileLogger(a.cfg.EventLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return fl.Close() })
		loggers = append(loggers, fl)
	}
	return log.NewMultiLogger(loggers...), nil
}

// startTelemetry serves /metrics and installs the trace exporter.
func (a *app) startTelemetry(ctx context.Context) error {
	if addr := a.cfg.Metrics.Listen; addr != "" {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Warn("metrics server stopped", "error", err)
			}
		}()
		a.logger.Info("serving metrics", "addr", ln.Addr().String())
		a.closers = append(a.closers, srv.Shutdown)
	}

	shutdown, err := telemetry.InitTraceProvider(ctx, a.cfg.Tracing.Endpoint, Version)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)
	return nil
}
