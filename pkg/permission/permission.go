// Package permission decides whether the host may scan, connect and switch
// networks before a provisioning session touches any transport.
package permission

import (
	"context"
	"log/slog"
)

// Capability is a host permission a transport needs.
type Capability uint8

const (
	// CapabilityLocation is location access, required for radio scanning on
	// platforms that tie scan results to location.
	CapabilityLocation Capability = iota + 1

	// CapabilityRadioScan allows discovering nearby radio peripherals.
	CapabilityRadioScan

	// CapabilityRadioConnect allows connecting to a radio peripheral.
	CapabilityRadioConnect

	// CapabilityNetworkControl allows leaving and joining WiFi networks.
	CapabilityNetworkControl
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CapabilityLocation:
		return "LOCATION"
	case CapabilityRadioScan:
		return "RADIO_SCAN"
	case CapabilityRadioConnect:
		return "RADIO_CONNECT"
	case CapabilityNetworkControl:
		return "NETWORK_CONTROL"
	default:
		return "UNKNOWN"
	}
}

// RadioCapabilities is the set a radio session needs.
func RadioCapabilities() []Capability {
	return []Capability{CapabilityLocation, CapabilityRadioScan, CapabilityRadioConnect}
}

// ScanCapabilities is the set a standalone radio scan needs.
func ScanCapabilities() []Capability {
	return []Capability{CapabilityLocation, CapabilityRadioScan}
}

// AccessPointCapabilities is the set an access-point session needs.
func AccessPointCapabilities() []Capability {
	return []Capability{CapabilityLocation, CapabilityNetworkControl}
}

// Gate answers whether every requested capability is granted.
type Gate interface {
	// Ensure returns true only if all caps are granted. It may block on an
	// interactive prompt until ctx is done; a done ctx yields false.
	Ensure(ctx context.Context, caps ...Capability) bool
}

// Status is the answer of a Checker before any prompt.
type Status uint8

const (
	// StatusDenied means the capability is not available.
	StatusDenied Status = iota
	// StatusGranted means the capability is available without asking.
	StatusGranted
	// StatusPromptable means the capability can be granted by the user.
	StatusPromptable
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusDenied:
		return "DENIED"
	case StatusGranted:
		return "GRANTED"
	case StatusPromptable:
		return "PROMPTABLE"
	default:
		return "UNKNOWN"
	}
}

// Checker resolves a single capability on the host.
type Checker interface {
	// Check reports the current status without prompting.
	Check(ctx context.Context) (Status, error)

	// Request asks the user to grant the capability. It blocks until the
	// user answers or ctx is done.
	Request(ctx context.Context) (bool, error)
}

// HostGateConfig configures a HostGate.
type HostGateConfig struct {
	// Checkers maps each capability to the host check that resolves it.
	// Capabilities without a checker are not gated on this host.
	Checkers map[Capability]Checker

	// Interactive allows Request to be called for promptable capabilities.
	Interactive bool

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// HostGate is a Gate backed by per-capability host checks.
type HostGate struct {
	checkers    map[Capability]Checker
	interactive bool
	logger      *slog.Logger
}

// NewHostGate creates a gate from cfg.
func NewHostGate(cfg HostGateConfig) *HostGate {
	checkers := make(map[Capability]Checker, len(cfg.Checkers))
	for c, ch := range cfg.Checkers {
		checkers[c] = ch
	}
	return &HostGate{
		checkers:    checkers,
		interactive: cfg.Interactive,
		logger:      cfg.Logger,
	}
}

// Ensure resolves each capability in order and stops at the first denial.
func (g *HostGate) Ensure(ctx context.Context, caps ...Capability) bool {
	seen := make(map[Capability]bool, len(caps))
	for _, c := range caps {
		if seen[c] {
			continue
		}
		seen[c] = true

		if ctx.Err() != nil {
			return false
		}
		if !g.ensureOne(ctx, c) {
			g.debugLog("capability denied", "capability", c.String())
			return false
		}
	}
	return true
}

func (g *HostGate) ensureOne(ctx context.Context, c Capability) bool {
	checker, ok := g.checkers[c]
	if !ok {
		g.debugLog("capability not gated on this host", "capability", c.String())
		return true
	}

	status, err := checker.Check(ctx)
	if err != nil {
		g.debugLog("capability check failed", "capability", c.String(), "error", err)
		return false
	}

	switch status {
	case StatusGranted:
		return true
	case StatusPromptable:
		if !g.interactive {
			g.debugLog("capability needs a prompt but prompts are disabled", "capability", c.String())
			return false
		}
		granted, err := checker.Request(ctx)
		if err != nil {
			g.debugLog("capability request failed", "capability", c.String(), "error", err)
			return false
		}
		return granted && ctx.Err() == nil
	default:
		return false
	}
}

// debugLog logs a debug message if logging is enabled.
func (g *HostGate) debugLog(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

// Static is a Gate with fixed answers, for headless runs and tests.
type Static struct {
	// Denied lists capabilities that are never granted.
	Denied []Capability

	// DenyAll refuses every request.
	DenyAll bool
}

// Ensure grants unless a requested capability is denied.
func (s Static) Ensure(ctx context.Context, caps ...Capability) bool {
	if s.DenyAll || ctx.Err() != nil {
		return false
	}
	for _, c := range caps {
		for _, d := range s.Denied {
			if c == d {
				return false
			}
		}
	}
	return true
}

// Compile-time interface satisfaction checks.
var (
	_ Gate = (*HostGate)(nil)
	_ Gate = Static{}
)
