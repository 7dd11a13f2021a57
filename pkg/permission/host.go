package permission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smartmonitor/onboard-go/pkg/execx"
)

// NetworkManager permission names.
const (
	NMNetworkControl = "org.freedesktop.NetworkManager.network-control"
	NMWifiShareOpen  = "org.freedesktop.NetworkManager.wifi.share.open"
	NMEnableWifi     = "org.freedesktop.NetworkManager.enable-disable-wifi"
)

// ErrUnknownPermission is returned when nmcli does not list a permission.
var ErrUnknownPermission = errors.New("permission not reported by NetworkManager")

// NMPermission checks a NetworkManager permission through nmcli.
//
// nmcli reports "yes" (granted), "auth" (granted after polkit
// authentication) or "no". For "auth" the polkit agent prompts on the first
// privileged call, so Request only confirms the caller accepts that prompt.
type NMPermission struct {
	Runner     execx.Runner
	Permission string
}

// Check reads the current value of the permission.
func (p NMPermission) Check(ctx context.Context) (Status, error) {
	out, err := p.Runner.Output(ctx, "nmcli", "-t", "-f", "PERMISSION,VALUE", "general", "permissions")
	if err != nil {
		return StatusDenied, fmt.Errorf("failed to read NetworkManager permissions: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		name, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || name != p.Permission {
			continue
		}
		switch strings.ToLower(value) {
		case "yes":
			return StatusGranted, nil
		case "auth":
			return StatusPromptable, nil
		default:
			return StatusDenied, nil
		}
	}
	return StatusDenied, fmt.Errorf("%w: %s", ErrUnknownPermission, p.Permission)
}

// Request accepts the deferred polkit prompt.
func (p NMPermission) Request(ctx context.Context) (bool, error) {
	return ctx.Err() == nil, nil
}

// Initializer is a host radio handle that can be brought up.
type Initializer interface {
	Init() error
}

// RadioChecker treats a radio stack that comes up as granted. On Linux the
// D-Bus policy for BlueZ is what grants scan and connect.
type RadioChecker struct {
	Stack Initializer
}

// Check initializes the stack.
func (r RadioChecker) Check(ctx context.Context) (Status, error) {
	if err := ctx.Err(); err != nil {
		return StatusDenied, err
	}
	if err := r.Stack.Init(); err != nil {
		return StatusDenied, fmt.Errorf("failed to initialize radio: %w", err)
	}
	return StatusGranted, nil
}

// Request retries initialization.
func (r RadioChecker) Request(ctx context.Context) (bool, error) {
	st, err := r.Check(ctx)
	return st == StatusGranted, err
}

// Compile-time interface satisfaction checks.
var (
	_ Checker = NMPermission{}
	_ Checker = RadioChecker{}
)
