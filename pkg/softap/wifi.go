package softap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smartmonitor/onboard-go/pkg/execx"
)

// ErrNoWiFiDevice is returned when the host has no WiFi interface.
var ErrNoWiFiDevice = errors.New("no wifi device")

// WiFi is the host network interface handle.
type WiFi interface {
	// CurrentNetwork returns the SSID of the active network, or "" when
	// not associated.
	CurrentNetwork(ctx context.Context) (string, error)

	// Visible reports whether ssid is currently advertised nearby.
	Visible(ctx context.Context, ssid string) (bool, error)

	// Join associates with ssid. An empty password joins an open network.
	Join(ctx context.Context, ssid, password string) error

	// Disconnect leaves the active network.
	Disconnect(ctx context.Context) error

	// Rejoin activates the saved profile for ssid.
	Rejoin(ctx context.Context, ssid string) error
}

// NMCLI implements WiFi over NetworkManager's command line client.
type NMCLI struct {
	// Runner executes nmcli. Nil uses the host.
	Runner execx.Runner

	// Interface is the wifi device name. Empty selects the first wifi
	// device nmcli reports.
	Interface string

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// NewNMCLI creates an NMCLI handle on the host.
func NewNMCLI(iface string, logger *slog.Logger) *NMCLI {
	return &NMCLI{Runner: execx.NewOSRunner(), Interface: iface, Logger: logger}
}

func (n *NMCLI) runner() execx.Runner {
	if n.Runner == nil {
		return execx.NewOSRunner()
	}
	return n.Runner
}

// CurrentNetwork returns the active SSID.
func (n *NMCLI) CurrentNetwork(ctx context.Context) (string, error) {
	out, err := n.runner().Output(ctx, "nmcli", "-t", "-f", "ACTIVE,SSID", "device", "wifi", "list", "--rescan", "no")
	if err != nil {
		return "", fmt.Errorf("failed to query active network: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		active, ssid, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && active == "yes" {
			return unescape(ssid), nil
		}
	}
	return "", nil
}

// Visible rescans and reports whether ssid is in range.
func (n *NMCLI) Visible(ctx context.Context, ssid string) (bool, error) {
	out, err := n.runner().Output(ctx, "nmcli", "-t", "-f", "SSID", "device", "wifi", "list", "--rescan", "yes")
	if err != nil {
		return false, fmt.Errorf("failed to list networks: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if unescape(strings.TrimSpace(line)) == ssid {
			return true, nil
		}
	}
	return false, nil
}

// Join connects to ssid.
func (n *NMCLI) Join(ctx context.Context, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	if n.Interface != "" {
		args = append(args, "ifname", n.Interface)
	}

	n.debugLog("nmcli", "args", execx.Redact(args, "password"))
	if err := n.runner().Run(ctx, "nmcli", args...); err != nil {
		return fmt.Errorf("failed to join %q: %w", ssid, err)
	}
	return nil
}

// Disconnect disconnects the wifi device.
func (n *NMCLI) Disconnect(ctx context.Context) error {
	iface, err := n.device(ctx)
	if err != nil {
		return err
	}
	n.debugLog("nmcli", "args", []string{"device", "disconnect", iface})
	if err := n.runner().Run(ctx, "nmcli", "device", "disconnect", iface); err != nil {
		return fmt.Errorf("failed to disconnect %s: %w", iface, err)
	}
	return nil
}

// Rejoin brings the saved connection profile for ssid up.
func (n *NMCLI) Rejoin(ctx context.Context, ssid string) error {
	n.debugLog("nmcli", "args", []string{"connection", "up", "id", ssid})
	if err := n.runner().Run(ctx, "nmcli", "connection", "up", "id", ssid); err != nil {
		return fmt.Errorf("failed to rejoin %q: %w", ssid, err)
	}
	return nil
}

func (n *NMCLI) device(ctx context.Context) (string, error) {
	if n.Interface != "" {
		return n.Interface, nil
	}
	out, err := n.runner().Output(ctx, "nmcli", "-t", "-f", "DEVICE,TYPE", "device")
	if err != nil {
		return "", fmt.Errorf("failed to list devices: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		dev, typ, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && typ == "wifi" {
			return dev, nil
		}
	}
	return "", ErrNoWiFiDevice
}

// debugLog logs a debug message if logging is enabled.
func (n *NMCLI) debugLog(msg string, args ...any) {
	if n.Logger != nil {
		n.Logger.Debug(msg, args...)
	}
}

// unescape undoes nmcli's terse-mode escaping of ':' and '\'.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Compile-time interface satisfaction check.
var _ WiFi = (*NMCLI)(nil)
