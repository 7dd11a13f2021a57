package provisioning

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/smartmonitor/onboard-go/pkg/wire"
)

// DiscoveredDevice is a provisionable device seen by a transport.
type DiscoveredDevice struct {
	// Address is the transport handle (radio address, or the network name
	// of the device access point).
	Address string

	// Name is the advertised name, e.g. "SmartMonitor_7".
	Name string

	// RSSI is the signal strength in dBm, zero when unknown.
	RSSI int

	// DeviceID is parsed from Name, nil when Name does not match
	// "<family>_<integer>".
	DeviceID *int
}

// NewDiscoveredDevice creates a device record and parses its id from name.
func NewDiscoveredDevice(address, name string, rssi int) DiscoveredDevice {
	d := DiscoveredDevice{Address: address, Name: name, RSSI: rssi}
	if id, ok := ParseDeviceID(name); ok {
		d.DeviceID = &id
	}
	return d
}

// String returns the name and address.
func (d DiscoveredDevice) String() string {
	if d.Name == "" {
		return d.Address
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Address)
}

// ParseDeviceID extracts the integer suffix of "<family>_<integer>".
func ParseDeviceID(name string) (int, bool) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return 0, false
	}
	id, err := strconv.Atoi(name[i+1:])
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Credentials are the network settings delivered to a device.
type Credentials struct {
	SSID     string
	Password string

	// Email is optional and forwarded to the device.
	Email string
}

// Validate checks the credentials against 802.11 limits: an SSID of 1 to
// 32 bytes, and a password that is empty (open network), a WPA passphrase
// of 8 to 63 characters, or a 64 digit hex key.
func (c Credentials) Validate() error {
	if len(c.SSID) == 0 || len(c.SSID) > 32 {
		return fmt.Errorf("%w: ssid must be 1 to 32 bytes", ErrInvalidCredentials)
	}
	if c.Password == "" {
		return nil
	}
	n := utf8.RuneCountInString(c.Password)
	if n >= 8 && n <= 63 {
		return nil
	}
	if len(c.Password) == 64 {
		if _, err := hex.DecodeString(c.Password); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: password must be 8 to 63 characters or 64 hex digits", ErrInvalidCredentials)
}

// Wire returns the record sent to the device.
func (c Credentials) Wire() *wire.Credentials {
	return &wire.Credentials{SSID: c.SSID, Password: c.Password, Email: c.Email}
}

// LogValue keeps the password out of structured logs.
func (c Credentials) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("ssid", c.SSID),
		slog.Bool("open", c.Password == ""),
	}
	if c.Email != "" {
		attrs = append(attrs, slog.String("email", c.Email))
	}
	return slog.GroupValue(attrs...)
}

// String omits the password.
func (c Credentials) String() string {
	return fmt.Sprintf("ssid=%q", c.SSID)
}
