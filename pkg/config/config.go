// Package config loads the onboardctl YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smartmonitor/onboard-go/pkg/provisioning"
	"github.com/smartmonitor/onboard-go/pkg/radio"
	"github.com/smartmonitor/onboard-go/pkg/softap"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

const (
	DefaultLogLevel      = "info"
	DefaultVerifyTimeout = 30 * time.Second
	DefaultFileName      = "onboard.yaml"
)

// ErrInvalidConfig is wrapped by Validate errors.
var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration written as a string such as "10s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the onboardctl configuration.
type Config struct {
	// StateDir holds the device registry. Empty uses the user state
	// directory.
	StateDir string `yaml:"state_dir"`

	LogLevel string `yaml:"log_level"`

	// EventLog is the path of the CBOR protocol event log. Empty
	// disables it.
	EventLog string `yaml:"event_log,omitempty"`

	// Codec is the wire encoding, json or cbor.
	Codec string `yaml:"codec"`

	Radio       RadioConfig       `yaml:"radio"`
	AccessPoint AccessPointConfig `yaml:"access_point"`
	Timeouts    TimeoutsConfig    `yaml:"timeouts"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Verify      VerifyConfig      `yaml:"verify"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// RadioConfig configures the BLE transport.
type RadioConfig struct {
	ServiceUUID        string `yaml:"service_uuid"`
	CharacteristicUUID string `yaml:"characteristic_uuid"`
}

// AccessPointConfig configures the access-point transport.
type AccessPointConfig struct {
	Interface      string   `yaml:"interface,omitempty"`
	DeviceSSID     string   `yaml:"device_ssid"`
	DevicePassword string   `yaml:"device_password,omitempty"`
	DeviceURL      string   `yaml:"device_url"`
	JoinTimeout    Duration `yaml:"join_timeout"`
	PollInterval   Duration `yaml:"poll_interval"`
}

// TimeoutsConfig mirrors provisioning.Timeouts.
type TimeoutsConfig struct {
	Permission   Duration `yaml:"permission"`
	Scan         Duration `yaml:"scan"`
	Connect      Duration `yaml:"connect"`
	Exchange     Duration `yaml:"exchange"`
	Confirmation Duration `yaml:"confirmation"`
	Restore      Duration `yaml:"restore"`
}

// PermissionsConfig configures the permission gate.
type PermissionsConfig struct {
	// Interactive allows prompting through the host's policy agent.
	Interactive bool `yaml:"interactive"`
}

// VerifyConfig configures post-provisioning mDNS verification.
type VerifyConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Timeout   Duration `yaml:"timeout"`
	Interface string   `yaml:"interface,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address of the /metrics endpoint. Empty disables it.
	Listen string `yaml:"listen,omitempty"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	// Endpoint is the OTLP gRPC collector address. Empty disables export.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	t := provisioning.DefaultTimeouts()
	return Config{
		LogLevel: DefaultLogLevel,
		Codec:    wire.CodecJSON,
		Radio: RadioConfig{
			ServiceUUID:        radio.ServiceUUID,
			CharacteristicUUID: radio.CharacteristicUUID,
		},
		AccessPoint: AccessPointConfig{
			DeviceSSID:   softap.DefaultDeviceSSID,
			DeviceURL:    softap.DefaultDeviceURL,
			JoinTimeout:  Duration(softap.DefaultJoinTimeout),
			PollInterval: Duration(softap.DefaultPollInterval),
		},
		Timeouts: TimeoutsConfig{
			Permission:   Duration(t.Permission),
			Scan:         Duration(t.Scan),
			Connect:      Duration(t.Connect),
			Exchange:     Duration(t.Exchange),
			Confirmation: Duration(t.Confirmation),
			Restore:      Duration(t.Restore),
		},
		Permissions: PermissionsConfig{Interactive: true},
		Verify:      VerifyConfig{Timeout: Duration(DefaultVerifyTimeout)},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes cfg as YAML. The file may carry a device network
// passphrase, so it is private to the user.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := wire.CodecByName(c.Codec); err != nil {
		return fmt.Errorf("%w: codec: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Radio.ServiceUUID == "" || c.Radio.CharacteristicUUID == "" {
		return fmt.Errorf("%w: radio uuids are required", ErrInvalidConfig)
	}
	if c.AccessPoint.DeviceSSID == "" || c.AccessPoint.DeviceURL == "" {
		return fmt.Errorf("%w: access_point.device_ssid and device_url are required", ErrInvalidConfig)
	}
	if c.AccessPoint.JoinTimeout <= 0 || c.AccessPoint.PollInterval <= 0 {
		return fmt.Errorf("%w: access_point join_timeout and poll_interval must be positive", ErrInvalidConfig)
	}
	if c.AccessPoint.JoinTimeout >= c.Timeouts.Connect {
		return fmt.Errorf("%w: access_point.join_timeout must be shorter than timeouts.connect", ErrInvalidConfig)
	}
	return nil
}

// ProvisioningTimeouts returns the session budgets.
func (c *Config) ProvisioningTimeouts() provisioning.Timeouts {
	return provisioning.Timeouts{
		Permission:   c.Timeouts.Permission.Std(),
		Scan:         c.Timeouts.Scan.Std(),
		Connect:      c.Timeouts.Connect.Std(),
		Exchange:     c.Timeouts.Exchange.Std(),
		Confirmation: c.Timeouts.Confirmation.Std(),
		Restore:      c.Timeouts.Restore.Std(),
	}.WithDefaults()
}

// RegistryPath returns the device registry file, resolving StateDir.
func (c *Config) RegistryPath() (string, error) {
	dir := c.StateDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve state directory: %w", err)
		}
		dir = filepath.Join(base, "onboard")
	}
	return filepath.Join(dir, "devices.json"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(base, "onboard", DefaultFileName)
}
