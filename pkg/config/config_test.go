package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	timeouts := cfg.ProvisioningTimeouts()
	assert.Equal(t, 10*time.Second, timeouts.Scan)
	assert.Equal(t, 15*time.Second, cfg.AccessPoint.JoinTimeout.Std())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onboard.yaml")
	data := `
log_level: debug
codec: cbor
access_point:
  interface: wlp2s0
  device_ssid: SM-Setup-7
timeouts:
  scan: 20s
  confirmation: 1m
verify:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "cbor", cfg.Codec)
	assert.Equal(t, "wlp2s0", cfg.AccessPoint.Interface)
	assert.Equal(t, "SM-Setup-7", cfg.AccessPoint.DeviceSSID)
	assert.Equal(t, "http://192.168.4.1", cfg.AccessPoint.DeviceURL, "unset fields keep defaults")
	assert.Equal(t, 20*time.Second, cfg.Timeouts.Scan.Std())
	assert.Equal(t, time.Minute, cfg.ProvisioningTimeouts().Confirmation)
	assert.True(t, cfg.Verify.Enabled)
	assert.Equal(t, DefaultVerifyTimeout, cfg.Verify.Timeout.Std())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"bad duration":  "timeouts:\n  scan: soon\n",
		"bad codec":     "codec: xml\n",
		"bad level":     "log_level: chatty\n",
		"join too long": "access_point:\n  join_timeout: 30s\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "onboard.yaml")
			require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "onboard.yaml")
	cfg := Default()
	cfg.AccessPoint.DevicePassword = "setup-pass"
	cfg.Timeouts.Restore = Duration(45 * time.Second)

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestRegistryPath(t *testing.T) {
	cfg := Default()
	cfg.StateDir = "/var/lib/onboard"
	path, err := cfg.RegistryPath()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/onboard/devices.json", path)
}
