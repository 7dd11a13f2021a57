package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartmonitor/onboard-go/pkg/discovery"
	"github.com/smartmonitor/onboard-go/pkg/persistence"
)

func TestWriteDevices(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	reg := &persistence.Registry{Devices: []persistence.ProvisionedDevice{
		{
			DeviceID:      7,
			Name:          "SmartMonitor_7",
			Transport:     "RADIO",
			SSID:          "HomeNet",
			ProvisionedAt: now.Add(-2 * time.Hour),
			Reprovisioned: 1,
			VerifiedAt:    now.Add(-3 * time.Minute),
		},
		{
			Address:       "SmartMonitor-Setup",
			Transport:     "ACCESS_POINT",
			SSID:          "HomeNet",
			ProvisionedAt: now.Add(-48 * time.Hour),
		},
	}}

	var buf bytes.Buffer
	writeDevices(&buf, reg, map[int]*discovery.DeviceService{
		7: {DeviceID: 7, Addresses: []string{"192.168.1.7"}},
	}, now)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[0], "ONLINE")

	assert.Contains(t, lines[1], "SmartMonitor_7")
	assert.Contains(t, lines[1], "2 hours ago (+1)")
	assert.Contains(t, lines[1], "3 minutes ago")
	assert.Contains(t, lines[1], "192.168.1.7")

	assert.True(t, strings.HasPrefix(lines[2], "-"))
	assert.Contains(t, lines[2], "SmartMonitor-Setup")
	assert.Contains(t, lines[2], "2 days ago")
	assert.Contains(t, lines[2], "never")
}

func TestOnlineColumn(t *testing.T) {
	assert.Equal(t, "no", onlineColumn(nil))
	assert.Equal(t, "yes", onlineColumn(&discovery.DeviceService{DeviceID: 3}))
}
