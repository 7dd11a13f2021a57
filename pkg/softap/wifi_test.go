package softap

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	outputs map[string]string
	calls   [][]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func (r *fakeRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.outputs[strings.Join(args, " ")], nil
}

func TestNMCLICurrentNetwork(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"-t -f ACTIVE,SSID device wifi list --rescan no": "no:Neighbour\nyes:Home\\:Net\nno:Cafe",
	}}
	n := &NMCLI{Runner: r}

	ssid, err := n.CurrentNetwork(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Home:Net", ssid)
}

func TestNMCLINotAssociated(t *testing.T) {
	n := &NMCLI{Runner: &fakeRunner{}}
	ssid, err := n.CurrentNetwork(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ssid)
}

func TestNMCLIVisible(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"-t -f SSID device wifi list --rescan yes": "Neighbour\nSmartMonitor-Setup\n",
	}}
	n := &NMCLI{Runner: r}

	ok, err := n.Visible(context.Background(), "SmartMonitor-Setup")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = n.Visible(context.Background(), "Other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNMCLIJoin(t *testing.T) {
	r := &fakeRunner{}
	n := &NMCLI{Runner: r, Interface: "wlan0"}

	require.NoError(t, n.Join(context.Background(), "HomeNet", "secret123"))
	require.NoError(t, n.Join(context.Background(), "SmartMonitor-Setup", ""))

	assert.Equal(t, []string{"nmcli", "device", "wifi", "connect", "HomeNet", "password", "secret123", "ifname", "wlan0"}, r.calls[0])
	assert.Equal(t, []string{"nmcli", "device", "wifi", "connect", "SmartMonitor-Setup", "ifname", "wlan0"}, r.calls[1])
}

func TestNMCLIDisconnectFindsDevice(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"-t -f DEVICE,TYPE device": "eth0:ethernet\nwlp2s0:wifi\nlo:loopback",
	}}
	n := &NMCLI{Runner: r}

	require.NoError(t, n.Disconnect(context.Background()))
	assert.Equal(t, []string{"nmcli", "device", "disconnect", "wlp2s0"}, r.calls[len(r.calls)-1])
}

func TestNMCLINoWiFiDevice(t *testing.T) {
	r := &fakeRunner{outputs: map[string]string{
		"-t -f DEVICE,TYPE device": "eth0:ethernet",
	}}
	n := &NMCLI{Runner: r}
	assert.ErrorIs(t, n.Disconnect(context.Background()), ErrNoWiFiDevice)
}

func TestNMCLIRejoin(t *testing.T) {
	r := &fakeRunner{}
	n := &NMCLI{Runner: r}

	require.NoError(t, n.Rejoin(context.Background(), "HomeNet"))
	assert.Equal(t, []string{"nmcli", "connection", "up", "id", "HomeNet"}, r.calls[0])
}
