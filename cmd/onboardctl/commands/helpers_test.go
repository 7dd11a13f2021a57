package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartmonitor/onboard-go/pkg/discovery"
	"github.com/smartmonitor/onboard-go/pkg/log"
	"github.com/smartmonitor/onboard-go/pkg/onboard"
	"github.com/smartmonitor/onboard-go/pkg/permission"
	"github.com/smartmonitor/onboard-go/pkg/persistence"
	"github.com/smartmonitor/onboard-go/pkg/provisioning"
	"github.com/smartmonitor/onboard-go/pkg/radio"
	"github.com/smartmonitor/onboard-go/pkg/softap"
	"github.com/smartmonitor/onboard-go/pkg/softap/mocks"
)

const homeSSID = "HomeNet"

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.olog")

	logger, err := log.NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

// testEnv runs the command tree against an isolated config and state
// directory. No host radio or network is touched.
type testEnv struct {
	t        *testing.T
	a        *app
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	stateDir string
	builds   int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	e := &testEnv{t: t, stateDir: t.TempDir()}
	e.a = newApp(&e.stderr)
	e.a.newOnboarder = func(context.Context) (*onboard.Onboarder, error) {
		return nil, errors.New("no onboarder in this test")
	}
	e.a.newBrowser = func() discovery.Browser { return &stubBrowser{} }
	e.a.promptPassword = func(string) (string, error) {
		return "", errors.New("unexpected password prompt")
	}
	return e
}

// withOnboarder makes the commands use cfg, with the registry in the
// test state directory.
func (e *testEnv) withOnboarder(cfg onboard.Config) {
	cfg.Registry = e.registry()
	e.a.newOnboarder = func(context.Context) (*onboard.Onboarder, error) {
		e.builds++
		return onboard.New(cfg)
	}
}

func (e *testEnv) registry() *persistence.RegistryStore {
	return persistence.NewRegistryStore(filepath.Join(e.stateDir, "devices.json"))
}

func (e *testEnv) run(args ...string) error {
	e.stdout.Reset()
	return e.a.execute(context.Background(), append([]string{"--state-dir", e.stateDir}, args...), &e.stdout)
}

// hostNetwork simulates the host's association state behind a MockWiFi.
type hostNetwork struct {
	mu      sync.Mutex
	current string
}

func (n *hostNetwork) get() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *hostNetwork) set(ssid string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = ssid
}

func newAccessPoint(t *testing.T, n *hostNetwork, url string, visible bool) *softap.AccessPoint {
	t.Helper()

	wifi := mocks.NewMockWiFi(t)
	wifi.EXPECT().CurrentNetwork(mock.Anything).RunAndReturn(func(context.Context) (string, error) {
		return n.get(), nil
	}).Maybe()
	wifi.EXPECT().Visible(mock.Anything, softap.DefaultDeviceSSID).Return(visible, nil).Maybe()
	wifi.EXPECT().Disconnect(mock.Anything).RunAndReturn(func(context.Context) error {
		n.set("")
		return nil
	}).Maybe()
	wifi.EXPECT().Join(mock.Anything, softap.DefaultDeviceSSID, "").RunAndReturn(func(_ context.Context, ssid, _ string) error {
		n.set(ssid)
		return nil
	}).Maybe()
	wifi.EXPECT().Rejoin(mock.Anything, homeSSID).RunAndReturn(func(_ context.Context, ssid string) error {
		n.set(ssid)
		return nil
	}).Maybe()

	cfg := softap.DefaultConfig()
	cfg.WiFi = wifi
	cfg.Gate = permission.Static{}
	cfg.DeviceURL = url
	cfg.JoinTimeout = 200 * time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	cfg.ProbeTimeout = 50 * time.Millisecond
	cfg.Timeouts = provisioning.Timeouts{
		Permission:   100 * time.Millisecond,
		Connect:      time.Second,
		Exchange:     500 * time.Millisecond,
		Confirmation: 500 * time.Millisecond,
		Restore:      300 * time.Millisecond,
	}
	ap, err := softap.New(cfg)
	require.NoError(t, err)
	return ap
}

// deviceServer answers probes with 200 and the provisioning request with
// body.
func deviceServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == softap.DefaultProvisionPath {
			_, _ = w.Write([]byte(body))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type stubStack struct {
	ads  []radio.Advertisement
	link *stubLink
}

func (s *stubStack) Init() error     { return nil }
func (s *stubStack) Teardown() error { return nil }
func (s *stubStack) StopScan() error { return nil }

func (s *stubStack) StartScan(_ string, onAdv func(radio.Advertisement)) error {
	for _, ad := range s.ads {
		onAdv(ad)
	}
	return nil
}

func (s *stubStack) Connect(context.Context, string) (radio.Link, error) {
	return s.link, nil
}

type stubLink struct {
	ack []byte

	mu     sync.Mutex
	notify func([]byte)
}

func (l *stubLink) Discover(context.Context, string, string) error { return nil }
func (l *stubLink) Disconnect() error                              { return nil }

func (l *stubLink) Subscribe(onData func([]byte)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notify = onData
	return nil
}

func (l *stubLink) Write(context.Context, []byte, bool) error {
	l.mu.Lock()
	notify := l.notify
	l.mu.Unlock()
	go notify(l.ack)
	return nil
}

func newRadio(t *testing.T, stack *stubStack) *radio.Radio {
	t.Helper()
	cfg := radio.DefaultConfig()
	cfg.Stack = stack
	cfg.Gate = permission.Static{}
	cfg.Timeouts = provisioning.Timeouts{Scan: 100 * time.Millisecond, Confirmation: 500 * time.Millisecond}
	r, err := radio.New(cfg)
	require.NoError(t, err)
	return r
}

type stubBrowser struct {
	services []*discovery.DeviceService
}

func (b *stubBrowser) Browse(ctx context.Context) (<-chan *discovery.DeviceService, error) {
	ch := make(chan *discovery.DeviceService)
	go func() {
		defer close(ch)
		for _, svc := range b.services {
			select {
			case ch <- svc:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return ch, nil
}

func (b *stubBrowser) FindDevice(ctx context.Context, id int) (*discovery.DeviceService, error) {
	for _, svc := range b.services {
		if svc.DeviceID == id {
			return svc, nil
		}
	}
	<-ctx.Done()
	return nil, ctx.Err()
}
