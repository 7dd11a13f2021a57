package provisioning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartmonitor/onboard-go/pkg/permission"
	"github.com/smartmonitor/onboard-go/pkg/permission/mocks"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

type fakeLink struct {
	mu sync.Mutex

	prepareErr error
	sendErr    error
	reply      *Reply
	awaitErr   error
	awaitBlock bool
	restoreErr error

	sent     [][]byte
	closes   int
	restores int
}

func (l *fakeLink) Prepare(ctx context.Context) error { return l.prepareErr }

func (l *fakeLink) Send(ctx context.Context, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, payload)
	return l.sendErr
}

func (l *fakeLink) Await(ctx context.Context) (*Reply, error) {
	if l.awaitBlock {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return l.reply, l.awaitErr
}

func (l *fakeLink) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closes++
	return nil
}

type restoringLink struct {
	*fakeLink
}

func (l restoringLink) Restore(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.restores++
	return l.restoreErr
}

type fakeTransport struct {
	kind       TransportKind
	link       Link
	connectErr error
	connects   int
}

func (f *fakeTransport) Kind() TransportKind { return f.kind }

func (f *fakeTransport) Capabilities() []permission.Capability {
	if f.kind == TransportAccessPoint {
		return []permission.Capability{permission.CapabilityNetworkControl}
	}
	return []permission.Capability{permission.CapabilityRadioConnect}
}

func (f *fakeTransport) Codec() wire.Codec { return wire.JSONCodec{} }

func (f *fakeTransport) Connect(ctx context.Context, device *DiscoveredDevice) (Link, error) {
	f.connects++
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return f.link, nil
}

type locatingTransport struct {
	*fakeTransport
	found     *DiscoveredDevice
	locateErr error
}

func (l *locatingTransport) Locate(ctx context.Context, target *DiscoveredDevice) (*DiscoveredDevice, error) {
	return l.found, l.locateErr
}

func intPtr(v int) *int { return &v }

func ackReply(ack wire.Ack) *Reply {
	raw, _ := wire.EncodeAck(wire.JSONCodec{}, &ack)
	return &Reply{Ack: &ack, Raw: raw}
}

func testCreds() Credentials {
	return Credentials{SSID: "HomeNet", Password: "correct-horse", Email: "owner@example.com"}
}

func fastTimeouts() Timeouts {
	return Timeouts{
		Permission:   200 * time.Millisecond,
		Scan:         200 * time.Millisecond,
		Connect:      200 * time.Millisecond,
		Exchange:     200 * time.Millisecond,
		Confirmation: 100 * time.Millisecond,
		Restore:      200 * time.Millisecond,
	}
}

func grantingGate(t *testing.T) *mocks.MockGate {
	gate := mocks.NewMockGate(t)
	gate.EXPECT().Ensure(mock.Anything, mock.Anything).Return(true).Once()
	return gate
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestRadioSessionSucceeds(t *testing.T) {
	link := &fakeLink{reply: ackReply(wire.Ack{Success: true, DeviceID: intPtr(42)})}
	device := NewDiscoveredDevice("AA:BB:CC:DD:EE:FF", "SmartMonitor_42", -60)
	tr := &locatingTransport{fakeTransport: &fakeTransport{kind: TransportRadio, link: link}, found: &device}

	var progress []string
	s, err := NewSession(SessionConfig{
		Transport:   tr,
		Gate:        grantingGate(t),
		Credentials: testCreds(),
		Timeouts:    fastTimeouts(),
		OnProgress:  func(step string) { progress = append(progress, step) },
	})
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.DeviceID)
	assert.Equal(t, 42, *res.DeviceID)
	assert.Nil(t, res.ConnectivityRestored)
	assert.Equal(t, TransportRadio, res.Transport)
	assert.Equal(t, StateSucceeded, s.State())
	assert.Equal(t, 1, link.closes)

	want := []string{
		StepCheckingPermissions,
		StepScanning,
		StepConnecting,
		StepDiscoveringServices,
		StepSendingCredentials,
		StepWaitingForConfirmation,
		StepSucceeded,
	}
	assert.Equal(t, want, res.Steps)
	assert.Equal(t, want, progress)

	events := drain(s.Events())
	require.Len(t, events, len(want))
	assert.Equal(t, StateSucceeded, events[len(events)-1].State)
	assert.Equal(t, StateConnecting, events[3].State, "service discovery is reported within CONNECTING")

	require.Len(t, link.sent, 1)
	creds, err := wire.DecodeCredentials(wire.JSONCodec{}, link.sent[0])
	require.NoError(t, err)
	assert.Equal(t, "HomeNet", creds.SSID)
	assert.Equal(t, "owner@example.com", creds.Email)
}

func TestPermissionDeniedTouchesNoTransport(t *testing.T) {
	gate := mocks.NewMockGate(t)
	gate.EXPECT().Ensure(mock.Anything, permission.CapabilityRadioConnect).Return(false).Once()

	tr := &fakeTransport{kind: TransportRadio, link: &fakeLink{}}
	target := NewDiscoveredDevice("addr", "SmartMonitor_1", 0)
	s, err := NewSession(SessionConfig{Transport: tr, Gate: gate, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, KindPermissionDenied, res.Kind)
	assert.Equal(t, 0, tr.connects)
	assert.Equal(t, []string{StepCheckingPermissions, StepFailed}, res.Steps)
	assert.ErrorIs(t, res.Err(), ErrPermissionDenied)
}

func TestDeviceNotFound(t *testing.T) {
	tr := &locatingTransport{fakeTransport: &fakeTransport{kind: TransportRadio, link: &fakeLink{}}}
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	res, _ := s.Run(context.Background())
	assert.Equal(t, KindDeviceNotFound, res.Kind)
	assert.Equal(t, 0, tr.connects)
}

func TestConfirmationTimeoutReleasesLinkOnce(t *testing.T) {
	link := &fakeLink{awaitBlock: true}
	tr := &fakeTransport{kind: TransportRadio, link: link}
	target := NewDiscoveredDevice("addr", "SmartMonitor_3", 0)
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	start := time.Now()
	res, _ := s.Run(context.Background())

	assert.Equal(t, KindConfirmationTimeout, res.Kind)
	assert.Equal(t, 1, link.closes)
	assert.Less(t, time.Since(start), fastTimeouts().Total())
	assert.Equal(t, StateFailed, s.State())
}

func TestFailureMessageOmitsKindName(t *testing.T) {
	link := &fakeLink{awaitErr: NewError(KindConfirmationTimeout, "device did not answer", context.DeadlineExceeded)}
	tr := &fakeTransport{kind: TransportRadio, link: link}
	target := NewDiscoveredDevice("addr", "SmartMonitor_3", 0)
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	res, _ := s.Run(context.Background())
	assert.Equal(t, KindConfirmationTimeout, res.Kind)
	assert.Equal(t, "no confirmation from device: device did not answer: context deadline exceeded", res.Message)
	assert.NotContains(t, res.Message, KindConfirmationTimeout.String())
}

func TestCallerDeadlineKeepsStageKind(t *testing.T) {
	link := &fakeLink{awaitBlock: true}
	tr := &fakeTransport{kind: TransportRadio, link: link}
	target := NewDiscoveredDevice("addr", "SmartMonitor_3", 0)
	timeouts := fastTimeouts()
	timeouts.Confirmation = 10 * time.Second
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: timeouts})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, _ := s.Run(ctx)
	assert.Equal(t, KindConfirmationTimeout, res.Kind, res.Message)
	assert.Equal(t, 1, link.closes)
}

func TestDeviceRejected(t *testing.T) {
	link := &fakeLink{reply: ackReply(wire.Ack{Success: false, Error: "wrong password"})}
	tr := &fakeTransport{kind: TransportRadio, link: link}
	target := NewDiscoveredDevice("addr", "SmartMonitor_3", 0)
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	res, _ := s.Run(context.Background())
	assert.Equal(t, KindDeviceRejected, res.Kind)
	assert.Equal(t, "wrong password", res.Message)
	assert.Nil(t, res.DeviceID)
	assert.Equal(t, 1, link.closes)
}

func TestStageFailureKinds(t *testing.T) {
	tests := []struct {
		name       string
		link       *fakeLink
		connectErr error
		want       Kind
		closes     int
	}{
		{
			name:   "prepare fails",
			link:   &fakeLink{prepareErr: errors.New("service not found")},
			want:   KindConnectionError,
			closes: 1,
		},
		{
			name:       "connect fails",
			link:       &fakeLink{},
			connectErr: errors.New("le-connection-abort-by-local"),
			want:       KindConnectionError,
			closes:     0,
		},
		{
			name:       "connect keeps transport classification",
			link:       &fakeLink{},
			connectErr: NewError(KindNetworkSwitchFailed, "could not join", nil),
			want:       KindNetworkSwitchFailed,
			closes:     0,
		},
		{
			name:   "write fails",
			link:   &fakeLink{sendErr: errors.New("att error")},
			want:   KindTransmissionError,
			closes: 1,
		},
		{
			name:   "malformed reply",
			link:   &fakeLink{awaitErr: NewError(KindMalformedResponse, "not json", nil)},
			want:   KindMalformedResponse,
			closes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{kind: TransportRadio, link: tt.link, connectErr: tt.connectErr}
			target := NewDiscoveredDevice("addr", "SmartMonitor_3", 0)
			s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
			require.NoError(t, err)

			res, _ := s.Run(context.Background())
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Kind)
			assert.Equal(t, tt.closes, tt.link.closes)
			assert.Equal(t, StepFailed, res.Steps[len(res.Steps)-1])
		})
	}
}

func TestAccessPointRestoreNeverDowngradesSuccess(t *testing.T) {
	inner := &fakeLink{reply: ackReply(wire.Ack{Success: true}), restoreErr: errors.New("home network gone")}
	tr := &fakeTransport{kind: TransportAccessPoint, link: restoringLink{inner}}
	target := NewDiscoveredDevice("SmartMonitor_9", "SmartMonitor_9", 0)
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	res, _ := s.Run(context.Background())

	assert.True(t, res.Success)
	require.NotNil(t, res.ConnectivityRestored)
	assert.False(t, *res.ConnectivityRestored)
	assert.False(t, res.Restored())
	require.NotNil(t, res.DeviceID, "falls back to the id in the device name")
	assert.Equal(t, 9, *res.DeviceID)
	assert.Equal(t, 1, inner.restores)
	assert.Equal(t, 1, inner.closes)
	assert.Contains(t, res.Steps, StepRestoringConnectivity)
	assert.NotContains(t, res.Steps, StepScanning)
}

func TestAccessPointRestoresAfterFailure(t *testing.T) {
	inner := &fakeLink{sendErr: NewError(KindNetworkSwitchFailed, "device unreachable", nil)}
	tr := &fakeTransport{kind: TransportAccessPoint, link: restoringLink{inner}}
	target := NewDiscoveredDevice("SmartMonitor_9", "SmartMonitor_9", 0)
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	res, _ := s.Run(context.Background())

	assert.Equal(t, KindNetworkSwitchFailed, res.Kind)
	require.NotNil(t, res.ConnectivityRestored)
	assert.True(t, *res.ConnectivityRestored)
	assert.Equal(t, 1, inner.restores)
}

func TestCancellationClosesLink(t *testing.T) {
	link := &fakeLink{awaitBlock: true}
	tr := &fakeTransport{kind: TransportRadio, link: link}
	target := NewDiscoveredDevice("addr", "SmartMonitor_3", 0)
	timeouts := fastTimeouts()
	timeouts.Confirmation = 10 * time.Second
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: timeouts})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for ev := range s.Events() {
			if ev.State == StateAwaitingConfirmation {
				cancel()
			}
		}
	}()

	start := time.Now()
	res, _ := s.Run(ctx)

	assert.Equal(t, KindCancelled, res.Kind)
	assert.Equal(t, 1, link.closes)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSessionRunsOnce(t *testing.T) {
	link := &fakeLink{reply: ackReply(wire.Ack{Success: true})}
	tr := &fakeTransport{kind: TransportRadio, link: link}
	target := NewDiscoveredDevice("addr", "x", 0)
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts()})
	require.NoError(t, err)

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Nil(t, first.DeviceID)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrSessionUsed)
	assert.Equal(t, 1, tr.connects)
	assert.Equal(t, StateSucceeded, s.State())
}

func TestNewSessionValidation(t *testing.T) {
	tr := &fakeTransport{kind: TransportRadio}
	target := NewDiscoveredDevice("addr", "x", 0)

	_, err := NewSession(SessionConfig{Gate: permission.Static{}, Target: &target, Credentials: testCreds()})
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = NewSession(SessionConfig{Transport: tr, Target: &target, Credentials: testCreds()})
	assert.ErrorIs(t, err, ErrNoGate)

	_, err = NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: Credentials{SSID: "x", Password: "short"}})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Credentials: testCreds()})
	assert.ErrorIs(t, err, ErrNoTarget)
}

func TestEventLogNeverCarriesPassword(t *testing.T) {
	link := &fakeLink{reply: ackReply(wire.Ack{Success: true})}
	tr := &fakeTransport{kind: TransportRadio, link: link}
	target := NewDiscoveredDevice("addr", "x", 0)
	rec := &captureLog{}
	s, err := NewSession(SessionConfig{Transport: tr, Gate: permission.Static{}, Target: &target, Credentials: testCreds(), Timeouts: fastTimeouts(), EventLog: rec})
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, rec.events)
	frames := 0
	for _, ev := range rec.events {
		assert.Equal(t, s.ID(), ev.SessionID)
		if ev.Frame != nil && ev.Frame.Record == "credentials" {
			frames++
			assert.True(t, ev.Frame.Redacted)
			assert.Empty(t, ev.Frame.Data)
		}
	}
	assert.Equal(t, 1, frames)
	last := rec.events[len(rec.events)-1]
	require.NotNil(t, last.Outcome)
	assert.True(t, last.Outcome.Success)
}
