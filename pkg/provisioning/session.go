package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/smartmonitor/onboard-go/pkg/log"
	"github.com/smartmonitor/onboard-go/pkg/permission"
	"github.com/smartmonitor/onboard-go/pkg/telemetry"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

// ErrNoTarget is returned when a transport cannot locate devices and no
// target was given.
var ErrNoTarget = errors.New("target device is required")

// eventBuffer holds every event a session can emit.
const eventBuffer = 16

// SessionConfig configures a Session.
type SessionConfig struct {
	Transport Transport
	Gate      permission.Gate

	// Target is the device to provision. Transports implementing Locator
	// may be given nil and pick the device themselves.
	Target *DiscoveredDevice

	Credentials Credentials
	Timeouts    Timeouts

	// OnProgress receives each step label. Called on the Run goroutine.
	OnProgress ProgressFunc

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// EventLog receives the provisioning event trace. Nil disables it.
	EventLog log.Logger
}

// Session is a single provisioning attempt.
type Session struct {
	id     string
	cfg    SessionConfig
	target *DiscoveredDevice
	layer  log.Layer

	used   atomic.Bool
	events chan Event

	mu    sync.Mutex
	state State
	steps []string

	// Set by Run.
	start time.Time
	span  trace.Span
}

// NewSession validates cfg and creates an idle session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.Gate == nil {
		return nil, ErrNoGate
	}
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}

	var target *DiscoveredDevice
	if cfg.Target != nil {
		t := *cfg.Target
		target = &t
	} else if _, ok := cfg.Transport.(Locator); !ok {
		return nil, ErrNoTarget
	}

	cfg.Timeouts = cfg.Timeouts.WithDefaults()
	cfg.EventLog = log.OrNoop(cfg.EventLog)

	layer := log.LayerRadio
	if cfg.Transport.Kind() == TransportAccessPoint {
		layer = log.LayerAccessPoint
	}

	return &Session{
		id:     uuid.New().String(),
		cfg:    cfg,
		target: target,
		layer:  layer,
		events: make(chan Event, eventBuffer),
		state:  StateIdle,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Steps returns the step labels reported so far.
func (s *Session) Steps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.steps))
	copy(out, s.steps)
	return out
}

// Events returns the progress sequence. The channel is closed after the
// terminal event; it cannot be restarted.
func (s *Session) Events() <-chan Event {
	return s.events
}

// outcome is the stage result handed to release and finish.
type outcome struct {
	success  bool
	kind     Kind
	message  string
	err      error
	deviceID *int
}

func failure(kind Kind, message string, err error) outcome {
	return outcome{kind: kind, message: message, err: err}
}

// Run executes the session and returns its terminal result. It returns an
// error only when the session was already run.
func (s *Session) Run(ctx context.Context) (Result, error) {
	if !s.used.CompareAndSwap(false, true) {
		return Result{}, ErrSessionUsed
	}

	s.start = time.Now()
	ctx, s.span = telemetry.StartSessionSpan(ctx, s.id, s.cfg.Transport.Kind().String())

	res := s.run(ctx)

	telemetry.EndSessionSpan(s.span, res.Success, res.Kind.String(), res.Message)
	return res, nil
}

func (s *Session) run(ctx context.Context) Result {
	t := s.cfg.Timeouts
	device := s.target

	s.transition(StatePermissionCheck, StepCheckingPermissions, "")
	pctx, cancel := context.WithTimeout(ctx, t.Permission)
	granted := s.cfg.Gate.Ensure(pctx, s.cfg.Transport.Capabilities()...)
	cancel()
	if !granted {
		return s.finish(ctx, device, failure(KindPermissionDenied, "required permissions not granted", nil), nil)
	}

	if loc, ok := s.cfg.Transport.(Locator); ok {
		s.transition(StateScanning, StepScanning, "")
		sctx, cancel := context.WithTimeout(ctx, t.Scan)
		found, err := loc.Locate(sctx, device)
		cancel()
		if err != nil {
			return s.finish(ctx, device, failure(KindOf(err, KindDeviceNotFound), "device not found", err), nil)
		}
		if found == nil {
			return s.finish(ctx, device, failure(KindDeviceNotFound, "device not found", nil), nil)
		}
		device = found
	}

	s.transition(StateConnecting, StepConnecting, "")
	cctx, cancel := context.WithTimeout(ctx, t.Connect)
	link, err := s.cfg.Transport.Connect(cctx, device)
	if err != nil {
		cancel()
		return s.finish(ctx, device, failure(KindOf(err, KindConnectionError), "failed to connect", err), nil)
	}

	s.step(StepDiscoveringServices)
	err = link.Prepare(cctx)
	cancel()
	if err != nil {
		return s.release(ctx, device, link, failure(KindOf(err, KindConnectionError), "failed to open control channel", err))
	}

	return s.release(ctx, device, link, s.exchange(ctx, device, link))
}

// exchange sends the credentials and waits for the acknowledgment.
func (s *Session) exchange(ctx context.Context, device *DiscoveredDevice, link Link) outcome {
	t := s.cfg.Timeouts
	codec := s.cfg.Transport.Codec()

	s.transition(StateCredentialExchange, StepSendingCredentials, "")
	payload, err := wire.EncodeCredentials(codec, s.cfg.Credentials.Wire())
	if err != nil {
		return failure(KindTransmissionError, "failed to encode credentials", err)
	}

	ectx, cancel := context.WithTimeout(ctx, t.Exchange)
	err = link.Send(ectx, payload)
	cancel()
	s.logFrame(log.DirectionOut, "credentials", codec.Name(), payload, true)
	if err != nil {
		return failure(KindOf(err, KindTransmissionError), "failed to send credentials", err)
	}

	s.transition(StateAwaitingConfirmation, StepWaitingForConfirmation, "")
	actx, cancel := context.WithTimeout(ctx, t.Confirmation)
	reply, err := link.Await(actx)
	cancel()
	if err != nil {
		return failure(KindOf(err, KindConfirmationTimeout), "no confirmation from device", err)
	}
	s.logFrame(log.DirectionIn, "ack", codec.Name(), reply.Raw, false)

	if !reply.Ack.Success {
		msg := reply.Ack.Reason()
		if msg == "" {
			msg = "device rejected the credentials"
		}
		return failure(KindDeviceRejected, msg, nil)
	}

	id := reply.Ack.DeviceID
	if id == nil && device != nil {
		id = device.DeviceID
	}
	return outcome{success: true, deviceID: id}
}

// release restores connectivity if the link disturbed it and closes the
// link. It runs under a fresh budget so cancellation never skips it.
func (s *Session) release(ctx context.Context, device *DiscoveredDevice, link Link, o outcome) Result {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeouts.Restore)
	defer cancel()

	var restored *bool
	if r, ok := link.(Restorer); ok {
		s.transition(StateRestoringConnectivity, StepRestoringConnectivity, "")
		err := r.Restore(rctx)
		ok := err == nil
		restored = &ok
		if err != nil {
			s.logError("restore connectivity", KindNone, err)
			s.debugLog("connectivity not restored", "session", s.id, "error", err)
		}
	}

	if err := link.Close(rctx); err != nil {
		s.debugLog("link close failed", "session", s.id, "error", err)
	}

	return s.finish(ctx, device, o, restored)
}

// finish enters the terminal state and builds the result.
func (s *Session) finish(ctx context.Context, device *DiscoveredDevice, o outcome, restored *bool) Result {
	// A caller deadline keeps the stage's own kind.
	if !o.success && errors.Is(ctx.Err(), context.Canceled) {
		o.message = fmt.Sprintf("cancelled during %s", s.State())
		o.kind = KindCancelled
	}

	if o.success {
		s.transition(StateSucceeded, StepSucceeded, "")
	} else {
		s.logError(s.State().String(), o.kind, errorOrMessage(o))
		s.transition(StateFailed, StepFailed, o.kind.String())
	}

	res := Result{
		Success:              o.success,
		ConnectivityRestored: restored,
		Transport:            s.cfg.Transport.Kind(),
		SessionID:            s.id,
		Steps:                s.Steps(),
		Duration:             time.Since(s.start),
	}
	if device != nil {
		d := *device
		res.Device = &d
	}
	if o.success {
		res.DeviceID = o.deviceID
	} else {
		res.Kind = o.kind
		res.Message = o.message
		if o.kind != KindCancelled {
			if d := errorDetail(o.err); d != "" {
				res.Message = o.message + ": " + d
			}
		}
	}

	s.logOutcome(res)
	close(s.events)
	return res
}

// errorDetail describes err without the kind name a classified error
// would repeat.
func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return err.Error()
	}
	switch {
	case pe.Message != "" && pe.Err != nil:
		return pe.Message + ": " + pe.Err.Error()
	case pe.Err != nil:
		return pe.Err.Error()
	default:
		return pe.Message
	}
}

func errorOrMessage(o outcome) error {
	if o.err != nil {
		return o.err
	}
	return errors.New(o.message)
}

// transition moves to a new state and emits its step.
func (s *Session) transition(state State, step, reason string) {
	s.mu.Lock()
	old := s.state
	s.state = state
	s.mu.Unlock()

	s.cfg.EventLog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: old.String(),
			NewState: state.String(),
			Step:     step,
			Reason:   reason,
		},
	})
	s.debugLog("session state", "session", s.id, "from", old.String(), "to", state.String())

	s.step(step)
}

// step reports a progress label within the current state.
func (s *Session) step(label string) {
	s.mu.Lock()
	s.steps = append(s.steps, label)
	state := s.state
	s.mu.Unlock()

	ev := Event{
		State:   state,
		Step:    label,
		Elapsed: time.Since(s.start),
		Budget:  s.cfg.Timeouts.budget(state),
	}
	select {
	case s.events <- ev:
	default:
	}

	if s.span != nil {
		telemetry.StageEvent(s.span, state.String(), label)
	}
	if s.cfg.OnProgress != nil {
		s.cfg.OnProgress(label)
	}
}

func (s *Session) logFrame(dir log.Direction, record, codec string, data []byte, redact bool) {
	f := &log.FrameEvent{Size: len(data), Record: record, Codec: codec, Redacted: redact}
	if !redact {
		f.Data = data
	}
	s.cfg.EventLog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: dir,
		Layer:     s.layer,
		Category:  log.CategoryFrame,
		Address:   s.address(),
		Frame:     f,
	})
}

func (s *Session) logError(during string, kind Kind, err error) {
	e := &log.ErrorEventData{Layer: s.layer, Message: err.Error(), Context: during}
	if kind != KindNone {
		e.Kind = kind.String()
	}
	s.cfg.EventLog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Layer:     s.layer,
		Category:  log.CategoryError,
		Address:   s.address(),
		Error:     e,
	})
}

func (s *Session) logOutcome(res Result) {
	ev := log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Layer:     log.LayerSession,
		Category:  log.CategoryOutcome,
		Address:   s.address(),
		Outcome: &log.OutcomeEvent{
			Success:              res.Success,
			Message:              res.Message,
			ConnectivityRestored: res.ConnectivityRestored,
			Duration:             res.Duration,
		},
	}
	if !res.Success {
		ev.Outcome.Kind = res.Kind.String()
	}
	if res.Device != nil {
		ev.DeviceName = res.Device.Name
	}
	if res.DeviceID != nil {
		ev.DeviceID = strconv.Itoa(*res.DeviceID)
	}
	s.cfg.EventLog.Log(ev)
}

func (s *Session) address() string {
	if s.target != nil {
		return s.target.Address
	}
	return ""
}

// debugLog logs a debug message if logging is enabled.
func (s *Session) debugLog(msg string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug(msg, args...)
	}
}
