package softap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"github.com/smartmonitor/onboard-go/pkg/connection"
	"github.com/smartmonitor/onboard-go/pkg/provisioning"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

// response is the outcome of the provisioning request.
type response struct {
	status int
	body   []byte
	err    error
}

// apLink is one switch onto the device network. It holds the switch lock
// until Close.
type apLink struct {
	ap       *AccessPoint
	original string

	// confirmed is set when the switch was observed during Prepare.
	confirmed bool

	// Set by Send.
	cancelRequest context.CancelFunc
	done          chan response

	restoreOnce sync.Once
	restoreErr  error
	closeOnce   sync.Once
}

// Prepare leaves the current network, joins the device network and polls
// until the switch is observed or the join window closes. An unconfirmed
// switch is not an error here; the request is still attempted.
func (l *apLink) Prepare(ctx context.Context) error {
	cfg := l.ap.cfg

	if l.original != "" {
		if err := cfg.WiFi.Disconnect(ctx); err != nil {
			l.ap.debugLog("disconnect failed", "error", err)
		}
	}
	if err := cfg.WiFi.Join(ctx, cfg.DeviceSSID, cfg.DevicePassword); err != nil {
		l.ap.debugLog("join failed", "ssid", cfg.DeviceSSID, "error", err)
	}

	pctx, cancel := context.WithTimeout(ctx, cfg.JoinTimeout)
	defer cancel()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		if l.switched(pctx) {
			l.confirmed = true
			l.ap.debugLog("device network confirmed", "ssid", cfg.DeviceSSID)
			return nil
		}

		select {
		case <-ticker.C:
		case <-pctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			l.ap.debugLog("device network not confirmed", "ssid", cfg.DeviceSSID, "window", cfg.JoinTimeout)
			return nil
		}
	}
}

// switched reports whether the host is on the device network, either by
// name or because the device address answers.
func (l *apLink) switched(ctx context.Context) bool {
	if name, err := l.ap.cfg.WiFi.CurrentNetwork(ctx); err == nil && name == l.ap.cfg.DeviceSSID {
		return true
	}
	return l.probe(ctx)
}

// probe reports whether the device address answers at all.
func (l *apLink) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, l.ap.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, l.ap.cfg.DeviceURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := l.ap.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Send posts the payload. It returns once the request is written; the
// response is collected by Await.
func (l *apLink) Send(ctx context.Context, payload []byte) error {
	cfg := l.ap.cfg

	// The request outlives ctx; Await and Close cancel it.
	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancelRequest = cancel

	wrote := make(chan error, 1)
	reqCtx = httptrace.WithClientTrace(reqCtx, &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			select {
			case wrote <- info.Err:
			default:
			}
		},
	})

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.DeviceURL+cfg.ProvisionPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", cfg.Codec.ContentType())

	l.done = make(chan response, 1)
	go func() {
		l.done <- l.do(req)
	}()

	select {
	case err := <-wrote:
		if err != nil {
			return l.sendError(err)
		}
		return nil
	case res := <-l.done:
		// Finished without a successful write, or wrote and answered
		// before the trace hook was observed.
		l.done <- res
		if res.err != nil {
			return l.sendError(res.err)
		}
		return nil
	case <-ctx.Done():
		cancel()
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		return l.sendError(ctx.Err())
	}
}

func (l *apLink) do(req *http.Request) response {
	resp, err := l.ap.client.Do(req)
	if err != nil {
		return response{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return response{status: resp.StatusCode, err: fmt.Errorf("failed to read response: %w", err)}
	}
	return response{status: resp.StatusCode, body: body}
}

// sendError classifies a transport level request failure. When the switch
// was never observed the device network was most likely not joined.
func (l *apLink) sendError(err error) error {
	if !l.confirmed {
		return provisioning.NewError(provisioning.KindNetworkSwitchFailed,
			fmt.Sprintf("could not reach the device on %q", l.ap.cfg.DeviceSSID), err)
	}
	return provisioning.NewError(provisioning.KindTransmissionError, "failed to deliver credentials", err)
}

// Await waits for the device response and maps it to an acknowledgment.
func (l *apLink) Await(ctx context.Context) (*provisioning.Reply, error) {
	var res response
	select {
	case res = <-l.done:
	case <-ctx.Done():
		l.cancelRequest()
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, provisioning.NewError(provisioning.KindConfirmationTimeout, "device did not answer", ctx.Err())
	}

	if res.err != nil {
		return nil, l.sendError(res.err)
	}
	return l.reply(res)
}

// reply interprets a response. Non-2xx is a rejection carrying the body's
// reason or the status text; an empty 2xx body is success.
func (l *apLink) reply(res response) (*provisioning.Reply, error) {
	codec := l.ap.cfg.Codec
	body := bytes.TrimSpace(res.body)

	if res.status < 200 || res.status > 299 {
		ack := &wire.Ack{Success: false}
		if parsed, err := wire.DecodeAckDefault(codec, body, false); err == nil {
			ack = parsed
			ack.Success = false
		}
		if ack.Reason() == "" {
			ack.Error = strings.TrimSpace(fmt.Sprintf("%d %s", res.status, http.StatusText(res.status)))
		}
		return &provisioning.Reply{Ack: ack, Raw: res.body}, nil
	}

	if len(body) == 0 {
		return &provisioning.Reply{Ack: &wire.Ack{Success: true}, Raw: res.body}, nil
	}

	ack, err := wire.DecodeAckDefault(codec, body, true)
	if err != nil {
		return nil, provisioning.NewError(provisioning.KindMalformedResponse, "unreadable device response", err)
	}
	return &provisioning.Reply{Ack: ack, Raw: res.body}, nil
}

// Restore rejoins the recorded network, retrying inside ctx.
func (l *apLink) Restore(ctx context.Context) error {
	l.restoreOnce.Do(func() {
		l.restoreErr = l.restore(ctx)
	})
	return l.restoreErr
}

func (l *apLink) restore(ctx context.Context) error {
	wifi := l.ap.cfg.WiFi
	if l.original == "" {
		if err := wifi.Disconnect(ctx); err != nil {
			l.ap.debugLog("leaving device network failed", "error", err)
		}
		return nil
	}

	return connection.Retry(ctx, connection.RetryConfig{
		Backoff: l.ap.cfg.RejoinBackoff(),
		OnRetry: func(attempt int, delay time.Duration, err error) {
			l.ap.debugLog("rejoin failed", "ssid", l.original, "attempt", attempt, "retry_in", delay, "error", err)
		},
	}, func(ctx context.Context) error {
		if err := wifi.Rejoin(ctx, l.original); err != nil {
			return err
		}
		name, err := wifi.CurrentNetwork(ctx)
		if err != nil {
			return err
		}
		if name != l.original {
			return fmt.Errorf("active network is %q, want %q", name, l.original)
		}
		return nil
	})
}

// Close cancels an outstanding request and releases the switch lock.
func (l *apLink) Close(ctx context.Context) error {
	l.closeOnce.Do(func() {
		if l.cancelRequest != nil {
			l.cancelRequest()
		}
		l.ap.unlock()
	})
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ provisioning.Link     = (*apLink)(nil)
	_ provisioning.Restorer = (*apLink)(nil)
)
