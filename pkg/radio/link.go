package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/smartmonitor/onboard-go/pkg/provisioning"
	"github.com/smartmonitor/onboard-go/pkg/wire"
)

// radioLink runs the credential exchange over a connected peripheral.
type radioLink struct {
	link         Link
	cfg          Config
	withResponse bool

	mu     sync.Mutex
	buf    []byte
	signal chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func newRadioLink(link Link, cfg Config, withResponse bool) *radioLink {
	return &radioLink{
		link:         link,
		cfg:          cfg,
		withResponse: withResponse,
		signal:       make(chan struct{}, 1),
	}
}

// Prepare discovers the provisioning characteristic and subscribes to
// acknowledgment notifications before anything is written.
func (l *radioLink) Prepare(ctx context.Context) error {
	if err := l.link.Discover(ctx, l.cfg.ServiceUUID, l.cfg.CharacteristicUUID); err != nil {
		return fmt.Errorf("failed to discover provisioning service: %w", err)
	}
	if err := l.link.Subscribe(l.onNotify); err != nil {
		return fmt.Errorf("failed to subscribe to acknowledgments: %w", err)
	}
	return nil
}

func (l *radioLink) onNotify(data []byte) {
	l.mu.Lock()
	l.buf = append(l.buf, data...)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// Send writes the payload as one characteristic write.
func (l *radioLink) Send(ctx context.Context, payload []byte) error {
	if err := l.link.Write(ctx, payload, l.withResponse); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Await accumulates notification fragments until they decode as an
// acknowledgment.
func (l *radioLink) Await(ctx context.Context) (*provisioning.Reply, error) {
	for {
		l.mu.Lock()
		data := append([]byte(nil), l.buf...)
		l.mu.Unlock()

		if len(data) > 0 {
			ack, err := wire.DecodeAck(l.cfg.Codec, data)
			switch {
			case err == nil:
				return &provisioning.Reply{Ack: ack, Raw: data}, nil
			case !errors.Is(err, wire.ErrIncomplete):
				return nil, provisioning.NewError(provisioning.KindMalformedResponse, "unreadable acknowledgment", err)
			}
		}

		select {
		case <-l.signal:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			msg := "no acknowledgment received"
			if len(data) > 0 {
				msg = fmt.Sprintf("incomplete acknowledgment after %d bytes", len(data))
			}
			return nil, provisioning.NewError(provisioning.KindConfirmationTimeout, msg, ctx.Err())
		}
	}
}

// Close disconnects. Only the first call reaches the stack.
func (l *radioLink) Close(ctx context.Context) error {
	l.closeOnce.Do(func() {
		l.closeErr = runWithContext(ctx, l.link.Disconnect)
	})
	return l.closeErr
}

// Compile-time interface satisfaction check.
var _ provisioning.Link = (*radioLink)(nil)
