package connection

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetryExhausted is returned when the context expires before an attempt
// succeeds.
var ErrRetryExhausted = errors.New("retry budget exhausted")

// AttemptFunc performs one attempt. It should return nil on success.
type AttemptFunc func(ctx context.Context) error

// RetryConfig configures Retry.
type RetryConfig struct {
	// Backoff supplies the delays between attempts. Nil uses NewBackoff().
	Backoff *Backoff

	// AttemptTimeout bounds each attempt. Zero means the attempt only
	// inherits the overall context.
	AttemptTimeout time.Duration

	// OnRetry is called after a failed attempt, before sleeping.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Retry calls fn until it succeeds or ctx is done. The returned error wraps
// ErrRetryExhausted and the last attempt error.
func Retry(ctx context.Context, cfg RetryConfig, fn AttemptFunc) error {
	b := cfg.Backoff
	if b == nil {
		b = NewBackoff()
	}

	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, b.Attempts(), lastErr)
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.AttemptTimeout)
		}
		err := fn(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		delay := b.Next()
		if cfg.OnRetry != nil {
			cfg.OnRetry(b.Attempts(), delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}
