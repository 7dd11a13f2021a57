package connection

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffDoublesUpToMax(t *testing.T) {
	b := &Backoff{Initial: 500 * time.Millisecond, Max: 4 * time.Second}

	want := []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		4 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("attempt %d: got %v, want %v", i+1, got, w)
		}
	}
	if b.Attempts() != len(want) {
		t.Errorf("Attempts: got %d, want %d", b.Attempts(), len(want))
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff()
	base := InitialBackoff
	for i := 0; i < 50; i++ {
		d := b.Next()
		if d < base || d > base+time.Duration(float64(base)*JitterFactor) {
			t.Fatalf("attempt %d: delay %v outside [%v, %v]", i+1, d, base, base+time.Duration(float64(base)*JitterFactor))
		}
		base = min(2*base, MaxBackoff)
	}
}

func TestBackoffZeroInitial(t *testing.T) {
	b := &Backoff{}
	if got := b.Next(); got != InitialBackoff {
		t.Errorf("got %v, want %v", got, InitialBackoff)
	}
}

func fastBackoff() *Backoff {
	return &Backoff{Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retries []int
	err := Retry(context.Background(), RetryConfig{
		Backoff: fastBackoff(),
		OnRetry: func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) },
	}, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
	if len(retries) != 2 || retries[1] != 2 {
		t.Errorf("retries: got %v", retries)
	}
}

func TestRetryStopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	attemptErr := errors.New("network unreachable")
	start := time.Now()
	err := Retry(ctx, RetryConfig{Backoff: fastBackoff()}, func(ctx context.Context) error {
		return attemptErr
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if !errors.Is(err, attemptErr) {
		t.Errorf("expected last attempt error to be wrapped, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Retry overran its budget: %v", time.Since(start))
	}
}

func TestRetryAttemptTimeout(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryConfig{
		Backoff:        fastBackoff(),
		AttemptTimeout: 10 * time.Millisecond,
	}, func(ctx context.Context) error {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRetryCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Retry(ctx, RetryConfig{}, func(ctx context.Context) error {
		called = true
		return nil
	})
	if called {
		t.Error("attempt should not run on a cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
