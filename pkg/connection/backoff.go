package connection

import (
	"math/rand/v2"
	"time"
)

// Default rejoin delays.
const (
	InitialBackoff = 500 * time.Millisecond
	MaxBackoff     = 4 * time.Second

	// JitterFactor is the largest jitter added, as a fraction of the delay.
	JitterFactor = 0.25
)

// Backoff yields doubling delays up to Max, each with up to Jitter extra.
// A Backoff belongs to one retry loop and is not safe for concurrent use.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Jitter  float64

	next     time.Duration
	attempts int
}

// NewBackoff returns a Backoff with the default rejoin delays.
func NewBackoff() *Backoff {
	return &Backoff{Initial: InitialBackoff, Max: MaxBackoff, Jitter: JitterFactor}
}

// Next returns the delay before the next attempt.
func (b *Backoff) Next() time.Duration {
	if b.attempts == 0 {
		b.next = b.Initial
		if b.next <= 0 {
			b.next = InitialBackoff
		}
	}
	b.attempts++

	delay := b.next
	if b.Max > 0 {
		b.next = min(2*b.next, b.Max)
	} else {
		b.next = 2 * b.next
	}

	if b.Jitter > 0 {
		delay += time.Duration(float64(delay) * b.Jitter * rand.Float64())
	}
	return delay
}

// Attempts returns how many delays have been handed out.
func (b *Backoff) Attempts() int {
	return b.attempts
}
