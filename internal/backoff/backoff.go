// Package backoff computes reconnect delays for streaming sources.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Policy defines an exponential delay sequence: Base * 2^attempt, capped at Max.
type Policy struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64 // ±fraction applied to each delay, 0 keeps the sequence deterministic
}

// DefaultPolicy returns the 1s..60s policy used by the streaming runner.
func DefaultPolicy() Policy {
	return Policy{
		Base: 1 * time.Second,
		Max:  60 * time.Second,
	}
}

// Delay returns the wait before the retry following the given failed attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(p.Base) * math.Pow(2, float64(attempt))
	if d > float64(p.Max) {
		d = float64(p.Max)
	}
	if p.Jitter > 0 {
		j := d * p.Jitter
		d = d - j + rand.Float64()*2*j
	}
	return time.Duration(d)
}

// Backoff is the mutable attempt counter owned by one streaming runner.
type Backoff struct {
	policy  Policy
	attempt int
}

// New creates a Backoff at attempt zero.
func New(p Policy) *Backoff {
	return &Backoff{policy: p}
}

// Next returns the current delay and advances the attempt counter.
func (b *Backoff) Next() time.Duration {
	d := b.policy.Delay(b.attempt)
	// Stop growing once capped so the exponent never overflows.
	if d < b.policy.Max {
		b.attempt++
	}
	return d
}

// Reset returns to the base delay after a successful connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt returns the number of consecutive failures counted so far.
func (b *Backoff) Attempt() int {
	return b.attempt
}
