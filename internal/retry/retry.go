// Package retry provides the backoff policy used when re-establishing the
// store's change stream. Mutations are never retried; only the long-lived
// subscription reconnects.
package retry

import (
	"math/rand/v2"
	"time"
)

// Backoff produces exponentially growing delays with jitter. The zero value
// is not usable; construct with NewBackoff.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{base: base, max: max}
}

// Next returns the delay before the next attempt and advances the counter.
func (b *Backoff) Next() time.Duration {
	d := b.base * time.Duration(1<<uint(b.attempt))
	if d > b.max || d <= 0 {
		d = b.max
	}
	if b.attempt < 30 {
		b.attempt++
	}
	// Jitter spreads reconnects out so clients don't stampede the store.
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}

// Reset restores the initial delay after a healthy connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}
