// Package ratelimit implements the three interchangeable rate-limiting
// algorithms (fixed window, sliding window, token bucket) and the
// CooldownManager that lazily owns one limiter instance per bucket key.
//
// Semantics are ported from the reference implementation's
// core/plugins/cooldowns package: a RateLimiter.Consume tries to take n
// units, returning whether it succeeded, and Stats reports the bucket's
// current remaining/retry-after/reset-at/last-request snapshot without
// mutating state.
package ratelimit

import "time"

// Stats is a snapshot of a bucket's state, exposed on rate-limit denials
// and available for diagnostics at any time.
type Stats struct {
	Remaining   int
	RetryAfter  time.Duration
	ResetAt     time.Time
	LastRequest time.Time
}

// Limiter is one algorithm instance for one bucket.
type Limiter interface {
	// Consume attempts to take amount units; it reports whether the
	// attempt succeeded. On success the units are deducted.
	Consume(amount int) bool

	// Reset restores the limiter to a fresh, fully-available state.
	Reset()

	// Stats reports the limiter's current state without mutating it.
	Stats() Stats

	// Copy returns a fresh limiter of the same algorithm and parameters,
	// used by [CooldownManager] to spawn a new bucket from its prototype.
	Copy() Limiter

	// Period returns the limiter's configured window/refill period, used
	// by [CooldownManager] to decide when a bucket has gone idle.
	Period() time.Duration
}

// Algorithm selects which concrete [Limiter] a [CooldownConfig] builds.
type Algorithm int

const (
	FixedWindow Algorithm = iota
	SlidingWindow
	TokenBucket
)

func (a Algorithm) String() string {
	switch a {
	case FixedWindow:
		return "fixed_window"
	case SlidingWindow:
		return "sliding_window"
	case TokenBucket:
		return "token_bucket"
	default:
		return "unknown"
	}
}

// New constructs a fresh [Limiter] for algorithm with the given rate
// (maximum units per period) and period.
func New(algorithm Algorithm, rate int, period time.Duration) Limiter {
	switch algorithm {
	case SlidingWindow:
		return newSlidingWindow(rate, period)
	case TokenBucket:
		return newTokenBucket(rate, period)
	default:
		return newFixedWindow(rate, period)
	}
}
