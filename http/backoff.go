package http

import (
	crand "crypto/rand"
	"math"
	"math/big"
	"time"
)

// DefaultBackoffStep is the linear backoff increment: the wait before
// attempt n+1 is n times this value.
const DefaultBackoffStep = 10 * time.Second

// maxBackoffShift caps the exponent to avoid overflow (2^30 * base).
const maxBackoffShift = 30

// BackoffPolicy returns how long to wait after the given attempt (starting at 1)
// before sending the next one.
type BackoffPolicy func(attempt int) time.Duration

// Strategy names a built-in backoff policy.
type Strategy string

const (
	LinearBackoffStrategy      Strategy = "linear"
	FixedDelayStrategy         Strategy = "fixed"
	ExponentialBackoffStrategy Strategy = "exponential"
	JitterBackoffStrategy      Strategy = "jitter"
)

func (s Strategy) String() string {
	return string(s)
}

// IsValid reports whether s names a built-in policy.
func (s Strategy) IsValid() bool {
	switch s {
	case LinearBackoffStrategy, FixedDelayStrategy, ExponentialBackoffStrategy, JitterBackoffStrategy:
		return true
	default:
		return false
	}
}

// NewBackoff builds the policy named by strategy. For linear and fixed,
// base is the step or constant delay; maxDelay caps exponential and jitter.
// Unknown strategies fall back to linear.
func NewBackoff(strategy Strategy, base, maxDelay time.Duration) BackoffPolicy {
	switch strategy {
	case FixedDelayStrategy:
		return FixedBackoff(base)
	case ExponentialBackoffStrategy:
		return ExponentialBackoff(base, maxDelay)
	case JitterBackoffStrategy:
		return JitterBackoff(base, maxDelay)
	default:
		return LinearBackoff(base)
	}
}

// LinearBackoff waits step * attempt.
func LinearBackoff(step time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return step * time.Duration(attempt)
	}
}

// FixedBackoff always waits d.
func FixedBackoff(d time.Duration) BackoffPolicy {
	return func(int) time.Duration {
		return d
	}
}

// ExponentialBackoff waits base * 2^(attempt-1), capped at maxDelay when maxDelay > 0.
func ExponentialBackoff(base, maxDelay time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		return exponentialDelay(base, maxDelay, attempt)
	}
}

// JitterBackoff picks a random duration in [0, exponential delay) ("full jitter").
func JitterBackoff(base, maxDelay time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		d := exponentialDelay(base, maxDelay, attempt)
		if d <= 0 {
			return 0
		}
		n, err := crand.Int(crand.Reader, big.NewInt(int64(d)))
		if err != nil {
			// On RNG failure, fall back to the full delay
			return d
		}
		return time.Duration(n.Int64())
	}
}

func exponentialDelay(base, maxDelay time.Duration, attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	d := base * time.Duration(1<<shift)
	if d < 0 || d/time.Duration(1<<shift) != base {
		// overflow
		if maxDelay > 0 {
			return maxDelay
		}
		return time.Duration(math.MaxInt64)
	}
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
