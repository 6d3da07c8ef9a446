package http

import (
	"fmt"
	"slices"
)

// ExhaustionPolicy decides what Execute returns once the retry cap is hit.
type ExhaustionPolicy int

const (
	// ReturnLastResponse hands back the last (still failing) response with a nil error.
	ReturnLastResponse ExhaustionPolicy = iota
	// FailOnExhaustion returns the last response together with an ExhaustedError.
	FailOnExhaustion
)

func (p ExhaustionPolicy) String() string {
	switch p {
	case ReturnLastResponse:
		return "return"
	case FailOnExhaustion:
		return "fail"
	default:
		return fmt.Sprintf("ExhaustionPolicy(%d)", int(p))
	}
}

// DefaultRetryableStatusCodes returns the statuses retried when none are configured:
// 502 Bad Gateway, 503 Service Unavailable and 504 Gateway Timeout.
func DefaultRetryableStatusCodes() []int {
	return []int{502, 503, 504}
}

// IntPtr returns a pointer to v, for optional integer settings.
func IntPtr(v int) *int {
	return &v
}

// Config is the executor configuration. It is copied when an executor is
// built and never changes afterwards.
type Config struct {
	// Timeout is applied to calls that do not carry their own. Nil means no timeout.
	Timeout *Timeout
	// MaxRetries caps the number of attempts. Nil retries without limit.
	MaxRetries *int
	// RetryableStatusCodes lists the statuses that trigger a retry.
	RetryableStatusCodes []int
	// Backoff computes the wait after each failed attempt.
	Backoff BackoffPolicy
	// OnExhaustion selects the result once MaxRetries is reached.
	OnExhaustion ExhaustionPolicy
}

// DefaultConfig returns the defaults: no timeout, unlimited retries on
// 502/503/504 with linear 10s backoff, last response returned on exhaustion.
func DefaultConfig() Config {
	return Config{
		RetryableStatusCodes: DefaultRetryableStatusCodes(),
		Backoff:              LinearBackoff(DefaultBackoffStep),
		OnExhaustion:         ReturnLastResponse,
	}
}

// Unlimited reports whether no retry cap is configured.
func (c Config) Unlimited() bool {
	return c.MaxRetries == nil
}

// clone deep-copies the pointer and slice fields.
func (c Config) clone() Config {
	out := c
	if c.Timeout != nil {
		t := *c.Timeout
		out.Timeout = &t
	}
	if c.MaxRetries != nil {
		out.MaxRetries = IntPtr(*c.MaxRetries)
	}
	out.RetryableStatusCodes = slices.Clone(c.RetryableStatusCodes)
	return out
}

// withDefaults fills unset fields. An explicitly empty status list is kept
// empty, which disables retrying altogether.
func (c Config) withDefaults() Config {
	if c.RetryableStatusCodes == nil {
		c.RetryableStatusCodes = DefaultRetryableStatusCodes()
	}
	if c.Backoff == nil {
		c.Backoff = LinearBackoff(DefaultBackoffStep)
	}
	return c
}

// Validate checks the configuration for values the executor cannot honour.
func (c Config) Validate() error {
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return NewValidationError(fmt.Sprintf("max retries must be zero or positive, got %d", *c.MaxRetries), "max_retries")
	}
	if c.Timeout != nil && (c.Timeout.Connect < 0 || c.Timeout.Read < 0) {
		return NewValidationError("timeout must not be negative", "timeout")
	}
	for _, code := range c.RetryableStatusCodes {
		if code < 100 || code > 599 {
			return NewValidationError(fmt.Sprintf("invalid retryable status code %d", code), "retryable_status_codes")
		}
	}
	switch c.OnExhaustion {
	case ReturnLastResponse, FailOnExhaustion:
	default:
		return NewValidationError(fmt.Sprintf("unknown exhaustion policy %d", int(c.OnExhaustion)), "on_exhaustion")
	}
	return nil
}
