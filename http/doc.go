// Package http provides a retrying request executor that wraps a pluggable
// transport and re-sends a request while the server answers with a
// transient status code.
//
// Retries
//   - Only a received response whose status is in the retryable set is
//     retried (default 502, 503, 504).
//   - Transport failures (connection refused, DNS, timeouts) are returned
//     immediately and never retried.
//   - MaxRetries caps the number of attempts. When it is unset the executor
//     retries for as long as the server keeps failing; Builder.WithRetryForever
//     states that choice explicitly.
//   - On exhaustion the last response is returned as-is. FailOnExhaustion
//     additionally returns an ExhaustedError.
//
// Backoff
//   - Linear by default: delay = 10s * attempt.
//   - Any BackoffPolicy can be plugged in (fixed, exponential, jitter).
//   - Waits are interruptible through the request context.
//
// Timeouts
//   - The executor default timeout applies unless the call supplies its own
//     in Options.Timeout. The override is scoped to that call.
package http
