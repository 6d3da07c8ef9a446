package config

import (
	"slices"

	"golang.org/x/time/rate"

	"github.com/gaborage/resilient-http/http"
	"github.com/gaborage/resilient-http/logger"
)

// ExecutorConfig converts the client settings into an executor configuration.
// Forever leaves MaxRetries nil; an explicit empty status code list disables retries.
func (c ClientConfig) ExecutorConfig() http.Config {
	cfg := http.Config{
		RetryableStatusCodes: slices.Clone(c.Retry.StatusCodes),
		Backoff:              http.NewBackoff(http.Strategy(c.Backoff.Strategy), c.Backoff.Base, c.Backoff.Max),
		OnExhaustion:         exhaustionPolicy(c.Retry.OnExhaustion),
	}

	if c.Timeout.Connect > 0 || c.Timeout.Read > 0 {
		cfg.Timeout = http.PairTimeout(c.Timeout.Connect, c.Timeout.Read)
	}
	if !c.Retry.Forever {
		cfg.MaxRetries = http.IntPtr(c.Retry.Max)
	}

	return cfg
}

// Builder returns an executor builder preloaded with these settings and a
// NetTransport propagating RequestIDHeader. Callers may keep customizing it.
func (c ClientConfig) Builder(log logger.Logger) *http.Builder {
	transport := http.NewNetTransport(http.WithRequestIDHeader(c.RequestIDHeader))

	b := http.NewBuilder(log).
		WithConfig(c.ExecutorConfig()).
		WithTransport(transport)

	if c.Retry.Forever {
		b.WithRetryForever()
	}
	if c.Rate.Limit > 0 {
		b.WithAttemptLimiter(rate.NewLimiter(rate.Limit(c.Rate.Limit), max(c.Rate.Burst, 1)))
	}

	return b
}

func exhaustionPolicy(name string) http.ExhaustionPolicy {
	if name == OnExhaustionFail {
		return http.FailOnExhaustion
	}
	return http.ReturnLastResponse
}
