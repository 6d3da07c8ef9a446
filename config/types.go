package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/resilient-http/observability"
)

// Exhaustion policy names accepted by client.retry.onexhaustion.
const (
	OnExhaustionReturn = "return"
	OnExhaustionFail   = "fail"
)

// Config represents the settings of a process built around the resilient client.
// Keys contain no underscores so every one of them maps onto a RESILIENT_* variable.
type Config struct {
	Client        ClientConfig         `koanf:"client"`
	Log           LogConfig            `koanf:"log"`
	Observability observability.Config `koanf:"observability"`

	k *koanf.Koanf
}

// ClientConfig holds the retrying executor settings.
type ClientConfig struct {
	Timeout TimeoutConfig `koanf:"timeout"`
	Retry   RetryConfig   `koanf:"retry"`
	Backoff BackoffConfig `koanf:"backoff"`
	Rate    RateConfig    `koanf:"rate"`

	// RequestIDHeader carries the request ID on every attempt. Empty disables it.
	RequestIDHeader string `koanf:"requestidheader"`
}

// TimeoutConfig bounds each attempt. Zero for both means no timeout.
type TimeoutConfig struct {
	Connect time.Duration `koanf:"connect" validate:"gte=0"`
	Read    time.Duration `koanf:"read" validate:"gte=0"`
}

// RetryConfig controls which responses are retried and how often.
type RetryConfig struct {
	// Max is the total number of attempts per request. Ignored when Forever is set.
	Max int `koanf:"max" validate:"gte=0"`
	// Forever removes the cap: retryable responses are retried until the
	// server recovers or the request context ends.
	Forever      bool   `koanf:"forever"`
	StatusCodes  []int  `koanf:"statuscodes" validate:"dive,gte=100,lte=599"`
	OnExhaustion string `koanf:"onexhaustion" validate:"oneof=return fail"`
}

// BackoffConfig selects the wait between attempts.
type BackoffConfig struct {
	Strategy string        `koanf:"strategy" validate:"oneof=linear fixed exponential jitter"`
	Base     time.Duration `koanf:"base" validate:"gt=0"`
	// Max caps exponential and jitter delays. Zero means uncapped.
	Max time.Duration `koanf:"max" validate:"gte=0"`
}

// RateConfig throttles attempts, retries included. A zero limit disables throttling.
type RateConfig struct {
	Limit float64 `koanf:"limit" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}
