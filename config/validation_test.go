package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/resilient-http/observability"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadBytes(nil)
	require.NoError(t, err)
	return cfg
}

func configErrors(err error) []*ConfigError {
	var out []*ConfigError
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var ce *ConfigError
			if errors.As(e, &ce) {
				out = append(out, ce)
			}
		}
		return out
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		out = append(out, ce)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		wantText  string
	}{
		{
			name:      "unknown exhaustion policy",
			mutate:    func(c *Config) { c.Client.Retry.OnExhaustion = "panic" },
			wantField: "client.retry.onexhaustion",
			wantText:  "must be one of: return, fail",
		},
		{
			name:      "unknown backoff strategy",
			mutate:    func(c *Config) { c.Client.Backoff.Strategy = "fibonacci" },
			wantField: "client.backoff.strategy",
			wantText:  "invalid value 'fibonacci'",
		},
		{
			name:      "status code out of range",
			mutate:    func(c *Config) { c.Client.Retry.StatusCodes = []int{503, 700} },
			wantField: "client.retry.statuscodes[1]",
			wantText:  "must be 599 or less",
		},
		{
			name:      "negative retry cap",
			mutate:    func(c *Config) { c.Client.Retry.Max = -1 },
			wantField: "client.retry.max",
			wantText:  "must be 0 or more",
		},
		{
			name:      "zero attempts without forever",
			mutate:    func(c *Config) { c.Client.Retry.Max = 0 },
			wantField: "client.retry.max",
			wantText:  "must allow at least one attempt",
		},
		{
			name:      "zero backoff base",
			mutate:    func(c *Config) { c.Client.Backoff.Base = 0 },
			wantField: "client.backoff.base",
			wantText:  "must be greater than 0",
		},
		{
			name: "backoff max below base",
			mutate: func(c *Config) {
				c.Client.Backoff.Base = 10 * time.Second
				c.Client.Backoff.Max = time.Second
			},
			wantField: "client.backoff.max",
			wantText:  "must not be below client.backoff.base",
		},
		{
			name: "rate limit without burst",
			mutate: func(c *Config) {
				c.Client.Rate.Limit = 10
				c.Client.Rate.Burst = 0
			},
			wantField: "client.rate.burst",
		},
		{
			name:      "negative read timeout",
			mutate:    func(c *Config) { c.Client.Timeout.Read = -time.Second },
			wantField: "client.timeout.read",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Log.Level = "verbose" },
			wantField: "log.level",
		},
		{
			name: "invalid observability endpoint",
			mutate: func(c *Config) {
				c.Observability.Enabled = true
				c.Observability.Trace.Endpoint = "localhost:4318"
				c.Observability.Trace.Protocol = observability.ProtocolHTTP
			},
			wantField: "observability",
			wantText:  "invalid endpoint format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var found *ConfigError
			for _, ce := range configErrors(err) {
				if ce.Field == tt.wantField {
					found = ce
					break
				}
			}
			require.NotNil(t, found, "no error for %s in %v", tt.wantField, err)
			assert.Equal(t, "invalid", found.Category)
			assert.Contains(t, found.Error(), tt.wantText)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := validConfig(t)
	cfg.Client.Retry.OnExhaustion = "panic"
	cfg.Log.Level = "verbose"

	errs := configErrors(Validate(cfg))
	assert.Len(t, errs, 2)
}

func TestValidateForeverAllowsZeroMax(t *testing.T) {
	cfg := validConfig(t)
	cfg.Client.Retry.Max = 0
	cfg.Client.Retry.Forever = true

	assert.NoError(t, Validate(cfg))
}

func TestValidateNil(t *testing.T) {
	err := Validate(nil)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "missing", ce.Category)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("RESILIENT_CLIENT_RETRY_ONEXHAUSTION", "explode")

	_, err := LoadBytes(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "client.retry.onexhaustion", ce.Field)
}

func TestConfigErrorFormatting(t *testing.T) {
	err := NewMissingFieldError("client.requestidheader")
	assert.Equal(t,
		"config_missing: client.requestidheader required set RESILIENT_CLIENT_REQUESTIDHEADER env var or add client.requestidheader to config.yaml",
		err.Error())

	invalid := NewInvalidFieldError("log.level", "invalid value 'loud'", []string{"debug", "info"})
	assert.Equal(t, "config_invalid: log.level invalid value 'loud' must be one of: debug, info", invalid.Error())

	detailed := &ConfigError{Category: "invalid", Field: "client.rate.limit", Message: "too high", Details: []string{"a", "b"}}
	assert.Equal(t, "config_invalid: client.rate.limit too high a; b", detailed.Error())
}
