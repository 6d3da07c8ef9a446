package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaultsDevelopment(t *testing.T) {
	cfg := Config{Enabled: true, Service: ServiceConfig{Name: "orders-client"}}
	cfg.ApplyDefaults()

	assert.Equal(t, "unknown", cfg.Service.Version)
	assert.Equal(t, EnvironmentDevelopment, cfg.Environment)

	assert.Equal(t, EndpointStdout, cfg.Trace.Endpoint)
	assert.Equal(t, ProtocolHTTP, cfg.Trace.Protocol)
	require.NotNil(t, cfg.Trace.Enabled)
	assert.True(t, *cfg.Trace.Enabled)
	require.NotNil(t, cfg.Trace.Sample.Rate)
	assert.InDelta(t, 1.0, *cfg.Trace.Sample.Rate, 0.0001)
	assert.Equal(t, 500*time.Millisecond, cfg.Trace.Batch.Timeout)
	assert.Equal(t, 512, cfg.Trace.Batch.Size)
	assert.Equal(t, 10*time.Second, cfg.Trace.Export.Timeout)

	assert.Equal(t, EndpointStdout, cfg.Metrics.Endpoint)
	require.NotNil(t, cfg.Metrics.Enabled)
	assert.True(t, *cfg.Metrics.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Metrics.Interval)
	assert.Equal(t, 10*time.Second, cfg.Metrics.Export.Timeout)
}

func TestApplyDefaultsProduction(t *testing.T) {
	cfg := Config{
		Enabled:     true,
		Environment: "production",
		Service:     ServiceConfig{Name: "orders-client", Version: "1.4.0"},
		Trace: TraceConfig{
			Endpoint: "otel-collector:4317",
			Protocol: ProtocolGRPC,
			Insecure: true,
			Headers:  map[string]string{"api-key": "secret"},
		},
		Metrics: MetricsConfig{Endpoint: "otel-collector:4317"},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "1.4.0", cfg.Service.Version)
	assert.Equal(t, 5*time.Second, cfg.Trace.Batch.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Trace.Export.Timeout)
	assert.Equal(t, 60*time.Second, cfg.Metrics.Export.Timeout)

	assert.Equal(t, ProtocolGRPC, cfg.Metrics.Protocol)
	require.NotNil(t, cfg.Metrics.Insecure)
	assert.True(t, *cfg.Metrics.Insecure)
	assert.Equal(t, map[string]string{"api-key": "secret"}, cfg.Metrics.Headers)

	cfg.Metrics.Headers["api-key"] = "changed"
	assert.Equal(t, "secret", cfg.Trace.Headers["api-key"])
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Enabled: true,
		Service: ServiceConfig{Name: "orders-client"},
		Trace: TraceConfig{
			Enabled: BoolPtr(false),
			Sample:  SampleConfig{Rate: Float64Ptr(0.0)},
		},
		Metrics: MetricsConfig{Enabled: BoolPtr(false), Interval: time.Minute},
	}
	cfg.ApplyDefaults()

	assert.False(t, *cfg.Trace.Enabled)
	assert.Zero(t, *cfg.Trace.Sample.Rate)
	assert.False(t, *cfg.Metrics.Enabled)
	assert.Equal(t, time.Minute, cfg.Metrics.Interval)
}

func TestApplyDefaultsDisabledLeavesSignalsUnset(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Nil(t, cfg.Trace.Enabled)
	assert.Nil(t, cfg.Metrics.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Enabled: true,
			Service: ServiceConfig{Name: "orders-client"},
			Trace:   TraceConfig{Endpoint: EndpointStdout},
			Metrics: MetricsConfig{Enabled: BoolPtr(true), Endpoint: EndpointStdout},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid stdout",
			mutate: func(*Config) {},
		},
		{
			name:   "disabled skips validation",
			mutate: func(c *Config) { c.Enabled = false; c.Service.Name = "" },
		},
		{
			name:    "missing service name",
			mutate:  func(c *Config) { c.Service.Name = "" },
			wantErr: ErrMissingServiceName,
		},
		{
			name:    "sample rate above one",
			mutate:  func(c *Config) { c.Trace.Sample.Rate = Float64Ptr(1.5) },
			wantErr: ErrInvalidSampleRate,
		},
		{
			name:    "sample rate below zero",
			mutate:  func(c *Config) { c.Trace.Sample.Rate = Float64Ptr(-0.1) },
			wantErr: ErrInvalidSampleRate,
		},
		{
			name: "http endpoint with scheme",
			mutate: func(c *Config) {
				c.Trace.Endpoint = "http://localhost:4318"
				c.Trace.Protocol = ProtocolHTTP
			},
		},
		{
			name: "http endpoint without scheme",
			mutate: func(c *Config) {
				c.Trace.Endpoint = "localhost:4318"
				c.Trace.Protocol = ProtocolHTTP
			},
			wantErr: ErrInvalidEndpointFormat,
		},
		{
			name: "grpc endpoint with scheme",
			mutate: func(c *Config) {
				c.Trace.Endpoint = "http://localhost:4317"
				c.Trace.Protocol = ProtocolGRPC
			},
			wantErr: ErrInvalidEndpointFormat,
		},
		{
			name: "unknown trace protocol",
			mutate: func(c *Config) {
				c.Trace.Endpoint = "localhost:4317"
				c.Trace.Protocol = "thrift"
			},
			wantErr: ErrInvalidProtocol,
		},
		{
			name: "metrics inherit trace protocol",
			mutate: func(c *Config) {
				c.Trace.Protocol = ProtocolGRPC
				c.Metrics.Endpoint = "http://localhost:4318"
			},
			wantErr: ErrInvalidEndpointFormat,
		},
		{
			name: "disabled metrics are not checked",
			mutate: func(c *Config) {
				c.Metrics.Enabled = BoolPtr(false)
				c.Metrics.Endpoint = "not a url"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrNilConfig)
}
