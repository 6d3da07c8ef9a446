package observability

import (
	"maps"
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that outputs to stdout (for local development).
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name for development mode.
	EnvironmentDevelopment = "development"
)

// BoolPtr returns a pointer to the provided bool value.
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to the provided float64 value.
func Float64Ptr(v float64) *float64 {
	return &v
}

func cloneHeaderMap(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	clone := make(map[string]string, len(headers))
	maps.Copy(clone, headers)
	return clone
}

// Config defines the telemetry settings of a process using the resilient client.
// Keys carry no underscores so they can be set from RESILIENT_* environment variables.
type Config struct {
	// Enabled controls whether observability is active.
	// When false, all observability operations become no-ops.
	Enabled bool `koanf:"enabled"`

	// Service identifies the process in traces and metrics.
	Service ServiceConfig `koanf:"service"`

	// Environment indicates the deployment environment (e.g., production, staging, development).
	Environment string `koanf:"environment"`

	Trace   TraceConfig   `koanf:"trace"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServiceConfig contains service identification metadata.
type ServiceConfig struct {
	// Name is required when observability is enabled.
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// TraceConfig defines configuration for distributed tracing.
type TraceConfig struct {
	// Enabled: nil = apply default (true when observability is enabled), false = explicitly disabled.
	Enabled *bool `koanf:"enabled"`

	// Endpoint specifies where to send trace data.
	// "stdout" pretty-prints spans; OTLP/HTTP expects a URL ("http://localhost:4318"),
	// OTLP/gRPC expects host:port ("localhost:4317").
	Endpoint string `koanf:"endpoint"`

	// Protocol is "http" or "grpc". Only used when Endpoint is not "stdout".
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS on OTLP connections.
	Insecure bool `koanf:"insecure"`

	// Headers are sent with every OTLP export, typically for authentication.
	Headers map[string]string `koanf:"headers"`

	// Sample contains sampling configuration.
	Sample SampleConfig `koanf:"sample"`

	// Batch contains batch processing configuration.
	Batch BatchConfig `koanf:"batch"`

	// Export contains export timeout configuration.
	Export ExportConfig `koanf:"export"`

	// Debug logs span start and end through the process logger.
	Debug bool `koanf:"debug"`
}

// SampleConfig defines sampling configuration for traces.
type SampleConfig struct {
	// Rate is the fraction of traces collected (0.0 to 1.0).
	// nil = apply default (1.0), explicit value = use that value (including 0.0).
	Rate *float64 `koanf:"rate"`
}

// BatchConfig defines batch processing configuration for traces.
type BatchConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Size    int           `koanf:"size"`
}

// ExportConfig defines export timeout configuration.
type ExportConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// MetricsConfig defines configuration for metrics collection.
type MetricsConfig struct {
	// Enabled: nil = apply default (true when observability is enabled), false = explicitly disabled.
	Enabled *bool `koanf:"enabled"`

	// Endpoint follows the same format rules as TraceConfig.Endpoint.
	Endpoint string `koanf:"endpoint"`

	// Protocol is "http" or "grpc". Empty inherits the trace protocol.
	Protocol string `koanf:"protocol"`

	// Insecure falls back to the trace setting when unset.
	Insecure *bool `koanf:"insecure"`

	// Headers inherit the trace headers when unset.
	Headers map[string]string `koanf:"headers"`

	// Interval specifies how often metrics are exported.
	Interval time.Duration `koanf:"interval"`

	Export ExportConfig `koanf:"export"`
}

// ApplyDefaults sets default values for any config fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}

	c.applyTraceDefaults()
	c.applyMetricsDefaults()
}

func (c *Config) isDevelopment(endpoint string) bool {
	return c.Environment == EnvironmentDevelopment || endpoint == EndpointStdout
}

func (c *Config) applyTraceDefaults() {
	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	if c.Enabled && c.Trace.Enabled == nil {
		c.Trace.Enabled = BoolPtr(true)
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Trace.Sample.Rate == nil {
		c.Trace.Sample.Rate = Float64Ptr(1.0)
	}

	// Development exports quickly so spans show up while debugging.
	if c.Trace.Batch.Timeout == 0 {
		if c.isDevelopment(c.Trace.Endpoint) {
			c.Trace.Batch.Timeout = 500 * time.Millisecond
		} else {
			c.Trace.Batch.Timeout = 5 * time.Second
		}
	}
	if c.Trace.Batch.Size == 0 {
		c.Trace.Batch.Size = 512
	}
	if c.Trace.Export.Timeout == 0 {
		if c.isDevelopment(c.Trace.Endpoint) {
			c.Trace.Export.Timeout = 10 * time.Second
		} else {
			c.Trace.Export.Timeout = 60 * time.Second
		}
	}
}

func (c *Config) applyMetricsDefaults() {
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = EndpointStdout
	}
	if c.Enabled && c.Metrics.Enabled == nil {
		c.Metrics.Enabled = BoolPtr(true)
	}
	if c.Metrics.Protocol == "" {
		c.Metrics.Protocol = c.Trace.Protocol
	}
	if c.Metrics.Insecure == nil {
		c.Metrics.Insecure = BoolPtr(c.Trace.Insecure)
	}
	if c.Metrics.Headers == nil && c.Trace.Headers != nil {
		c.Metrics.Headers = cloneHeaderMap(c.Trace.Headers)
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 10 * time.Second
	}
	if c.Metrics.Export.Timeout == 0 {
		if c.isDevelopment(c.Metrics.Endpoint) {
			c.Metrics.Export.Timeout = 10 * time.Second
		} else {
			c.Metrics.Export.Timeout = 60 * time.Second
		}
	}
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}

	if rate := c.Trace.Sample.Rate; rate != nil && (*rate < 0.0 || *rate > 1.0) {
		return ErrInvalidSampleRate
	}
	if err := validateExporter(c.Trace.Endpoint, c.Trace.Protocol); err != nil {
		return err
	}

	if c.Metrics.Enabled == nil || !*c.Metrics.Enabled {
		return nil
	}
	protocol := c.Metrics.Protocol
	if protocol == "" {
		protocol = c.Trace.Protocol
	}
	return validateExporter(c.Metrics.Endpoint, protocol)
}

// validateExporter checks the protocol and that the endpoint format matches it.
// gRPC endpoints are host:port, HTTP endpoints carry an http:// or https:// scheme.
func validateExporter(endpoint, protocol string) error {
	if endpoint == EndpointStdout || endpoint == "" {
		return nil
	}
	if protocol == "" {
		protocol = ProtocolHTTP
	}

	hasScheme := strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
	switch protocol {
	case ProtocolHTTP:
		if !hasScheme {
			return ErrInvalidEndpointFormat
		}
	case ProtocolGRPC:
		if hasScheme {
			return ErrInvalidEndpointFormat
		}
	default:
		return ErrInvalidProtocol
	}
	return nil
}
