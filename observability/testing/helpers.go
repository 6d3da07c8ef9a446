// Package testing provides in-memory OpenTelemetry providers and assertion
// helpers for tests of the resilient HTTP client.
//
// Usage:
//
//	tel := obstest.Install(t)
//	// run code that starts spans and records metrics through the otel globals
//	spans := obstest.NewSpanCollector(t, tel.Traces.Exporter).WithName("HTTP GET")
//	spans.AssertCount(1)
//	obstest.AssertMetricValue(t, tel.Metrics.Collect(t), "http.client.attempts", int64(3))
package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const (
	attrValueMismatchErrMsg   = "attribute %s value mismatch"
	metricNotFoundErrMsg      = "metric %s not found"
	metricValueMismatchErrMsg = "metric %s value mismatch"
	noDataPointsErrMsg        = "no data points for metric %s"
)

// TestTraceProvider wraps the SDK TracerProvider and in-memory exporter for testing.
type TestTraceProvider struct {
	*sdktrace.TracerProvider
	Exporter *tracetest.InMemoryExporter
}

// NewTestTraceProvider creates a TracerProvider exporting synchronously to memory.
func NewTestTraceProvider() *TestTraceProvider {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	return &TestTraceProvider{
		TracerProvider: provider,
		Exporter:       exporter,
	}
}

// TestMeterProvider wraps the SDK MeterProvider and manual reader for testing.
type TestMeterProvider struct {
	*sdkmetric.MeterProvider
	Reader *sdkmetric.ManualReader
}

// NewTestMeterProvider creates a MeterProvider with a manual reader for on-demand collection.
func NewTestMeterProvider() *TestMeterProvider {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	return &TestMeterProvider{
		MeterProvider: provider,
		Reader:        reader,
	}
}

// Collect reads all metrics from the provider.
func (tmp *TestMeterProvider) Collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	err := tmp.Reader.Collect(context.Background(), &rm)
	require.NoError(t, err, "failed to collect metrics")
	return rm
}

// Telemetry bundles the test providers installed as otel globals.
type Telemetry struct {
	Traces  *TestTraceProvider
	Metrics *TestMeterProvider
}

// Install registers fresh test providers as the otel globals and restores
// the previous globals when the test ends. Tests using it must not run in parallel.
func Install(t *testing.T) *Telemetry {
	t.Helper()

	prevTracer := otel.GetTracerProvider()
	prevMeter := otel.GetMeterProvider()

	tel := &Telemetry{
		Traces:  NewTestTraceProvider(),
		Metrics: NewTestMeterProvider(),
	}
	otel.SetTracerProvider(tel.Traces)
	otel.SetMeterProvider(tel.Metrics)

	t.Cleanup(func() {
		_ = tel.Traces.Shutdown(context.Background())
		_ = tel.Metrics.Shutdown(context.Background())
		otel.SetTracerProvider(prevTracer)
		otel.SetMeterProvider(prevMeter)
	})
	return tel
}

// SpanCollector provides a fluent API for filtering and asserting on captured spans.
type SpanCollector struct {
	t     *testing.T
	spans tracetest.SpanStubs
}

// NewSpanCollector creates a span collector from an in-memory exporter.
func NewSpanCollector(t *testing.T, exporter *tracetest.InMemoryExporter) *SpanCollector {
	t.Helper()
	return &SpanCollector{
		t:     t,
		spans: exporter.GetSpans(),
	}
}

// Len returns the number of collected spans.
func (sc *SpanCollector) Len() int {
	return len(sc.spans)
}

// WithName keeps only spans with the given name.
func (sc *SpanCollector) WithName(name string) *SpanCollector {
	var filtered tracetest.SpanStubs
	for i := range sc.spans {
		if sc.spans[i].Name == name {
			filtered = append(filtered, sc.spans[i])
		}
	}
	return &SpanCollector{t: sc.t, spans: filtered}
}

// WithAttribute keeps only spans carrying key with the expected value.
func (sc *SpanCollector) WithAttribute(key string, value any) *SpanCollector {
	var filtered tracetest.SpanStubs
	for i := range sc.spans {
		for _, attr := range sc.spans[i].Attributes {
			if string(attr.Key) == key && matchesValue(attr.Value, value) {
				filtered = append(filtered, sc.spans[i])
				break
			}
		}
	}
	return &SpanCollector{t: sc.t, spans: filtered}
}

// First returns the first collected span, failing the test when there is none.
func (sc *SpanCollector) First() tracetest.SpanStub {
	sc.t.Helper()
	require.NotEmpty(sc.t, sc.spans, "no spans collected")
	return sc.spans[0]
}

// AssertCount asserts the number of collected spans.
func (sc *SpanCollector) AssertCount(expected int) *SpanCollector {
	sc.t.Helper()
	assert.Len(sc.t, sc.spans, expected, "unexpected span count")
	return sc
}

func matchesValue(attrValue attribute.Value, expected any) bool {
	switch v := expected.(type) {
	case string:
		return attrValue.AsString() == v
	case int:
		return attrValue.AsInt64() == int64(v)
	case int64:
		return attrValue.AsInt64() == v
	case bool:
		return attrValue.AsBool() == v
	case float64:
		return attrValue.AsFloat64() == v
	default:
		return false
	}
}

// AssertSpanAttribute asserts that span carries key with the expected value.
func AssertSpanAttribute(t *testing.T, span *tracetest.SpanStub, key string, expected any) {
	t.Helper()
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			assert.True(t, matchesValue(attr.Value, expected), attrValueMismatchErrMsg, key)
			return
		}
	}
	assert.Fail(t, fmt.Sprintf("attribute %s not found on span %s", key, span.Name))
}

// AssertSpanStatus asserts the span status code.
func AssertSpanStatus(t *testing.T, span *tracetest.SpanStub, expectedCode codes.Code) {
	t.Helper()
	assert.Equal(t, expectedCode, span.Status.Code, "span status code mismatch")
}

// AssertSpanEventCount asserts how many events named name the span recorded.
func AssertSpanEventCount(t *testing.T, span *tracetest.SpanStub, name string, expected int) {
	t.Helper()
	count := 0
	for _, event := range span.Events {
		if event.Name == name {
			count++
		}
	}
	assert.Equal(t, expected, count, "span event %s count mismatch", name)
}

// FindMetric returns the metric named metricName, or nil.
func FindMetric(rm metricdata.ResourceMetrics, metricName string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == metricName {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// AssertMetricExists asserts that metricName was recorded.
func AssertMetricExists(t *testing.T, rm metricdata.ResourceMetrics, metricName string) {
	t.Helper()
	assert.NotNil(t, FindMetric(rm, metricName), metricNotFoundErrMsg, metricName)
}

// AssertMetricValue asserts the total of an int64 counter, or the total
// observation count of a histogram (expectedValue as uint64).
func AssertMetricValue(t *testing.T, rm metricdata.ResourceMetrics, metricName string, expectedValue any) {
	t.Helper()
	m := FindMetric(rm, metricName)
	require.NotNil(t, m, metricNotFoundErrMsg, metricName)

	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		require.NotEmpty(t, data.DataPoints, noDataPointsErrMsg, metricName)
		var total int64
		for _, dp := range data.DataPoints {
			total += dp.Value
		}
		assert.Equal(t, expectedValue, total, metricValueMismatchErrMsg, metricName)
	case metricdata.Histogram[float64]:
		require.NotEmpty(t, data.DataPoints, noDataPointsErrMsg, metricName)
		var count uint64
		for _, dp := range data.DataPoints {
			count += dp.Count
		}
		assert.Equal(t, expectedValue, count, metricValueMismatchErrMsg, metricName)
	default:
		assert.Fail(t, fmt.Sprintf("unsupported metric data type %T for %s", m.Data, metricName))
	}
}

// GetMetricSumValue returns the total of an int64 counter.
func GetMetricSumValue(rm metricdata.ResourceMetrics, metricName string) (int64, error) {
	m := FindMetric(rm, metricName)
	if m == nil {
		return 0, fmt.Errorf(metricNotFoundErrMsg, metricName)
	}
	data, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0, fmt.Errorf("metric %s is not an int64 sum", metricName)
	}
	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Value
	}
	return total, nil
}
