package tracking

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter and tracer name for the retrying client
	instrumentationName = "resilient-http/http"

	metricAttempts         = "http.client.attempts"          // Counter
	metricRetries          = "http.client.retries"           // Counter
	metricRetriesExhausted = "http.client.retries.exhausted" // Counter
	metricRequestDuration  = "http.client.request.duration"  // Histogram in seconds

	attrHTTPRequestMethod  = "http.request.method"
	attrHTTPResponseStatus = "http.response.status_code"
	attrHTTPResendCount    = "http.request.resend_count"
	attrURLFull            = "url.full"
	attrErrorType          = "error.type"
	attrRetryDelay         = "retry.delay_ms"
)

// Buckets cover fast calls through long backoff chains.
var requestDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

var (
	meter         metric.Meter
	meterOnce     sync.Once
	meterInitMu   sync.Mutex
	metricsInited bool

	attemptsCounter          metric.Int64Counter
	retriesCounter           metric.Int64Counter
	exhaustedCounter         metric.Int64Counter
	requestDurationHistogram metric.Float64Histogram
)

// logMetricError logs a metric initialization error to stderr.
// Metrics are best effort and never fail a request.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize HTTP client metric %s: %v\n", metricName, err)
	}
}

func initMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if meter != nil {
		return
	}

	meter = otel.Meter(instrumentationName)

	var err error
	attemptsCounter, err = meter.Int64Counter(
		metricAttempts,
		metric.WithDescription("Number of HTTP client attempts sent, including retries"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	retriesCounter, err = meter.Int64Counter(
		metricRetries,
		metric.WithDescription("Number of HTTP client retries scheduled after a retryable status"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	exhaustedCounter, err = meter.Int64Counter(
		metricRetriesExhausted,
		metric.WithDescription("Number of logical requests that hit the retry cap"),
		metric.WithUnit("{request}"),
	)
	logMetricError(metricRetriesExhausted, err)

	requestDurationHistogram, err = meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Duration of logical HTTP client requests including backoff waits"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestDurationBuckets...),
	)
	logMetricError(metricRequestDuration, err)

	metricsInited = true
}

func ensureMeterInitialized() {
	meterOnce.Do(initMeter)
}

func recordAttempt(ctx context.Context, method string, statusCode int, errType string) {
	if attemptsCounter == nil {
		return
	}
	attemptsCounter.Add(ctx, 1, metric.WithAttributes(outcomeAttributes(method, statusCode, errType)...))
}

func recordRetry(ctx context.Context, method string, statusCode int) {
	if retriesCounter == nil {
		return
	}
	retriesCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrHTTPRequestMethod, method),
		attribute.Int(attrHTTPResponseStatus, statusCode),
	))
}

func recordExhausted(ctx context.Context, method string, statusCode int) {
	if exhaustedCounter == nil {
		return
	}
	exhaustedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrHTTPRequestMethod, method),
		attribute.Int(attrHTTPResponseStatus, statusCode),
	))
}

func recordRequestDuration(ctx context.Context, method string, statusCode int, errType string, d time.Duration) {
	if requestDurationHistogram == nil {
		return
	}
	requestDurationHistogram.Record(ctx, d.Seconds(), metric.WithAttributes(outcomeAttributes(method, statusCode, errType)...))
}

// outcomeAttributes carries the status code when a response arrived and the
// error type when the exchange failed. 4xx/5xx responses use the status code
// as error type, per OTel semantic conventions.
func outcomeAttributes(method string, statusCode int, errType string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(attrHTTPRequestMethod, method)}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int(attrHTTPResponseStatus, statusCode))
	}
	if errType == "" && statusCode >= 400 {
		errType = strconv.Itoa(statusCode)
	}
	if errType != "" {
		attrs = append(attrs, attribute.String(attrErrorType, errType))
	}
	return attrs
}

// IsInitialized returns true if the client metrics have been initialized.
func IsInitialized() bool {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()
	return metricsInited
}

// ResetForTesting resets the metric state. Only call from tests.
func ResetForTesting() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	meter = nil
	attemptsCounter = nil
	retriesCounter = nil
	exhaustedCounter = nil
	requestDurationHistogram = nil
	metricsInited = false
	meterOnce = sync.Once{}
}
