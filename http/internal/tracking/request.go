package tracking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request tracks one logical request: a client span plus the metric
// instruments, across every attempt.
type Request struct {
	span       trace.Span
	method     string
	start      time.Time
	elapsed    time.Duration
	statusCode int
	errType    string
}

// Start opens the span for a logical request. The url must already be
// redacted. The returned context carries the span so the transport can
// propagate it.
func Start(ctx context.Context, method, url string) (context.Context, *Request) {
	ensureMeterInitialized()

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrHTTPRequestMethod, method),
			attribute.String(attrURLFull, url),
		),
	)

	return ctx, &Request{
		span:   span,
		method: method,
		start:  time.Now(),
	}
}

// Attempt records the outcome of one exchange and returns the time elapsed
// since Start. statusCode is zero when the exchange failed, errType names the failure.
func (r *Request) Attempt(ctx context.Context, statusCode int, errType string) time.Duration {
	r.statusCode = statusCode
	r.errType = errType
	r.elapsed = time.Since(r.start)
	recordAttempt(ctx, r.method, statusCode, errType)
	return r.elapsed
}

// Retry records a scheduled retry after the given attempt.
func (r *Request) Retry(ctx context.Context, attempt, statusCode int, delay time.Duration) {
	// the wait that follows belongs to the request duration
	r.elapsed = 0
	recordRetry(ctx, r.method, statusCode)
	r.span.AddEvent("retry", trace.WithAttributes(
		attribute.Int(attrHTTPResendCount, attempt),
		attribute.Int(attrHTTPResponseStatus, statusCode),
		attribute.Int64(attrRetryDelay, delay.Milliseconds()),
	))
}

// Exhausted records that the retry cap was hit.
func (r *Request) Exhausted(ctx context.Context, statusCode int) {
	recordExhausted(ctx, r.method, statusCode)
	r.errType = "retries_exhausted"
}

// End closes the span and records the request duration. err is the error
// returned to the caller, if any. When the request ended on an attempt, the
// duration is the one Attempt returned.
func (r *Request) End(ctx context.Context, attempts int, err error) {
	if r.statusCode > 0 {
		r.span.SetAttributes(attribute.Int(attrHTTPResponseStatus, r.statusCode))
	}
	if attempts > 1 {
		r.span.SetAttributes(attribute.Int(attrHTTPResendCount, attempts-1))
	}

	switch {
	case err != nil:
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	case r.errType != "":
		r.span.SetStatus(codes.Error, r.errType)
	case r.statusCode >= 500:
		r.span.SetStatus(codes.Error, "server error")
	}
	if r.errType != "" {
		r.span.SetAttributes(attribute.String(attrErrorType, r.errType))
	}

	if r.elapsed == 0 {
		r.elapsed = time.Since(r.start)
	}
	recordRequestDuration(ctx, r.method, r.statusCode, r.errType, r.elapsed)
	r.span.End()
}
