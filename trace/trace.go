// Package trace carries the request ID that ties together every physical
// attempt of one logical request.
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// requestIDKey is the context key for request ID values
	requestIDKey contextKey = "request_id"
	// HeaderXRequestID is the standard header name for request correlation
	HeaderXRequestID = "X-Request-ID"
)

// WithRequestID adds a request ID to the context. Blank IDs are ignored.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if strings.TrimSpace(requestID) == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns a request ID from context if present
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns a context that is guaranteed to carry a request ID,
// together with that ID. An ID already present on ctx is kept.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := RequestIDFromContext(ctx); ok {
		return ctx, id
	}
	id := NewRequestID()
	return context.WithValue(ctx, requestIDKey, id), id
}

// NewRequestID generates a random request ID.
func NewRequestID() string {
	return uuid.New().String()
}
