package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ClientError represents the error kinds surfaced by the executor
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	NetworkError    ErrorType = "network"
	TimeoutError    ErrorType = "timeout"
	ValidationError ErrorType = "validation"
	ExhaustedError  ErrorType = "exhausted"
)

// networkError represents network-related errors
type networkError struct {
	message string
	wrapped error
}

func (e *networkError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("network error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("network error: %s", e.message)
}

func (e *networkError) Type() ErrorType {
	return NetworkError
}

func (e *networkError) Unwrap() error {
	return e.wrapped
}

// timeoutError represents timeout-related errors
type timeoutError struct {
	message string
	timeout time.Duration
	wrapped error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType {
	return TimeoutError
}

func (e *timeoutError) Unwrap() error {
	return e.wrapped
}

// validationError represents request validation errors
type validationError struct {
	message string
	field   string
}

func (e *validationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("validation error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

func (e *validationError) Type() ErrorType {
	return ValidationError
}

// exhaustedError reports that the retry cap was hit while the server kept
// answering with a retryable status.
type exhaustedError struct {
	statusCode int
	attempts   int
}

func (e *exhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted: still failing with status %d after %d attempts", e.statusCode, e.attempts)
}

func (e *exhaustedError) Type() ErrorType {
	return ExhaustedError
}

// StatusCode returns the status of the last response.
func (e *exhaustedError) StatusCode() int {
	return e.statusCode
}

// Attempts returns how many attempts were made.
func (e *exhaustedError) Attempts() int {
	return e.attempts
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{
		message: message,
		wrapped: wrapped,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration, wrapped error) ClientError {
	return &timeoutError{
		message: message,
		timeout: timeout,
		wrapped: wrapped,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{
		message: message,
		field:   field,
	}
}

// NewExhaustedError creates the error returned under FailOnExhaustion.
func NewExhaustedError(statusCode, attempts int) ClientError {
	return &exhaustedError{
		statusCode: statusCode,
		attempts:   attempts,
	}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// IsTransportError reports whether the exchange itself failed (network or timeout).
func IsTransportError(err error) bool {
	return IsErrorType(err, NetworkError) || IsErrorType(err, TimeoutError)
}

// ExhaustedDetails extracts the status code and attempt count from an exhaustion error.
func ExhaustedDetails(err error) (statusCode, attempts int, ok bool) {
	var exErr *exhaustedError
	if errors.As(err, &exErr) {
		return exErr.statusCode, exErr.attempts, true
	}
	return 0, 0, false
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// isTimeout reports deadline expiry at the context or socket level.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// asTransportError classifies an error coming out of a Transport. Errors that
// already carry a ClientError type are returned unchanged.
func asTransportError(err error, timeout time.Duration) error {
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if isTimeout(err) {
		return NewTimeoutError("request timeout", timeout, err)
	}
	return NewNetworkError("request execution failed", err)
}
