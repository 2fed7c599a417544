package httpclient

import (
	"errors"
	"fmt"
	"time"
)

// ClientError represents the different failure classes of the request
// pipeline. Every error carries a stable Type discriminator so callers can
// branch without matching on messages.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	// NetworkError covers transport-level failures (DNS, connect, broken
	// connections). Retried up to the configured budget.
	NetworkError ErrorType = "network"
	// TimeoutError means the per-attempt deadline fired. Never retried.
	TimeoutError ErrorType = "timeout"
	// CancelledError means the caller's context was cancelled. Never retried.
	CancelledError ErrorType = "cancelled"
	// HTTPError is a non-success HTTP status surfaced as an error.
	HTTPError ErrorType = "http"
	// BodyReplayError means a retry was attempted over a consumed,
	// non-replayable body. Terminal.
	BodyReplayError ErrorType = "body_replay"
	// StreamError is a failure reported by the upload streaming transport.
	StreamError ErrorType = "stream"
	// ValidationError is a malformed request rejected before dispatch.
	ValidationError ErrorType = "validation"
)

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

func (e *networkError) Type() ErrorType { return NetworkError }

func (e *networkError) Unwrap() error { return e.wrapped }

type timeoutError struct {
	message string
	timeout time.Duration
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %v)", e.message, e.timeout)
}

func (e *timeoutError) Type() ErrorType { return TimeoutError }

// Timeout reports the deadline that expired.
func (e *timeoutError) Timeout() time.Duration { return e.timeout }

type cancelledError struct {
	message string
	cause   error
}

func (e *cancelledError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("cancelled: %s: %v", e.message, e.cause)
	}
	return fmt.Sprintf("cancelled: %s", e.message)
}

func (e *cancelledError) Type() ErrorType { return CancelledError }

func (e *cancelledError) Unwrap() error { return e.cause }

type httpError struct {
	message    string
	statusCode int
	body       []byte
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.statusCode)
}

func (e *httpError) Type() ErrorType { return HTTPError }

func (e *httpError) StatusCode() int { return e.statusCode }

func (e *httpError) Body() []byte { return e.body }

type bodyReplayError struct {
	message string
	last    error
}

func (e *bodyReplayError) Error() string {
	if e.last != nil {
		return fmt.Sprintf("body replay error: %s (last attempt: %v)", e.message, e.last)
	}
	return fmt.Sprintf("body replay error: %s", e.message)
}

func (e *bodyReplayError) Type() ErrorType { return BodyReplayError }

func (e *bodyReplayError) Unwrap() error { return e.last }

type streamError struct {
	message string
	wrapped error
}

func (e *streamError) Error() string {
	return fmt.Sprintf("stream transport error: %s: %v", e.message, e.wrapped)
}

func (e *streamError) Type() ErrorType { return StreamError }

func (e *streamError) Unwrap() error { return e.wrapped }

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

func (e *validationError) Type() ErrorType { return ValidationError }

// NewNetworkError creates a new network error
func NewNetworkError(message string, wrapped error) ClientError {
	return &networkError{message: message, wrapped: wrapped}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, timeout time.Duration) ClientError {
	return &timeoutError{message: message, timeout: timeout}
}

// NewCancelledError creates a new cancellation error
func NewCancelledError(message string, cause error) ClientError {
	return &cancelledError{message: message, cause: cause}
}

// NewHTTPError creates a new HTTP status error
func NewHTTPError(message string, statusCode int, body []byte) ClientError {
	return &httpError{message: message, statusCode: statusCode, body: body}
}

// NewBodyReplayError creates a new body replay error. last is the failure
// that triggered the retry, if any.
func NewBodyReplayError(message string, last error) ClientError {
	return &bodyReplayError{message: message, last: last}
}

// NewStreamError creates a new streaming transport error
func NewStreamError(message string, wrapped error) ClientError {
	return &streamError{message: message, wrapped: wrapped}
}

// NewValidationError creates a new validation error
func NewValidationError(message, field string) ClientError {
	return &validationError{message: message, field: field}
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

// IsHTTPStatusError checks if an error is an HTTP error with a specific status code
func IsHTTPStatusError(err error, statusCode int) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode() == statusCode
	}
	return false
}

// IsSuccessStatus checks if a status code represents success (2xx)
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

func isRetryableStatus(code int) bool {
	return code >= 500 && code < 600
}

// isRetryableStatusError reports whether err is an HTTP error carrying a
// retryable (5xx) status.
func isRetryableStatusError(err error) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return isRetryableStatus(httpErr.StatusCode())
	}
	return false
}
