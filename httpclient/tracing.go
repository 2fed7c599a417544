package httpclient

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/gaborage/go-fetch/interceptor"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	traceIDKey contextKey = "trace_id"

	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = "traceparent"
)

// WithTraceID adds a trace ID to the context for header propagation
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns a trace ID from context if present
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := TraceIDFromContext(ctx); ok {
		return traceID
	}
	return uuid.New().String()
}

// GenerateTraceParent creates a minimal W3C traceparent header value.
// Format: version(2)-trace-id(32)-span-id(16)-flags(2), e.g., "00-<32>-<16>-01"
func GenerateTraceParent() string {
	traceID := make([]byte, 16)
	spanID := make([]byte, 8)
	if _, err := crand.Read(traceID); err != nil {
		traceID = make([]byte, 16)
	}
	if _, err := crand.Read(spanID); err != nil {
		spanID = make([]byte, 8)
	}
	if allZero(traceID) {
		traceID[len(traceID)-1] = 0x01
	}
	if allZero(spanID) {
		spanID[len(spanID)-1] = 0x01
	}
	return "00-" + strings.ToLower(hex.EncodeToString(traceID)) + "-" + strings.ToLower(hex.EncodeToString(spanID)) + "-01"
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// NewTraceIDInterceptor creates a request interceptor that stamps the
// X-Request-ID header from the context, generating an ID when absent.
func NewTraceIDInterceptor() interceptor.Handler[*Request] {
	return NewTraceIDInterceptorFor(HeaderXRequestID)
}

// NewTraceIDInterceptorFor creates a trace interceptor using a custom header name
func NewTraceIDInterceptorFor(header string) interceptor.Handler[*Request] {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *Request) (*Request, error) {
		if req.Headers[header] == "" {
			req.Headers[header] = EnsureTraceID(ctx)
		}
		return req, nil
	}
}

// NewTraceParentInterceptor creates a request interceptor that stamps a
// W3C traceparent header when none is set.
func NewTraceParentInterceptor() interceptor.Handler[*Request] {
	return func(_ context.Context, req *Request) (*Request, error) {
		if req.Headers[HeaderTraceParent] == "" {
			req.Headers[HeaderTraceParent] = GenerateTraceParent()
		}
		return req, nil
	}
}
