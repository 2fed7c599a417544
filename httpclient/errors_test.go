package httpclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name string
		err  ClientError
		typ  ErrorType
	}{
		{"network", NewNetworkError("dial failed", errors.New("refused")), NetworkError},
		{"timeout", NewTimeoutError("too slow", 5*time.Second), TimeoutError},
		{"cancelled", NewCancelledError("caller gave up", nil), CancelledError},
		{"http", NewHTTPError("not found", 404, []byte("missing")), HTTPError},
		{"body replay", NewBodyReplayError("stream consumed", nil), BodyReplayError},
		{"stream", NewStreamError("upload aborted", errors.New("reset")), StreamError},
		{"validation", NewValidationError("bad url", "url"), ValidationError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type())
			assert.True(t, IsErrorType(tt.err, tt.typ))
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestIsErrorType(t *testing.T) {
	err := NewNetworkError("boom", nil)

	assert.True(t, IsErrorType(err, NetworkError))
	assert.False(t, IsErrorType(err, TimeoutError))
	assert.False(t, IsErrorType(nil, NetworkError))
	assert.False(t, IsErrorType(errors.New("plain"), NetworkError))
}

func TestIsErrorTypeSeesThroughWrapping(t *testing.T) {
	inner := NewTimeoutError("deadline", time.Second)
	wrapped := fmt.Errorf("attempt 3: %w", inner)

	assert.True(t, IsErrorType(wrapped, TimeoutError))
}

func TestErrorUnwrapping(t *testing.T) {
	t.Run("network wraps cause", func(t *testing.T) {
		cause := errors.New("refused")
		assert.ErrorIs(t, NewNetworkError("dial failed", cause), cause)
	})

	t.Run("cancelled wraps cause", func(t *testing.T) {
		assert.ErrorIs(t, NewCancelledError("gave up", context.Canceled), context.Canceled)
	})

	t.Run("body replay wraps last attempt error", func(t *testing.T) {
		last := NewNetworkError("first attempt failed", nil)
		err := NewBodyReplayError("cannot replay", last)
		assert.True(t, IsErrorType(err, BodyReplayError))
		var netErr ClientError
		assert.True(t, errors.As(errors.Unwrap(err), &netErr))
		assert.Equal(t, NetworkError, netErr.Type())
	})
}

func TestHTTPErrorAccessors(t *testing.T) {
	err := NewHTTPError("server error", 503, []byte("unavailable"))

	assert.True(t, IsHTTPStatusError(err, 503))
	assert.False(t, IsHTTPStatusError(err, 500))
	assert.False(t, IsHTTPStatusError(errors.New("plain"), 503))
}

func TestIsSuccessStatus(t *testing.T) {
	assert.True(t, IsSuccessStatus(200))
	assert.True(t, IsSuccessStatus(204))
	assert.True(t, IsSuccessStatus(299))
	assert.False(t, IsSuccessStatus(199))
	assert.False(t, IsSuccessStatus(301))
	assert.False(t, IsSuccessStatus(404))
	assert.False(t, IsSuccessStatus(500))
}

func TestRetryableStatusClassification(t *testing.T) {
	assert.True(t, isRetryableStatus(500))
	assert.True(t, isRetryableStatus(503))
	assert.True(t, isRetryableStatus(599))
	assert.False(t, isRetryableStatus(499))
	assert.False(t, isRetryableStatus(404))
	assert.False(t, isRetryableStatus(200))

	assert.True(t, isRetryableStatusError(NewHTTPError("bad gateway", 502, nil)))
	assert.False(t, isRetryableStatusError(NewHTTPError("not found", 404, nil)))
	assert.False(t, isRetryableStatusError(NewNetworkError("boom", nil)))
}
