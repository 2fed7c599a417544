package httpclient

import (
	"context"
	"errors"
	"net"
	"time"
)

// composeAttemptContext merges the caller's context with a per-attempt
// deadline. A zero timeout installs no timer. The returned cancel must run
// on every exit path so the deadline timer never leaks.
func composeAttemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// classifyAttemptError resolves a failed attempt to its failure class.
// Errors already carrying a classification pass through untouched. The
// caller's context is consulted first, so user cancellation wins even when
// the deadline fired in the same instant; an expired deadline classifies as
// timeout; everything else is a transport failure.
func classifyAttemptError(userCtx context.Context, err error, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return err
	}
	if userCtx.Err() != nil {
		return NewCancelledError("request cancelled", context.Cause(userCtx))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request deadline exceeded", timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError("request timed out", timeout)
	}
	return NewNetworkError("request execution failed", err)
}
