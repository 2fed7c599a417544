package httpclient

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"math/big"
	nethttp "net/http"
	"time"
)

// BackoffFunc computes the wait before the retry following attempt (zero
// based) from the request's configured delay.
type BackoffFunc func(attempt int, base time.Duration) time.Duration

// FixedBackoff waits the configured delay between every attempt.
func FixedBackoff() BackoffFunc {
	return func(_ int, base time.Duration) time.Duration {
		return base
	}
}

// ExponentialBackoff doubles the configured delay per attempt with full
// jitter, capping the wait at 30 seconds.
func ExponentialBackoff() BackoffFunc {
	return func(attempt int, base time.Duration) time.Duration {
		if base <= 0 {
			base = 50 * time.Millisecond
		}
		// Cap attempt to avoid overflow when computing the multiplier
		if attempt > 20 {
			attempt = 20
		}
		d := base * time.Duration(1<<attempt)
		const maxBackoff = 30 * time.Second
		if d > maxBackoff || d <= 0 {
			d = maxBackoff
		}
		// Full jitter: random duration in [0, d)
		n, err := crand.Int(crand.Reader, big.NewInt(int64(d)))
		if err != nil {
			return d
		}
		return time.Duration(n.Int64())
	}
}

// sendFunc performs one transport attempt. httpReq carries the per-attempt
// context. On success a send that returns a live stream takes ownership of
// cancel through the stream's Close; otherwise the retry loop releases it.
type sendFunc func(userCtx context.Context, cancel context.CancelFunc, norm *Request, httpReq *nethttp.Request) (*Response, error)

// doWithRetry drives the attempt loop. Attempts are numbered 0..MaxRetries
// inclusive; each one rebuilds the wire request from the frozen body copy.
// Cancellation and deadline failures are never retried. Transport failures
// and retryable statuses wait out the delay schedule; an exhausted budget
// propagates the last observed error.
func (c *client) doWithRetry(ctx context.Context, norm *Request, prep *preparedBody, send sendFunc) (*Response, error) {
	policy := norm.Retry
	backoff := c.backoff()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 && !prep.replayable {
			return nil, NewBodyReplayError("request body is a consumed stream and cannot be replayed", lastErr)
		}

		c.logRequest(norm, prep, attempt)

		attemptCtx, cancel := composeAttemptContext(ctx, norm.Timeout)
		httpReq, err := c.buildRequest(attemptCtx, norm, prep)
		if err != nil {
			cancel()
			return nil, err
		}

		resp, err := send(ctx, cancel, norm, httpReq)
		if err != nil {
			cancel()
			cls := classifyAttemptError(ctx, err, norm.Timeout)
			if !c.retryable(cls) || attempt >= policy.MaxRetries {
				return nil, cls
			}
			lastErr = cls
			if werr := c.waitRetry(ctx, backoff(attempt, policy.Delay)); werr != nil {
				return nil, werr
			}
			continue
		}

		// Streaming responses release the attempt context on Close.
		if resp.Stream == nil {
			cancel()
		}

		if resp.IsSuccess() {
			return resp, nil
		}

		if isRetryableStatus(resp.StatusCode) && attempt < policy.MaxRetries {
			lastErr = NewHTTPError(
				fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
				resp.StatusCode,
				resp.Body,
			)
			if werr := c.waitRetry(ctx, backoff(attempt, policy.Delay)); werr != nil {
				return nil, werr
			}
			continue
		}

		return resp, NewHTTPError(
			fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}
}

// retryable reports whether a classified failure may be retried:
// transport and upload-stream failures, plus 5xx statuses surfaced as
// errors by the streaming paths. Cancellation, deadline expiry, body
// replay, and validation failures are terminal.
func (c *client) retryable(err error) bool {
	switch {
	case IsErrorType(err, NetworkError), IsErrorType(err, StreamError):
		return true
	case IsErrorType(err, HTTPError):
		return isRetryableStatusError(err)
	default:
		return false
	}
}

func (c *client) backoff() BackoffFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.config.Backoff != nil {
		return c.config.Backoff
	}
	return FixedBackoff()
}

// waitRetry sleeps out the inter-attempt delay, honoring caller
// cancellation. The timer is stopped on every exit path.
func (c *client) waitRetry(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return NewCancelledError("request cancelled during retry delay", context.Cause(ctx))
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return NewCancelledError("request cancelled during retry delay", context.Cause(ctx))
	}
}
