package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	nethttp "net/http"
	"sync"
	"time"
)

// ProgressEvent reports the state of a transfer after a chunk of bytes
// moved.
type ProgressEvent struct {
	BytesTransferred int64
	// TotalBytes is the expected transfer size, or -1 when unknown.
	TotalBytes int64
}

// Fraction returns the completed fraction in [0, 1]. ok is false when the
// total is unknown. A server may under-report Content-Length; the fraction
// is clamped rather than exceeding 1.
func (e ProgressEvent) Fraction() (fraction float64, ok bool) {
	if e.TotalBytes <= 0 {
		return 0, false
	}
	f := float64(e.BytesTransferred) / float64(e.TotalBytes)
	if f > 1 {
		f = 1
	}
	return f, true
}

// Percent returns the completed percentage rounded to the nearest integer,
// or -1 when the total is unknown.
func (e ProgressEvent) Percent() int {
	f, ok := e.Fraction()
	if !ok {
		return -1
	}
	return int(math.Round(100 * f))
}

// ProgressFunc receives progress events. It runs synchronously on the
// transfer path and must not block.
type ProgressFunc func(ProgressEvent)

// progressReader delivers the response byte stream to the caller while
// counting every byte for progress events. A single pull-driven stream
// feeds both sides, so the metrics side can never block or alter the
// caller's copy. Close releases the attempt context.
type progressReader struct {
	body       io.ReadCloser
	userCtx    context.Context
	cancel     context.CancelFunc
	timeout    time.Duration
	onProgress ProgressFunc
	total      int64
	read       int64

	closeOnce sync.Once
	closeErr  error
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.body.Read(buf)
	if n > 0 {
		p.read += int64(n)
		p.onProgress(ProgressEvent{BytesTransferred: p.read, TotalBytes: p.total})
	}
	if err != nil && !errors.Is(err, io.EOF) {
		// Aborts mid-stream keep the cancel/timeout distinction.
		err = classifyAttemptError(p.userCtx, err, p.timeout)
	}
	return n, err
}

func (p *progressReader) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.body.Close()
		p.cancel()
	})
	return p.closeErr
}

// sendDownload performs one streaming attempt. The response must be a
// success with a readable body; the body is returned unconsumed as
// Response.Stream, wrapped so progress events fire per chunk using
// Content-Length as the total when present.
func (c *client) sendDownload(userCtx context.Context, cancel context.CancelFunc, norm *Request, httpReq *nethttp.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	if !IsSuccessStatus(httpResp.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 8<<10))
		httpResp.Body.Close()
		return nil, NewHTTPError(
			fmt.Sprintf("download failed with status %d", httpResp.StatusCode),
			httpResp.StatusCode,
			body,
		)
	}
	if httpResp.Body == nil || httpResp.Body == nethttp.NoBody {
		return nil, NewNetworkError("response exposes no readable body", nil)
	}

	total := httpResp.ContentLength
	if total < 0 {
		total = -1
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Stream: &progressReader{
			body:       httpResp.Body,
			userCtx:    userCtx,
			cancel:     cancel,
			timeout:    norm.Timeout,
			onProgress: norm.OnDownloadProgress,
			total:      total,
		},
	}, nil
}
