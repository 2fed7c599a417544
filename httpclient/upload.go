package httpclient

import (
	"context"
	"io"
	nethttp "net/http"
)

// StreamTransport is the event-driven transport variant behind
// upload-progress requests. Implementations send the already-encoded body,
// report bytes as they are flushed to the wire through onProgress, and
// complete through the returned response or an error. The request's context
// carries the per-attempt deadline.
type StreamTransport interface {
	Send(req *nethttp.Request, onProgress ProgressFunc) (*nethttp.Response, error)
}

// httpStreamTransport implements StreamTransport over net/http by counting
// body bytes as the transport reads them.
type httpStreamTransport struct {
	client *nethttp.Client
}

func (t *httpStreamTransport) Send(req *nethttp.Request, onProgress ProgressFunc) (*nethttp.Response, error) {
	if req.Body != nil && onProgress != nil {
		total := req.ContentLength
		if total <= 0 {
			total = -1
		}
		req.Body = &countingReadCloser{rc: req.Body, total: total, onProgress: onProgress}
		// The counting wrapper is single-use; disable transparent replays.
		req.GetBody = nil
	}
	return t.client.Do(req)
}

// countingReadCloser emits a progress event per chunk handed to the
// transport.
type countingReadCloser struct {
	rc         io.ReadCloser
	total      int64
	read       int64
	onProgress ProgressFunc
}

func (r *countingReadCloser) Read(buf []byte) (int, error) {
	n, err := r.rc.Read(buf)
	if n > 0 {
		r.read += int64(n)
		r.onProgress(ProgressEvent{BytesTransferred: r.read, TotalBytes: r.total})
	}
	return n, err
}

func (r *countingReadCloser) Close() error {
	return r.rc.Close()
}

// sendUpload performs one attempt through the streaming transport and
// reconstructs a buffered response from its completion. Transport failures
// classify as stream errors; cancellation and deadline expiry keep their
// own classes even when the transport surfaces the abort asynchronously.
func (c *client) sendUpload(userCtx context.Context, _ context.CancelFunc, norm *Request, httpReq *nethttp.Request) (*Response, error) {
	httpResp, err := c.stream.Send(httpReq, norm.OnUploadProgress)
	if err != nil {
		cls := classifyAttemptError(userCtx, err, norm.Timeout)
		if IsErrorType(cls, NetworkError) {
			return nil, NewStreamError("upload transport failed", err)
		}
		return nil, cls
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewStreamError("failed to read upload response", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}
