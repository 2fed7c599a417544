package httpclient

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/url"
	"time"

	"github.com/gaborage/go-fetch/interceptor"
)

const (
	// DefaultTimeout is the default per-attempt deadline
	DefaultTimeout = 5 * time.Second

	// DefaultMaxRetries is the default number of retries after the first attempt
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the default fixed delay between attempts
	DefaultRetryDelay = 2 * time.Second
)

// Client is the request pipeline entry point. A client owns its two
// interceptor chains; independent requests share no other state.
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)

	// Timeout returns the default per-attempt deadline for subsequent requests.
	Timeout() time.Duration
	// SetTimeout rewrites the default deadline for subsequent requests.
	// In-flight requests keep the deadline they resolved at dispatch.
	SetTimeout(d time.Duration)

	// RequestInterceptors is the chain applied forward to the outgoing
	// request after normalization.
	RequestInterceptors() *interceptor.Chain[*Request]
	// ResponseInterceptors is the chain applied in reverse order to the
	// final successful response. Upload-progress requests bypass it.
	ResponseInterceptors() *interceptor.Chain[*Response]
}

// Request describes one logical HTTP request. It is owned by a single call
// to the pipeline; interceptors may mutate it or replace it wholesale.
type Request struct {
	URL string
	// Method is resolved from the Do call during normalization; a value set
	// by the caller is overwritten.
	Method  string
	Headers map[string]string
	// Query is merged into the URL's existing query string during
	// normalization.
	Query url.Values
	Body  *Body
	Auth  *BasicAuth
	// Timeout overrides the client default when positive.
	Timeout time.Duration
	// Retry overrides the client retry policy when non-nil.
	Retry *RetryPolicy
	// OnDownloadProgress switches the request to the streaming download
	// path: the response body is delivered as Response.Stream and progress
	// events fire as the caller consumes it.
	OnDownloadProgress ProgressFunc
	// OnUploadProgress switches the request to the streaming upload path.
	// Progress events fire as body bytes are flushed to the transport.
	OnUploadProgress ProgressFunc
}

// RetryPolicy bounds the attempt loop for one request. MaxRetries is the
// number of attempts after the first, so zero means a single attempt.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// BasicAuth contains basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Response represents an HTTP response. Direct and upload requests carry a
// fully buffered Body; download-progress requests expose the live byte
// stream instead, and the caller is responsible for closing it.
type Response struct {
	StatusCode int
	Headers    nethttp.Header
	Body       []byte
	Stream     io.ReadCloser
	Stats      Stats
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return IsSuccessStatus(r.StatusCode)
}

// JSON unmarshals the buffered body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Text returns the buffered body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// Config holds the client configuration
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	// Backoff computes the wait before a retry from the attempt number and
	// the configured delay. Defaults to FixedBackoff.
	Backoff        BackoffFunc
	BasicAuth      *BasicAuth
	DefaultHeaders map[string]string
}
