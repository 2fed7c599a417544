package httpclient

import (
	"context"
	"io"
	nethttp "net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaborage/go-fetch/config"
	"github.com/gaborage/go-fetch/interceptor"
	"github.com/gaborage/go-fetch/logger"
)

// client implements the Client interface
type client struct {
	httpClient *nethttp.Client
	stream     StreamTransport
	log        logger.Logger

	mu     sync.RWMutex // guards config for SetTimeout
	config *Config

	reqChain  *interceptor.Chain[*Request]
	respChain *interceptor.Chain[*Response]
	callCount int64
}

// NewClient creates a new client with default configuration. A nil logger
// disables logging.
func NewClient(log logger.Logger) Client {
	return NewBuilder(log).Build()
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	config    *Config
	logger    logger.Logger
	transport nethttp.RoundTripper
	stream    StreamTransport
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:        DefaultTimeout,
			MaxRetries:     DefaultMaxRetries,
			RetryDelay:     DefaultRetryDelay,
			DefaultHeaders: make(map[string]string),
		},
		logger: log,
	}
}

// WithTimeout sets the default per-attempt deadline
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetries sets the retry configuration
func (b *Builder) WithRetries(maxRetries int, retryDelay time.Duration) *Builder {
	b.config.MaxRetries = maxRetries
	b.config.RetryDelay = retryDelay
	return b
}

// WithBackoff sets the delay schedule applied between attempts
func (b *Builder) WithBackoff(fn BackoffFunc) *Builder {
	b.config.Backoff = fn
	return b
}

// WithBasicAuth sets default basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{Username: username, Password: password}
	return b
}

// WithDefaultHeader adds a header sent with every request
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithTransport sets the underlying round tripper, e.g. a test stub
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.transport = rt
	return b
}

// WithStreamTransport sets the transport variant used by upload-progress
// requests
func (b *Builder) WithStreamTransport(st StreamTransport) *Builder {
	b.stream = st
	return b
}

// FromConfig applies externally loaded defaults (see the config package)
func (b *Builder) FromConfig(cfg *config.Config) *Builder {
	b.config.Timeout = cfg.Timeout
	b.config.MaxRetries = cfg.Retries
	b.config.RetryDelay = cfg.RetryDelay
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() Client {
	log := b.logger
	if log == nil {
		log = logger.NewNop()
	}
	httpClient := &nethttp.Client{Transport: b.transport}
	stream := b.stream
	if stream == nil {
		stream = &httpStreamTransport{client: httpClient}
	}
	return &client{
		httpClient: httpClient,
		stream:     stream,
		log:        log,
		config:     b.config,
		reqChain:   interceptor.New[*Request](),
		respChain:  interceptor.New[*Response](),
	}
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Timeout returns the default per-attempt deadline.
func (c *client) Timeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.Timeout
}

// SetTimeout rewrites the default deadline for subsequent requests.
// Requests already dispatched keep the deadline they resolved.
func (c *client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.config.Timeout = d
	c.mu.Unlock()
}

// RequestInterceptors returns the request chain.
func (c *client) RequestInterceptors() *interceptor.Chain[*Request] {
	return c.reqChain
}

// ResponseInterceptors returns the response chain.
func (c *client) ResponseInterceptors() *interceptor.Chain[*Response] {
	return c.respChain
}

// Do performs an HTTP request with the specified method. The request moves
// through normalization, the request chain, dispatch (direct, download, or
// upload), and finally the response chain. The upload path skips the
// response chain.
func (c *client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	if err := c.validateRequest(req); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return nil, NewCancelledError("request cancelled before dispatch", context.Cause(ctx))
	}

	norm, err := c.normalizeRequest(method, req)
	if err != nil {
		return nil, err
	}

	// Interceptor failures propagate unwrapped, aborting the request.
	norm, err = c.reqChain.RunForward(ctx, norm)
	if err != nil {
		return nil, err
	}
	if len(norm.Query) > 0 {
		// An interceptor added query parameters; fold them into the URL.
		norm.URL, err = mergeQuery(norm.URL, norm.Query)
		if err != nil {
			return nil, err
		}
		norm.Query = nil
	}

	prep, err := norm.Body.snapshot()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	callCount := atomic.AddInt64(&c.callCount, 1)

	var send sendFunc
	upload := false
	switch {
	case norm.OnUploadProgress != nil:
		send = c.sendUpload
		upload = true
	case norm.OnDownloadProgress != nil:
		send = c.sendDownload
	default:
		send = c.sendBuffered
	}

	resp, err := c.doWithRetry(ctx, norm, prep, send)
	if resp != nil {
		resp.Stats = Stats{ElapsedTime: time.Since(start), CallCount: callCount}
	}
	if err != nil {
		return resp, err
	}

	if upload {
		// The upload transport resolves through its own completion
		// protocol; the response chain does not apply to it.
		c.logResponse(resp)
		return resp, nil
	}

	final, err := c.respChain.RunReverse(ctx, resp)
	if err != nil {
		// Streaming responses hold the attempt context open until Close;
		// an aborted response chain must not orphan it.
		if resp.Stream != nil {
			resp.Stream.Close()
		}
		return nil, err
	}
	resp = final
	c.logResponse(resp)
	return resp, nil
}

// validateRequest validates the request before sending
func (c *client) validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if req.URL == "" {
		return NewValidationError("URL cannot be empty", "url")
	}
	if req.Retry != nil && req.Retry.MaxRetries < 0 {
		return NewValidationError("retry count cannot be negative", "retry")
	}
	return nil
}

// buildRequest constructs the per-attempt *nethttp.Request from the frozen
// body and applies headers and auth.
func (c *client) buildRequest(ctx context.Context, norm *Request, prep *preparedBody) (*nethttp.Request, error) {
	var body io.Reader
	if !prep.empty() {
		body = prep.newReader()
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, norm.Method, norm.URL, body)
	if err != nil {
		return nil, NewValidationError("failed to create HTTP request: "+err.Error(), "url")
	}

	c.applyHeaders(httpReq, norm, prep)
	if norm.Auth != nil {
		httpReq.SetBasicAuth(norm.Auth.Username, norm.Auth.Password)
	}
	return httpReq, nil
}

// applyHeaders applies default headers, request headers, and the frozen
// body's content type, in increasing priority.
func (c *client) applyHeaders(httpReq *nethttp.Request, norm *Request, prep *preparedBody) {
	c.mu.RLock()
	for key, value := range c.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	c.mu.RUnlock()

	for key, value := range norm.Headers {
		httpReq.Header.Set(key, value)
	}

	if httpReq.Header.Get("Content-Type") == "" && !prep.empty() {
		httpReq.Header.Set("Content-Type", prep.contentType)
	}
}

// sendBuffered performs one direct attempt, draining the response body into
// memory.
func (c *client) sendBuffered(_ context.Context, _ context.CancelFunc, _ *Request, httpReq *nethttp.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}

// logRequest logs the outgoing attempt
func (c *client) logRequest(norm *Request, prep *preparedBody, attempt int) {
	logEvent := c.log.Info().
		Str("direction", "outbound").
		Str("method", norm.Method).
		Str("url", norm.URL).
		Int("attempt", attempt)

	if len(norm.Headers) > 0 {
		logEvent = logEvent.Interface("headers", norm.Headers)
	}
	if len(prep.data) > 0 {
		logEvent = logEvent.Bytes("body", prep.data)
	}
	logEvent.Msg("HTTP client request")
}

// logResponse logs the delivered response
func (c *client) logResponse(resp *Response) {
	logEvent := c.log.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount)

	if len(resp.Body) > 0 {
		logEvent = logEvent.Bytes("body", resp.Body)
	}
	if resp.Stream != nil {
		logEvent = logEvent.Str("body_mode", "stream")
	}
	logEvent.Msg("HTTP client response")
}
