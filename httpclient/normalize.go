package httpclient

import (
	"net/url"
)

// mergeQuery merges extra query parameters into rawURL's existing query
// string, preserving parameters already present. Values are appended, not
// replaced, matching url.Values semantics.
func mergeQuery(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", NewValidationError("request URL is not parseable", "url")
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// normalizeRequest resolves one request to concrete values: the Do method,
// the merged URL, cloned headers, and client defaults for timeout and retry
// policy. It copies the caller's request so interceptors and the pipeline
// never mutate it.
func (c *client) normalizeRequest(method string, req *Request) (*Request, error) {
	norm := *req
	norm.Method = method

	merged, err := mergeQuery(req.URL, req.Query)
	if err != nil {
		return nil, err
	}
	norm.URL = merged
	norm.Query = nil

	norm.Headers = make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		norm.Headers[k] = v
	}

	c.mu.RLock()
	if norm.Timeout <= 0 {
		norm.Timeout = c.config.Timeout
	}
	if norm.Retry == nil {
		norm.Retry = &RetryPolicy{MaxRetries: c.config.MaxRetries, Delay: c.config.RetryDelay}
	} else if norm.Retry.Delay <= 0 {
		norm.Retry = &RetryPolicy{MaxRetries: norm.Retry.MaxRetries, Delay: c.config.RetryDelay}
	}
	if norm.Auth == nil {
		norm.Auth = c.config.BasicAuth
	}
	c.mu.RUnlock()

	if norm.Body == nil {
		norm.Body = None()
	}
	return &norm, nil
}
