// Package transport provides the shared HTTP plumbing for the
// enrichment steps: a client with a common user agent and per-request
// timeout, and an explicit retry state machine driven by a pluggable
// transient/terminal classification policy.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/openshelf/curator/pkg/errors"
)

// DefaultTimeout is the default per-request timeout.
const DefaultTimeout = 10 * time.Second

// UserAgent identifies curator to remote servers.
const UserAgent = "curator/1.0"

// Client provides HTTP client functionality with common headers.
type Client struct {
	http      *http.Client
	userAgent string
	headers   http.Header
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHeader adds a default header applied to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithHTTPClient swaps the underlying http.Client. Tests use this to
// point the client at httptest servers with custom transports.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a transport client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: UserAgent,
		headers:   make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with the common headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Set(key, value)
		}
	}
	return c.http.Do(req)
}

// Get performs a GET request against url.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	return c.Do(req)
}
