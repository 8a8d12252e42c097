package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 << 10

// Request is one JSON call. Body, when set, is sent as JSON.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Body   any
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, bytes.TrimSpace(e.Body))
}

// Client speaks JSON over HTTP with a whole-request timeout.
type Client struct {
	http      *http.Client
	userAgent string
}

type ClientOption func(*clientConfig)

type clientConfig struct {
	timeout   time.Duration
	transport http.RoundTripper
	userAgent string
}

func NewClient(opts ...ClientOption) *Client {
	cfg := clientConfig{timeout: 30 * time.Second, userAgent: "trackbets/1"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.timeout, Transport: cfg.transport},
		userAgent: cfg.userAgent,
	}
}

// GetJSON fetches rawURL with query and decodes the answer into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Query: query}, dest)
}

// PostJSON sends body as JSON and decodes the answer into dest.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, dest any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Body: body}, dest)
}

// Do runs r and decodes a 2xx body into dest, which may be nil. Any other
// status yields a *StatusError with at most 4 KiB of the body.
func (c *Client) Do(ctx context.Context, r Request, dest any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if len(r.Query) > 0 {
		q := req.URL.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// WithTimeout bounds each request end to end. Zero keeps the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) { c.transport = rt }
}

func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) { c.userAgent = ua }
}
