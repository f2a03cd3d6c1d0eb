package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTP fetcher defaults.
const (
	// DefaultHTTPTimeout bounds a single request when no timeout is set.
	DefaultHTTPTimeout = 15 * time.Second

	// DefaultMaxBodySize caps a response body (8MB covers any sane bundle).
	DefaultMaxBodySize int64 = 8 << 20

	userAgent = "go-resloader"
)

// HTTP fetches resources over http and https.
type HTTP struct {
	client      *http.Client
	maxBodySize int64
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithClient replaces the underlying http.Client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithTimeout sets the per-request timeout on a copy of the current client,
// keeping its transport, jar and redirect policy.
// Panics if d <= 0 (programmer error).
func WithTimeout(d time.Duration) HTTPOption {
	if d <= 0 {
		panic("fetch: WithTimeout duration must be positive")
	}
	return func(h *HTTP) {
		c := *h.client
		c.Timeout = d
		h.client = &c
	}
}

// WithMaxBodySize caps the number of bytes read from a response.
// Panics if n <= 0 (programmer error).
func WithMaxBodySize(n int64) HTTPOption {
	if n <= 0 {
		panic("fetch: WithMaxBodySize must be positive")
	}
	return func(h *HTTP) {
		h.maxBodySize = n
	}
}

// NewHTTP creates an HTTP fetcher.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:      &http.Client{Timeout: DefaultHTTPTimeout},
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch performs a GET request for location.
// 404 and 410 map to ErrNotFound; other 4xx/5xx map to ErrHTTPStatus.
func (h *HTTP) Fetch(ctx context.Context, location string) (*Payload, error) {
	if location == "" {
		return nil, ErrEmptyLocation
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s returned %d", ErrNotFound, location, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, location, resp.StatusCode)
	}

	// Read one byte past the cap to tell "exactly at limit" from "over".
	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrRead, err)
	}
	if int64(len(body)) > h.maxBodySize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, location, h.maxBodySize)
	}

	return newPayload(location, "http", body), nil
}

// Compile-time interface check.
var _ Fetcher = (*HTTP)(nil)
