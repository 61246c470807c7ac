// Package sources holds the HTTP clients for the external metadata
// providers: Google Books, Open Library and Wikipedia.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/libris/internal/cache"
	apperrors "github.com/lepinkainen/libris/internal/errors"
	"github.com/lepinkainen/libris/internal/ratelimit"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "libris/1.0 (+https://github.com/lepinkainen/libris)"
	maxErrorBody     = 512
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// client is the plumbing shared by every provider.
type client struct {
	provider    string
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter
	cache       *cache.CacheDB
	userAgent   string
}

// Option is a functional option for configuring a provider client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(cl *client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *client) {
		if d > 0 {
			cl.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithBaseURL sets a custom base URL for the provider API.
func WithBaseURL(base string) Option {
	return func(cl *client) {
		if base != "" {
			cl.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRateLimiter sets the limiter consulted before every request.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(cl *client) {
		cl.rateLimiter = limiter
	}
}

// WithCache enables response caching.
func WithCache(db *cache.CacheDB) Option {
	return func(cl *client) {
		cl.cache = db
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(cl *client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

func newClient(provider, baseURL string, timeout time.Duration, opts []Option) client {
	cl := client{
		provider:   provider,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(&cl)
	}
	return cl
}

func (c *client) newRequest(ctx context.Context, method, endpoint string, params url.Values) (*http.Request, error) {
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.provider, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// getJSON performs a single GET and decodes a 2xx JSON body into target.
// Non-2xx answers become typed errors from internal/errors.
func (c *client) getJSON(ctx context.Context, endpoint string, params url.Values, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, params)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", c.provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.FromResponse(c.provider, resp, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}
