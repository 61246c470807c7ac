// Package images downloads remote cover and photo images into the image store.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lepinkainen/libris/internal/model"
	"github.com/lepinkainen/libris/internal/result"
)

const (
	defaultTimeout = 10 * time.Second
	maxImageBytes  = 20 << 20
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Saver stores image bytes for an owner and returns the stored path.
type Saver interface {
	Save(owner model.Owner, field string, data []byte, hint string) (string, error)
}

// Fetcher downloads images with a single GET and hands them to a Saver.
type Fetcher struct {
	httpClient HTTPDoer
	saver      Saver
	userAgent  string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.httpClient = c
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// NewFetcher creates a Fetcher. timeout bounds each download.
func NewFetcher(saver Saver, timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	f := &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		saver:      saver,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAndAttach downloads url and stores it as owner's field. The stored
// path is returned as Found. An empty url is Empty. Download and storage
// problems are logged and returned as Failed; callers carry on without the
// image.
func (f *Fetcher) FetchAndAttach(ctx context.Context, url string, owner model.Owner, field, hint string) result.Result[string] {
	if url == "" {
		return result.Empty[string]()
	}

	data, err := f.download(ctx, url)
	if err != nil {
		slog.Warn("Image download failed", "url", url, "owner", owner.OwnerKind(), "id", owner.OwnerID(), "error", err)
		return result.Failed[string](err)
	}

	stored, err := f.saver.Save(owner, field, data, hint)
	if err != nil {
		slog.Warn("Image store failed", "url", url, "owner", owner.OwnerKind(), "id", owner.OwnerID(), "error", err)
		return result.Failed[string](err)
	}

	slog.Debug("Image attached", "owner", owner.OwnerKind(), "id", owner.OwnerID(), "field", field, "path", stored)
	return result.Found(stored)
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading image", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}
