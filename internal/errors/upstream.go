package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// UpstreamStatusError is returned when a provider answers with a non-2xx status.
type UpstreamStatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var statusErr *UpstreamStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// FromResponse maps a non-2xx response to a typed error. 429 becomes a
// RateLimitError honouring Retry-After (seconds form only).
func FromResponse(provider string, resp *http.Response, body []byte) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		var retry time.Duration
		if secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After"))); err == nil && secs > 0 {
			retry = time.Duration(secs) * time.Second
		}
		return NewRateLimitError(provider, retry)
	}
	return &UpstreamStatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
