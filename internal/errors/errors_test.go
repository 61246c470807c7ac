package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("Google Books", 0)

	if err.Error() != "Google Books: rate limited" {
		t.Fatalf("Error message = %q", err.Error())
	}

	wrapped := fmt.Errorf("search: %w", err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry(t *testing.T) {
	err := NewRateLimitError("Open Library", 2*time.Minute)

	expected := "Open Library: rate limited (retry after 2m0s)"
	if err.Error() != expected {
		t.Fatalf("Error message = %q, want %q", err.Error(), expected)
	}
}

func TestFromResponse(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		header    http.Header
		body      string
		rateLimit bool
		notFound  bool
		message   string
	}{
		{
			name:      "429 with retry-after",
			status:    http.StatusTooManyRequests,
			header:    http.Header{"Retry-After": []string{"30"}},
			rateLimit: true,
			message:   "Wikipedia: rate limited (retry after 30s)",
		},
		{
			name:     "404",
			status:   http.StatusNotFound,
			body:     " missing \n",
			notFound: true,
			message:  "Wikipedia: unexpected status 404: missing",
		},
		{
			name:    "500 without body",
			status:  http.StatusInternalServerError,
			message: "Wikipedia: unexpected status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: tt.header}
			if resp.Header == nil {
				resp.Header = http.Header{}
			}
			err := FromResponse("Wikipedia", resp, []byte(tt.body))

			if err.Error() != tt.message {
				t.Fatalf("Error message = %q, want %q", err.Error(), tt.message)
			}
			if IsRateLimitError(err) != tt.rateLimit {
				t.Fatalf("IsRateLimitError = %v, want %v", !tt.rateLimit, tt.rateLimit)
			}
			if IsNotFound(err) != tt.notFound {
				t.Fatalf("IsNotFound = %v, want %v", !tt.notFound, tt.notFound)
			}
		})
	}
}

func TestIsNotFoundJoined(t *testing.T) {
	err := stdErrors.Join(&UpstreamStatusError{Provider: "x", StatusCode: 404}, stdErrors.New("ctx"))
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound returned false for joined error")
	}
}
