package errors

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError is returned when a provider answers 429 Too Many Requests.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("%s: rate limited", e.Provider)
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	return msg
}

// NewRateLimitError creates a RateLimitError for the given provider.
func NewRateLimitError(provider string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Provider: provider, RetryAfter: retryAfter}
}

// IsRateLimitError reports whether err is a RateLimitError (even when wrapped).
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}
