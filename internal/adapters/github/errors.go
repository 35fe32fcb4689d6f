package github

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited is matched by APIError when the quota is used up.
	ErrRateLimited = errors.New("github rate limited")
	// ErrRequest wraps transport and decoding failures.
	ErrRequest = errors.New("github request")
)

// APIError is a non-2xx response.
type APIError struct {
	Status    int
	Message   string
	Remaining int
	Reset     time.Time
}

func (e *APIError) Error() string {
	if e.RateLimited() {
		return fmt.Sprintf("github: status %d: %s (rate limit resets at %s)",
			e.Status, e.Message, e.Reset.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("github: status %d: %s", e.Status, e.Message)
}

// RateLimited reports whether the response signalled an exhausted quota.
func (e *APIError) RateLimited() bool {
	return (e.Status == 403 || e.Status == 429) && e.Remaining == 0 && !e.Reset.IsZero()
}

func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.RateLimited()
}
