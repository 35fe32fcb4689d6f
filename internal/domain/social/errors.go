package social

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited marks a rejected request due to quota exhaustion.
var ErrRateLimited = errors.New("rate limited")

// ErrUnsupported is returned by publishers that cannot perform an operation.
var ErrUnsupported = errors.New("operation not supported")

// RateLimitError carries the quota headers of a rejected request.
type RateLimitError struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %d/%d remaining, reset at %s",
		e.Remaining, e.Limit, e.Reset.UTC().Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// Exhausted reports whether the quota is really used up. A zero limit means
// the headers were missing.
func (e *RateLimitError) Exhausted() bool {
	return e.Remaining == 0 && e.Limit != 0
}
