package social

import (
	"errors"
	"fmt"
)

// ErrRequest wraps transport and encoding failures.
var ErrRequest = errors.New("social request")

// StatusError is a non-2xx response other than a rate limit.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("social: status %d: %s", e.Status, e.Body)
}
