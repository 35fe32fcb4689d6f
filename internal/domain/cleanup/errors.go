package cleanup

import "errors"

var (
	// ErrCleanup wraps account failures other than rate limits.
	ErrCleanup = errors.New("cleanup posts")
	// ErrNoHandle is returned in search mode without an account handle.
	ErrNoHandle = errors.New("search mode needs an account handle")
)
