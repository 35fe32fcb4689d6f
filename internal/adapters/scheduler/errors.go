package scheduler

import "errors"

var (
	// ErrMissingID rejects tasks without an identity.
	ErrMissingID = errors.New("task id is required")
	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("scheduler stopped")
	// ErrDelivery marks a non-2xx answer from the target.
	ErrDelivery = errors.New("task delivery rejected")
)
