package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrBatchTooLarge = errors.New("batch exceeds operation limit")
	ErrInvalidOp     = errors.New("invalid batch operation")
	ErrInvalidLimit  = errors.New("invalid limit")
)
