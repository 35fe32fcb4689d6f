package tracing

import "errors"

var (
	// ErrExporter wraps exporter construction failures.
	ErrExporter = errors.New("trace exporter")
	// ErrResource wraps resource detection failures.
	ErrResource = errors.New("trace resource")
)
