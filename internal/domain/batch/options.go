package batch

import "github.com/okian/startrack/pkg/logger"

// Option applies a configuration option to the Writer.
type Option func(*Writer)

// WithMaxOps sets the per-chunk operation limit.
func WithMaxOps(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.maxOps = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}
