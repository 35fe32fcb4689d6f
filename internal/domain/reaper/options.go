package reaper

import (
	"time"

	"github.com/okian/startrack/pkg/logger"
)

// Option configures a Freezer.
type Option func(*Freezer)

// WithRetention sets how old a snapshot must be to be frozen.
func WithRetention(d time.Duration) Option {
	return func(f *Freezer) {
		if d > 0 {
			f.retention = d
		}
	}
}

// WithLimit bounds the snapshots loaded per pass.
func WithLimit(n int) Option {
	return func(f *Freezer) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithMaxOps sets the delete chunk size.
func WithMaxOps(n int) Option {
	return func(f *Freezer) {
		if n > 0 {
			f.maxOps = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Freezer) {
		f.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Freezer) {
		f.logger = l
	}
}
