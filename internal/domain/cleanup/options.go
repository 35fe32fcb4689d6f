package cleanup

import (
	"time"

	"github.com/okian/startrack/pkg/logger"
)

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithMode selects ModeTimeline or ModeSearch.
func WithMode(mode string) Option {
	return func(c *Cleaner) {
		if mode != "" {
			c.mode = mode
		}
	}
}

// WithHandle sets the account handle used in search queries.
func WithHandle(handle string) Option {
	return func(c *Cleaner) {
		c.handle = handle
	}
}

// WithMinAge sets how old a post must be before it can be deleted.
func WithMinAge(d time.Duration) Option {
	return func(c *Cleaner) {
		if d > 0 {
			c.minAge = d
		}
	}
}

// WithMaxLikes sets the highest like count that still gets a post deleted.
func WithMaxLikes(n int) Option {
	return func(c *Cleaner) {
		if n >= 0 {
			c.maxLikes = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cleaner) {
		c.logger = l
	}
}
