package scheduler

import (
	"net/http"
	"time"

	"github.com/okian/startrack/internal/domain/dedupe"
	"github.com/okian/startrack/pkg/logger"
)

// Option configures a TimerScheduler.
type Option func(*TimerScheduler)

// WithHTTPClient replaces the delivery client.
func WithHTTPClient(h *http.Client) Option {
	return func(s *TimerScheduler) {
		if h != nil {
			s.http = h
		}
	}
}

// WithDeduper sets the store of scheduled task IDs.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *TimerScheduler) {
		s.seen = d
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TimerScheduler) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *TimerScheduler) {
		s.logger = l
	}
}
