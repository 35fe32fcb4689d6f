package retry

import "github.com/okian/startrack/pkg/logger"

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithEndpoint sets the path tasks are delivered to.
func WithEndpoint(endpoint string) Option {
	return func(s *Scheduler) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}
