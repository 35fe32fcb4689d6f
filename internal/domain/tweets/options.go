package tweets

import "github.com/okian/startrack/pkg/logger"

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}
