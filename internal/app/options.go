package service

import (
	"time"

	"github.com/okian/startrack/internal/adapters/repository"
	"github.com/okian/startrack/internal/domain/detect"
	"github.com/okian/startrack/internal/domain/ranking"
	"github.com/okian/startrack/internal/domain/reaper"
	"github.com/okian/startrack/internal/domain/retry"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the document store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithSource sets the ranking source.
func WithSource(src ranking.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithMentions sets the owner handle resolver.
func WithMentions(m detect.MentionResolver) Option {
	return func(s *Service) {
		s.mentions = m
	}
}

// WithPublisher sets where posts go.
func WithPublisher(p social.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithAccount enables the cleanup job.
func WithAccount(a social.Account) Option {
	return func(s *Service) {
		s.account = a
	}
}

// WithTaskScheduler enables rate limit retries.
func WithTaskScheduler(ts retry.TaskScheduler) Option {
	return func(s *Service) {
		s.tasks = ts
	}
}

// WithBlobStore enables the freeze job.
func WithBlobStore(b reaper.BlobStore) Option {
	return func(s *Service) {
		s.blobs = b
	}
}

// WithAvatarHasher enables avatar fingerprints on aggregates.
func WithAvatarHasher(h AvatarHasher) Option {
	return func(s *Service) {
		s.avatars = h
	}
}

// WithDenylist replaces the default denylist.
func WithDenylist(d *ranking.Denylist) Option {
	return func(s *Service) {
		s.denylist = d
	}
}

// WithCloser registers a function called by Stop, in reverse order.
func WithCloser(fn func() error) Option {
	return func(s *Service) {
		if fn != nil {
			s.closers = append(s.closers, fn)
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
