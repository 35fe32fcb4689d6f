// Package service runs the tracker jobs and implements the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/startrack/internal/adapters/repository"
	"github.com/okian/startrack/internal/config"
	"github.com/okian/startrack/internal/domain/detect"
	"github.com/okian/startrack/internal/domain/history"
	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/ranking"
	"github.com/okian/startrack/internal/domain/reaper"
	"github.com/okian/startrack/internal/domain/retry"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
)

// Job names.
const (
	JobUpdate  = "update"
	JobMonthly = "monthly"
	JobCleanup = "cleanup"
	JobFreeze  = "freeze"
	JobRetry   = "retry"
)

// Jobs lists the jobs that can be triggered by name.
var Jobs = []string{JobUpdate, JobMonthly, JobCleanup, JobFreeze}

// AvatarHasher fingerprints an image URL.
type AvatarHasher interface {
	Hash(ctx context.Context, url string) (string, error)
}

// Service wires the domain components into jobs.
type Service struct {
	cfg *config.Config

	store     repository.Store
	source    ranking.Source
	mentions  detect.MentionResolver
	publisher social.Publisher
	account   social.Account
	tasks     retry.TaskScheduler
	blobs     reaper.BlobStore
	avatars   AvatarHasher
	denylist  *ranking.Denylist
	closers   []func() error

	fetcher  *ranking.Fetcher
	locator  *history.Locator
	retrier  *retry.Scheduler
	freezer  *reaper.Freezer
	renderer *detect.Renderer
	ids      *snowflake.Node

	now    func() time.Time
	tracer trace.Tracer
	logger logger.Logger

	mu      sync.RWMutex
	started bool
	running map[string]bool
	reports map[string]any
}

// New constructs a Service. Collaborators not supplied through options are
// defaulted by Start where a safe default exists.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{
		cfg:     cfg,
		now:     time.Now,
		tracer:  otel.Tracer("github.com/okian/startrack/internal/app"),
		running: make(map[string]bool),
		reports: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start checks the collaborators and builds the domain components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.source == nil {
		return fmt.Errorf("%w: ranking source", ErrMissingDependency)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Warn(ctx, "no store configured, using memory store")
	}
	if s.publisher == nil {
		return fmt.Errorf("%w: publisher", ErrMissingDependency)
	}
	if s.denylist == nil {
		s.denylist = ranking.DefaultDenylist()
	}

	node, err := snowflake.NewNode(s.cfg.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("%w: snowflake node %d: %v", config.ErrInvalidConfig, s.cfg.SnowflakeNode, err)
	}
	s.ids = node

	s.fetcher = ranking.NewFetcher(s.source,
		ranking.WithQuery(s.cfg.RankingQuery, s.cfg.RankingSort),
		ranking.WithPaging(s.cfg.RankingPages, s.cfg.RankingPerPage),
		ranking.WithTopN(s.cfg.TopN),
		ranking.WithDenylist(s.denylist),
		ranking.WithLogger(s.logger.Named("ranking")),
	)
	s.locator = history.NewLocator(s.store, history.WithWindow(s.cfg.HistoryWindowBefore, s.cfg.HistoryWindowAfter))
	var mentions detect.MentionResolver
	if s.cfg.MentionsEnabled {
		mentions = s.mentions
	}
	s.renderer = detect.NewRenderer(mentions, s.logger.Named("render"))
	if s.tasks != nil {
		s.retrier = retry.NewScheduler(s.tasks,
			retry.WithEndpoint(s.cfg.RetryEndpoint),
			retry.WithLogger(s.logger.Named("retry")))
	}
	if s.blobs != nil {
		s.freezer = reaper.NewFreezer(s.store, s.blobs, s.store,
			reaper.WithRetention(s.cfg.FreezeRetention),
			reaper.WithLimit(s.cfg.FreezeLimit),
			reaper.WithMaxOps(s.cfg.BatchMaxOps),
			reaper.WithClock(s.now),
			reaper.WithLogger(s.logger.Named("freeze")))
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.String("store", s.cfg.StoreDriver),
		logger.String("publisher", s.cfg.Publisher),
		logger.Int("top_n", s.cfg.TopN),
		logger.Bool("retry", s.retrier != nil),
		logger.Bool("freeze", s.freezer != nil))
	return nil
}

// Stop releases the collaborators registered for closing.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn(ctx, "close failed", logger.Error(err))
		}
	}
	s.closers = nil
	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// RunJob runs a job by name. A job that is already running is refused.
func (s *Service) RunJob(ctx context.Context, name string, force bool) (any, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if !s.acquire(name) {
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	defer s.release(name)

	var (
		report any
		err    error
	)
	switch name {
	case JobUpdate:
		report, err = s.RunUpdate(ctx)
	case JobMonthly:
		report, err = s.RunMonthly(ctx, force)
	case JobCleanup:
		report, err = s.RunCleanup(ctx)
	case JobFreeze:
		report, err = s.RunFreeze(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	if err == nil {
		s.mu.Lock()
		s.reports[name] = report
		s.mu.Unlock()
	}
	return report, err
}

func (s *Service) acquire(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[name] {
		return false
	}
	s.running[name] = true
	return true
}

func (s *Service) release(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, name)
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Leaderboard returns up to limit aggregates ordered by position.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.AggregateRecord, error) {
	if limit < 1 || limit > s.cfg.MaxLeaderboardLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidArgument, s.cfg.MaxLeaderboardLimit)
	}
	all, err := s.store.Aggregates(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Repo returns the aggregate of one entity.
func (s *Service) Repo(ctx context.Context, id int64) (model.AggregateRecord, error) {
	return s.store.Aggregate(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	running := make([]string, 0, len(s.running))
	for name := range s.running {
		running = append(running, name)
	}
	last := make(map[string]any, len(s.reports))
	for name, r := range s.reports {
		last[name] = r
	}
	return map[string]interface{}{
		"started":   s.started,
		"store":     s.cfg.StoreDriver,
		"publisher": s.cfg.Publisher,
		"topN":      s.cfg.TopN,
		"running":   running,
		"lastRuns":  last,
	}
}
