package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/startrack/internal/domain/cleanup"
	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/reaper"
	"github.com/okian/startrack/internal/domain/retry"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// CleanupReport wraps a cleanup pass with its retry outcome.
type CleanupReport struct {
	cleanup.Report
	RetryScheduled bool `json:"retry_scheduled"`
}

// RunCleanup deletes old posts that gathered too few likes. A rate limit
// schedules a retry of the whole pass.
func (s *Service) RunCleanup(ctx context.Context) (CleanupReport, error) {
	ctx, span := s.tracer.Start(ctx, JobCleanup)
	defer span.End()

	if s.account == nil {
		return CleanupReport{}, fmt.Errorf("%w: cleanup needs a social account", ErrUnsupported)
	}
	start := s.now().UTC()
	c := cleanup.NewCleaner(s.account,
		cleanup.WithMode(s.cfg.CleanupMode),
		cleanup.WithHandle(s.cfg.SocialHandle),
		cleanup.WithMinAge(s.cfg.CleanupMinAge),
		cleanup.WithMaxLikes(s.cfg.CleanupMaxLikes),
		cleanup.WithClock(s.now),
		cleanup.WithLogger(s.logger.Named("cleanup")))

	rep, err := c.Run(ctx)
	out := CleanupReport{Report: rep}
	result := "ok"
	switch {
	case errors.Is(err, social.ErrRateLimited):
		span.RecordError(err)
		out.RetryScheduled = s.handleRateLimit(ctx, retry.JobCleanup, "", err)
		result = "rate_limited"
		err = nil
	case err != nil:
		span.RecordError(err)
		result = "error"
	}
	metrics.RecordRun(JobCleanup, result, s.now().UTC().Sub(start))
	return out, err
}

// RunFreeze archives snapshots past the retention and deletes them.
func (s *Service) RunFreeze(ctx context.Context) (reaper.FreezeReport, error) {
	ctx, span := s.tracer.Start(ctx, JobFreeze)
	defer span.End()

	if s.freezer == nil {
		return reaper.FreezeReport{}, fmt.Errorf("%w: freeze needs a blob store", ErrUnsupported)
	}
	start := s.now().UTC()
	rep, err := s.freezer.Freeze(ctx)
	result := "ok"
	if err != nil {
		span.RecordError(err)
		result = "error"
	}
	metrics.RecordRun(JobFreeze, result, s.now().UTC().Sub(start))
	return rep, err
}

// RetryReport describes a delivered retry task.
type RetryReport struct {
	Job            string `json:"job"`
	Published      bool   `json:"published"`
	RetryScheduled bool   `json:"retry_scheduled"`
	Result         any    `json:"result,omitempty"`
}

// Retry runs a task delivered by the task scheduler. Publish tasks re-post the
// stored content; cleanup tasks rerun the cleanup pass.
func (s *Service) Retry(ctx context.Context, task model.RetryTask) (RetryReport, error) {
	if !s.isStarted() {
		return RetryReport{}, ErrNotStarted
	}
	p := task.Payload
	out := RetryReport{Job: p.Job}
	s.logger.Info(ctx, "retry delivered", logger.String("id", task.ID), logger.String("job", p.Job))

	switch p.Job {
	case retry.JobPublish:
		if p.Content == "" {
			return out, fmt.Errorf("%w: empty content", ErrInvalidArgument)
		}
		if _, err := s.publisher.Publish(ctx, p.Content); err != nil {
			metrics.RecordPostFailed()
			if errors.Is(err, social.ErrRateLimited) {
				out.RetryScheduled = s.handleRateLimit(ctx, retry.JobPublish, p.Content, err)
				return out, nil
			}
			return out, err
		}
		out.Published = true
		return out, nil
	case retry.JobCleanup:
		res, err := s.RunJob(ctx, JobCleanup, false)
		out.Result = res
		return out, err
	default:
		return out, fmt.Errorf("%w: retry job %q", ErrUnknownJob, p.Job)
	}
}
