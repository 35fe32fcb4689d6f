// Package retry turns publishing rate limits into delayed re-invocations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// Job names carried in retry payloads.
const (
	JobPublish = "publish"
	JobCleanup = "cleanup"
)

// DefaultEndpoint is where retry tasks are delivered.
const DefaultEndpoint = "/tasks/retry"

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("startrack:retry"))

// TaskScheduler runs a task once at its scheduled time. It returns false when
// a task with the same ID is already pending.
type TaskScheduler interface {
	Schedule(ctx context.Context, task model.RetryTask) (bool, error)
}

// Scheduler plans one retry per exhausted quota window.
type Scheduler struct {
	tasks    TaskScheduler
	endpoint string
	logger   logger.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(ts TaskScheduler, opts ...Option) *Scheduler {
	s := &Scheduler{tasks: ts, endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("retry")
	}
	return s
}

// TaskID is stable for an (endpoint, job, reset) triple, so hits within the
// same quota window collapse into one task.
func TaskID(endpoint, job string, reset time.Time) string {
	name := endpoint + "\x00" + job + "\x00" + strconv.FormatInt(reset.UTC().Unix(), 10)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

// Handle inspects err and schedules a retry of job when it is an exhausted
// rate limit. It reports whether a new task was scheduled. Errors that are
// not rate limits are ignored and yield (false, nil).
func (s *Scheduler) Handle(ctx context.Context, job, content string, err error) (bool, error) {
	var rl *social.RateLimitError
	if !errors.As(err, &rl) {
		return false, nil
	}
	metrics.RecordRateLimitHit()
	if !rl.Exhausted() {
		s.logger.Warn(ctx, "rate limit error without exhausted quota, not retrying",
			logger.Int("remaining", rl.Remaining),
			logger.Int("limit", rl.Limit))
		return false, nil
	}

	task := model.RetryTask{
		ID:             TaskID(s.endpoint, job, rl.Reset),
		ScheduledTime:  rl.Reset.UTC(),
		TargetEndpoint: s.endpoint,
		Payload:        model.RetryPayload{Job: job, Content: content},
	}
	scheduled, serr := s.tasks.Schedule(ctx, task)
	if serr != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrSchedule, task.ID, serr)
	}
	if !scheduled {
		metrics.RecordRetryDeduplicated()
		s.logger.Info(ctx, "retry already scheduled",
			logger.String("task", task.ID), logger.String("job", job))
		return false, nil
	}
	metrics.RecordRetryScheduled()
	s.logger.Info(ctx, "retry scheduled",
		logger.String("task", task.ID),
		logger.String("job", job),
		logger.Time("at", task.ScheduledTime))
	return true, nil
}
