// Package scheduler delivers delayed tasks back to this service over HTTP.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/okian/startrack/internal/domain/dedupe"
	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// TimerScheduler keeps pending tasks as in-process timers. Tasks are lost on
// restart; the next scheduled run covers for them.
type TimerScheduler struct {
	baseURL string
	http    *http.Client
	seen    dedupe.Deduper
	logger  logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewTimerScheduler delivers tasks to baseURL + task.TargetEndpoint.
func NewTimerScheduler(baseURL string, opts ...Option) *TimerScheduler {
	s := &TimerScheduler{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
		timers:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.seen == nil {
		s.seen = dedupe.NewInMemoryDeduper()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}
	return s
}

// Schedule arms a timer for task. A task whose ID was already scheduled is
// ignored and reported as false.
func (s *TimerScheduler) Schedule(ctx context.Context, task model.RetryTask) (bool, error) {
	if task.ID == "" {
		return false, ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false, ErrStopped
	}
	if s.seen.SeenAndRecord(ctx, task.ID) {
		return false, nil
	}

	delay := task.ScheduledTime.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.wg.Add(1)
	s.timers[task.ID] = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.fire(task)
	})
	s.logger.Debug(ctx, "task armed", logger.String("id", task.ID), logger.Duration("delay", delay))
	return true, nil
}

// Pending returns the number of armed timers.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop disarms pending timers and waits for in-flight deliveries.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *TimerScheduler) fire(task model.RetryTask) {
	s.mu.Lock()
	delete(s.timers, task.ID)
	s.mu.Unlock()

	ctx := context.Background()
	if err := s.deliver(ctx, task); err != nil {
		metrics.RecordErrorByComponent("scheduler", "deliver")
		s.logger.Error(ctx, "task delivery failed", logger.String("id", task.ID), logger.Error(err))
		// Allow a later rate limit hit to schedule it again.
		s.seen.Unrecord(ctx, task.ID)
		return
	}
	s.logger.Info(ctx, "task delivered", logger.String("id", task.ID), logger.String("target", task.TargetEndpoint))
}

func (s *TimerScheduler) deliver(ctx context.Context, task model.RetryTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+task.TargetEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: status %d", ErrDelivery, resp.StatusCode)
	}
	return nil
}
