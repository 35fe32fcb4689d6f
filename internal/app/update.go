package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/okian/startrack/internal/domain/batch"
	"github.com/okian/startrack/internal/domain/detect"
	"github.com/okian/startrack/internal/domain/history"
	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/ranking"
	"github.com/okian/startrack/internal/domain/reaper"
	"github.com/okian/startrack/internal/domain/retry"
	"github.com/okian/startrack/internal/domain/tweets"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// RunReport summarizes an update or monthly run.
type RunReport struct {
	Job            string        `json:"job"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Skipped        string        `json:"skipped,omitempty"`
	Ranked         int           `json:"ranked"`
	Written        int           `json:"written"`
	StaleDeleted   []int64       `json:"stale_deleted,omitempty"`
	FailedEntities []int64       `json:"failed_entities,omitempty"`
	Events         int           `json:"events"`
	Published      *model.Event  `json:"published,omitempty"`
	PublishError   string        `json:"publish_error,omitempty"`
	RetryScheduled bool          `json:"retry_scheduled"`
}

// weeklyDays is the lookback of the optional fastest growing of the week.
const weeklyDays = 7

// RunUpdate fetches the ranking, persists snapshots and aggregates, reaps
// stale aggregates, detects events and publishes the most important one.
func (s *Service) RunUpdate(ctx context.Context) (report RunReport, err error) {
	ctx, span := s.tracer.Start(ctx, JobUpdate)
	defer span.End()

	start := s.now().UTC()
	report = RunReport{Job: JobUpdate, StartedAt: start}
	defer func() { s.finish(ctx, &report, start, err) }()

	rk, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		return report, err
	}
	report.Ranked = len(rk)
	metrics.UpdateRankedEntities(len(rk))

	// Previous aggregates are the baseline for detection and must be read
	// before this run overwrites them.
	previous, err := s.store.Aggregates(ctx)
	if err != nil {
		span.RecordError(err)
		return report, err
	}

	st := detect.NewState(start, rk, previous)
	if err := s.persist(ctx, st, &report); err != nil {
		span.RecordError(err)
		return report, err
	}

	rules := []detect.Rule{
		detect.NewTopEntityRule(s.renderer),
		detect.NewMilestoneRule(s.renderer, s.cfg.Milestones),
		detect.NewOvertakeRule(s.renderer, s.cfg.OvertakeMaxPosition, s.logger.Named("overtake")),
	}
	if s.cfg.UpdateFastestGrowing {
		rules = append(rules, detect.NewFastestGrowingRule(s.renderer, weeklyDays, "of the week"))
	}
	s.detectAndPublish(ctx, st, rules, &report)
	span.SetAttributes(
		attribute.Int("startrack.ranked", report.Ranked),
		attribute.Int("startrack.events", report.Events))
	return report, nil
}

func (s *Service) fetch(ctx context.Context) (ranking.Ranking, error) {
	ctx, span := s.tracer.Start(ctx, "fetch")
	defer span.End()

	rk, err := s.fetcher.Fetch(ctx)
	if err == nil {
		return rk, nil
	}
	var ie *ranking.IntegrityError
	if errors.As(err, &ie) {
		metrics.RecordIntegrityAbort()
		s.logger.Error(ctx, "ranking failed validation, aborting run",
			logger.String("kind", string(ie.Kind)),
			logger.Int("expected", ie.Expected),
			logger.Int("got", ie.Got),
			logger.Int("index", ie.Index),
			logger.String("previous", ie.Previous.FullName),
			logger.String("current", ie.Current.FullName))
	} else {
		s.logger.Error(ctx, "ranking fetch failed", logger.Error(err))
	}
	return nil, err
}

// persist writes one snapshot and one aggregate per ranked entity and deletes
// aggregates of entities that dropped out. Every lookup and write completes
// before it returns.
func (s *Service) persist(ctx context.Context, st *detect.State, report *RunReport) error {
	ctx, span := s.tracer.Start(ctx, "persist")
	defer span.End()

	w := batch.NewWriter(s.store, batch.WithMaxOps(s.cfg.BatchMaxOps), batch.WithLogger(s.logger.Named("batch")))

	var (
		wg       sync.WaitGroup
		stale    []int64
		staleErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		stale, staleErr = reaper.EnqueueStale(ctx, s.store, st.Ranking.IDs(), w)
	}()

	for i := range st.Ranking {
		e := st.Entries[st.Ranking[i].ID]
		e.Current.DocID = s.ids.Generate().String()
		wg.Add(1)
		go func(e *detect.Entry) {
			defer wg.Done()
			s.lookupHistory(ctx, e, st.Now, model.Windows)
			w.Enqueue(batch.CreateSnapshot(e.Current))
			w.Enqueue(batch.SetAggregate(s.aggregate(ctx, e)))
		}(e)
	}
	wg.Wait()

	if staleErr != nil {
		// Stale aggregates only cost storage; the next run retries.
		s.logger.Warn(ctx, "stale aggregate listing failed", logger.Error(staleErr))
	}
	report.StaleDeleted = stale
	report.Written = w.Len()

	if err := w.CommitAll(ctx); err != nil {
		var pf *batch.PartialFailure
		if !errors.As(err, &pf) {
			return err
		}
		report.FailedEntities = pf.EntityIDs()
		span.RecordError(err)
	}
	return nil
}

// lookupHistory fills e.History for each lookback. Lookup errors are logged
// and treated as missing history.
func (s *Service) lookupHistory(ctx context.Context, e *detect.Entry, now time.Time, windows []int) {
	for _, days := range windows {
		snap, ok, err := s.locator.DaysAgo(ctx, e.Entity.ID, now, days)
		if err != nil {
			s.logger.Warn(ctx, "history lookup failed",
				logger.Int64("entity", e.Entity.ID), logger.Int("days", days), logger.Error(err))
			continue
		}
		if ok {
			e.History[days] = &snap
		}
	}
}

// aggregate builds the record stored for e in this run.
func (s *Service) aggregate(ctx context.Context, e *detect.Entry) model.AggregateRecord {
	cur := e.Current
	rec := model.AggregateRecord{
		EntityID: e.Entity.ID,
		Metadata: model.Metadata{
			Entity:     e.Entity.Entity,
			Timestamp:  cur.Timestamp,
			OpenIssues: cur.OpenIssues,
			Forks:      cur.Forks,
			AvatarHash: s.avatarHash(ctx, e),
		},
		Latest: model.StatsSnapshot{Position: cur.Position, Stars: cur.Stars},
	}
	if e.Previous != nil {
		rec.Latest.PositionChange = e.Previous.Latest.Position - cur.Position
		rec.Latest.StarsChange = cur.Stars - e.Previous.Latest.Stars
	}
	for _, days := range model.Windows {
		if h := e.Historical(days); h != nil {
			stats := history.ComputeStats(*h, cur)
			rec.SetComparison(days, &stats)
		}
	}
	return rec
}

// avatarHash reuses the previous fingerprint while the avatar URL is unchanged.
func (s *Service) avatarHash(ctx context.Context, e *detect.Entry) string {
	if s.avatars == nil || !s.cfg.AvatarHashEnabled || e.Entity.Owner.AvatarURL == "" {
		return ""
	}
	if p := e.Previous; p != nil && p.Metadata.AvatarHash != "" && p.Metadata.Owner.AvatarURL == e.Entity.Owner.AvatarURL {
		return p.Metadata.AvatarHash
	}
	h, err := s.avatars.Hash(ctx, e.Entity.Owner.AvatarURL)
	if err != nil {
		s.logger.Warn(ctx, "avatar hash failed", logger.String("owner", e.Entity.Owner.Login), logger.Error(err))
		return ""
	}
	return h
}

// detectAndPublish runs rules over the settled state and posts the winner.
// Publish failures never fail the run; rate limits schedule a retry.
func (s *Service) detectAndPublish(ctx context.Context, st *detect.State, rules []detect.Rule, report *RunReport) {
	ctx, span := s.tracer.Start(ctx, "detect")
	defer span.End()

	queue := tweets.NewManager(s.publisher, tweets.WithLogger(s.logger.Named("tweets")))
	report.Events = detect.NewDetector(s.logger.Named("detect"), rules...).Detect(ctx, st, queue)

	e, ok, err := queue.Publish(ctx)
	if !ok {
		return
	}
	report.Published = &e
	if err == nil {
		return
	}
	report.Published = nil
	report.PublishError = err.Error()
	span.RecordError(err)
	report.RetryScheduled = s.handleRateLimit(ctx, retry.JobPublish, e.Content, err)
}

// handleRateLimit schedules a retry for rate limit errors and logs the rest.
func (s *Service) handleRateLimit(ctx context.Context, job, content string, err error) bool {
	if s.retrier == nil {
		s.logger.Error(ctx, "publish failed", logger.String("job", job), logger.Error(err))
		return false
	}
	scheduled, rerr := s.retrier.Handle(ctx, job, content, err)
	if rerr != nil {
		s.logger.Error(ctx, "retry scheduling failed", logger.String("job", job), logger.Error(rerr))
		return false
	}
	if !scheduled {
		s.logger.Error(ctx, "publish failed", logger.String("job", job), logger.Error(err))
	}
	return scheduled
}

func (s *Service) finish(ctx context.Context, report *RunReport, start time.Time, err error) {
	elapsed := s.now().UTC().Sub(start)
	report.Duration = elapsed
	result := "ok"
	switch {
	case errors.Is(err, ranking.ErrIntegrity):
		result = "aborted"
	case err != nil:
		result = "error"
	case report.Skipped != "":
		result = "skipped"
	}
	metrics.RecordRun(report.Job, result, elapsed)
	s.logger.Info(ctx, "run finished",
		logger.String("job", report.Job),
		logger.String("result", result),
		logger.Int("ranked", report.Ranked),
		logger.Int("events", report.Events),
		logger.Duration("elapsed", elapsed))
}
