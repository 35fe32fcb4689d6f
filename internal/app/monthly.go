package service

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/okian/startrack/internal/domain/detect"
	"github.com/okian/startrack/pkg/logger"
)

// RunMonthly announces the fastest growing entity of the month. It only runs
// on the last day of the month unless forced. The ranking is fetched and
// validated like an update run; nothing is written.
func (s *Service) RunMonthly(ctx context.Context, force bool) (report RunReport, err error) {
	ctx, span := s.tracer.Start(ctx, JobMonthly)
	defer span.End()

	start := s.now().UTC()
	report = RunReport{Job: JobMonthly, StartedAt: start}
	defer func() { s.finish(ctx, &report, start, err) }()

	if !force && !LastDayOfMonth(start) {
		report.Skipped = "not the last day of the month"
		return report, nil
	}

	rk, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		return report, err
	}
	report.Ranked = len(rk)

	aggs, err := s.store.Aggregates(ctx)
	if err != nil {
		span.RecordError(err)
		return report, err
	}

	st := detect.NewState(start, rk, aggs)
	windows := []int{s.cfg.MonthlyDays}
	var wg sync.WaitGroup
	for _, e := range st.Entries {
		wg.Add(1)
		go func(e *detect.Entry) {
			defer wg.Done()
			s.lookupHistory(ctx, e, start, windows)
		}(e)
	}
	wg.Wait()

	s.logger.Debug(ctx, "monthly state built", logger.Int("entities", len(rk)), logger.Int("days", s.cfg.MonthlyDays))
	s.detectAndPublish(ctx, st, []detect.Rule{
		detect.NewFastestGrowingRule(s.renderer, s.cfg.MonthlyDays, "of the month"),
	}, &report)
	span.SetAttributes(attribute.Int("startrack.events", report.Events))
	return report, nil
}

// LastDayOfMonth reports whether t falls on the last day of its month.
func LastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}
