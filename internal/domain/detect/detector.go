package detect

import (
	"context"
	"sync"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// Sink receives detected events.
type Sink interface {
	Add(e model.Event)
}

// Detector runs its rules concurrently over one settled State.
type Detector struct {
	rules  []Rule
	logger logger.Logger
}

// NewDetector creates a Detector; l may be nil.
func NewDetector(l logger.Logger, rules ...Rule) *Detector {
	if l == nil {
		l = logger.Get().Named("detect")
	}
	return &Detector{rules: rules, logger: l}
}

// Detect runs every rule and hands the events to sink in rule order, so the
// sink sees the same sequence on every run regardless of scheduling. It
// returns the number of events.
func (d *Detector) Detect(ctx context.Context, st *State, sink Sink) int {
	results := make([][]model.Event, len(d.rules))
	var wg sync.WaitGroup
	for i, rule := range d.rules {
		wg.Add(1)
		go func(idx int, r Rule) {
			defer wg.Done()
			results[idx] = r.Detect(ctx, st)
		}(i, rule)
	}
	wg.Wait()

	total := 0
	for i, events := range results {
		for _, e := range events {
			metrics.RecordEventDetected(string(e.Kind))
			d.logger.Info(ctx, "event detected",
				logger.String("kind", string(d.rules[i].Kind())),
				logger.Int64("entity", e.EntityID),
				logger.Int("priority", int(e.Priority)),
				logger.Int("length", len([]rune(e.Content))))
			sink.Add(e)
			total++
		}
	}
	return total
}
