// Package history finds past observations of an entity and derives the
// comparison against its current state.
package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/metrics"
)

// Default tolerance around the target instant.
const (
	DefaultBefore = 5 * time.Minute
	DefaultAfter  = time.Hour
)

// Finder is the store query the locator needs.
type Finder interface {
	FirstSnapshotInRange(ctx context.Context, entityID int64, from, to time.Time) (model.Snapshot, bool, error)
}

// Locator finds the snapshot closest after "days ago", within a window that
// tolerates scheduler jitter: [target-before, target+after).
type Locator struct {
	finder Finder
	before time.Duration
	after  time.Duration
}

// Option applies a configuration option to the Locator.
type Option func(*Locator)

// WithWindow sets the tolerance around the target instant.
func WithWindow(before, after time.Duration) Option {
	return func(l *Locator) {
		if before >= 0 && after > 0 {
			l.before = before
			l.after = after
		}
	}
}

// NewLocator creates a Locator over f.
func NewLocator(f Finder, opts ...Option) *Locator {
	l := &Locator{finder: f, before: DefaultBefore, after: DefaultAfter}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Window returns the half-open search interval for a lookback of days.
func (l *Locator) Window(now time.Time, days int) (from, to time.Time) {
	target := now.Add(-time.Duration(days) * 24 * time.Hour)
	return target.Add(-l.before), target.Add(l.after)
}

// DaysAgo returns the earliest snapshot of entityID inside the window for
// days. Absence is not an error.
func (l *Locator) DaysAgo(ctx context.Context, entityID int64, now time.Time, days int) (model.Snapshot, bool, error) {
	from, to := l.Window(now, days)
	label := strconv.Itoa(days)
	s, ok, err := l.finder.FirstSnapshotInRange(ctx, entityID, from, to)
	if err != nil {
		metrics.RecordHistoryLookup(label, "error")
		return model.Snapshot{}, false, fmt.Errorf("%w: entity %d, %d days: %v", ErrLookup, entityID, days, err)
	}
	if !ok {
		metrics.RecordHistoryLookup(label, "miss")
		return model.Snapshot{}, false, nil
	}
	metrics.RecordHistoryLookup(label, "hit")
	return s, true, nil
}

// ComputeStats compares a historical snapshot with the current one.
// PositionChange is positive when the entity climbed.
func ComputeStats(historical, current model.Snapshot) model.StatsSnapshot {
	return model.StatsSnapshot{
		Position:       historical.Position,
		Stars:          historical.Stars,
		PositionChange: historical.Position - current.Position,
		StarsChange:    current.Stars - historical.Stars,
	}
}
