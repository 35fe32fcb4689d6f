// Package detect classifies the difference between two runs into
// publishable events.
package detect

import (
	"time"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/ranking"
)

// Entry is everything known about one ranked entity once persistence settled.
type Entry struct {
	Entity   model.RankedEntity
	Current  model.Snapshot
	Previous *model.AggregateRecord // last run's aggregate, nil for newcomers
	History  map[int]*model.Snapshot
}

// Historical returns the snapshot found for a lookback in days, or nil.
func (e *Entry) Historical(days int) *model.Snapshot {
	if e == nil || e.History == nil {
		return nil
	}
	return e.History[days]
}

// State is the settled input of a detection pass. Entries are keyed by entity
// ID; positions are resolved only through Ranking.
type State struct {
	Now     time.Time
	Ranking ranking.Ranking
	Entries map[int64]*Entry

	// PreviousTop is last run's position 1, zero on a cold start.
	PreviousTop int64
	// PreviousByPosition maps last run's positions to entity IDs.
	PreviousByPosition map[int]int64
}

// NewState indexes the ranking and the previous run's aggregates. Current
// snapshots default to the ranking and can be replaced by the caller.
func NewState(now time.Time, r ranking.Ranking, previous []model.AggregateRecord) *State {
	st := &State{
		Now:                now,
		Ranking:            r,
		Entries:            make(map[int64]*Entry, len(r)),
		PreviousByPosition: make(map[int]int64, len(previous)),
	}
	prevByID := make(map[int64]*model.AggregateRecord, len(previous))
	for i := range previous {
		p := &previous[i]
		prevByID[p.EntityID] = p
		st.PreviousByPosition[p.Latest.Position] = p.EntityID
	}
	st.PreviousTop = st.PreviousByPosition[1]
	for i, re := range r {
		st.Entries[re.ID] = &Entry{
			Entity:   re,
			Current:  model.NewSnapshot("", re, i+1, now),
			Previous: prevByID[re.ID],
			History:  make(map[int]*model.Snapshot, len(model.Windows)),
		}
	}
	return st
}

// Entry returns the entry at a 1-based position.
func (s *State) Entry(position int) *Entry {
	re, ok := s.Ranking.At(position)
	if !ok {
		return nil
	}
	return s.Entries[re.ID]
}
