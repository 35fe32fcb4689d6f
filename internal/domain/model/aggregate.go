package model

import "time"

// Comparison windows in days, shortest first.
const (
	WindowOneDay          = 1
	WindowSevenDays       = 7
	WindowTwentyEightDays = 28
)

// Windows lists the comparison windows kept on every aggregate.
var Windows = []int{WindowOneDay, WindowSevenDays, WindowTwentyEightDays}

// StatsSnapshot compares a historical observation with the current one.
// PositionChange is positive when the entity moved up.
type StatsSnapshot struct {
	Position       int   `json:"position"`
	Stars          int64 `json:"stars"`
	PositionChange int   `json:"position_change"`
	StarsChange    int64 `json:"stars_change"`
}

// Metadata is the descriptive part of an aggregate.
type Metadata struct {
	Entity
	Timestamp  time.Time `json:"timestamp"`
	OpenIssues int64     `json:"open_issues"`
	Forks      int64     `json:"forks"`
	AvatarHash string    `json:"avatar_hash,omitempty"`
}

// AggregateRecord is the per-entity summary overwritten on every run.
// A nil comparison block means no observation existed in that window.
type AggregateRecord struct {
	EntityID       int64          `json:"entity_id"`
	Metadata       Metadata       `json:"metadata"`
	Latest         StatsSnapshot  `json:"latest"`
	OneDay         *StatsSnapshot `json:"one_day,omitempty"`
	SevenDay       *StatsSnapshot `json:"seven_day,omitempty"`
	TwentyEightDay *StatsSnapshot `json:"twenty_eight_day,omitempty"`
}

// Comparison returns the block for a window in days, or nil.
func (a *AggregateRecord) Comparison(days int) *StatsSnapshot {
	switch days {
	case WindowOneDay:
		return a.OneDay
	case WindowSevenDays:
		return a.SevenDay
	case WindowTwentyEightDays:
		return a.TwentyEightDay
	}
	return nil
}

// SetComparison stores s as the block for a window in days.
func (a *AggregateRecord) SetComparison(days int, s *StatsSnapshot) {
	switch days {
	case WindowOneDay:
		a.OneDay = s
	case WindowSevenDays:
		a.SevenDay = s
	case WindowTwentyEightDays:
		a.TwentyEightDay = s
	}
}
