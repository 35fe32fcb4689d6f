package model

import "time"

// EventKind names a detection rule.
type EventKind string

// Event kinds.
const (
	KindTopEntity      EventKind = "top_entity"
	KindMilestone      EventKind = "milestone"
	KindFastestGrowing EventKind = "fastest_growing"
	KindOvertake       EventKind = "overtake"
)

// Priority orders events; lower is more important.
type Priority int

// Rule priorities.
const (
	PriorityTopEntity      Priority = 0
	PriorityMilestone      Priority = 1
	PriorityFastestGrowing Priority = 2
	PriorityOvertake       Priority = 3
)

// Event is a publishable notable change. It is never persisted.
type Event struct {
	Kind     EventKind `json:"kind"`
	Content  string    `json:"content"`
	Priority Priority  `json:"priority"`
	EntityID int64     `json:"entity_id"`
}

// RetryPayload is delivered back to the retry endpoint.
type RetryPayload struct {
	Job     string `json:"job"`
	Content string `json:"content,omitempty"`
}

// RetryTask is a delayed re-invocation after a rate limit.
type RetryTask struct {
	ID             string       `json:"id"`
	ScheduledTime  time.Time    `json:"scheduled_time"`
	TargetEndpoint string       `json:"target_endpoint"`
	Payload        RetryPayload `json:"payload"`
}
