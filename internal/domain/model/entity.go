// Package model contains domain models passed between layers.
package model

import "time"

// Collection names used in document paths.
const (
	CollectionSnapshots  = "snapshots"
	CollectionAggregates = "aggregates"
)

// Owner is the account that owns a tracked repository.
type Owner struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	URL       string `json:"url"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type"`
}

// Entity is a tracked repository. ID is its stable identity; names can change.
type Entity struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description,omitempty"`
	Language    string   `json:"language,omitempty"`
	Homepage    string   `json:"homepage,omitempty"`
	URL         string   `json:"url"`
	Topics      []string `json:"topics,omitempty"`
	Owner       Owner    `json:"owner"`
}

// RankedEntity is an entity as returned by the ranking source.
type RankedEntity struct {
	Entity
	Stars      int64 `json:"stars"`
	OpenIssues int64 `json:"open_issues"`
	Forks      int64 `json:"forks"`
}

// Snapshot is an append-only observation of one entity at one run.
type Snapshot struct {
	DocID      string    `json:"doc_id"`
	EntityID   int64     `json:"entity_id"`
	Timestamp  time.Time `json:"timestamp"`
	Position   int       `json:"position"`
	Stars      int64     `json:"stars"`
	OpenIssues int64     `json:"open_issues"`
	Forks      int64     `json:"forks"`
	Entity     Entity    `json:"entity"`
}

// NewSnapshot captures re at 1-based position and instant ts.
func NewSnapshot(docID string, re RankedEntity, position int, ts time.Time) Snapshot {
	return Snapshot{
		DocID:      docID,
		EntityID:   re.ID,
		Timestamp:  ts,
		Position:   position,
		Stars:      re.Stars,
		OpenIssues: re.OpenIssues,
		Forks:      re.Forks,
		Entity:     re.Entity,
	}
}
