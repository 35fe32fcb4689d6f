// Package repository persists snapshots and aggregates behind the document
// store contract the jobs rely on.
package repository

import (
	"context"
	"time"

	"github.com/okian/startrack/internal/domain/batch"
	"github.com/okian/startrack/internal/domain/model"
)

// Store provides read/write access to snapshots and aggregates.
//
// Snapshot reads are ordered by timestamp ascending. Commit applies a chunk
// of at most MaxBatchOps ops atomically.
type Store interface {
	batch.Committer

	// FirstSnapshotInRange returns the earliest snapshot of entityID with a
	// timestamp in [from, to). The bool is false when none exists.
	FirstSnapshotInRange(ctx context.Context, entityID int64, from, to time.Time) (model.Snapshot, bool, error)

	// SnapshotsBefore returns at most limit snapshots older than cutoff, oldest first.
	SnapshotsBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Snapshot, error)

	// Aggregates returns every aggregate ordered by latest position.
	Aggregates(ctx context.Context) ([]model.AggregateRecord, error)

	// AggregateIDs returns the entity IDs that currently have an aggregate.
	AggregateIDs(ctx context.Context) ([]int64, error)

	// Aggregate returns one aggregate or ErrNotFound.
	Aggregate(ctx context.Context, entityID int64) (model.AggregateRecord, error)

	Close() error
}

// MaxBatchOps is the per-commit operation limit enforced by every Store.
const MaxBatchOps = batch.DefaultMaxOps
