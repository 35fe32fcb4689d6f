// Package reaper removes data the tracker no longer needs: aggregates of
// entities that left the ranking, and snapshots past retention once they are
// archived.
package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/startrack/internal/domain/batch"
	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// Defaults of the freeze pass.
const (
	DefaultRetention = 31 * 24 * time.Hour
	DefaultLimit     = 10_000
)

// AggregateLister lists the IDs that currently have an aggregate.
type AggregateLister interface {
	AggregateIDs(ctx context.Context) ([]int64, error)
}

// Enqueuer accepts mutations for a later batched commit.
type Enqueuer interface {
	Enqueue(op batch.Op)
}

// EnqueueStale queues a delete for every aggregate whose entity is not in
// current and returns the affected IDs. Entities in current without an
// aggregate are left alone.
func EnqueueStale(ctx context.Context, l AggregateLister, current map[int64]struct{}, w Enqueuer) ([]int64, error) {
	ids, err := l.AggregateIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregates: %w", ErrList, err)
	}
	var stale []int64
	for _, id := range ids {
		if _, ok := current[id]; ok {
			continue
		}
		w.Enqueue(batch.DeleteAggregate(id))
		stale = append(stale, id)
	}
	metrics.RecordStaleAggregates(len(stale))
	return stale, nil
}

// SnapshotSource lists old snapshots.
type SnapshotSource interface {
	SnapshotsBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Snapshot, error)
}

// BlobStore persists archive blobs. Save must only return once the data is
// durable.
type BlobStore interface {
	Save(ctx context.Context, key string, data []byte) error
}

// FreezeReport summarizes one freeze pass.
type FreezeReport struct {
	Key       string `json:"key,omitempty"`
	Archived  int    `json:"archived"`
	Entities  int    `json:"entities"`
	Bytes     int    `json:"bytes"`
	Truncated bool   `json:"truncated"`
}

// Freezer moves snapshots past retention into archive blobs.
type Freezer struct {
	source    SnapshotSource
	blobs     BlobStore
	committer batch.Committer
	retention time.Duration
	limit     int
	maxOps    int
	now       func() time.Time
	logger    logger.Logger
}

// NewFreezer creates a Freezer. Deletes are committed through c.
func NewFreezer(src SnapshotSource, blobs BlobStore, c batch.Committer, opts ...Option) *Freezer {
	f := &Freezer{
		source:    src,
		blobs:     blobs,
		committer: c,
		retention: DefaultRetention,
		limit:     DefaultLimit,
		maxOps:    batch.DefaultMaxOps,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("freeze")
	}
	return f
}

// Freeze archives at most limit snapshots older than the retention and
// deletes them once the archive is saved. A failed save deletes nothing.
func (f *Freezer) Freeze(ctx context.Context) (FreezeReport, error) {
	now := f.now().UTC()
	cutoff := now.Add(-f.retention)

	snaps, err := f.source.SnapshotsBefore(ctx, cutoff, f.limit)
	if err != nil {
		return FreezeReport{}, fmt.Errorf("%w: snapshots: %w", ErrList, err)
	}
	if len(snaps) == 0 {
		f.logger.Info(ctx, "nothing to freeze", logger.Time("cutoff", cutoff))
		return FreezeReport{}, nil
	}

	archive := NewArchive(snaps, now)
	data, err := EncodeArchive(archive)
	if err != nil {
		return FreezeReport{}, err
	}
	key := ArchiveKey(archive.From, archive.To, now)
	if err := f.blobs.Save(ctx, key, data); err != nil {
		return FreezeReport{}, fmt.Errorf("%w: %s: %w", ErrArchive, key, err)
	}

	report := FreezeReport{
		Key:       key,
		Archived:  len(snaps),
		Entities:  len(archive.Entities),
		Bytes:     len(data),
		Truncated: len(snaps) == f.limit,
	}
	f.logger.Info(ctx, "archive saved",
		logger.String("key", key),
		logger.Int("snapshots", report.Archived),
		logger.Int("bytes", report.Bytes))

	w := batch.NewWriter(f.committer, batch.WithMaxOps(f.maxOps), batch.WithLogger(f.logger))
	for _, s := range snaps {
		w.Enqueue(batch.DeleteSnapshot(s.EntityID, s.DocID))
	}
	if err := w.CommitAll(ctx); err != nil {
		return report, fmt.Errorf("delete archived snapshots: %w", err)
	}
	metrics.RecordSnapshotsArchived(report.Archived)
	return report, nil
}
