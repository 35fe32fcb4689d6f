package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/startrack/internal/domain/batch"
	"github.com/okian/startrack/internal/domain/model"
)

// MemoryStore is an in-process Store. Snapshots are kept per entity in
// timestamp order so range lookups are a binary search.
type MemoryStore struct {
	mu         sync.RWMutex
	snapshots  map[int64][]model.Snapshot
	docs       map[string]int64 // snapshot doc id -> entity id
	aggregates map[int64]model.AggregateRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:  make(map[int64][]model.Snapshot),
		docs:       make(map[string]int64),
		aggregates: make(map[int64]model.AggregateRecord),
	}
}

// Commit validates the whole chunk before applying any op.
func (s *MemoryStore) Commit(ctx context.Context, ops []batch.Op) error {
	if err := checkSize(ops); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type prepared struct {
		op   batch.Op
		snap model.Snapshot
		agg  model.AggregateRecord
		id   int64
	}
	plan := make([]prepared, 0, len(ops))
	created := make(map[string]struct{})
	for _, op := range ops {
		p := prepared{op: op}
		switch op.Path.Collection {
		case model.CollectionSnapshots:
			switch op.Kind {
			case batch.OpCreate, batch.OpSet:
				snap, err := snapshotValue(op)
				if err != nil {
					return err
				}
				if snap.DocID == "" {
					snap.DocID = op.Path.ID
				}
				if op.Kind == batch.OpCreate {
					if _, ok := s.docs[snap.DocID]; ok {
						return fmt.Errorf("%w: snapshot %s", ErrAlreadyExists, snap.DocID)
					}
					if _, ok := created[snap.DocID]; ok {
						return fmt.Errorf("%w: snapshot %s", ErrAlreadyExists, snap.DocID)
					}
					created[snap.DocID] = struct{}{}
				}
				p.snap = snap
			case batch.OpDelete:
			default:
				return fmt.Errorf("%w: kind %q", ErrInvalidOp, op.Kind)
			}
		case model.CollectionAggregates:
			id, err := parseID(op, op.Path.ID)
			if err != nil {
				return err
			}
			p.id = id
			switch op.Kind {
			case batch.OpCreate, batch.OpSet:
				agg, err := aggregateValue(op)
				if err != nil {
					return err
				}
				if op.Kind == batch.OpCreate {
					if _, ok := s.aggregates[id]; ok {
						return fmt.Errorf("%w: aggregate %d", ErrAlreadyExists, id)
					}
				}
				agg.EntityID = id
				p.agg = agg
			case batch.OpDelete:
			default:
				return fmt.Errorf("%w: kind %q", ErrInvalidOp, op.Kind)
			}
		default:
			return fmt.Errorf("%w: collection %q", ErrInvalidOp, op.Path.Collection)
		}
		plan = append(plan, p)
	}

	for _, p := range plan {
		switch p.op.Path.Collection {
		case model.CollectionSnapshots:
			if p.op.Kind == batch.OpDelete {
				s.deleteSnapshot(p.op.Path.ID)
			} else {
				s.putSnapshot(p.snap)
			}
		case model.CollectionAggregates:
			if p.op.Kind == batch.OpDelete {
				delete(s.aggregates, p.id)
			} else {
				s.aggregates[p.id] = p.agg
			}
		}
	}
	return nil
}

// putSnapshot inserts or replaces snap keeping the per-entity slice ordered.
// Caller holds s.mu.
func (s *MemoryStore) putSnapshot(snap model.Snapshot) {
	if _, ok := s.docs[snap.DocID]; ok {
		s.deleteSnapshot(snap.DocID)
	}
	list := s.snapshots[snap.EntityID]
	i := sort.Search(len(list), func(i int) bool {
		if list[i].Timestamp.Equal(snap.Timestamp) {
			return list[i].DocID > snap.DocID
		}
		return list[i].Timestamp.After(snap.Timestamp)
	})
	list = append(list, model.Snapshot{})
	copy(list[i+1:], list[i:])
	list[i] = snap
	s.snapshots[snap.EntityID] = list
	s.docs[snap.DocID] = snap.EntityID
}

// Caller holds s.mu.
func (s *MemoryStore) deleteSnapshot(docID string) {
	entityID, ok := s.docs[docID]
	if !ok {
		return
	}
	delete(s.docs, docID)
	list := s.snapshots[entityID]
	for i := range list {
		if list[i].DocID == docID {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(s.snapshots, entityID)
		return
	}
	s.snapshots[entityID] = list
}

// FirstSnapshotInRange returns the earliest snapshot in [from, to).
func (s *MemoryStore) FirstSnapshotInRange(_ context.Context, entityID int64, from, to time.Time) (model.Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[entityID]
	i := sort.Search(len(list), func(i int) bool { return !list[i].Timestamp.Before(from) })
	if i < len(list) && list[i].Timestamp.Before(to) {
		return list[i], true, nil
	}
	return model.Snapshot{}, false, nil
}

// SnapshotsBefore returns at most limit snapshots older than cutoff, oldest first.
func (s *MemoryStore) SnapshotsBefore(_ context.Context, cutoff time.Time, limit int) ([]model.Snapshot, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Snapshot
	for _, list := range s.snapshots {
		for _, snap := range list {
			if !snap.Timestamp.Before(cutoff) {
				break
			}
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].DocID < out[j].DocID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Aggregates returns every aggregate ordered by latest position.
func (s *MemoryStore) Aggregates(_ context.Context) ([]model.AggregateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.AggregateRecord, 0, len(s.aggregates))
	for _, a := range s.aggregates {
		out = append(out, a)
	}
	sortAggregates(out)
	return out, nil
}

// AggregateIDs returns the IDs with an aggregate, ascending.
func (s *MemoryStore) AggregateIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.aggregates))
	for id := range s.aggregates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Aggregate returns one aggregate or ErrNotFound.
func (s *MemoryStore) Aggregate(_ context.Context, entityID int64) (model.AggregateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.aggregates[entityID]
	if !ok {
		return model.AggregateRecord{}, fmt.Errorf("%w: aggregate %d", ErrNotFound, entityID)
	}
	return a, nil
}

// SnapshotCount returns the number of stored snapshots.
func (s *MemoryStore) SnapshotCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func sortAggregates(out []model.AggregateRecord) {
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Latest.Position, out[j].Latest.Position
		if pi == pj {
			return out[i].EntityID < out[j].EntityID
		}
		return pi < pj
	})
}
