package batch

import (
	"strconv"

	"github.com/okian/startrack/internal/domain/model"
)

// SnapshotPath addresses a snapshot document under its entity.
func SnapshotPath(entityID int64, docID string) Path {
	return Path{Collection: model.CollectionSnapshots, Parent: strconv.FormatInt(entityID, 10), ID: docID}
}

// AggregatePath addresses an entity's aggregate document.
func AggregatePath(entityID int64) Path {
	return Path{Collection: model.CollectionAggregates, ID: strconv.FormatInt(entityID, 10)}
}

// CreateSnapshot builds the op that appends s.
func CreateSnapshot(s model.Snapshot) Op {
	return Op{Kind: OpCreate, Path: SnapshotPath(s.EntityID, s.DocID), Value: s, EntityID: s.EntityID}
}

// SetAggregate builds the op that upserts a.
func SetAggregate(a model.AggregateRecord) Op {
	return Op{Kind: OpSet, Path: AggregatePath(a.EntityID), Value: a, EntityID: a.EntityID}
}

// DeleteAggregate builds the op that removes an entity's aggregate.
func DeleteAggregate(entityID int64) Op {
	return Op{Kind: OpDelete, Path: AggregatePath(entityID), EntityID: entityID}
}

// DeleteSnapshot builds the op that removes one snapshot.
func DeleteSnapshot(entityID int64, docID string) Op {
	return Op{Kind: OpDelete, Path: SnapshotPath(entityID, docID), EntityID: entityID}
}
