package repository

import (
	"fmt"
	"strconv"

	"github.com/okian/startrack/internal/domain/batch"
	"github.com/okian/startrack/internal/domain/model"
)

func snapshotValue(op batch.Op) (model.Snapshot, error) {
	switch v := op.Value.(type) {
	case model.Snapshot:
		return v, nil
	case *model.Snapshot:
		if v != nil {
			return *v, nil
		}
	}
	return model.Snapshot{}, fmt.Errorf("%w: %s %s/%s carries %T", ErrInvalidOp, op.Kind, op.Path.Collection, op.Path.ID, op.Value)
}

func aggregateValue(op batch.Op) (model.AggregateRecord, error) {
	switch v := op.Value.(type) {
	case model.AggregateRecord:
		return v, nil
	case *model.AggregateRecord:
		if v != nil {
			return *v, nil
		}
	}
	return model.AggregateRecord{}, fmt.Errorf("%w: %s %s/%s carries %T", ErrInvalidOp, op.Kind, op.Path.Collection, op.Path.ID, op.Value)
}

func parseID(op batch.Op, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s/%s: bad entity id %q", ErrInvalidOp, op.Path.Collection, op.Path.ID, s)
	}
	return id, nil
}

func checkSize(ops []batch.Op) error {
	if len(ops) > MaxBatchOps {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ops), MaxBatchOps)
	}
	return nil
}
