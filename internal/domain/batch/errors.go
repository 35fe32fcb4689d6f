package batch

import (
	"errors"
	"fmt"
	"sort"
)

// ErrPartialCommit marks a CommitAll where at least one chunk failed.
var ErrPartialCommit = errors.New("partial batch commit")

// ChunkFailure describes one chunk that could not be committed.
type ChunkFailure struct {
	Index int
	Ops   []Op
	Err   error
}

// PartialFailure lists the failed chunks of a CommitAll.
type PartialFailure struct {
	Chunks   int
	Failures []ChunkFailure
}

func (p *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %d of %d chunks failed: %v",
		ErrPartialCommit, len(p.Failures), p.Chunks, p.Failures[0].Err)
}

// Unwrap exposes ErrPartialCommit and every chunk error.
func (p *PartialFailure) Unwrap() []error {
	errs := make([]error, 0, len(p.Failures)+1)
	errs = append(errs, ErrPartialCommit)
	for _, f := range p.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// EntityIDs returns the distinct entities touched by failed chunks, ascending.
func (p *PartialFailure) EntityIDs() []int64 {
	seen := make(map[int64]struct{})
	for _, f := range p.Failures {
		for _, op := range f.Ops {
			if op.EntityID != 0 {
				seen[op.EntityID] = struct{}{}
			}
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
