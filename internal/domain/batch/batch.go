// Package batch groups document mutations into bounded chunks and commits
// the chunks concurrently.
package batch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// DefaultMaxOps is the document store's per-commit operation limit.
const DefaultMaxOps = 500

// OpKind is the mutation verb.
type OpKind string

// Mutation verbs.
const (
	OpCreate OpKind = "create" // fails if the document exists
	OpSet    OpKind = "set"    // upsert
	OpDelete OpKind = "delete" // no-op if missing
)

// Path addresses a document. Parent scopes sub-collections and may be empty.
type Path struct {
	Collection string
	Parent     string
	ID         string
}

// Op is a single mutation. EntityID is carried for error reporting only.
type Op struct {
	Kind     OpKind
	Path     Path
	Value    any
	EntityID int64
}

// Committer applies one chunk atomically.
type Committer interface {
	Commit(ctx context.Context, ops []Op) error
}

// Writer accumulates ops in arrival order into chunks of at most maxOps.
// Enqueue is safe for concurrent use.
type Writer struct {
	mu        sync.Mutex
	committer Committer
	maxOps    int
	chunks    [][]Op
	logger    logger.Logger
}

// NewWriter creates a Writer that commits through c.
func NewWriter(c Committer, opts ...Option) *Writer {
	w := &Writer{
		committer: c,
		maxOps:    DefaultMaxOps,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("batch")
	}
	return w
}

// Enqueue appends op to the current chunk, opening a new chunk when full.
func (w *Writer) Enqueue(op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := len(w.chunks)
	if n == 0 || len(w.chunks[n-1]) >= w.maxOps {
		w.chunks = append(w.chunks, make([]Op, 0, w.maxOps))
		n++
	}
	w.chunks[n-1] = append(w.chunks[n-1], op)
}

// Len returns the number of pending ops.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := 0
	for _, c := range w.chunks {
		total += len(c)
	}
	return total
}

// Chunks returns a copy of the pending chunk layout.
func (w *Writer) Chunks() [][]Op {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([][]Op, len(w.chunks))
	for i, c := range w.chunks {
		out[i] = append([]Op(nil), c...)
	}
	return out
}

// CommitAll commits every pending chunk concurrently and empties the writer.
// A failed chunk does not roll back the others; failures are reported as a
// *PartialFailure.
func (w *Writer) CommitAll(ctx context.Context) error {
	w.mu.Lock()
	chunks := w.chunks
	w.chunks = nil
	w.mu.Unlock()

	if len(chunks) == 0 {
		return nil
	}

	start := time.Now()
	var (
		wg       sync.WaitGroup
		failMu   sync.Mutex
		failures []ChunkFailure
	)
	for i, chunk := range chunks {
		wg.Add(1)
		go func(idx int, ops []Op) {
			defer wg.Done()
			if err := w.committer.Commit(ctx, ops); err != nil {
				metrics.RecordChunkFailed()
				metrics.RecordErrorByComponent("batch", "commit")
				failMu.Lock()
				failures = append(failures, ChunkFailure{Index: idx, Ops: ops, Err: err})
				failMu.Unlock()
				return
			}
			metrics.RecordChunkCommitted(countKinds(ops))
		}(i, chunk)
	}
	wg.Wait()

	if len(failures) == 0 {
		w.logger.Debug(ctx, "batches committed",
			logger.Int("chunks", len(chunks)),
			logger.Duration("elapsed", time.Since(start)))
		return nil
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Index < failures[j].Index })
	pf := &PartialFailure{Chunks: len(chunks), Failures: failures}
	w.logger.Error(ctx, "batch commit partially failed",
		logger.Int("chunks", len(chunks)),
		logger.Int("failed", len(failures)),
		logger.Any("entities", pf.EntityIDs()))
	return pf
}

func countKinds(ops []Op) map[string]int {
	out := make(map[string]int, 3)
	for _, op := range ops {
		out[string(op.Kind)]++
	}
	return out
}
