package batch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/startrack/internal/domain/batch"
	"github.com/okian/startrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type recordingCommitter struct {
	mu      sync.Mutex
	commits [][]batch.Op
	failOn  map[string]error
}

func (c *recordingCommitter) Commit(_ context.Context, ops []batch.Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, op := range ops {
		if err, ok := c.failOn[op.Path.ID]; ok {
			return err
		}
	}
	c.commits = append(c.commits, ops)
	return nil
}

func ops(n int) []batch.Op {
	out := make([]batch.Op, n)
	for i := range out {
		out[i] = batch.Op{
			Kind:     batch.OpSet,
			Path:     batch.Path{Collection: "aggregates", ID: fmt.Sprintf("doc-%d", i)},
			EntityID: int64(i + 1),
		}
	}
	return out
}

func TestWriterChunking(t *testing.T) {
	Convey("Given a writer with a limit of 500 ops", t, func() {
		c := &recordingCommitter{}
		w := batch.NewWriter(c, batch.WithMaxOps(500))

		Convey("When exactly 500 ops are enqueued", func() {
			for _, op := range ops(500) {
				w.Enqueue(op)
			}

			Convey("Then they should fit in one chunk", func() {
				chunks := w.Chunks()
				So(len(chunks), ShouldEqual, 1)
				So(len(chunks[0]), ShouldEqual, 500)
			})
		})

		Convey("When 501 ops are enqueued", func() {
			for _, op := range ops(501) {
				w.Enqueue(op)
			}

			Convey("Then they should split into 500 and 1", func() {
				chunks := w.Chunks()
				So(len(chunks), ShouldEqual, 2)
				So(len(chunks[0]), ShouldEqual, 500)
				So(len(chunks[1]), ShouldEqual, 1)
				So(chunks[1][0].Path.ID, ShouldEqual, "doc-500")
				So(w.Len(), ShouldEqual, 501)
			})

			Convey("And committing should apply both chunks and empty the writer", func() {
				err := w.CommitAll(context.Background())
				So(err, ShouldBeNil)
				So(len(c.commits), ShouldEqual, 2)
				So(w.Len(), ShouldEqual, 0)
			})
		})

		Convey("When nothing is enqueued", func() {
			Convey("Then committing should be a no-op", func() {
				So(w.CommitAll(context.Background()), ShouldBeNil)
				So(len(c.commits), ShouldEqual, 0)
			})
		})
	})
}

func TestWriterConcurrentEnqueue(t *testing.T) {
	Convey("Given a writer with a limit of 10 ops", t, func() {
		w := batch.NewWriter(&recordingCommitter{}, batch.WithMaxOps(10))

		Convey("When 100 goroutines enqueue one op each", func() {
			var wg sync.WaitGroup
			for _, op := range ops(100) {
				wg.Add(1)
				go func(o batch.Op) {
					defer wg.Done()
					w.Enqueue(o)
				}(op)
			}
			wg.Wait()

			Convey("Then no op should be lost and no chunk should overflow", func() {
				chunks := w.Chunks()
				So(len(chunks), ShouldEqual, 10)
				for _, c := range chunks {
					So(len(c), ShouldBeLessThanOrEqualTo, 10)
				}
				So(w.Len(), ShouldEqual, 100)
			})
		})
	})
}

func TestWriterPartialFailure(t *testing.T) {
	Convey("Given a committer that rejects the chunk holding doc-3", t, func() {
		boom := errors.New("store unavailable")
		c := &recordingCommitter{failOn: map[string]error{"doc-3": boom}}
		w := batch.NewWriter(c, batch.WithMaxOps(2))
		for _, op := range ops(6) {
			w.Enqueue(op)
		}

		Convey("When all chunks are committed", func() {
			err := w.CommitAll(context.Background())

			Convey("Then the other chunks should still be applied", func() {
				So(len(c.commits), ShouldEqual, 2)
			})

			Convey("And the failure should identify the chunk and its entities", func() {
				var pf *batch.PartialFailure
				So(errors.As(err, &pf), ShouldBeTrue)
				So(errors.Is(err, batch.ErrPartialCommit), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(len(pf.Failures), ShouldEqual, 1)
				So(pf.Failures[0].Index, ShouldEqual, 1)
				So(pf.EntityIDs(), ShouldResemble, []int64{3, 4})
			})
		})
	})
}
