package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/startrack/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When an ID is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "task-1")
			second := d.SeenAndRecord(ctx, "task-1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an ID is unrecorded", func() {
			d.SeenAndRecord(ctx, "task-1")
			d.Unrecord(ctx, "task-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "task-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown ID is unrecorded", func() {
			d.Unrecord(ctx, "missing")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a deduper bounded to three IDs", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("task-%d", i))
		}

		Convey("Then the oldest ID was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "task-4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "task-3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "task-1"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 5000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("task-%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 5000)
			So(d.SeenAndRecord(ctx, "task-0"), ShouldBeTrue)
		})
	})

	Convey("Given concurrent callers racing on one ID", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var fresh atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "shared") {
					fresh.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one caller records it", func() {
			So(fresh.Load(), ShouldEqual, 1)
		})
	})
}
