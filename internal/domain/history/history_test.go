package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/startrack/internal/domain/history"
	"github.com/okian/startrack/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// sliceFinder answers range queries over an ordered slice.
type sliceFinder struct {
	snaps []model.Snapshot
	err   error
	from  time.Time
	to    time.Time
}

func (f *sliceFinder) FirstSnapshotInRange(_ context.Context, entityID int64, from, to time.Time) (model.Snapshot, bool, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return model.Snapshot{}, false, f.err
	}
	for _, s := range f.snaps {
		if s.EntityID == entityID && !s.Timestamp.Before(from) && s.Timestamp.Before(to) {
			return s, true, nil
		}
	}
	return model.Snapshot{}, false, nil
}

func TestLocatorWindow(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	target := now.Add(-7 * 24 * time.Hour)

	Convey("Given a locator with the default window", t, func() {
		Convey("When a snapshot sits exactly at target minus five minutes", func() {
			f := &sliceFinder{snaps: []model.Snapshot{{EntityID: 1, DocID: "edge", Timestamp: target.Add(-5 * time.Minute)}}}
			got, ok, err := history.NewLocator(f).DaysAgo(context.Background(), 1, now, 7)

			Convey("Then it should be found", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.DocID, ShouldEqual, "edge")
			})
		})

		Convey("When a snapshot sits exactly at target plus one hour", func() {
			f := &sliceFinder{snaps: []model.Snapshot{{EntityID: 1, DocID: "late", Timestamp: target.Add(time.Hour)}}}
			_, ok, err := history.NewLocator(f).DaysAgo(context.Background(), 1, now, 7)

			Convey("Then it should not be found", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When several snapshots fall in the window", func() {
			f := &sliceFinder{snaps: []model.Snapshot{
				{EntityID: 1, DocID: "first", Timestamp: target.Add(-time.Minute)},
				{EntityID: 1, DocID: "second", Timestamp: target.Add(10 * time.Minute)},
			}}
			got, ok, _ := history.NewLocator(f).DaysAgo(context.Background(), 1, now, 7)

			Convey("Then the earliest should win", func() {
				So(ok, ShouldBeTrue)
				So(got.DocID, ShouldEqual, "first")
			})
		})

		Convey("When the store fails", func() {
			f := &sliceFinder{err: errors.New("timeout")}
			_, ok, err := history.NewLocator(f).DaysAgo(context.Background(), 1, now, 1)

			Convey("Then the error should be wrapped", func() {
				So(ok, ShouldBeFalse)
				So(errors.Is(err, history.ErrLookup), ShouldBeTrue)
			})
		})
	})

	Convey("Given a locator with a custom window", t, func() {
		f := &sliceFinder{}
		l := history.NewLocator(f, history.WithWindow(time.Minute, 10*time.Minute))
		_, _, _ = l.DaysAgo(context.Background(), 1, now, 28)

		Convey("Then the query bounds should follow it", func() {
			target28 := now.Add(-28 * 24 * time.Hour)
			So(f.from, ShouldEqual, target28.Add(-time.Minute))
			So(f.to, ShouldEqual, target28.Add(10*time.Minute))
		})
	})
}

func TestComputeStats(t *testing.T) {
	Convey("Given an entity that climbed from 8th to 5th", t, func() {
		hist := model.Snapshot{Position: 8, Stars: 40_000}
		cur := model.Snapshot{Position: 5, Stars: 41_500}

		Convey("Then the comparison should carry the past values and deltas", func() {
			s := history.ComputeStats(hist, cur)
			So(s, ShouldResemble, model.StatsSnapshot{Position: 8, Stars: 40_000, PositionChange: 3, StarsChange: 1_500})
		})
	})

	Convey("Given an entity that dropped and lost stars", t, func() {
		s := history.ComputeStats(model.Snapshot{Position: 2, Stars: 100}, model.Snapshot{Position: 4, Stars: 90})

		Convey("Then both deltas should be negative", func() {
			So(s.PositionChange, ShouldEqual, -2)
			So(s.StarsChange, ShouldEqual, -10)
		})
	})
}
