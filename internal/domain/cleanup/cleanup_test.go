package cleanup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/startrack/internal/domain/cleanup"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type fakeAccount struct {
	pages     map[string]social.Page
	queries   []string
	deleted   []string
	deleteErr error
	timeline  bool
}

func (f *fakeAccount) Timeline(_ context.Context, token string) (social.Page, error) {
	f.timeline = true
	return f.pages[token], nil
}

func (f *fakeAccount) Search(_ context.Context, query, token string) (social.Page, error) {
	f.queries = append(f.queries, query)
	return f.pages[token], nil
}

func (f *fakeAccount) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestCleanerRun(t *testing.T) {
	now := time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	old := now.Add(-9 * 24 * time.Hour)

	Convey("Given two pages of posts", t, func() {
		acct := &fakeAccount{pages: map[string]social.Page{
			"": {Posts: []social.Post{
				{ID: "recent", CreatedAt: now.Add(-24 * time.Hour)},
				{ID: "old-quiet", CreatedAt: old, Likes: 3},
				{ID: "old-popular", CreatedAt: old, Likes: 4},
			}, NextToken: "next"},
			"next": {Posts: []social.Post{
				{ID: "older-quiet", CreatedAt: old.Add(-time.Hour)},
			}},
		}}

		Convey("When cleaned from the timeline", func() {
			report, err := cleanup.NewCleaner(acct, cleanup.WithClock(clock)).Run(context.Background())

			Convey("Then only old posts with at most three likes are deleted", func() {
				So(err, ShouldBeNil)
				So(acct.timeline, ShouldBeTrue)
				So(report.Scanned, ShouldEqual, 4)
				So(acct.deleted, ShouldResemble, []string{"old-quiet", "older-quiet"})
				So(report.Deleted, ShouldResemble, acct.deleted)
			})
		})

		Convey("When cleaned through search", func() {
			c := cleanup.NewCleaner(acct,
				cleanup.WithClock(clock),
				cleanup.WithMode(cleanup.ModeSearch),
				cleanup.WithHandle("github_tracker"))
			_, err := c.Run(context.Background())

			Convey("Then the query excludes liked and recent posts", func() {
				So(err, ShouldBeNil)
				So(acct.queries[0], ShouldEqual, "(from:github_tracker) -min_faves:4 until:2024-07-01")
				So(len(acct.queries), ShouldEqual, 2)
			})
		})

		Convey("When search mode has no handle", func() {
			_, err := cleanup.NewCleaner(acct, cleanup.WithMode(cleanup.ModeSearch)).Run(context.Background())
			So(errors.Is(err, cleanup.ErrNoHandle), ShouldBeTrue)
		})

		Convey("When deletes are rate limited", func() {
			acct.deleteErr = &social.RateLimitError{Limit: 50, Reset: now.Add(15 * time.Minute)}
			_, err := cleanup.NewCleaner(acct, cleanup.WithClock(clock)).Run(context.Background())

			Convey("Then the rate limit error is returned unwrapped", func() {
				var rl *social.RateLimitError
				So(errors.As(err, &rl), ShouldBeTrue)
				So(errors.Is(err, cleanup.ErrCleanup), ShouldBeFalse)
			})
		})

		Convey("When deletes fail otherwise", func() {
			acct.deleteErr = errors.New("forbidden")
			_, err := cleanup.NewCleaner(acct, cleanup.WithClock(clock)).Run(context.Background())
			So(errors.Is(err, cleanup.ErrCleanup), ShouldBeTrue)
		})
	})
}
