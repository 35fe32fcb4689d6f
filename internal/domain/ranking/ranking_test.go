package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/ranking"
	"github.com/okian/startrack/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// pagedSource serves a fixed list in pages.
type pagedSource struct {
	items   []model.RankedEntity
	err     error
	queries []ranking.Query
}

func (s *pagedSource) FetchPage(_ context.Context, q ranking.Query, page int) ([]model.RankedEntity, error) {
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	start := (page - 1) * q.PerPage
	if start >= len(s.items) {
		return nil, nil
	}
	end := start + q.PerPage
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.items[start:end], nil
}

func descending(n int, top int64) []model.RankedEntity {
	out := make([]model.RankedEntity, n)
	for i := range out {
		out[i] = model.RankedEntity{
			Entity: model.Entity{ID: int64(i + 1), FullName: fmt.Sprintf("owner/repo-%d", i+1)},
			Stars:  top - int64(i*10),
		}
	}
	return out
}

func TestValidate(t *testing.T) {
	Convey("Given ranked lists", t, func() {
		Convey("When the list is short", func() {
			err := ranking.Validate(descending(99, 100_000), 100)

			Convey("Then a count violation is reported", func() {
				var ie *ranking.IntegrityError
				So(errors.As(err, &ie), ShouldBeTrue)
				So(errors.Is(err, ranking.ErrIntegrity), ShouldBeTrue)
				So(ie.Kind, ShouldEqual, ranking.IntegrityCount)
				So(ie.Got, ShouldEqual, 99)
			})
		})

		Convey("When entry 37 has more stars than entry 36", func() {
			list := descending(100, 100_000)
			list[37].Stars = list[36].Stars + 1
			err := ranking.Validate(list, 100)

			Convey("Then the first violating index is reported", func() {
				var ie *ranking.IntegrityError
				So(errors.As(err, &ie), ShouldBeTrue)
				So(ie.Kind, ShouldEqual, ranking.IntegrityOrder)
				So(ie.Index, ShouldEqual, 37)
				So(ie.Current.ID, ShouldEqual, 38)
				So(ie.Previous.ID, ShouldEqual, 37)
				So(ie.Error(), ShouldContainSubstring, "owner/repo-38")
			})
		})

		Convey("When neighbours tie on stars", func() {
			list := descending(100, 100_000)
			list[5].Stars = list[4].Stars

			Convey("Then the list is accepted", func() {
				So(ranking.Validate(list, 100), ShouldBeNil)
			})
		})
	})
}

func TestFetcher(t *testing.T) {
	Convey("Given a source with 200 entries where two are denylisted", t, func() {
		items := descending(200, 200_000)
		items[0].FullName = "freeCodeCamp/freeCodeCamp"
		items[3].FullName = "SINDRESORHUS/awesome"
		src := &pagedSource{items: items}
		f := ranking.NewFetcher(src, ranking.WithQuery("stars:>1000", "stars"))

		Convey("When fetching", func() {
			r, err := f.Fetch(context.Background())

			Convey("Then denylisted entries are dropped and the list is truncated to 100", func() {
				So(err, ShouldBeNil)
				So(len(r), ShouldEqual, 100)
				So(r[0].ID, ShouldEqual, 2)
				So(r[2].ID, ShouldEqual, 5)
				pos, ok := r.Position(5)
				So(ok, ShouldBeTrue)
				So(pos, ShouldEqual, 3)
				top, ok := r.At(1)
				So(ok, ShouldBeTrue)
				So(top.ID, ShouldEqual, 2)
				_, ok = r.At(101)
				So(ok, ShouldBeFalse)
				So(len(r.IDs()), ShouldEqual, 100)
			})

			Convey("And two pages of 100 are requested with the query", func() {
				So(len(src.queries), ShouldEqual, 2)
				So(src.queries[0].Q, ShouldEqual, "stars:>1000")
				So(src.queries[0].PerPage, ShouldEqual, 100)
			})
		})
	})

	Convey("Given a source that returns too few entries after filtering", t, func() {
		items := descending(101, 200_000)
		items[0].FullName = "github/gitignore"
		items[1].FullName = "airbnb/javascript"
		f := ranking.NewFetcher(&pagedSource{items: items})

		Convey("Then the fetch fails the integrity check", func() {
			_, err := f.Fetch(context.Background())
			So(errors.Is(err, ranking.ErrIntegrity), ShouldBeTrue)
		})
	})

	Convey("Given a failing source", t, func() {
		boom := errors.New("boom")
		f := ranking.NewFetcher(&pagedSource{err: boom})

		Convey("Then the fetch error wraps the cause", func() {
			_, err := f.Fetch(context.Background())
			So(errors.Is(err, ranking.ErrFetch), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
			So(errors.Is(err, ranking.ErrIntegrity), ShouldBeFalse)
		})
	})
}

func TestDenylist(t *testing.T) {
	Convey("Given the default denylist", t, func() {
		d := ranking.DefaultDenylist()

		Convey("Then lookups are case-insensitive", func() {
			So(d.Contains("public-apis/public-apis"), ShouldBeTrue)
			So(d.Contains("Public-APIs/Public-APIs"), ShouldBeTrue)
			So(d.Contains("golang/go"), ShouldBeFalse)
		})
	})

	Convey("Given a YAML denylist file", t, func() {
		dir := t.TempDir()

		Convey("When it extends the defaults", func() {
			path := filepath.Join(dir, "deny.yaml")
			So(os.WriteFile(path, []byte("repos:\n  - acme/handbook\n"), 0o600), ShouldBeNil)
			d, err := ranking.LoadDenylist(path)

			Convey("Then both sets are denied", func() {
				So(err, ShouldBeNil)
				So(d.Contains("acme/handbook"), ShouldBeTrue)
				So(d.Contains("airbnb/javascript"), ShouldBeTrue)
			})
		})

		Convey("When it replaces the defaults", func() {
			d, err := ranking.ParseDenylist([]byte("replace_defaults: true\nrepos: [acme/handbook]\n"))

			Convey("Then only its entries are denied", func() {
				So(err, ShouldBeNil)
				So(d.Len(), ShouldEqual, 1)
				So(d.Contains("airbnb/javascript"), ShouldBeFalse)
			})
		})

		Convey("When an entry is malformed", func() {
			_, err := ranking.ParseDenylist([]byte("repos: [just-a-name]\n"))

			Convey("Then parsing fails", func() {
				So(errors.Is(err, ranking.ErrDenylist), ShouldBeTrue)
			})
		})

		Convey("When the file is missing", func() {
			_, err := ranking.LoadDenylist(filepath.Join(dir, "missing.yaml"))

			Convey("Then loading fails", func() {
				So(errors.Is(err, ranking.ErrDenylist), ShouldBeTrue)
			})
		})
	})
}
