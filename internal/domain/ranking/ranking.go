// Package ranking fetches the ranked entity list from the ranking source and
// validates it before anything is written.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// Defaults for the top-N query.
const (
	DefaultQuery   = "stars:>32986"
	DefaultSort    = "stars"
	DefaultPages   = 2
	DefaultPerPage = 100
	DefaultTopN    = 100
)

// Query selects the entities returned by the source, most stars first.
type Query struct {
	Q       string
	Sort    string
	PerPage int
}

// Source pages through the ranking API. Pages are 1-based.
type Source interface {
	FetchPage(ctx context.Context, q Query, page int) ([]model.RankedEntity, error)
}

// Ranking is an accepted top-N list; index i holds position i+1.
type Ranking []model.RankedEntity

// At returns the entity at a 1-based position.
func (r Ranking) At(position int) (model.RankedEntity, bool) {
	if position < 1 || position > len(r) {
		return model.RankedEntity{}, false
	}
	return r[position-1], true
}

// Position returns the 1-based position of entityID.
func (r Ranking) Position(entityID int64) (int, bool) {
	for i := range r {
		if r[i].ID == entityID {
			return i + 1, true
		}
	}
	return 0, false
}

// IDs returns the set of ranked entity IDs.
func (r Ranking) IDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(r))
	for i := range r {
		ids[r[i].ID] = struct{}{}
	}
	return ids
}

// Fetcher produces a validated Ranking.
type Fetcher struct {
	source   Source
	denylist *Denylist
	query    Query
	pages    int
	topN     int
	logger   logger.Logger
}

// NewFetcher creates a Fetcher over src.
func NewFetcher(src Source, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:   src,
		denylist: DefaultDenylist(),
		query:    Query{Q: DefaultQuery, Sort: DefaultSort, PerPage: DefaultPerPage},
		pages:    DefaultPages,
		topN:     DefaultTopN,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get().Named("ranking")
	}
	return f
}

// Fetch reads every page, drops denylisted entries, truncates to top N and
// validates the result. Validation failures unwrap to ErrIntegrity.
func (f *Fetcher) Fetch(ctx context.Context) (Ranking, error) {
	start := time.Now()
	all := make([]model.RankedEntity, 0, f.pages*f.query.PerPage)
	for page := 1; page <= f.pages; page++ {
		items, err := f.source.FetchPage(ctx, f.query, page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrFetch, page, err)
		}
		metrics.RecordFetchPage()
		all = append(all, items...)
	}
	metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))

	kept := all[:0]
	dropped := 0
	for _, e := range all {
		if f.denylist.Contains(e.FullName) {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > f.topN {
		kept = kept[:f.topN]
	}
	f.logger.Debug(ctx, "ranking fetched",
		logger.Int("received", len(all)),
		logger.Int("denylisted", dropped),
		logger.Int("kept", len(kept)))

	if err := Validate(kept, f.topN); err != nil {
		return nil, err
	}
	return Ranking(kept), nil
}

// Validate checks that list holds exactly n entries with non-increasing stars.
func Validate(list []model.RankedEntity, n int) error {
	if len(list) != n {
		return &IntegrityError{Kind: IntegrityCount, Expected: n, Got: len(list)}
	}
	for i := 1; i < len(list); i++ {
		if list[i].Stars > list[i-1].Stars {
			return &IntegrityError{
				Kind:     IntegrityOrder,
				Expected: n,
				Got:      len(list),
				Index:    i,
				Previous: list[i-1],
				Current:  list[i],
			}
		}
	}
	return nil
}
