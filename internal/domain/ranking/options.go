package ranking

import "github.com/okian/startrack/pkg/logger"

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithQuery sets the search query and sort key.
func WithQuery(q, sort string) Option {
	return func(f *Fetcher) {
		if q != "" {
			f.query.Q = q
		}
		if sort != "" {
			f.query.Sort = sort
		}
	}
}

// WithPaging sets how many pages of what size are read.
func WithPaging(pages, perPage int) Option {
	return func(f *Fetcher) {
		if pages > 0 {
			f.pages = pages
		}
		if perPage > 0 {
			f.query.PerPage = perPage
		}
	}
}

// WithTopN sets the expected ranking size.
func WithTopN(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.topN = n
		}
	}
}

// WithDenylist replaces the default denylist.
func WithDenylist(d *Denylist) Option {
	return func(f *Fetcher) {
		if d != nil {
			f.denylist = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}
