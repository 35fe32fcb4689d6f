// Package cleanup deletes the tracker's old posts that found no audience.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// Candidate sources.
const (
	ModeTimeline = "timeline"
	ModeSearch   = "search"
)

// Defaults.
const (
	DefaultMinAge   = 8 * 24 * time.Hour
	DefaultMaxLikes = 3
	maxPages        = 50
)

// Report summarizes one cleanup pass.
type Report struct {
	Scanned int      `json:"scanned"`
	Deleted []string `json:"deleted"`
}

// Cleaner finds and deletes posts older than minAge with at most maxLikes.
type Cleaner struct {
	account  social.Account
	mode     string
	handle   string
	minAge   time.Duration
	maxLikes int
	now      func() time.Time
	logger   logger.Logger
}

// NewCleaner creates a Cleaner in timeline mode.
func NewCleaner(a social.Account, opts ...Option) *Cleaner {
	c := &Cleaner{
		account:  a,
		mode:     ModeTimeline,
		minAge:   DefaultMinAge,
		maxLikes: DefaultMaxLikes,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("cleanup")
	}
	return c
}

// Query is the search used in search mode. min_faves excludes posts at or
// above the given count, hence maxLikes+1.
func (c *Cleaner) Query(now time.Time) string {
	until := now.Add(-c.minAge).UTC().Format(time.DateOnly)
	return fmt.Sprintf("(from:%s) -min_faves:%d until:%s", c.handle, c.maxLikes+1, until)
}

// Run walks the candidate pages and deletes every matching post. It stops at
// the first error; a rate limit is returned as is so callers can retry later.
func (c *Cleaner) Run(ctx context.Context) (Report, error) {
	now := c.now().UTC()
	cutoff := now.Add(-c.minAge)
	var report Report

	query := ""
	if c.mode == ModeSearch {
		if c.handle == "" {
			return report, ErrNoHandle
		}
		query = c.Query(now)
		c.logger.Debug(ctx, "searching posts", logger.String("query", query))
	}

	token := ""
	for page := 0; page < maxPages; page++ {
		var (
			p   social.Page
			err error
		)
		if c.mode == ModeSearch {
			p, err = c.account.Search(ctx, query, token)
		} else {
			p, err = c.account.Timeline(ctx, token)
		}
		if err != nil {
			return report, c.wrap("list", err)
		}
		report.Scanned += len(p.Posts)
		metrics.RecordCleanupScanned(len(p.Posts))

		for _, post := range p.Posts {
			if !post.CreatedAt.Before(cutoff) || post.Likes > c.maxLikes {
				continue
			}
			if err := c.account.Delete(ctx, post.ID); err != nil {
				return report, c.wrap("delete "+post.ID, err)
			}
			metrics.RecordPostDeleted()
			report.Deleted = append(report.Deleted, post.ID)
			c.logger.Info(ctx, "post deleted",
				logger.String("id", post.ID),
				logger.Int("likes", post.Likes),
				logger.Time("created_at", post.CreatedAt))
		}

		if p.NextToken == "" {
			return report, nil
		}
		token = p.NextToken
	}
	c.logger.Warn(ctx, "page limit reached", logger.Int("pages", maxPages))
	return report, nil
}

func (c *Cleaner) wrap(op string, err error) error {
	if errors.Is(err, social.ErrRateLimited) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrCleanup, op, err)
}
