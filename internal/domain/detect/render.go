package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/logger"
)

// MentionResolver looks up the social handle of an entity owner. An empty
// handle means the owner has none.
type MentionResolver interface {
	Mention(ctx context.Context, owner model.Owner) (string, error)
}

// padMode places the separating space around a mention.
type padMode int

const (
	padNone padMode = iota
	padStart
	padEnd
)

// Renderer produces post text. Mention lookups are best effort.
type Renderer struct {
	mentions MentionResolver
	logger   logger.Logger
}

// NewRenderer creates a Renderer; m may be nil to disable mentions.
func NewRenderer(m MentionResolver, l logger.Logger) *Renderer {
	if l == nil {
		l = logger.Get().Named("render")
	}
	return &Renderer{mentions: m, logger: l}
}

func (r *Renderer) mention(ctx context.Context, e model.Entity, mode padMode) string {
	if r.mentions == nil {
		return ""
	}
	handle, err := r.mentions.Mention(ctx, e.Owner)
	if err != nil {
		r.logger.Warn(ctx, "mention lookup failed",
			logger.String("owner", e.Owner.Login), logger.Error(err))
		return ""
	}
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return ""
	}
	switch mode {
	case padStart:
		return " @" + handle
	case padEnd:
		return "@" + handle + " "
	}
	return "@" + handle
}

// TopEntity announces a new position 1.
func (r *Renderer) TopEntity(ctx context.Context, re model.RankedEntity) string {
	return fmt.Sprintf("%s is now the most starred software repo on #GitHub at %s 🌟\n\n%s%s\n%s",
		RepoTag(re.Entity),
		CompactNumber(re.Stars, 1),
		r.mention(ctx, re.Entity, padEnd),
		strings.Join(Hashtags(re.Entity), " "),
		re.URL)
}

// Milestone celebrates crossing a star threshold.
func (r *Renderer) Milestone(ctx context.Context, re model.RankedEntity, milestone int64) string {
	return fmt.Sprintf("%s just reached %s 🌟 on #GitHub 🎉\n\nWay to go%s and congrats on reaching this epic milestone 💪 %s\n%s",
		RepoTag(re.Entity),
		CompactNumber(milestone, 3),
		r.mention(ctx, re.Entity, padStart),
		strings.Join(Hashtags(re.Entity), " "),
		re.URL)
}

// Overtake announces re passing other.
func (r *Renderer) Overtake(ctx context.Context, re, other model.RankedEntity, position int) string {
	tags := MergeHashtags(Hashtags(re.Entity), Hashtags(other.Entity))
	return fmt.Sprintf("%s just surpassed %s in stars on #GitHub 💥\n\nThe repo is now at %s 🌟 (top #%d software repo)\n\n%s%s\n%s",
		RepoTag(re.Entity),
		RepoTag(other.Entity),
		CompactNumber(re.Stars, 1),
		position,
		r.mention(ctx, re.Entity, padEnd),
		strings.Join(tags, " "),
		re.URL)
}

// FastestGrowing announces the largest star gain of a period. runnerUp is
// the second largest gain, zero when unknown.
func (r *Renderer) FastestGrowing(ctx context.Context, re model.RankedEntity, position int, period string, change, runnerUp int64) string {
	diff := ""
	if change != runnerUp && runnerUp != 0 {
		diff = fmt.Sprintf(" (%s more than any other repo)", Percent(float64(change)/float64(runnerUp)-1))
	}
	return fmt.Sprintf("%s is the fastest growing top 100 software repo on #GitHub %s 🚀\n\n+%s 🌟 during that time%s\n-> %s 🌟 in total (top #%d software repo)\n\nWay to go%s 💪 %s\n%s",
		RepoTag(re.Entity),
		period,
		Thousands(change),
		diff,
		CompactNumber(re.Stars, 1),
		position,
		r.mention(ctx, re.Entity, padStart),
		strings.Join(Hashtags(re.Entity), " "),
		re.URL)
}
