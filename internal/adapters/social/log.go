package social

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
)

// LogPublisher only logs what would have been posted.
type LogPublisher struct {
	logger logger.Logger
}

// NewLogPublisher creates a dry-run publisher; l may be nil.
func NewLogPublisher(l logger.Logger) *LogPublisher {
	if l == nil {
		l = logger.Get().Named("dry-run")
	}
	return &LogPublisher{logger: l}
}

func (p *LogPublisher) Publish(ctx context.Context, text string) (social.Post, error) {
	post := social.Post{ID: uuid.NewString(), Text: text, CreatedAt: time.Now().UTC()}
	p.logger.Info(ctx, "post", logger.String("id", post.ID), logger.String("text", text))
	return post, nil
}
