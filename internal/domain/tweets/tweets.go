// Package tweets collects the events of one run and publishes the most
// important one.
package tweets

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
	"github.com/okian/startrack/pkg/metrics"
)

// Manager is a per-run priority queue of events. Publish drains it.
type Manager struct {
	mu        sync.Mutex
	events    []model.Event
	publisher social.Publisher
	logger    logger.Logger
}

// NewManager creates an empty Manager.
func NewManager(p social.Publisher, opts ...Option) *Manager {
	m := &Manager{publisher: p}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("tweets")
	}
	return m
}

// Add queues an event. Safe for concurrent use.
func (m *Manager) Add(e model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Len returns the number of queued events.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Publish posts the lowest priority event, earliest added among ties, and
// discards the others. It reports the chosen event; ok is false when the
// queue was empty.
func (m *Manager) Publish(ctx context.Context) (e model.Event, ok bool, err error) {
	m.mu.Lock()
	events := m.events
	m.events = nil
	m.mu.Unlock()

	if len(events) == 0 {
		m.logger.Debug(ctx, "nothing to publish")
		return model.Event{}, false, nil
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Priority < events[j].Priority })
	head := events[0]
	if len(events) > 1 {
		m.logger.Info(ctx, "discarding lower priority events", logger.Int("count", len(events)-1))
	}

	start := time.Now()
	post, err := m.publisher.Publish(ctx, head.Content)
	if err != nil {
		metrics.RecordPostFailed()
		return head, true, fmt.Errorf("%w: %s: %w", ErrPublish, head.Kind, err)
	}
	metrics.RecordPostPublished(float64(time.Since(start).Milliseconds()))
	m.logger.Info(ctx, "event published",
		logger.String("kind", string(head.Kind)),
		logger.Int64("entity", head.EntityID),
		logger.String("post", post.ID))
	return head, true, nil
}
