package social

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/okian/startrack/internal/domain/social"
	"github.com/okian/startrack/pkg/logger"
)

// MessageWriter is the subset of *kafka.Writer used here.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PostMessage is the record written to the topic for a downstream poster.
type PostMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaPublisher hands posts to a topic instead of posting them directly.
type KafkaPublisher struct {
	writer MessageWriter
	now    func() time.Time
	logger logger.Logger
}

// NewKafkaWriter creates a writer that waits for all in-sync replicas.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
}

// NewKafkaPublisher wraps w. l may be nil.
func NewKafkaPublisher(w MessageWriter, l logger.Logger) *KafkaPublisher {
	if l == nil {
		l = logger.Get().Named("kafka")
	}
	return &KafkaPublisher{writer: w, now: time.Now, logger: l}
}

// Publish writes one message keyed by a fresh post ID.
func (p *KafkaPublisher) Publish(ctx context.Context, text string) (social.Post, error) {
	msg := PostMessage{ID: uuid.NewString(), Text: text, CreatedAt: p.now().UTC()}
	value, err := json.Marshal(msg)
	if err != nil {
		return social.Post{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.ID), Value: value, Time: msg.CreatedAt}); err != nil {
		return social.Post{}, fmt.Errorf("write post %s to kafka: %w", msg.ID, err)
	}
	p.logger.Debug(ctx, "post queued", logger.String("id", msg.ID))
	return social.Post{ID: msg.ID, Text: text, CreatedAt: msg.CreatedAt}, nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
