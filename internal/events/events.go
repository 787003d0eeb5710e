package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ppiankov/sourcebrief/internal/model"
)

// TypeBriefCreated is the event type emitted after a brief is stored
const TypeBriefCreated = "brief.created"

// BriefCreated is the payload announced for each new brief
type BriefCreated struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	URLs      []string  `json:"urls"`
	Summary   string    `json:"summary"`
	TopicTags []string  `json:"topic_tags"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher announces brief lifecycle events
type Publisher interface {
	BriefCreated(ctx context.Context, brief model.ResearchBrief) error
	Close() error
}

// New returns a Kafka publisher, or a no-op one when no brokers are configured
func New(cfg model.EventsConfig) Publisher {
	if len(cfg.Brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// Nop discards events
type Nop struct{}

func (Nop) BriefCreated(context.Context, model.ResearchBrief) error { return nil }

func (Nop) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by brief id
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			AllowAutoTopicCreation: true,
			Balancer:               &kafka.LeastBytes{},
			WriteTimeout:           10 * time.Second,
		},
	}
}

func (p *KafkaPublisher) BriefCreated(ctx context.Context, brief model.ResearchBrief) error {
	payload, err := json.Marshal(BriefCreated{
		Type:      TypeBriefCreated,
		ID:        brief.ID,
		URLs:      brief.URLs,
		Summary:   brief.Summary,
		TopicTags: brief.TopicTags,
		CreatedAt: brief.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(brief.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeBriefCreated)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", TypeBriefCreated, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
