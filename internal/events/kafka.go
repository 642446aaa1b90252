package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic to publish activity events to.
	Topic string
	// BatchSize is the maximum number of messages batched before sending.
	BatchSize int
	// BatchTimeout is the maximum time a batch waits to fill before sending.
	BatchTimeout time.Duration
}

// KafkaPublisher writes activity events to a Kafka topic. Writes are
// asynchronous; delivery failures are logged via the writer's completion
// callback and never surface to the producing request.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(cfg Config, logger zerolog.Logger) *KafkaPublisher {
	log := logger.With().Str("component", "kafka_publisher").Logger()

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error().Err(err).
					Int("messages", len(messages)).
					Msg("failed to deliver activity events")
			}
		},
	}

	return &KafkaPublisher{
		writer: writer,
		logger: log,
	}
}

// Publish enqueues an event keyed by user ID so a user's events stay ordered
// within a partition. Errors are logged, never returned.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).
			Str("type", event.Type).
			Msg("failed to marshal activity event")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error().Err(err).
			Str("type", event.Type).
			Str("user_id", event.UserID).
			Msg("failed to enqueue activity event")
	}
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
