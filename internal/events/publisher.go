package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/name-similarity-service/internal/observability"
)

// Publisher publishes domain events.
type Publisher interface {
	Publish(ctx context.Context, params EmitParams) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// WriterConfig holds configuration for the Kafka writer.
type WriterConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the topic events are written to.
	Topic string
	// BatchSize is the maximum number of messages per batch.
	BatchSize int
	// BatchTimeout is the maximum time a partial batch waits before flushing.
	BatchTimeout time.Duration
	// Async makes writes fire-and-forget; delivery errors are only logged.
	Async bool
}

// KafkaPublisher emits events and writes them to a Kafka topic keyed by
// request ID.
type KafkaPublisher struct {
	emitter *Emitter
	writer  MessageWriter
	metrics *observability.Metrics
}

// NewKafkaPublisher creates a publisher backed by a kafka-go Writer.
// metrics may be nil.
func NewKafkaPublisher(cfg WriterConfig, emitter *Emitter, metrics *observability.Metrics, logger zerolog.Logger) *KafkaPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	log := logger.With().Str("component", "event_publisher").Logger()
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		Async:                  cfg.Async,
		AllowAutoTopicCreation: false,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error().Err(err).Int("messages", len(messages)).Msg("async event delivery failed")
			}
		},
	}

	return NewPublisherWithWriter(writer, emitter, metrics)
}

// NewPublisherWithWriter creates a KafkaPublisher around an existing writer.
func NewPublisherWithWriter(writer MessageWriter, emitter *Emitter, metrics *observability.Metrics) *KafkaPublisher {
	if emitter == nil {
		emitter = NewEmitter(EmitterConfig{})
	}
	return &KafkaPublisher{
		emitter: emitter,
		writer:  writer,
		metrics: metrics,
	}
}

// Publish emits an event from params and writes it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, params EmitParams) error {
	event, err := p.emitter.Emit(params)
	if err != nil {
		p.recordFailed(params.EventType)
		return fmt.Errorf("emit event: %w", err)
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.recordFailed(params.EventType)
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
		Time: event.CreatedAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.recordFailed(params.EventType)
		return fmt.Errorf("write event: %w", err)
	}

	if p.metrics != nil {
		p.metrics.RecordEventPublished(params.EventType)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) recordFailed(eventType string) {
	if p.metrics != nil {
		p.metrics.RecordEventFailed(eventType)
	}
}

// NoopPublisher discards events.
type NoopPublisher struct{}

// NewNoopPublisher creates a NoopPublisher.
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, EmitParams) error {
	return nil
}

// Close does nothing.
func (NoopPublisher) Close() error {
	return nil
}
