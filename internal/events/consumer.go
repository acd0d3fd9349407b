package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/name-similarity-service/internal/domain"
	"github.com/helixir/name-similarity-service/internal/observability"
)

// Consumption outcomes recorded by the Consumer.
const (
	OutcomeHandled   = "handled"
	OutcomeMalformed = "malformed"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

// Fetch retry delays. A broker outage makes FetchMessage fail immediately,
// so the consumer waits between attempts.
const (
	fetchRetryInitial = 100 * time.Millisecond
	fetchRetryMax     = 5 * time.Second
)

// Handler processes one score request.
type Handler func(ctx context.Context, req domain.ScoreRequest) error

// MessageReader is the subset of *kafka.Reader used by Consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReaderConfig holds configuration for the request consumer.
type ReaderConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the request topic.
	Topic string
	// GroupID is the consumer group ID.
	GroupID string
}

// Consumer reads score requests from Kafka and passes them to a Handler.
// Every message is committed after it is processed, including messages that
// cannot be decoded, so a poison message never blocks the partition.
type Consumer struct {
	reader  MessageReader
	handle  Handler
	metrics *observability.Metrics
	logger  zerolog.Logger

	fetchBackOff backoff.BackOff
}

// NewConsumer creates a consumer backed by a kafka-go Reader.
func NewConsumer(cfg ReaderConfig, handle Handler, metrics *observability.Metrics, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
	return NewConsumerWithReader(reader, handle, metrics, logger)
}

// NewConsumerWithReader creates a consumer around an existing reader.
func NewConsumerWithReader(reader MessageReader, handle Handler, metrics *observability.Metrics, logger zerolog.Logger) *Consumer {
	retry := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(fetchRetryInitial),
		backoff.WithMaxInterval(fetchRetryMax),
		backoff.WithMaxElapsedTime(0),
	)
	return &Consumer{
		reader:       reader,
		handle:       handle,
		metrics:      metrics,
		logger:       logger.With().Str("component", "request_consumer").Logger(),
		fetchBackOff: retry,
	}
}

// Run consumes messages until ctx is cancelled. It returns ctx.Err() on
// cancellation and closes the reader before returning.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Error().Err(err).Msg("failed to close kafka reader")
		}
	}()

	c.logger.Info().Msg("request consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info().Msg("request consumer stopped")
				return ctx.Err()
			}
			wait := c.fetchBackOff.NextBackOff()
			if wait == backoff.Stop {
				wait = fetchRetryMax
			}
			c.logger.Error().Err(err).Dur("retry_in", wait).Msg("failed to fetch message from kafka")
			if err := sleepContext(ctx, wait); err != nil {
				c.logger.Info().Msg("request consumer stopped")
				return err
			}
			continue
		}
		c.fetchBackOff.Reset()

		outcome := c.process(ctx, msg)
		c.record(outcome)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("failed to commit message")
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) string {
	log := c.logger.With().
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Logger()

	var req domain.ScoreRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		log.Error().Err(err).Int("bytes", len(msg.Value)).Msg("failed to unmarshal score request")
		return OutcomeMalformed
	}
	if req.RequestID == "" {
		req.RequestID = string(msg.Key)
	}
	if req.CorrelationID == "" {
		req.CorrelationID = headerValue(msg.Headers, "correlation_id")
	}

	if err := req.Validate(); err != nil {
		log.Warn().Err(err).Str("request_id", req.RequestID).Msg("rejected invalid score request")
		return OutcomeInvalid
	}

	ctx = observability.WithRequestContext(ctx, observability.RequestContext{
		RequestID:     req.RequestID,
		CorrelationID: req.CorrelationID,
		Source:        observability.SourceKafka,
	})
	log = observability.WithCorrelationContext(log, req.CorrelationID, observability.SourceKafka)
	ctx = log.WithContext(ctx)

	if err := c.handle(ctx, req); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidMode) {
			log.Warn().Err(err).Str("request_id", req.RequestID).Msg("rejected invalid score request")
			return OutcomeInvalid
		}
		log.Error().Err(err).Str("request_id", req.RequestID).Msg("failed to handle score request")
		return OutcomeFailed
	}
	return OutcomeHandled
}

func (c *Consumer) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordMessageConsumed(outcome)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
