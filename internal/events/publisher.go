// Package events publishes search lifecycle events to Kafka. Publishing is
// best-effort: a failed or disabled publisher never affects the search
// pipeline itself.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/alejandrosalgar/scrapper-tesoreria/internal/config"
	"github.com/alejandrosalgar/scrapper-tesoreria/internal/domain"
)

const (
	// EventTypeSearchCompleted is emitted when a search finishes with results persisted.
	EventTypeSearchCompleted = "search.completed"

	// EventTypeSearchFailed is emitted when a search ends in the failed state.
	EventTypeSearchFailed = "search.failed"
)

// SearchEvent is the payload written to the lifecycle topic.
type SearchEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	SearchID     string    `json:"search_id"`
	Query        string    `json:"query"`
	ResultsCount int       `json:"results_count"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher emits search lifecycle events.
type Publisher interface {
	PublishCompleted(ctx context.Context, record *domain.SearchRecord) error
	PublishFailed(ctx context.Context, record *domain.SearchRecord) error
	Close() error
}

// NopPublisher discards all events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishCompleted(context.Context, *domain.SearchRecord) error { return nil }
func (NopPublisher) PublishFailed(context.Context, *domain.SearchRecord) error    { return nil }
func (NopPublisher) Close() error                                                 { return nil }

// Compile-time interface verification.
var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)

// KafkaPublisher writes lifecycle events to a Kafka topic. Messages are
// keyed by search ID so events for one search stay in partition order.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher for the configured topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: cfg.BatchTimeout,
		},
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// NewPublisher returns a KafkaPublisher when Kafka is enabled, otherwise a
// NopPublisher.
func NewPublisher(cfg config.KafkaConfig, logger zerolog.Logger) Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(cfg, logger)
}

// PublishCompleted emits a search.completed event.
func (p *KafkaPublisher) PublishCompleted(ctx context.Context, record *domain.SearchRecord) error {
	return p.publish(ctx, EventTypeSearchCompleted, record)
}

// PublishFailed emits a search.failed event.
func (p *KafkaPublisher) PublishFailed(ctx context.Context, record *domain.SearchRecord) error {
	return p.publish(ctx, EventTypeSearchFailed, record)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, record *domain.SearchRecord) error {
	event := SearchEvent{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		SearchID:     record.SearchID.String(),
		Query:        record.OriginalQuery,
		ResultsCount: record.ResultsCount,
		Error:        record.Error,
		OccurredAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.SearchID),
		Value: payload,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("search_id", event.SearchID).
			Msg("Failed to publish lifecycle event")
		return fmt.Errorf("write event message: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("search_id", event.SearchID).
		Msg("Published lifecycle event")
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
