package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"

	"github.com/SAP-F-2025/clinic-service/internal/config"
)

// KafkaPublisher publishes events through watermill, guarded by a circuit breaker
type KafkaPublisher struct {
	publisher   message.Publisher
	topicPrefix string
	cb          *gobreaker.CircuitBreaker
	logger      *slog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	pub, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return NewWatermillPublisher(pub, cfg.TopicPrefix, logger), nil
}

// NewWatermillPublisher wraps any watermill publisher
func NewWatermillPublisher(pub message.Publisher, topicPrefix string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		publisher:   pub,
		topicPrefix: topicPrefix,
		cb:          config.NewCircuitBreaker("Kafka-Publisher"),
		logger:      logger,
	}
}

func (p *KafkaPublisher) Topic(name string) string {
	if p.topicPrefix == "" {
		return name
	}
	return p.topicPrefix + "." + name
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.SetContext(ctx)

	fullTopic := p.Topic(topic)
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.publisher.Publish(fullTopic, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Type, fullTopic, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type, "topic", fullTopic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// LogPublisher is used when no broker is configured
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	p.logger.InfoContext(ctx, "Event dropped, no broker configured", "event_type", event.Type, "topic", topic, "event_id", event.ID)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
