package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/vperelman/dealflow/internal/config"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
)

const (
	eventSource   = "dealflow"
	schemaVersion = "1"
)

// writerInterface abstracts kafka.Writer for tests.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes EventEnvelope messages, keyed by aggregate id so one
// deal's events stay ordered within a partition.
type Producer struct {
	writer      writerInterface
	topicPrefix string
	logger      logging.Logger
}

// NewProducer builds a Producer over the configured brokers.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Validation("at least one kafka broker is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  cfg.ProducerRetries + 1,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Async:        false,
	}

	return &Producer{
		writer:      writer,
		topicPrefix: cfg.TopicPrefix,
		logger:      log,
	}, nil
}

// NewProducerWithWriter wires an existing writer.  For tests.
func NewProducerWithWriter(w writerInterface, topicPrefix string, log logging.Logger) *Producer {
	return &Producer{writer: w, topicPrefix: topicPrefix, logger: log}
}

// Publish wraps payload in an EventEnvelope and writes it to the topic,
// keyed by key.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}

	envelope := EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     topic,
		Source:        eventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       body,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}

	msg := kafka.Message{
		Topic: p.fullTopic(topic),
		Key:   []byte(key),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to publish event").
			WithDetail(topic)
	}
	return nil
}

// PublishAsync publishes in a goroutine and logs failures instead of
// returning them.  Mutation paths use it so event delivery never blocks or
// fails the operation.
func (p *Producer) PublishAsync(topic, key string, payload interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Publish(ctx, topic, key, payload); err != nil {
			p.logger.Warn("async event publish failed",
				logging.String("topic", topic),
				logging.String("key", key),
				logging.Err(err),
			)
		}
	}()
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func (p *Producer) fullTopic(topic string) string {
	if p.topicPrefix == "" {
		return topic
	}
	return p.topicPrefix + "." + topic
}
