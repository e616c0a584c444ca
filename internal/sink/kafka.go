package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"

	"github.com/bittrance/vector/internal/codec"
	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/internal/partition"
	"github.com/bittrance/vector/pkg/event"
	"github.com/bittrance/vector/pkg/sink"
)

// Ensure implementation satisfies interface at compile time.
var _ sink.Sink = (*KafkaSink)(nil)

// KafkaConfig configures a KafkaSink.
type KafkaConfig struct {
	// Topic is a partition template such as "logs-{{service}}".
	Topic string
	// KeyField names the event field used as the message key. Empty
	// means no key.
	KeyField string
	Encoding codec.Encoding
}

// KafkaSink produces one message per event to a topic resolved from the
// event.
type KafkaSink struct {
	base
	producer sarama.SyncProducer
	topic    partition.Spec
	keyField string
	encoding codec.Encoding
	mu       sync.RWMutex
	closed   bool
}

// NewKafkaSink creates a kafka sink producing through producer. The sink
// owns the producer and closes it on Close.
func NewKafkaSink(cfg KafkaConfig, producer sarama.SyncProducer, logger *slog.Logger, metrics MetricsCollector) (*KafkaSink, error) {
	if cfg.Topic == "" {
		return nil, &errors.ConfigError{Component: "sink", Key: "kafka.topic", Err: fmt.Errorf("topic is required")}
	}

	s := &KafkaSink{
		base:     newBase(NameKafka, logger, metrics),
		producer: producer,
		topic:    partition.Compile(cfg.Topic),
		keyField: cfg.KeyField,
		encoding: cfg.Encoding,
	}
	s.logger.Info("kafka sink created",
		"topic", cfg.Topic,
		"key_field", cfg.KeyField,
		"encoding", cfg.Encoding.String(),
	)
	return s, nil
}

// Send produces e synchronously.
func (s *KafkaSink) Send(ctx context.Context, e *event.Log) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return errors.ErrSinkClosed
	}

	topic, ok := partition.Resolve(e, s.topic, s.logger)
	if !ok {
		s.dropped(DropMissingKey)
		return nil
	}

	value, err := codec.AsBytes(e, s.encoding)
	if err != nil {
		return s.encodeFailed(err)
	}

	msg := &sarama.ProducerMessage{
		Topic: string(topic),
		Value: sarama.ByteEncoder(value),
	}
	if s.keyField != "" {
		if key, ok := e.Get(s.keyField); ok {
			msg.Key = sarama.ByteEncoder(key.Bytes())
		}
	}
	if ts, ok := e.Get(event.TimestampKey); ok {
		if t, ok := ts.Timestamp(); ok {
			msg.Timestamp = t
		}
	}

	if _, _, err := s.producer.SendMessage(msg); err != nil {
		s.produced(msg.Topic, "failure")
		s.processed("failure")
		return fmt.Errorf("failed to produce to %s: %w", msg.Topic, err)
	}

	s.produced(msg.Topic, "success")
	s.processed("success")
	return nil
}

func (s *KafkaSink) produced(topic, status string) {
	if s.metrics != nil {
		s.metrics.IncMessagesProduced(topic, status)
	}
}

// FlushExpired is a no-op; messages are produced synchronously.
func (s *KafkaSink) FlushExpired(ctx context.Context) error {
	return nil
}

// Close closes the producer.
func (s *KafkaSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	s.logger.Info("kafka sink closed")
	return nil
}

// Name returns "kafka".
func (s *KafkaSink) Name() string {
	return s.name
}
