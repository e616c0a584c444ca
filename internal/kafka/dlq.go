package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/bytedance/sonic"

	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/consumer"
	"github.com/bittrance/vector/pkg/event"
)

// Ensure implementation satisfies interface at compile time.
var _ consumer.DLQPublisher = (*DLQPublisher)(nil)

// DLQ failure reasons.
const (
	ReasonDecodeFailed  = "decode_failed"
	ReasonEncodeFailed  = "encode_failed"
	ReasonSinkFailed    = "sink_failed"
)

// DLQEvent is the envelope published to the dead letter queue. The
// original payload is kept byte for byte and serialised as base64.
type DLQEvent struct {
	OriginalPayload   []byte            `json:"original_payload"`
	OriginalKey       []byte            `json:"original_key,omitempty"`
	OriginalHeaders   map[string]string `json:"original_headers,omitempty"`
	OriginalTopic     string            `json:"original_topic"`
	OriginalPartition int32             `json:"original_partition"`
	OriginalOffset    int64             `json:"original_offset"`
	FailureReason     string            `json:"failure_reason"`
	FailureTimestamp  time.Time         `json:"failure_timestamp"`
	ProcessorID       string            `json:"processor_id"`
}

// DLQConfig contains DLQ configuration.
type DLQConfig struct {
	Enabled bool
	// Topic, when set, receives every failure. Otherwise the DLQ topic is
	// the source topic plus TopicSuffix.
	Topic       string
	TopicSuffix string
}

// DLQMetricsCollector defines metrics operations for the DLQ publisher.
type DLQMetricsCollector interface {
	IncDLQPublished(reason string, status string)
}

// DLQPublisher publishes failed messages to a dead letter queue.
type DLQPublisher struct {
	producer    sarama.SyncProducer
	config      DLQConfig
	processorID string
	logger      *slog.Logger
	metrics     DLQMetricsCollector
	mu          sync.RWMutex
	closed      bool
}

// NewDLQPublisher creates a DLQ publisher on producer. A disabled
// publisher accepts and discards every message; producer may then be nil.
func NewDLQPublisher(
	producer sarama.SyncProducer,
	config DLQConfig,
	processorID string,
	logger *slog.Logger,
	metrics DLQMetricsCollector,
) (*DLQPublisher, error) {
	if config.Enabled {
		if producer == nil {
			return nil, fmt.Errorf("dlq producer is required when the dlq is enabled")
		}
		if config.Topic == "" && config.TopicSuffix == "" {
			return nil, fmt.Errorf("dlq topic or topic suffix is required")
		}
		logger.Info("DLQ publisher created",
			"topic", config.Topic,
			"topic_suffix", config.TopicSuffix,
		)
	} else {
		logger.Info("DLQ is disabled")
	}

	return &DLQPublisher{
		producer:    producer,
		config:      config,
		processorID: processorID,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// topicFor returns the DLQ topic for a message consumed from source.
func (p *DLQPublisher) topicFor(source string) string {
	if p.config.Topic != "" {
		return p.config.Topic
	}
	return source + p.config.TopicSuffix
}

// Publish sends payload and its failure reason to the DLQ.
func (p *DLQPublisher) Publish(
	ctx context.Context,
	payload []byte,
	metadata event.KafkaMetadata,
	reason string,
) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return errors.ErrSinkClosed
	}
	if !p.config.Enabled {
		p.logger.Debug("DLQ disabled, skipping publish", "reason", reason)
		return nil
	}

	dlqTopic := p.topicFor(metadata.Topic)

	data, err := sonic.ConfigStd.Marshal(DLQEvent{
		OriginalPayload:   payload,
		OriginalKey:       metadata.Key,
		OriginalHeaders:   metadata.Headers,
		OriginalTopic:     metadata.Topic,
		OriginalPartition: metadata.Partition,
		OriginalOffset:    metadata.Offset,
		FailureReason:     reason,
		FailureTimestamp:  time.Now().UTC(),
		ProcessorID:       p.processorID,
	})
	if err != nil {
		p.record(reason, "failure")
		return fmt.Errorf("failed to marshal DLQ event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: dlqTopic,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("failure_reason"), Value: []byte(reason)},
			{Key: []byte("original_topic"), Value: []byte(metadata.Topic)},
			{Key: []byte("processor_id"), Value: []byte(p.processorID)},
		},
		Timestamp: time.Now(),
	}
	if metadata.Key != nil {
		msg.Key = sarama.ByteEncoder(metadata.Key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.record(reason, "failure")
		p.logger.Error("failed to publish to DLQ",
			"error", err,
			"dlq_topic", dlqTopic,
			"original_offset", metadata.Offset,
		)
		return fmt.Errorf("failed to send message to DLQ: %w", err)
	}

	p.record(reason, "success")
	p.logger.Info("published message to DLQ",
		"dlq_topic", dlqTopic,
		"partition", partition,
		"offset", offset,
		"original_topic", metadata.Topic,
		"original_offset", metadata.Offset,
		"reason", reason,
	)
	return nil
}

func (p *DLQPublisher) record(reason, status string) {
	if p.metrics != nil {
		p.metrics.IncDLQPublished(reason, status)
	}
}

// Close closes the DLQ publisher and its producer.
func (p *DLQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	if p.producer != nil {
		if err := p.producer.Close(); err != nil {
			p.logger.Error("error closing DLQ producer", "error", err)
			return err
		}
	}

	p.logger.Info("DLQ publisher closed")
	return nil
}
