package kafka

import (
	"fmt"
	"strings"

	"github.com/IBM/sarama"
)

// ProducerConfig contains Kafka producer configuration.
type ProducerConfig struct {
	BootstrapServers []string
	Security         SecurityConfig
	// Compression is one of none, gzip, snappy, lz4 or zstd. Empty means snappy.
	Compression string
	// RequiredAcks is one of all, leader or none. Empty means all.
	RequiredAcks string
	MaxRetries   int
}

// newProducerConfig builds an idempotent, synchronous producer config.
func newProducerConfig(cfg ProducerConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_0_0
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	acks, err := requiredAcks(cfg.RequiredAcks)
	if err != nil {
		return nil, err
	}
	saramaConfig.Producer.RequiredAcks = acks

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 5
	}
	saramaConfig.Producer.Retry.Max = retries

	codec := strings.ToLower(cfg.Compression)
	if codec == "" {
		codec = "snappy"
	}
	if err := saramaConfig.Producer.Compression.UnmarshalText([]byte(codec)); err != nil {
		return nil, fmt.Errorf("invalid producer compression %q: %w", cfg.Compression, err)
	}

	// Idempotence needs acks=all and a single in-flight request.
	if acks == sarama.WaitForAll {
		saramaConfig.Producer.Idempotent = true
		saramaConfig.Net.MaxOpenRequests = 1
	}

	if err := configureSecurity(saramaConfig, cfg.Security); err != nil {
		return nil, fmt.Errorf("failed to configure security: %w", err)
	}

	return saramaConfig, nil
}

// NewSyncProducer creates a synchronous producer.
func NewSyncProducer(cfg ProducerConfig) (sarama.SyncProducer, error) {
	if len(cfg.BootstrapServers) == 0 {
		return nil, fmt.Errorf("bootstrap servers are required")
	}

	saramaConfig, err := newProducerConfig(cfg)
	if err != nil {
		return nil, err
	}

	producer, err := sarama.NewSyncProducer(cfg.BootstrapServers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}
	return producer, nil
}

func requiredAcks(acks string) (sarama.RequiredAcks, error) {
	switch strings.ToLower(acks) {
	case "", "all", "-1":
		return sarama.WaitForAll, nil
	case "leader", "1":
		return sarama.WaitForLocal, nil
	case "none", "0":
		return sarama.NoResponse, nil
	default:
		return 0, fmt.Errorf("invalid required acks %q (supported: all, leader, none)", acks)
	}
}
