// Package config loads the pipeline configuration from a YAML file and
// APP_-prefixed environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/bittrance/vector/internal/codec"
	"github.com/bittrance/vector/internal/config/dto"
	"github.com/bittrance/vector/internal/conversion"
	"github.com/bittrance/vector/internal/decode"
	"github.com/bittrance/vector/internal/sink"
	"github.com/bittrance/vector/internal/storage"
)

// Loader handles configuration loading and validation
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load loads configuration from file and environment variables. A missing
// file is not an error; defaults and the environment still apply.
func (l *Loader) Load(path string) (*dto.ApplicationConfig, error) {
	l.setDefaults()

	var coercerTypes map[string]string
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			rest, types, err := extractCoercerTypes(raw)
			if err != nil {
				return nil, err
			}
			if err := l.v.ReadConfig(bytes.NewReader(rest)); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			coercerTypes = types
		}
	}

	// Only expand values containing ${...}
	for _, key := range l.v.AllKeys() {
		value := l.v.GetString(key)
		if strings.Contains(value, "${") {
			l.v.Set(key, os.ExpandEnv(value))
		}
	}

	var config dto.ApplicationConfig
	if err := l.v.UnmarshalExact(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if coercerTypes != nil {
		config.Transforms.Coercer.Types = coercerTypes
	}

	if err := l.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func (l *Loader) setDefaults() {
	// Application defaults
	l.v.SetDefault("application.name", "vector")
	l.v.SetDefault("application.version", "1.0.0")
	l.v.SetDefault("application.environment", "development")

	// Kafka defaults
	l.v.SetDefault("kafka.security_protocol", "PLAINTEXT")
	l.v.SetDefault("kafka.sasl_mechanism", "PLAIN")
	l.v.SetDefault("kafka.tls_insecure_skip_verify", false)
	l.v.SetDefault("kafka.consumer.auto_offset_reset", "earliest")
	l.v.SetDefault("kafka.consumer.enable_auto_commit", false)
	l.v.SetDefault("kafka.consumer.max_poll_interval_ms", 300000)
	l.v.SetDefault("kafka.consumer.session_timeout_ms", 30000)
	l.v.SetDefault("kafka.consumer.heartbeat_interval_ms", 10000)
	l.v.SetDefault("kafka.consumer.channel_buffer_size", 256)
	l.v.SetDefault("kafka.dlq.enabled", false)
	l.v.SetDefault("kafka.dlq.topic_suffix", "-dlq")

	// Source defaults
	l.v.SetDefault("source.decoding", decode.DecodingRaw)

	// Sink defaults
	l.v.SetDefault("sink.type", sink.NameConsole)
	l.v.SetDefault("sink.encoding", "")
	l.v.SetDefault("sink.compression", sink.CompressionNone)
	l.v.SetDefault("sink.backend", "file")
	l.v.SetDefault("sink.s3.use_path_style", false)
	l.v.SetDefault("sink.s3.sse_enabled", true)
	l.v.SetDefault("sink.gcs.use_default_credential", true)
	l.v.SetDefault("sink.kafka.compression", "snappy")
	l.v.SetDefault("sink.kafka.acks", "all")
	l.v.SetDefault("sink.kafka.max_retries", 5)

	// Batch defaults
	l.v.SetDefault("sink.batch.buffer_max_bytes", 64*1024*1024)
	l.v.SetDefault("sink.batch.buffer_max_lines", 100000)
	l.v.SetDefault("sink.batch.max_object_bytes", 10*1024*1024)
	l.v.SetDefault("sink.batch.max_lines_per_object", 100000)
	l.v.SetDefault("sink.batch.max_age_seconds", 300)
	l.v.SetDefault("sink.batch.strategy", string(storage.StrategyAny))
	l.v.SetDefault("sink.batch.flush_interval_seconds", 10)

	// Observability defaults
	l.v.SetDefault("observability.logging.level", "info")
	l.v.SetDefault("observability.logging.format", "json")
	l.v.SetDefault("observability.logging.output", "stdout")
	l.v.SetDefault("observability.metrics.enabled", true)
	l.v.SetDefault("observability.metrics.port", 9090)
	l.v.SetDefault("observability.health.port", 8080)

	// Shutdown defaults
	l.v.SetDefault("shutdown.grace_period_seconds", 30)
}

// Validate validates the configuration
func (l *Loader) Validate(config *dto.ApplicationConfig) error {
	// Kafka validation
	if len(config.Kafka.BootstrapServers) == 0 {
		return errors.New("kafka.bootstrap_servers is required")
	}
	if len(config.Kafka.Consumer.Topics) == 0 {
		return errors.New("kafka.consumer.topics is required")
	}
	if config.Kafka.Consumer.GroupID == "" {
		return errors.New("kafka.consumer.group_id is required")
	}
	if config.Kafka.DLQ.Enabled && config.Kafka.DLQ.Topic == "" && config.Kafka.DLQ.TopicSuffix == "" {
		return errors.New("kafka.dlq.topic or kafka.dlq.topic_suffix is required when the dlq is enabled")
	}

	// Source and transforms
	if _, err := decode.New(decode.Config{Decoding: config.Source.Decoding}); err != nil {
		return err
	}
	if _, err := conversion.ParseMap(config.Transforms.Coercer.Types); err != nil {
		return err
	}

	if err := validateSink(&config.Sink); err != nil {
		return err
	}

	// Port validation
	if config.Observability.Metrics.Enabled {
		if config.Observability.Metrics.Port < 1 || config.Observability.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", config.Observability.Metrics.Port)
		}
	}
	if config.Observability.Health.Port < 1 || config.Observability.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", config.Observability.Health.Port)
	}

	return nil
}

func validateSink(cfg *dto.SinkConfig) error {
	if _, err := codec.ParseEncoding(cfg.Encoding); err != nil {
		return err
	}

	switch cfg.Type {
	case sink.NameConsole:
		return nil
	case sink.NameKafka:
		if cfg.Kafka.Topic == "" {
			return errors.New("sink.kafka.topic is required for kafka sink")
		}
		return nil
	case sink.NameObject:
		return validateObjectSink(cfg)
	default:
		return fmt.Errorf("unsupported sink type: %s (supported: console, object, kafka)", cfg.Type)
	}
}

func validateObjectSink(cfg *dto.SinkConfig) error {
	if cfg.KeyPrefix == "" {
		return errors.New("sink.key_prefix is required for object sink")
	}
	if cfg.Compression != sink.CompressionNone && cfg.Compression != sink.CompressionGzip {
		return fmt.Errorf("unsupported sink compression: %s", cfg.Compression)
	}

	strategy := storage.RotationStrategy(cfg.Batch.Strategy)
	if strategy != storage.StrategyAny && strategy != storage.StrategyAll {
		return fmt.Errorf("unsupported rotation strategy: %s", cfg.Batch.Strategy)
	}
	if cfg.Batch.FlushIntervalSeconds < 1 {
		return fmt.Errorf("invalid flush interval: %d", cfg.Batch.FlushIntervalSeconds)
	}

	switch cfg.Backend {
	case "file":
		return cfg.File.Validate()
	case "s3":
		return cfg.S3.Validate()
	case "gcs":
		return cfg.GCS.Validate()
	case "azure":
		return cfg.Azure.Validate()
	default:
		return fmt.Errorf("unsupported storage backend: %s (supported: file, s3, gcs, azure)", cfg.Backend)
	}
}
