package dto

import (
	"fmt"
	"time"
)

// ApplicationConfig is the root configuration structure
type ApplicationConfig struct {
	Application   ApplicationInfo     `mapstructure:"application"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Source        SourceConfig        `mapstructure:"source"`
	Transforms    TransformsConfig    `mapstructure:"transforms"`
	Sink          SinkConfig          `mapstructure:"sink"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Shutdown      ShutdownConfig      `mapstructure:"shutdown"`
}

// ApplicationInfo contains application metadata
type ApplicationInfo struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// KafkaConfig contains Kafka-related configuration
type KafkaConfig struct {
	BootstrapServers      []string       `mapstructure:"bootstrap_servers"`
	SecurityProtocol      string         `mapstructure:"security_protocol"`
	SASLMechanism         string         `mapstructure:"sasl_mechanism"`
	SASLUsername          string         `mapstructure:"sasl_username"`
	SASLPassword          string         `mapstructure:"sasl_password"`
	MSKRegion             string         `mapstructure:"msk_region"`
	TLSInsecureSkipVerify bool           `mapstructure:"tls_insecure_skip_verify"`
	Consumer              ConsumerConfig `mapstructure:"consumer"`
	DLQ                   DLQConfig      `mapstructure:"dlq"`
}

// ConsumerConfig contains Kafka consumer configuration
type ConsumerConfig struct {
	GroupID             string   `mapstructure:"group_id"`
	Topics              []string `mapstructure:"topics"`
	AutoOffsetReset     string   `mapstructure:"auto_offset_reset"`
	EnableAutoCommit    bool     `mapstructure:"enable_auto_commit"`
	MaxPollIntervalMS   int      `mapstructure:"max_poll_interval_ms"`
	SessionTimeoutMS    int      `mapstructure:"session_timeout_ms"`
	HeartbeatIntervalMS int      `mapstructure:"heartbeat_interval_ms"`
	ChannelBufferSize   int      `mapstructure:"channel_buffer_size"`
}

// DLQConfig contains dead letter queue configuration
type DLQConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Topic       string `mapstructure:"topic"`
	TopicSuffix string `mapstructure:"topic_suffix"`
}

// SourceConfig controls how consumed payloads become log events
type SourceConfig struct {
	Decoding string `mapstructure:"decoding"`
	KeyField string `mapstructure:"key_field"`
}

// TransformsConfig lists the transforms applied between source and sink
type TransformsConfig struct {
	Coercer CoercerConfig `mapstructure:"coercer"`
}

// CoercerConfig maps field names to conversion type names. The loader
// decodes Types outside viper so field names keep their case and dots.
type CoercerConfig struct {
	Types map[string]string `mapstructure:"types"`
}

// SinkConfig contains the destination configuration
type SinkConfig struct {
	Type     string `mapstructure:"type"`
	Encoding string `mapstructure:"encoding"`

	// Object sink settings
	KeyPrefix   string      `mapstructure:"key_prefix"`
	Compression string      `mapstructure:"compression"`
	Backend     string      `mapstructure:"backend"`
	Batch       BatchConfig `mapstructure:"batch"`
	File        FileConfig  `mapstructure:"file"`
	S3          S3Config    `mapstructure:"s3"`
	GCS         GCSConfig   `mapstructure:"gcs"`
	Azure       AzureConfig `mapstructure:"azure"`

	Kafka KafkaSinkConfig `mapstructure:"kafka"`
}

// BatchConfig contains buffering and rotation settings for the object sink
type BatchConfig struct {
	BufferMaxBytes       int64  `mapstructure:"buffer_max_bytes"`
	BufferMaxLines       int    `mapstructure:"buffer_max_lines"`
	MaxObjectBytes       int64  `mapstructure:"max_object_bytes"`
	MaxLinesPerObject    int    `mapstructure:"max_lines_per_object"`
	MaxAgeSeconds        int    `mapstructure:"max_age_seconds"`
	Strategy             string `mapstructure:"strategy"`
	FlushIntervalSeconds int    `mapstructure:"flush_interval_seconds"`
}

// FileConfig contains local filesystem configuration
type FileConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// S3Config contains AWS S3 configuration
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	SSEEnabled      bool   `mapstructure:"sse_enabled"`
	SSEKMSKeyID     string `mapstructure:"sse_kms_key_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// GCSConfig contains Google Cloud Storage configuration
type GCSConfig struct {
	Bucket               string `mapstructure:"bucket"`
	ProjectID            string `mapstructure:"project_id"`
	CredentialsFile      string `mapstructure:"credentials_file"`
	CredentialsJSON      string `mapstructure:"credentials_json"`
	Endpoint             string `mapstructure:"endpoint"`
	UseDefaultCredential bool   `mapstructure:"use_default_credential"`
}

// AzureConfig contains Azure Blob Storage configuration
type AzureConfig struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Container        string `mapstructure:"container"`
	Endpoint         string `mapstructure:"endpoint"`
	ConnectionString string `mapstructure:"connection_string"`
}

// KafkaSinkConfig contains the Kafka sink configuration
type KafkaSinkConfig struct {
	Topic       string `mapstructure:"topic"`
	KeyField    string `mapstructure:"key_field"`
	Compression string `mapstructure:"compression"`
	Acks        string `mapstructure:"acks"`
	MaxRetries  int    `mapstructure:"max_retries"`
}

// ObservabilityConfig contains observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Health  HealthConfig  `mapstructure:"health"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig contains metrics settings
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HealthConfig contains health check settings
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// ShutdownConfig contains shutdown settings
type ShutdownConfig struct {
	GracePeriodSeconds int `mapstructure:"grace_period_seconds"`
}

// GracePeriod returns the shutdown grace period as a duration.
func (c ShutdownConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}

// MaxAge returns the object age limit as a duration.
func (c BatchConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeSeconds) * time.Second
}

// FlushInterval returns how often expired batches are checked.
func (c BatchConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalSeconds) * time.Second
}

// Validate validates S3 configuration.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("sink.s3.bucket is required for s3 backend")
	}
	if c.Region == "" {
		return fmt.Errorf("sink.s3.region is required for s3 backend")
	}
	return nil
}

// Validate validates GCS configuration.
func (c *GCSConfig) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("sink.gcs.bucket is required for gcs backend")
	}
	return nil
}

// Validate validates Azure configuration.
func (c *AzureConfig) Validate() error {
	if c.Container == "" {
		return fmt.Errorf("sink.azure.container is required for azure backend")
	}
	if c.ConnectionString == "" && c.AccountName == "" {
		return fmt.Errorf("sink.azure.account_name or connection_string is required for azure backend")
	}
	return nil
}

// Validate validates file configuration.
func (c *FileConfig) Validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("sink.file.base_path is required for file backend")
	}
	return nil
}
