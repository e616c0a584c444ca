package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bittrance/vector/internal/buffer"
	"github.com/bittrance/vector/internal/codec"
	"github.com/bittrance/vector/internal/config/dto"
	"github.com/bittrance/vector/internal/kafka"
	"github.com/bittrance/vector/internal/observability"
	"github.com/bittrance/vector/internal/sink"
	"github.com/bittrance/vector/internal/storage"
	pkgsink "github.com/bittrance/vector/pkg/sink"
	pkgstorage "github.com/bittrance/vector/pkg/storage"
)

// newSink builds the configured sink. The config has been validated by
// the loader.
func newSink(
	ctx context.Context,
	cfg *dto.ApplicationConfig,
	security kafka.SecurityConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (pkgsink.Sink, error) {
	encoding, err := codec.ParseEncoding(cfg.Sink.Encoding)
	if err != nil {
		return nil, err
	}

	switch cfg.Sink.Type {
	case sink.NameConsole:
		return sink.NewConsoleSink(os.Stdout, encoding, logger, metrics), nil

	case sink.NameKafka:
		producer, err := kafka.NewSyncProducer(kafka.ProducerConfig{
			BootstrapServers: cfg.Kafka.BootstrapServers,
			Security:         security,
			Compression:      cfg.Sink.Kafka.Compression,
			RequiredAcks:     cfg.Sink.Kafka.Acks,
			MaxRetries:       cfg.Sink.Kafka.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka sink producer: %w", err)
		}
		snk, err := sink.NewKafkaSink(sink.KafkaConfig{
			Topic:    cfg.Sink.Kafka.Topic,
			KeyField: cfg.Sink.Kafka.KeyField,
			Encoding: encoding,
		}, producer, logger, metrics)
		if err != nil {
			_ = producer.Close()
			return nil, err
		}
		return snk, nil

	case sink.NameObject:
		writer, err := newWriter(ctx, cfg.Sink, logger, metrics)
		if err != nil {
			return nil, err
		}

		policy, err := storage.NewPolicy(storage.PolicyConfig{
			MaxObjectSizeBytes: cfg.Sink.Batch.MaxObjectBytes,
			MaxLinesPerObject:  cfg.Sink.Batch.MaxLinesPerObject,
			MaxAge:             cfg.Sink.Batch.MaxAge(),
			Strategy:           storage.RotationStrategy(cfg.Sink.Batch.Strategy),
		})
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("failed to create rotation policy: %w", err)
		}

		buffers := buffer.NewManager(cfg.Sink.Batch.BufferMaxBytes, cfg.Sink.Batch.BufferMaxLines)

		snk, err := sink.NewObjectSink(sink.ObjectConfig{
			KeyPrefix:   cfg.Sink.KeyPrefix,
			Encoding:    encoding,
			Compression: cfg.Sink.Compression,
		}, writer, policy, buffers, logger, metrics)
		if err != nil {
			_ = writer.Close()
			return nil, err
		}
		return snk, nil

	default:
		return nil, fmt.Errorf("unsupported sink type: %s", cfg.Sink.Type)
	}
}

// newWriter creates the storage writer for the object sink backend.
func newWriter(
	ctx context.Context,
	cfg dto.SinkConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (pkgstorage.Writer, error) {
	switch cfg.Backend {
	case "file":
		writer, err := storage.NewFileWriter(storage.FileConfig{BasePath: cfg.File.BasePath}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create filesystem writer: %w", err)
		}
		return writer, nil
	case "s3":
		writer, err := storage.NewS3Writer(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			UsePathStyle:    cfg.S3.UsePathStyle,
			SSEEnabled:      cfg.S3.SSEEnabled,
			SSEKMSKeyID:     cfg.S3.SSEKMSKeyID,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 writer: %w", err)
		}
		return writer, nil
	case "gcs":
		writer, err := storage.NewGCSWriter(ctx, storage.GCSConfig{
			Bucket:               cfg.GCS.Bucket,
			ProjectID:            cfg.GCS.ProjectID,
			CredentialsFile:      cfg.GCS.CredentialsFile,
			CredentialsJSON:      cfg.GCS.CredentialsJSON,
			Endpoint:             cfg.GCS.Endpoint,
			UseDefaultCredential: cfg.GCS.UseDefaultCredential,
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCS writer: %w", err)
		}
		return writer, nil
	case "azure":
		writer, err := storage.NewAzureWriter(storage.AzureConfig{
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ContainerName:    cfg.Azure.Container,
			Endpoint:         cfg.Azure.Endpoint,
			ConnectionString: cfg.Azure.ConnectionString,
		}, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Blob writer: %w", err)
		}
		return writer, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (supported: file, s3, gcs, azure)", cfg.Backend)
	}
}
