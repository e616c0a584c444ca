package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bittrance/vector/internal/coercer"
	"github.com/bittrance/vector/internal/config"
	"github.com/bittrance/vector/internal/config/dto"
	"github.com/bittrance/vector/internal/decode"
	"github.com/bittrance/vector/internal/kafka"
	"github.com/bittrance/vector/internal/observability"
	"github.com/bittrance/vector/internal/pipeline"
	"github.com/bittrance/vector/internal/server"
	"github.com/bittrance/vector/pkg/transform"
)

// Components tracked by the readiness probe.
const (
	componentConsumer = "consumer"
	componentSink     = "sink"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	// Priority: CLI flag > CONFIG_PATH env var > default path
	var cfgPath string
	if *configPath != "" {
		cfgPath = *configPath
	} else if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		cfgPath = envPath
	} else {
		cfgPath = "config/application.yaml"
	}

	cfg, err := config.NewLoader().Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
		Output: cfg.Observability.Logging.Output,
	})
	logger.Info("starting log pipeline",
		"version", cfg.Application.Version,
		"environment", cfg.Application.Environment,
		"decoding", cfg.Source.Decoding,
		"sink", cfg.Sink.Type,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	// Cleanup functions run in reverse registration order.
	var cleanupFuncs []func() error
	addCleanup := func(name string, fn func() error) {
		cleanupFuncs = append(cleanupFuncs, func() error {
			if err := fn(); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
		logger.Debug("registered cleanup", "component", name)
	}
	defer func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			if err := cleanupFuncs[i](); err != nil {
				logger.Error("cleanup failed", "error", err)
			}
		}
	}()

	status := server.NewStatusChecker(componentConsumer, componentSink)

	var metricsRegistry *prometheus.Registry
	if cfg.Observability.Metrics.Enabled {
		metricsRegistry = registry
	}
	httpServer := server.NewServer(
		cfg.Observability.Health.Port,
		cfg.Observability.Metrics.Port,
		status,
		metricsRegistry,
		logger,
	)
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	addCleanup("http-server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})

	dec, err := decode.New(decode.Config{
		Decoding: cfg.Source.Decoding,
		KeyField: cfg.Source.KeyField,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	coerce, err := coercer.New(coercer.Config{Types: cfg.Transforms.Coercer.Types}, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create coercer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	security := securityConfig(cfg.Kafka)

	snk, err := newSink(ctx, cfg, security, logger, metrics)
	if err != nil {
		return err
	}
	status.SetReady(componentSink, true)

	dlq, err := newDLQPublisher(cfg, security, logger, metrics)
	if err != nil {
		_ = snk.Close(ctx)
		return err
	}

	proc, err := pipeline.New(
		pipeline.Config{FlushInterval: cfg.Sink.Batch.FlushInterval()},
		dec,
		[]transform.Transformer{coerce},
		snk,
		dlq,
		logger,
		metrics,
	)
	if err != nil {
		_ = snk.Close(ctx)
		_ = dlq.Close()
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	consumer, err := kafka.NewSaramaConsumer(kafka.ConsumerConfig{
		BootstrapServers:    cfg.Kafka.BootstrapServers,
		GroupID:             cfg.Kafka.Consumer.GroupID,
		Security:            security,
		AutoOffsetReset:     cfg.Kafka.Consumer.AutoOffsetReset,
		EnableAutoCommit:    cfg.Kafka.Consumer.EnableAutoCommit,
		MaxPollIntervalMS:   cfg.Kafka.Consumer.MaxPollIntervalMS,
		SessionTimeoutMS:    cfg.Kafka.Consumer.SessionTimeoutMS,
		HeartbeatIntervalMS: cfg.Kafka.Consumer.HeartbeatIntervalMS,
		ChannelBufferSize:   cfg.Kafka.Consumer.ChannelBufferSize,
	}, logger, metrics)
	if err != nil {
		_ = proc.Close(ctx)
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	// The pipeline cleanup runs before the consumer's, so batches are
	// written before the group commits the offsets marked for them.
	addCleanup("kafka-consumer", consumer.Close)
	addCleanup("pipeline", func() error {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Shutdown.GracePeriod())
		defer shutdownCancel()
		return proc.Close(shutdownCtx)
	})

	if err := consumer.Subscribe(ctx, cfg.Kafka.Consumer.Topics); err != nil {
		return fmt.Errorf("failed to subscribe to topics: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Consume blocks until the group session is up; a signal must still
	// be able to abort it.
	go func() {
		select {
		case <-sigChan:
			logger.Info("received termination signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	eventChan, errorChan, err := consumer.Consume(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("stopped before the consumer became ready")
			return nil
		}
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	status.SetReady(componentConsumer, true)
	logger.Info("application started successfully", "topics", cfg.Kafka.Consumer.Topics)

	runErr := proc.Run(ctx, eventChan, errorChan)

	logger.Info("initiating graceful shutdown")
	status.SetReady(componentConsumer, false)
	cancel()

	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
		return runErr
	}
	logger.Info("application stopped successfully")
	return nil
}

func securityConfig(cfg dto.KafkaConfig) kafka.SecurityConfig {
	return kafka.SecurityConfig{
		Protocol:              cfg.SecurityProtocol,
		SASLMechanism:         cfg.SASLMechanism,
		SASLUsername:          cfg.SASLUsername,
		SASLPassword:          cfg.SASLPassword,
		MSKRegion:             cfg.MSKRegion,
		TLSInsecureSkipVerify: cfg.TLSInsecureSkipVerify,
	}
}

func newDLQPublisher(
	cfg *dto.ApplicationConfig,
	security kafka.SecurityConfig,
	logger *slog.Logger,
	metrics *observability.Metrics,
) (*kafka.DLQPublisher, error) {
	dlqConfig := kafka.DLQConfig{
		Enabled:     cfg.Kafka.DLQ.Enabled,
		Topic:       cfg.Kafka.DLQ.Topic,
		TopicSuffix: cfg.Kafka.DLQ.TopicSuffix,
	}
	if !dlqConfig.Enabled {
		return kafka.NewDLQPublisher(nil, dlqConfig, cfg.Application.Name, logger, metrics)
	}

	producer, err := kafka.NewSyncProducer(kafka.ProducerConfig{
		BootstrapServers: cfg.Kafka.BootstrapServers,
		Security:         security,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}

	publisher, err := kafka.NewDLQPublisher(producer, dlqConfig, cfg.Application.Name, logger, metrics)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create DLQ publisher: %w", err)
	}
	return publisher, nil
}
