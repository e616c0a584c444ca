// Package pipeline drives consumed Kafka messages through decoding, the
// configured transforms and a sink, dead-lettering what cannot be delivered.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/internal/kafka"
	"github.com/bittrance/vector/pkg/consumer"
	"github.com/bittrance/vector/pkg/decoder"
	"github.com/bittrance/vector/pkg/event"
	"github.com/bittrance/vector/pkg/sink"
	"github.com/bittrance/vector/pkg/transform"
)

// Processing stages reported to ObserveProcessingDuration.
const (
	StageProcess = "process"
	StageFlush   = "flush"
)

const defaultFlushInterval = 10 * time.Second

// MetricsCollector defines metrics operations for the pipeline.
type MetricsCollector interface {
	IncDecodeFailures(decoding string)
	ObserveProcessingDuration(stage string, duration float64)
}

// Config contains pipeline settings.
type Config struct {
	// FlushInterval is how often the sink is asked to write out expired
	// batches. Zero means ten seconds.
	FlushInterval time.Duration
}

// Pipeline moves events from a consumer to a sink. Events are handled one
// at a time in arrival order.
type Pipeline struct {
	decoder       decoder.Decoder
	transforms    []transform.Transformer
	sink          sink.Sink
	dlq           consumer.DLQPublisher
	flushInterval time.Duration
	logger        *slog.Logger
	metrics       MetricsCollector
}

// New creates a pipeline. dlq may be nil, in which case failed messages
// are logged and skipped.
func New(
	cfg Config,
	dec decoder.Decoder,
	transforms []transform.Transformer,
	snk sink.Sink,
	dlq consumer.DLQPublisher,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*Pipeline, error) {
	if dec == nil {
		return nil, fmt.Errorf("pipeline decoder is required")
	}
	if snk == nil {
		return nil, fmt.Errorf("pipeline sink is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}

	return &Pipeline{
		decoder:       dec,
		transforms:    transforms,
		sink:          snk,
		dlq:           dlq,
		flushInterval: interval,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Run processes events until ctx is cancelled or events is closed. Consumer
// errors are logged. Expired batches are flushed every FlushInterval.
func (p *Pipeline) Run(ctx context.Context, events <-chan *event.ConsumedEvent, errs <-chan error) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("context cancelled, stopping processing")
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("consumer error", "error", err)
		case <-ticker.C:
			p.flushExpired(ctx)
		case consumed, ok := <-events:
			if !ok {
				p.logger.Info("event channel closed")
				return nil
			}
			p.Process(ctx, consumed)
		}
	}
}

// Process handles a single consumed message and commits its offset. The
// offset is committed even when the message is dead-lettered so that a
// poison message cannot stall its partition.
func (p *Pipeline) Process(ctx context.Context, consumed *event.ConsumedEvent) {
	start := time.Now()
	md := consumed.Metadata

	log, err := p.decoder.Decode(consumed.Payload, md)
	if err != nil {
		if p.metrics != nil {
			p.metrics.IncDecodeFailures(p.decoder.Name())
		}
		p.logger.Warn("failed to decode message",
			"topic", md.Topic,
			"partition", md.Partition,
			"offset", md.Offset,
			"error", err,
		)
		p.deadLetter(ctx, consumed, kafka.ReasonDecodeFailed)
		p.commit(consumed)
		return
	}

	for _, t := range p.transforms {
		log = t.Transform(log)
	}

	if err := p.sink.Send(ctx, log); err != nil {
		reason := kafka.ReasonSinkFailed
		var encErr *apperrors.EncodeError
		if errors.As(err, &encErr) {
			reason = kafka.ReasonEncodeFailed
		}
		p.logger.Error("failed to send event",
			"sink", p.sink.Name(),
			"topic", md.Topic,
			"partition", md.Partition,
			"offset", md.Offset,
			"reason", reason,
			"error", err,
		)
		p.deadLetter(ctx, consumed, reason)
	}

	p.commit(consumed)
	p.observe(StageProcess, start)
}

// Close flushes and closes the sink, then the DLQ publisher.
func (p *Pipeline) Close(ctx context.Context) error {
	var errs []error
	if err := p.sink.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sink: %w", err))
	}
	if p.dlq != nil {
		if err := p.dlq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close dlq publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) flushExpired(ctx context.Context) {
	start := time.Now()
	if err := p.sink.FlushExpired(ctx); err != nil {
		p.logger.Error("failed to flush expired batches", "sink", p.sink.Name(), "error", err)
	}
	p.observe(StageFlush, start)
}

func (p *Pipeline) deadLetter(ctx context.Context, consumed *event.ConsumedEvent, reason string) {
	if p.dlq == nil {
		return
	}
	if err := p.dlq.Publish(ctx, consumed.Payload, consumed.Metadata, reason); err != nil {
		p.logger.Error("failed to publish to DLQ",
			"topic", consumed.Metadata.Topic,
			"partition", consumed.Metadata.Partition,
			"offset", consumed.Metadata.Offset,
			"reason", reason,
			"error", err,
		)
	}
}

func (p *Pipeline) commit(consumed *event.ConsumedEvent) {
	if consumed.CommitFunc == nil {
		return
	}
	if err := consumed.CommitFunc(); err != nil {
		p.logger.Error("failed to commit offset",
			"topic", consumed.Metadata.Topic,
			"partition", consumed.Metadata.Partition,
			"offset", consumed.Metadata.Offset,
			"error", err,
		)
	}
}

func (p *Pipeline) observe(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveProcessingDuration(stage, time.Since(start).Seconds())
	}
}
