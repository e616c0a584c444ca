// Package sink implements the event destinations: console, object storage
// and kafka.
//
// Every sink encodes each event exactly once through the codec package.
// Partitioned sinks compile their key template once at construction and
// resolve it per event; an event missing the template field is dropped
// and counted, not returned as an error.
package sink

import (
	"errors"
	"log/slog"

	apperrors "github.com/bittrance/vector/internal/errors"
)

// Sink names used in logs and metrics.
const (
	NameConsole = "console"
	NameObject  = "object"
	NameKafka   = "kafka"
)

// Drop reasons.
const (
	DropMissingKey = "missing_partition_key"
)

// MetricsCollector defines metrics operations for sinks.
type MetricsCollector interface {
	IncEventsProcessed(sink string, status string)
	IncEventsDropped(sink string, reason string)
	IncEncodeFailures(sink string, encoding string)
	SetBufferedBytes(sink string, size float64)
	SetOpenBuffers(sink string, count float64)
	IncMessagesProduced(topic string, status string)
}

// base carries what every sink shares.
type base struct {
	name    string
	logger  *slog.Logger
	metrics MetricsCollector
}

func newBase(name string, logger *slog.Logger, metrics MetricsCollector) base {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return base{name: name, logger: logger.With("sink", name), metrics: metrics}
}

func (b base) processed(status string) {
	if b.metrics != nil {
		b.metrics.IncEventsProcessed(b.name, status)
	}
}

func (b base) dropped(reason string) {
	if b.metrics != nil {
		b.metrics.IncEventsDropped(b.name, reason)
	}
	b.processed("dropped")
}

// encodeFailed counts err when it is an encode error and returns it.
func (b base) encodeFailed(err error) error {
	var encErr *apperrors.EncodeError
	if errors.As(err, &encErr) && b.metrics != nil {
		b.metrics.IncEncodeFailures(b.name, encErr.Encoding)
	}
	b.processed("failure")
	return err
}
