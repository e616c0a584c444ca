package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bittrance/vector/internal/codec"
	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/event"
	"github.com/bittrance/vector/pkg/sink"
)

// Ensure implementation satisfies interface at compile time.
var _ sink.Sink = (*ConsoleSink)(nil)

// ConsoleSink writes one encoded event per line to an io.Writer.
type ConsoleSink struct {
	base
	out      io.Writer
	encoding codec.Encoding
	mu       sync.Mutex
	closed   bool
}

// NewConsoleSink creates a console sink writing to out.
func NewConsoleSink(out io.Writer, encoding codec.Encoding, logger *slog.Logger, metrics MetricsCollector) *ConsoleSink {
	s := &ConsoleSink{
		base:     newBase(NameConsole, logger, metrics),
		out:      out,
		encoding: encoding,
	}
	s.logger.Info("console sink created", "encoding", encoding.String())
	return s
}

// Send writes e followed by a newline.
func (s *ConsoleSink) Send(ctx context.Context, e *event.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrSinkClosed
	}

	line, err := codec.AsBytesWithNewline(e, s.encoding)
	if err != nil {
		return s.encodeFailed(err)
	}

	if _, err := s.out.Write(line); err != nil {
		s.processed("failure")
		return fmt.Errorf("failed to write to console: %w", err)
	}

	s.processed("success")
	return nil
}

// FlushExpired is a no-op; lines are written immediately.
func (s *ConsoleSink) FlushExpired(ctx context.Context) error {
	return nil
}

// Close marks the sink closed. The writer is not closed.
func (s *ConsoleSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Name returns "console".
func (s *ConsoleSink) Name() string {
	return s.name
}
