package sink

import (
	"bytes"
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/oklog/ulid/v2"

	"github.com/bittrance/vector/internal/codec"
	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/internal/partition"
	"github.com/bittrance/vector/pkg/buffer"
	"github.com/bittrance/vector/pkg/event"
	"github.com/bittrance/vector/pkg/sink"
	"github.com/bittrance/vector/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ sink.Sink = (*ObjectSink)(nil)

// Compression values for object bodies.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
)

// ObjectConfig configures an ObjectSink.
type ObjectConfig struct {
	// KeyPrefix is a partition template such as "logs/{{host}}/". Each
	// object is named <resolved prefix><unix seconds>-<ulid>.log[.gz].
	KeyPrefix   string
	Encoding    codec.Encoding
	Compression string
}

// BufferManager is the subset of the buffer manager used by ObjectSink.
type BufferManager interface {
	buffer.Manager
	Len() int
	SizeBytes() int64
}

// ObjectSink batches encoded lines per resolved key prefix and writes
// each batch as one object when the rotation policy fires.
type ObjectSink struct {
	base
	writer      storage.Writer
	policy      storage.RotationPolicy
	buffers     BufferManager
	keyPrefix   partition.Spec
	encoding    codec.Encoding
	compression string
	now         func() time.Time
	entropy     *ulid.MonotonicEntropy
	mu          sync.Mutex
	closed      bool
}

// NewObjectSink creates an object sink writing through writer.
func NewObjectSink(
	cfg ObjectConfig,
	writer storage.Writer,
	policy storage.RotationPolicy,
	buffers BufferManager,
	logger *slog.Logger,
	metrics MetricsCollector,
) (*ObjectSink, error) {
	compression := cfg.Compression
	if compression == "" {
		compression = CompressionNone
	}
	if compression != CompressionNone && compression != CompressionGzip {
		return nil, &errors.ConfigError{
			Component: "sink",
			Key:       "compression",
			Err:       fmt.Errorf("unsupported compression %q (supported: none, gzip)", cfg.Compression),
		}
	}

	s := &ObjectSink{
		base:        newBase(NameObject, logger, metrics),
		writer:      writer,
		policy:      policy,
		buffers:     buffers,
		keyPrefix:   partition.Compile(cfg.KeyPrefix),
		encoding:    cfg.Encoding,
		compression: compression,
		now:         time.Now,
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}

	s.logger.Info("object sink created",
		"backend", writer.Backend(),
		"key_prefix", cfg.KeyPrefix,
		"encoding", cfg.Encoding.String(),
		"compression", compression,
	)
	return s, nil
}

// Send encodes e into the buffer for its resolved key prefix. A failed
// object write after buffering is logged and retried on the next flush;
// Send only fails when e itself could not be buffered.
func (s *ObjectSink) Send(ctx context.Context, e *event.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.ErrSinkClosed
	}

	prefix, ok := partition.Resolve(e, s.keyPrefix, s.logger)
	if !ok {
		s.dropped(DropMissingKey)
		return nil
	}

	line, err := codec.AsBytesWithNewline(e, s.encoding)
	if err != nil {
		return s.encodeFailed(err)
	}

	key := string(prefix)
	buf := s.buffers.GetOrCreate(key)
	if err := buf.Add(line); err != nil {
		if !stderrors.Is(err, errors.ErrBufferFull) {
			s.processed("failure")
			return err
		}
		// Make room by writing the full buffer out, then retry once.
		if err := s.flush(ctx, key, buf); err != nil {
			s.processed("failure")
			return err
		}
		buf = s.buffers.GetOrCreate(key)
		if err := buf.Add(line); err != nil {
			s.processed("failure")
			return err
		}
	}
	s.processed("success")

	if s.policy.ShouldRotate(buf.Stats()) {
		if err := s.flush(ctx, key, buf); err != nil {
			s.logger.Error("failed to write object, will retry", "key_prefix", key, "error", err)
		}
	}

	s.updateGauges()
	return nil
}

// FlushExpired writes every buffer whose rotation policy has fired.
func (s *ObjectSink) FlushExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, key := range s.buffers.Keys() {
		buf := s.buffers.GetOrCreate(key)
		if !s.policy.ShouldRotate(buf.Stats()) {
			continue
		}
		if err := s.flush(ctx, key, buf); err != nil {
			errs = append(errs, err)
		}
	}

	s.updateGauges()
	return stderrors.Join(errs...)
}

// Close writes every non-empty buffer and closes the storage writer.
func (s *ObjectSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, key := range s.buffers.Keys() {
		if err := s.flush(ctx, key, s.buffers.GetOrCreate(key)); err != nil {
			errs = append(errs, err)
		}
	}
	s.updateGauges()

	if err := s.writer.Close(); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("object sink closed")
	return stderrors.Join(errs...)
}

// Name returns "object".
func (s *ObjectSink) Name() string {
	return s.name
}

// flush writes buf as one object. On failure the lines are put back with
// their original write times so the next flush retries them.
func (s *ObjectSink) flush(ctx context.Context, prefix string, buf buffer.Buffer) error {
	if buf.IsEmpty() {
		s.buffers.Remove(prefix)
		return nil
	}

	stats := buf.Stats()
	lines := buf.Drain()
	body, err := s.body(lines)
	if err != nil {
		s.requeue(prefix, buf, lines, stats)
		return err
	}

	key := s.objectKey(prefix)
	n, err := s.writer.Put(ctx, key, body)
	if err != nil {
		s.requeue(prefix, buf, lines, stats)
		return err
	}

	s.buffers.Remove(prefix)
	s.logger.Info("wrote object",
		"key", key,
		"lines", len(lines),
		"bytes", n,
	)
	return nil
}

func (s *ObjectSink) requeue(prefix string, buf buffer.Buffer, lines [][]byte, stats event.BatchStats) {
	lost := len(lines) - buf.Restore(lines, stats)
	if lost == 0 {
		return
	}
	s.logger.Error("buffer full while requeueing lines, dropping",
		"key_prefix", prefix,
		"lines", lost,
	)
	if s.metrics != nil {
		for range lost {
			s.metrics.IncEventsDropped(s.name, "buffer_full")
		}
	}
}

func (s *ObjectSink) body(lines [][]byte) ([]byte, error) {
	joined := bytes.Join(lines, nil)
	if s.compression != CompressionGzip {
		return joined, nil
	}

	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(joined); err != nil {
		return nil, fmt.Errorf("failed to compress object: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress object: %w", err)
	}
	return out.Bytes(), nil
}

// objectKey names a new object under prefix. Names sort by creation time.
func (s *ObjectSink) objectKey(prefix string) string {
	now := s.now()
	id := ulid.MustNew(ulid.Timestamp(now), s.entropy)

	name := prefix + strconv.FormatInt(now.Unix(), 10) + "-" + id.String() + ".log"
	if s.compression == CompressionGzip {
		name += ".gz"
	}
	return name
}

func (s *ObjectSink) updateGauges() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetBufferedBytes(s.name, float64(s.buffers.SizeBytes()))
	s.metrics.SetOpenBuffers(s.name, float64(s.buffers.Len()))
}
