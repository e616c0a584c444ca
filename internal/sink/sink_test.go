package sink

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittrance/vector/internal/codec"
	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/event"
)

type mockMetricsCollector struct {
	mu            sync.Mutex
	processed     map[string]int
	dropped       map[string]int
	encodeFails   map[string]int
	produced      map[string]int
	bufferedBytes float64
	openBuffers   float64
}

func newMockMetrics() *mockMetricsCollector {
	return &mockMetricsCollector{
		processed:   make(map[string]int),
		dropped:     make(map[string]int),
		encodeFails: make(map[string]int),
		produced:    make(map[string]int),
	}
}

func (m *mockMetricsCollector) IncEventsProcessed(sink string, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[sink+"/"+status]++
}

func (m *mockMetricsCollector) IncEventsDropped(sink string, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[sink+"/"+reason]++
}

func (m *mockMetricsCollector) IncEncodeFailures(sink string, encoding string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encodeFails[sink+"/"+encoding]++
}

func (m *mockMetricsCollector) SetBufferedBytes(sink string, size float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bufferedBytes = size
}

func (m *mockMetricsCollector) SetOpenBuffers(sink string, count float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openBuffers = count
}

func (m *mockMetricsCollector) IncMessagesProduced(topic string, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.produced[topic+"/"+status]++
}

func message(msg string, fields map[string]string) *event.Log {
	log := event.NewMessage([]byte(msg))
	for k, v := range fields {
		log.Insert(k, event.NewString(v))
	}
	return log
}

func TestConsoleSink_Send(t *testing.T) {
	tests := []struct {
		name     string
		encoding codec.Encoding
		event    *event.Log
		want     string
	}{
		{"unset raw", codec.EncodingUnset, message("hello", nil), "hello\n"},
		{"unset structured", codec.EncodingUnset, message("hello", map[string]string{"host": "a"}), `{"host":"a","message":"hello"}` + "\n"},
		{"text structured", codec.EncodingText, message("hello", map[string]string{"host": "a"}), "hello\n"},
		{"json raw", codec.EncodingJSON, message("hello", nil), `{"message":"hello"}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			metrics := newMockMetrics()
			s := NewConsoleSink(&out, tt.encoding, nil, metrics)

			require.NoError(t, s.Send(context.Background(), tt.event))
			assert.Equal(t, tt.want, out.String())
			assert.Equal(t, 1, metrics.processed["console/success"])
		})
	}
}

func TestConsoleSink_EncodeFailure(t *testing.T) {
	var out strings.Builder
	metrics := newMockMetrics()
	s := NewConsoleSink(&out, codec.Encoding("xml"), nil, metrics)

	err := s.Send(context.Background(), message("x", nil))

	var encErr *apperrors.EncodeError
	require.ErrorAs(t, err, &encErr)
	assert.Empty(t, out.String())
	assert.Equal(t, 1, metrics.encodeFails["console/xml"])
	assert.Equal(t, 1, metrics.processed["console/failure"])
}

func TestConsoleSink_Closed(t *testing.T) {
	var out strings.Builder
	s := NewConsoleSink(&out, codec.EncodingUnset, nil, nil)

	require.NoError(t, s.FlushExpired(context.Background()))
	require.NoError(t, s.Close(context.Background()))

	err := s.Send(context.Background(), message("x", nil))
	assert.ErrorIs(t, err, apperrors.ErrSinkClosed)
	assert.Equal(t, NameConsole, s.Name())
}
