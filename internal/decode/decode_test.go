package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/event"
)

var brokerTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func metadata() event.KafkaMetadata {
	return event.KafkaMetadata{
		Topic:     "logs",
		Partition: 1,
		Offset:    42,
		Key:       []byte("web-1"),
		Timestamp: brokerTime,
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		decoding string
		want     string
		wantErr  bool
	}{
		{"", DecodingRaw, false},
		{"raw", DecodingRaw, false},
		{"bytes", DecodingRaw, false},
		{"JSON", DecodingJSON, false},
		{"cloudevents", DecodingCloudEvents, false},
		{"avro", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.decoding, func(t *testing.T) {
			d, err := New(Config{Decoding: tt.decoding})
			if tt.wantErr {
				var cfgErr *apperrors.ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, "decoding", cfgErr.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestRawDecoder(t *testing.T) {
	payload := []byte("plain line")
	d, err := New(Config{})
	require.NoError(t, err)

	log, err := d.Decode(payload, metadata())
	require.NoError(t, err)

	msg, ok := log.Get(event.MessageKey)
	require.True(t, ok)
	assert.Equal(t, "plain line", msg.String())
	assert.False(t, log.IsStructured())

	ts, ok := log.Get(event.TimestampKey)
	require.True(t, ok)
	got, _ := ts.Timestamp()
	assert.Equal(t, brokerTime, got)
	assert.False(t, log.IsExplicit(event.TimestampKey))

	payload[0] = 'X'
	assert.Equal(t, "plain line", msg.String(), "payload must be copied")
}

func TestRawDecoder_KeyField(t *testing.T) {
	d, err := New(Config{KeyField: "kafka_key"})
	require.NoError(t, err)

	log, err := d.Decode([]byte("x"), metadata())
	require.NoError(t, err)

	key, ok := log.Get("kafka_key")
	require.True(t, ok)
	assert.Equal(t, "web-1", key.String())
	assert.False(t, log.IsStructured(), "key field is implicit")

	md := metadata()
	md.Key = nil
	log, err = d.Decode([]byte("x"), md)
	require.NoError(t, err)
	_, ok = log.Get("kafka_key")
	assert.False(t, ok)
}

func TestAnnotate_ZeroBrokerTimestamp(t *testing.T) {
	log := event.NewMessage([]byte("x"))
	before := time.Now()

	annotate(log, event.KafkaMetadata{}, "")

	ts, ok := log.Get(event.TimestampKey)
	require.True(t, ok)
	got, _ := ts.Timestamp()
	assert.False(t, got.Before(before.Add(-time.Second)))
}
