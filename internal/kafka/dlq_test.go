package kafka

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/event"
)

func dlqMetadata() event.KafkaMetadata {
	return event.KafkaMetadata{Topic: "logs", Partition: 3, Offset: 99, Key: []byte("key-1")}
}

func TestNewDLQPublisher_Validation(t *testing.T) {
	_, err := NewDLQPublisher(nil, DLQConfig{Enabled: true, TopicSuffix: ".dlq"}, "p", testLogger(), nil)
	assert.Error(t, err)

	producer := mocks.NewSyncProducer(t, nil)
	_, err = NewDLQPublisher(producer, DLQConfig{Enabled: true}, "p", testLogger(), nil)
	assert.Error(t, err)
	require.NoError(t, producer.Close())

	p, err := NewDLQPublisher(nil, DLQConfig{}, "p", testLogger(), nil)
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), []byte("x"), dlqMetadata(), ReasonDecodeFailed))
	assert.NoError(t, p.Close())
}

func TestDLQPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "logs.dlq", msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "key-1", string(key))

		value, err := msg.Value.Encode()
		require.NoError(t, err)
		doc := gjson.ParseBytes(value)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("{bad json")), doc.Get("original_payload").String())
		assert.Equal(t, "logs", doc.Get("original_topic").String())
		assert.Equal(t, int64(3), doc.Get("original_partition").Int())
		assert.Equal(t, int64(99), doc.Get("original_offset").Int())
		assert.Equal(t, ReasonDecodeFailed, doc.Get("failure_reason").String())
		assert.Equal(t, "vector-test", doc.Get("processor_id").String())
		return nil
	})

	metrics := newMockMetrics()
	p, err := NewDLQPublisher(producer, DLQConfig{Enabled: true, TopicSuffix: ".dlq"}, "vector-test", testLogger(), metrics)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), []byte("{bad json"), dlqMetadata(), ReasonDecodeFailed))
	assert.Equal(t, 1, metrics.dlq[ReasonDecodeFailed+"/success"])
	require.NoError(t, p.Close())
}

func TestDLQPublisher_FixedTopic(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, "all-failures", msg.Topic)
		return nil
	})

	p, err := NewDLQPublisher(producer, DLQConfig{Enabled: true, Topic: "all-failures", TopicSuffix: ".dlq"}, "p", testLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), []byte("x"), dlqMetadata(), ReasonEncodeFailed))
	require.NoError(t, p.Close())
}

func TestDLQPublisher_PublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	metrics := newMockMetrics()
	p, err := NewDLQPublisher(producer, DLQConfig{Enabled: true, TopicSuffix: ".dlq"}, "p", testLogger(), metrics)
	require.NoError(t, err)

	err = p.Publish(context.Background(), []byte("x"), dlqMetadata(), ReasonEncodeFailed)
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	assert.Equal(t, 1, metrics.dlq[ReasonEncodeFailed+"/failure"])
	require.NoError(t, p.Close())
}

func TestDLQPublisher_Closed(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	p, err := NewDLQPublisher(producer, DLQConfig{Enabled: true, TopicSuffix: ".dlq"}, "p", testLogger(), nil)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	err = p.Publish(context.Background(), []byte("x"), dlqMetadata(), ReasonDecodeFailed)
	assert.ErrorIs(t, err, apperrors.ErrSinkClosed)
}
