package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	require.NotNil(t, metrics)

	// Registering twice on the same registry must panic on duplicate names.
	assert.Panics(t, func() { NewMetrics(registry) })
}

func TestMetrics_ConsumerCounters(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.IncMessagesConsumed("logs", 0)
	metrics.IncMessagesConsumed("logs", 0)
	metrics.IncMessagesConsumed("logs", 1)
	metrics.IncOffsetCommits("logs", 0, "success")
	metrics.IncRebalances("group-a")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.MessagesConsumed.WithLabelValues("logs", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesConsumed.WithLabelValues("logs", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OffsetCommits.WithLabelValues("logs", "0", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rebalances.WithLabelValues("group-a")))
}

func TestMetrics_PipelineCounters(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.IncEventsProcessed("object", "success")
	metrics.IncEventsDropped("object", "missing_partition_key")
	metrics.IncEventsDropped("object", "missing_partition_key")
	metrics.IncDecodeFailures("json")
	metrics.IncEncodeFailures("console", "json")
	metrics.IncCoercionFailures("number")
	metrics.IncDLQPublished("encode_failed", "success")
	metrics.IncMessagesProduced("out", "failure")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues("object", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.EventsDropped.WithLabelValues("object", "missing_partition_key")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DecodeFailures.WithLabelValues("json")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EncodeFailures.WithLabelValues("console", "json")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CoercionFailures.WithLabelValues("number")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DLQPublished.WithLabelValues("encode_failed", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MessagesProduced.WithLabelValues("out", "failure")))
}

func TestMetrics_Gauges(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.SetPartitionsAssigned("logs", 3)
	metrics.SetBufferedBytes("object", 2048)
	metrics.SetOpenBuffers("object", 4)
	metrics.SetOpenBuffers("object", 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.PartitionsAssigned.WithLabelValues("logs")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(metrics.BufferedBytes.WithLabelValues("object")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.OpenBuffers.WithLabelValues("object")))
}

func TestMetrics_StorageMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.IncObjectsWritten("s3", "success")
	metrics.IncStorageErrors("s3", "upload")
	metrics.ObserveObjectSize("s3", 4096)
	metrics.ObserveStorageWriteDuration("s3", 0.25)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ObjectsWritten.WithLabelValues("s3", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StorageErrors.WithLabelValues("s3", "upload")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.ObjectSize))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.StorageWriteDuration))
}

func TestMetrics_Histograms(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ObserveCommitLatency("logs", 0, 0.01)
	metrics.ObserveRebalanceDuration("group-a", 1.5)
	metrics.ObserveProcessingDuration("transform", 0.001)
	metrics.ObserveProcessingDuration("sink", 0.002)

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.CommitLatency))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.RebalanceDuration))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.ProcessingDuration))
}
