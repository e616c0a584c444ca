package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Consumer metrics
	MessagesConsumed   *prometheus.CounterVec
	OffsetCommits      *prometheus.CounterVec
	Rebalances         *prometheus.CounterVec
	RebalanceDuration  *prometheus.HistogramVec
	PartitionsAssigned *prometheus.GaugeVec
	CommitLatency      *prometheus.HistogramVec

	// Pipeline metrics
	EventsProcessed    *prometheus.CounterVec
	EventsDropped      *prometheus.CounterVec
	DecodeFailures     *prometheus.CounterVec
	EncodeFailures     *prometheus.CounterVec
	CoercionFailures   *prometheus.CounterVec
	DLQPublished       *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec

	// Buffer metrics
	BufferedBytes *prometheus.GaugeVec
	OpenBuffers   *prometheus.GaugeVec

	// Storage metrics
	ObjectsWritten       *prometheus.CounterVec
	ObjectSize           *prometheus.HistogramVec
	StorageWriteDuration *prometheus.HistogramVec
	StorageErrors        *prometheus.CounterVec

	// Kafka sink metrics
	MessagesProduced *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		// Consumer metrics
		MessagesConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_messages_consumed_total",
				Help: "Total number of messages consumed from Kafka",
			},
			[]string{"topic", "partition"},
		),
		OffsetCommits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_offset_commit_total",
				Help: "Total number of offset commits",
			},
			[]string{"topic", "partition", "status"},
		),
		Rebalances: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_rebalance_total",
				Help: "Total number of consumer group rebalances",
			},
			[]string{"group"},
		),
		RebalanceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafka_rebalance_duration_seconds",
				Help:    "Duration of consumer group sessions between rebalances",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"group"},
		),
		PartitionsAssigned: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kafka_partitions_assigned",
				Help: "Number of partitions currently assigned to this consumer",
			},
			[]string{"topic"},
		),
		CommitLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kafka_commit_latency_seconds",
				Help:    "Latency of offset commit operations",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"topic", "partition"},
		),

		// Pipeline metrics
		EventsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_processed_total",
				Help: "Total number of events handed to a sink",
			},
			[]string{"sink", "status"},
		),
		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_dropped_total",
				Help: "Total number of events dropped before reaching a destination",
			},
			[]string{"sink", "reason"},
		),
		DecodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decode_failures_total",
				Help: "Total number of consumed messages that could not be decoded",
			},
			[]string{"decoding"},
		),
		EncodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "encode_failures_total",
				Help: "Total number of events that could not be encoded",
			},
			[]string{"sink", "encoding"},
		),
		CoercionFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coercion_failures_total",
				Help: "Total number of field values left unconverted by the coercer",
			},
			[]string{"field"},
		),
		DLQPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dlq_published_total",
				Help: "Total number of messages published to the dead letter queue",
			},
			[]string{"reason", "status"},
		),
		ProcessingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "processing_duration_seconds",
				Help:    "Duration of event processing stages",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		// Buffer metrics
		BufferedBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buffer_size_bytes",
				Help: "Bytes currently buffered across all partition keys",
			},
			[]string{"sink"},
		),
		OpenBuffers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "buffer_open_count",
				Help: "Number of partition keys with an open buffer",
			},
			[]string{"sink"},
		),

		// Storage metrics
		ObjectsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "objects_written_total",
				Help: "Total number of objects written to storage",
			},
			[]string{"backend", "status"},
		),
		ObjectSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "object_size_bytes",
				Help:    "Size of objects written to storage",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to 256MB
			},
			[]string{"backend"},
		),
		StorageWriteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storage_write_duration_seconds",
				Help:    "Duration of object writes",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		StorageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"backend", "error_type"},
		),

		// Kafka sink metrics
		MessagesProduced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_messages_produced_total",
				Help: "Total number of messages produced by the kafka sink",
			},
			[]string{"topic", "status"},
		),
	}
}

// IncMessagesConsumed increments messages consumed counter.
func (m *Metrics) IncMessagesConsumed(topic string, partition int32) {
	m.MessagesConsumed.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Inc()
}

// IncRebalances increments rebalances counter.
func (m *Metrics) IncRebalances(groupID string) {
	m.Rebalances.WithLabelValues(groupID).Inc()
}

// IncOffsetCommits increments offset commits counter.
func (m *Metrics) IncOffsetCommits(topic string, partition int32, status string) {
	m.OffsetCommits.WithLabelValues(topic, fmt.Sprintf("%d", partition), status).Inc()
}

// ObserveRebalanceDuration observes rebalance duration.
func (m *Metrics) ObserveRebalanceDuration(groupID string, duration float64) {
	m.RebalanceDuration.WithLabelValues(groupID).Observe(duration)
}

// ObserveCommitLatency observes commit latency.
func (m *Metrics) ObserveCommitLatency(topic string, partition int32, duration float64) {
	m.CommitLatency.WithLabelValues(topic, fmt.Sprintf("%d", partition)).Observe(duration)
}

// SetPartitionsAssigned sets partitions assigned gauge.
func (m *Metrics) SetPartitionsAssigned(topic string, count float64) {
	m.PartitionsAssigned.WithLabelValues(topic).Set(count)
}

// IncEventsProcessed increments events processed counter.
func (m *Metrics) IncEventsProcessed(sink string, status string) {
	m.EventsProcessed.WithLabelValues(sink, status).Inc()
}

// IncEventsDropped increments events dropped counter.
func (m *Metrics) IncEventsDropped(sink string, reason string) {
	m.EventsDropped.WithLabelValues(sink, reason).Inc()
}

// IncDecodeFailures increments decode failures counter.
func (m *Metrics) IncDecodeFailures(decoding string) {
	m.DecodeFailures.WithLabelValues(decoding).Inc()
}

// IncEncodeFailures increments encode failures counter.
func (m *Metrics) IncEncodeFailures(sink string, encoding string) {
	m.EncodeFailures.WithLabelValues(sink, encoding).Inc()
}

// IncCoercionFailures increments coercion failures counter.
func (m *Metrics) IncCoercionFailures(field string) {
	m.CoercionFailures.WithLabelValues(field).Inc()
}

// IncDLQPublished increments DLQ published counter.
func (m *Metrics) IncDLQPublished(reason string, status string) {
	m.DLQPublished.WithLabelValues(reason, status).Inc()
}

// ObserveProcessingDuration observes the duration of a processing stage.
func (m *Metrics) ObserveProcessingDuration(stage string, duration float64) {
	m.ProcessingDuration.WithLabelValues(stage).Observe(duration)
}

// SetBufferedBytes sets the buffered bytes gauge.
func (m *Metrics) SetBufferedBytes(sink string, size float64) {
	m.BufferedBytes.WithLabelValues(sink).Set(size)
}

// SetOpenBuffers sets the open buffers gauge.
func (m *Metrics) SetOpenBuffers(sink string, count float64) {
	m.OpenBuffers.WithLabelValues(sink).Set(count)
}

// IncObjectsWritten increments objects written counter.
func (m *Metrics) IncObjectsWritten(backend string, status string) {
	m.ObjectsWritten.WithLabelValues(backend, status).Inc()
}

// ObserveObjectSize observes object size.
func (m *Metrics) ObserveObjectSize(backend string, size float64) {
	m.ObjectSize.WithLabelValues(backend).Observe(size)
}

// ObserveStorageWriteDuration observes storage write duration.
func (m *Metrics) ObserveStorageWriteDuration(backend string, duration float64) {
	m.StorageWriteDuration.WithLabelValues(backend).Observe(duration)
}

// IncStorageErrors increments storage errors counter.
func (m *Metrics) IncStorageErrors(backend string, operation string) {
	m.StorageErrors.WithLabelValues(backend, operation).Inc()
}

// IncMessagesProduced increments messages produced counter.
func (m *Metrics) IncMessagesProduced(topic string, status string) {
	m.MessagesProduced.WithLabelValues(topic, status).Inc()
}
