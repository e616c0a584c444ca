package event

import (
	"fmt"
	"sort"
	"time"
)

// Reserved field names.
const (
	// MessageKey holds the raw message of an event.
	MessageKey = "message"
	// TimestampKey holds the time the event was observed by the source.
	TimestampKey = "timestamp"
)

// Field is a single key/value pair of an event.
type Field struct {
	Key   string
	Value Value
}

// Event is the field-level view of a log event used by transforms and sinks.
type Event interface {
	// Get returns the value stored under key.
	Get(key string) (Value, bool)

	// Insert stores value under key as an explicit field.
	Insert(key string, value Value)

	// AllFields returns every field ordered by key.
	AllFields() []Field

	// IsStructured reports whether the event carries any explicit field
	// other than the message.
	IsStructured() bool
}

// Ensure implementation satisfies interface at compile time.
var _ Event = (*Log)(nil)

type entry struct {
	value    Value
	explicit bool
}

// Log is a log event: a mapping from field names to values.
// Fields set by a source are implicit; fields set by decoders or
// transforms are explicit. A Log is not safe for concurrent mutation.
type Log struct {
	fields map[string]entry
}

// NewLog creates an empty log event.
func NewLog() *Log {
	return &Log{fields: make(map[string]entry)}
}

// NewMessage creates a log event whose only field is an implicit message.
func NewMessage(message []byte) *Log {
	l := NewLog()
	l.InsertImplicit(MessageKey, NewBytes(message))
	return l
}

// Get returns the value stored under key.
func (l *Log) Get(key string) (Value, bool) {
	e, ok := l.fields[key]
	return e.value, ok
}

// Insert stores value under key as an explicit field, replacing any
// existing value.
func (l *Log) Insert(key string, value Value) {
	l.fields[key] = entry{value: value, explicit: true}
}

// InsertImplicit stores value under key as an implicit field.
func (l *Log) InsertImplicit(key string, value Value) {
	l.fields[key] = entry{value: value}
}

// Remove deletes the field stored under key.
func (l *Log) Remove(key string) {
	delete(l.fields, key)
}

// IsExplicit reports whether key exists and was inserted explicitly.
func (l *Log) IsExplicit(key string) bool {
	return l.fields[key].explicit
}

// Len returns the number of fields.
func (l *Log) Len() int {
	return len(l.fields)
}

// Keys returns the field names in ascending order.
func (l *Log) Keys() []string {
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AllFields returns every field ordered by key.
func (l *Log) AllFields() []Field {
	keys := l.Keys()
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: l.fields[k].value})
	}
	return fields
}

// IsStructured reports whether the event carries any explicit field other
// than the message.
func (l *Log) IsStructured() bool {
	for k, e := range l.fields {
		if e.explicit && k != MessageKey {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the event.
func (l *Log) Clone() *Log {
	c := &Log{fields: make(map[string]entry, len(l.fields))}
	for k, e := range l.fields {
		c.fields[k] = entry{value: e.value.Clone(), explicit: e.explicit}
	}
	return c
}

// KafkaMetadata contains Kafka-specific metadata for an event.
type KafkaMetadata struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Headers   map[string]string
	Timestamp time.Time
}

// PartitionID uniquely identifies a Kafka partition.
type PartitionID struct {
	Topic     string
	Partition int32
}

// String returns a string representation of the partition ID in the format "topic-partition".
func (p PartitionID) String() string {
	return fmt.Sprintf("%s-%d", p.Topic, p.Partition)
}

// ConsumedEvent is a raw message consumed from Kafka, not yet decoded.
type ConsumedEvent struct {
	Payload    []byte
	Metadata   KafkaMetadata
	CommitFunc func() error
}

// PartitionID returns the partition the message was consumed from.
func (c *ConsumedEvent) PartitionID() PartitionID {
	return PartitionID{Topic: c.Metadata.Topic, Partition: c.Metadata.Partition}
}

// BatchStats contains statistics about buffered, encoded events.
type BatchStats struct {
	RecordCount    int
	SizeBytes      int64
	FirstWriteTime time.Time
	LastWriteTime  time.Time
}
