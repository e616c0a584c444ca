// Package event defines core event types and interfaces for log processing.
//
// # Core Types
//
// Log is the unit of data flowing through the pipeline: a mapping from field
// names to values with a reserved "message" field.
//
//	log := event.NewMessage([]byte("GET /index.html 200"))
//	log.Insert("status", event.NewInteger(200))
//
// Every field is either implicit (set by a source, such as "timestamp") or
// explicit (set by a decoder or a transform). A log is structured when it
// carries any explicit field besides the message:
//
//	log.IsStructured() // true, "status" is explicit
//
// # Values
//
// Value is a tagged scalar: bytes, integer, float, boolean or timestamp.
// Every value has a byte view and a lossy text view:
//
//	v := event.NewInteger(1234)
//	v.Bytes()  // []byte("1234")
//	v.String() // "1234"
//
// # Event Interface
//
// Transforms and sinks depend on the Event interface rather than on Log:
//
//	type Event interface {
//	    Get(key string) (Value, bool)
//	    Insert(key string, value Value)
//	    AllFields() []Field
//	    IsStructured() bool
//	}
//
// AllFields always returns fields ordered by key.
//
// # Kafka Metadata
//
// ConsumedEvent carries the raw payload of a Kafka message together with its
// KafkaMetadata and a commit callback. PartitionID identifies the topic
// partition it came from:
//
//	pid := event.PartitionID{Topic: "app-logs", Partition: 5}
//	pid.String() // "app-logs-5"
package event
