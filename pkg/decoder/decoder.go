// Package decoder defines the interface for turning consumed payloads into
// log events.
package decoder

import "github.com/bittrance/vector/pkg/event"

// Decoder builds a log event from a consumed Kafka message.
type Decoder interface {
	// Decode returns the event for payload. A payload that cannot be
	// decoded yields an error and no event.
	Decode(payload []byte, metadata event.KafkaMetadata) (*event.Log, error)

	// Name returns the decoding name, e.g. "json".
	Name() string
}
