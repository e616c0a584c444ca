package decode

import (
	"github.com/bittrance/vector/pkg/decoder"
	"github.com/bittrance/vector/pkg/event"
)

// Ensure implementation satisfies interface at compile time.
var _ decoder.Decoder = (*RawDecoder)(nil)

// RawDecoder keeps the payload as the message of an unstructured event.
type RawDecoder struct {
	keyField string
}

// Decode never fails.
func (d *RawDecoder) Decode(payload []byte, metadata event.KafkaMetadata) (*event.Log, error) {
	log := event.NewMessage(clone(payload))
	annotate(log, metadata, d.keyField)
	return log, nil
}

// Name returns "raw".
func (d *RawDecoder) Name() string {
	return DecodingRaw
}
