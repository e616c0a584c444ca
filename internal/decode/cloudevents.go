package decode

import (
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/spf13/cast"

	"github.com/bittrance/vector/pkg/decoder"
	"github.com/bittrance/vector/pkg/event"
)

// Ensure implementation satisfies interface at compile time.
var _ decoder.Decoder = (*CloudEventsDecoder)(nil)

// CloudEvents attribute field names.
const (
	FieldID              = "id"
	FieldSource          = "source"
	FieldType            = "type"
	FieldSpecVersion     = "specversion"
	FieldSubject         = "subject"
	FieldDataContentType = "datacontenttype"
	FieldDataSchema      = "dataschema"
)

// CloudEventsDecoder decodes structured-mode JSON CloudEvents. Context
// attributes and extensions become explicit fields and the data becomes
// the message. The event time, when present, is the event timestamp.
type CloudEventsDecoder struct {
	keyField string
}

// Decode parses and validates a CloudEvent.
func (d *CloudEventsDecoder) Decode(payload []byte, metadata event.KafkaMetadata) (*event.Log, error) {
	ce := cloudevents.NewEvent()
	if err := ce.UnmarshalJSON(payload); err != nil {
		return nil, decodeError(DecodingCloudEvents, fmt.Errorf("failed to unmarshal cloud event: %w", err))
	}
	if err := ce.Validate(); err != nil {
		return nil, decodeError(DecodingCloudEvents, fmt.Errorf("invalid cloud event: %w", err))
	}

	log := event.NewLog()
	log.Insert(event.MessageKey, event.NewBytes(clone(ce.Data())))
	log.Insert(FieldID, event.NewString(ce.ID()))
	log.Insert(FieldSource, event.NewString(ce.Source()))
	log.Insert(FieldType, event.NewString(ce.Type()))
	log.Insert(FieldSpecVersion, event.NewString(ce.SpecVersion()))

	optional := map[string]string{
		FieldSubject:         ce.Subject(),
		FieldDataContentType: ce.DataContentType(),
		FieldDataSchema:      ce.DataSchema(),
	}
	for k, v := range optional {
		if v != "" {
			log.Insert(k, event.NewString(v))
		}
	}

	if t := ce.Time(); !t.IsZero() {
		log.Insert(event.TimestampKey, event.NewTimestamp(t.UTC()))
	}

	for name, value := range ce.Extensions() {
		s, err := cast.ToStringE(value)
		if err != nil {
			s = fmt.Sprint(value)
		}
		log.Insert(name, event.NewString(s))
	}

	annotate(log, metadata, d.keyField)
	return log, nil
}

// Name returns "cloudevents".
func (d *CloudEventsDecoder) Name() string {
	return DecodingCloudEvents
}
