package decode

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/bittrance/vector/pkg/decoder"
	"github.com/bittrance/vector/pkg/event"
)

// Ensure implementation satisfies interface at compile time.
var _ decoder.Decoder = (*JSONDecoder)(nil)

var errInvalidJSON = errors.New("payload is not valid JSON")

// JSONDecoder turns each member of a top-level JSON object into an explicit
// field. Nested objects and arrays are kept as their JSON text and nulls
// are skipped. Valid JSON that is not an object is treated as a raw
// message.
type JSONDecoder struct {
	keyField string
}

// Decode parses payload with gjson.
func (d *JSONDecoder) Decode(payload []byte, metadata event.KafkaMetadata) (*event.Log, error) {
	if !gjson.ValidBytes(payload) {
		return nil, decodeError(DecodingJSON, errInvalidJSON)
	}

	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		log := event.NewMessage(clone(payload))
		annotate(log, metadata, d.keyField)
		return log, nil
	}

	log := event.NewLog()
	doc.ForEach(func(key, value gjson.Result) bool {
		if v, ok := jsonValue(key.String(), value); ok {
			log.Insert(key.String(), v)
		}
		return true
	})

	annotate(log, metadata, d.keyField)
	return log, nil
}

// Name returns "json".
func (d *JSONDecoder) Name() string {
	return DecodingJSON
}

func jsonValue(key string, r gjson.Result) (event.Value, bool) {
	switch r.Type {
	case gjson.Null:
		return event.Value{}, false
	case gjson.True:
		return event.NewBoolean(true), true
	case gjson.False:
		return event.NewBoolean(false), true
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return event.NewInteger(i), true
			}
		}
		return event.NewFloat(r.Float()), true
	case gjson.String:
		if key == event.TimestampKey {
			if t, err := time.Parse(time.RFC3339Nano, r.Str); err == nil {
				return event.NewTimestamp(t.UTC()), true
			}
		}
		return event.NewString(r.Str), true
	default:
		return event.NewString(r.Raw), true
	}
}
