// Package decode implements payload decoders for the Kafka source.
//
// Every decoder produces a *event.Log. The raw decoder sets only the
// implicit message and timestamp fields, so its events are unstructured.
// The json and cloudevents decoders insert explicit fields.
package decode

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/decoder"
	"github.com/bittrance/vector/pkg/event"
)

// Decoding names.
const (
	DecodingRaw         = "raw"
	DecodingJSON        = "json"
	DecodingCloudEvents = "cloudevents"
)

// Config selects and configures a decoder.
type Config struct {
	// Decoding is one of raw, json or cloudevents. Empty means raw.
	Decoding string
	// KeyField, when set, receives the Kafka message key as an implicit
	// field.
	KeyField string
}

// New creates the decoder named by cfg.Decoding.
func New(cfg Config) (decoder.Decoder, error) {
	switch strings.ToLower(cfg.Decoding) {
	case "", DecodingRaw, "bytes":
		return &RawDecoder{keyField: cfg.KeyField}, nil
	case DecodingJSON:
		return &JSONDecoder{keyField: cfg.KeyField}, nil
	case DecodingCloudEvents:
		return &CloudEventsDecoder{keyField: cfg.KeyField}, nil
	default:
		return nil, &apperrors.ConfigError{
			Component: "decode",
			Key:       "decoding",
			Err:       fmt.Errorf("unsupported decoding %q (supported: raw, json, cloudevents)", cfg.Decoding),
		}
	}
}

// annotate adds the implicit source fields. A timestamp set by the
// payload wins over the broker timestamp.
func annotate(log *event.Log, metadata event.KafkaMetadata, keyField string) {
	if _, ok := log.Get(event.TimestampKey); !ok {
		ts := metadata.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		log.InsertImplicit(event.TimestampKey, event.NewTimestamp(ts.UTC()))
	}
	if keyField != "" && metadata.Key != nil {
		if _, ok := log.Get(keyField); !ok {
			log.InsertImplicit(keyField, event.NewBytes(clone(metadata.Key)))
		}
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func decodeError(decoding string, err error) error {
	return &apperrors.DecodeError{Decoding: decoding, Err: err}
}
