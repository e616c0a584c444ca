// Package codec resolves how a log event is rendered into the bytes a sink
// writes: either one JSON object holding every field, or the raw message.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/event"
)

// Encoding is the output encoding configured on a sink.
type Encoding string

const (
	// EncodingUnset renders structured events as JSON and unstructured
	// events as their raw message.
	EncodingUnset Encoding = ""
	// EncodingText always renders the raw message.
	EncodingText Encoding = "text"
	// EncodingJSON always renders every field as one JSON object.
	EncodingJSON Encoding = "json"
)

// ParseEncoding parses a configured encoding name. The empty string yields
// EncodingUnset.
func ParseEncoding(name string) (Encoding, error) {
	switch enc := Encoding(strings.ToLower(strings.TrimSpace(name))); enc {
	case EncodingUnset, EncodingText, EncodingJSON:
		return enc, nil
	default:
		return "", &apperrors.ConfigError{
			Component: "encoding",
			Key:       name,
			Err:       fmt.Errorf("%w: supported values are text, json", apperrors.ErrUnknownEncoding),
		}
	}
}

// String returns the encoding name, "unset" for EncodingUnset.
func (e Encoding) String() string {
	if e == EncodingUnset {
		return "unset"
	}
	return string(e)
}

type rendering int

const (
	renderRaw rendering = iota
	renderStructured
)

// render is the single decision table shared by every entry point.
func render(enc Encoding, structured bool) (rendering, error) {
	switch enc {
	case EncodingJSON:
		return renderStructured, nil
	case EncodingText:
		return renderRaw, nil
	case EncodingUnset:
		if structured {
			return renderStructured, nil
		}
		return renderRaw, nil
	default:
		return renderRaw, &apperrors.EncodeError{Encoding: string(enc), Err: apperrors.ErrUnknownEncoding}
	}
}

// AsString renders e as text.
func AsString(e event.Event, enc Encoding) (string, error) {
	r, err := render(enc, e.IsStructured())
	if err != nil {
		return "", err
	}

	switch r {
	case renderStructured:
		b, err := marshalFields(e.AllFields())
		if err != nil {
			return "", &apperrors.EncodeError{Encoding: enc.String(), Err: err}
		}
		return string(b), nil
	default:
		msg, ok := e.Get(event.MessageKey)
		if !ok {
			return "", nil
		}
		return msg.String(), nil
	}
}

// AsBytes renders e as bytes. The returned slice is freshly allocated and
// owned by the caller.
func AsBytes(e event.Event, enc Encoding) ([]byte, error) {
	r, err := render(enc, e.IsStructured())
	if err != nil {
		return nil, err
	}

	switch r {
	case renderStructured:
		b, err := marshalFields(e.AllFields())
		if err != nil {
			return nil, &apperrors.EncodeError{Encoding: enc.String(), Err: err}
		}
		return b, nil
	default:
		msg, ok := e.Get(event.MessageKey)
		if !ok {
			return []byte{}, nil
		}
		return bytes.Clone(msg.Bytes()), nil
	}
}

// AsBytesWithNewline renders e like AsBytes followed by a single line feed.
func AsBytesWithNewline(e event.Event, enc Encoding) ([]byte, error) {
	b, err := AsBytes(e, enc)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
