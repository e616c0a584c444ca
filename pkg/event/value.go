package event

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of data held by a Value.
type Kind uint8

const (
	KindBytes Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindTimestamp
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBytes:
		return "bytes"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Value is a single field value of a log event. The zero Value is an empty
// byte sequence.
type Value struct {
	kind Kind
	raw  []byte
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// NewBytes returns a byte-sequence value. The slice is not copied.
func NewBytes(b []byte) Value {
	return Value{kind: KindBytes, raw: b}
}

// NewString returns a byte-sequence value holding s.
func NewString(s string) Value {
	return Value{kind: KindBytes, raw: []byte(s)}
}

// NewInteger returns an integer value.
func NewInteger(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// NewFloat returns a floating point value.
func NewFloat(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// NewBoolean returns a boolean value.
func NewBoolean(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// NewTimestamp returns a timestamp value normalized to UTC.
func NewTimestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, t: t.UTC()}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Bytes returns the byte representation of the value.
// For byte-sequence values the returned slice shares memory with the value
// and must not be modified.
func (v Value) Bytes() []byte {
	switch v.kind {
	case KindInteger:
		return strconv.AppendInt(nil, v.i, 10)
	case KindFloat:
		return strconv.AppendFloat(nil, v.f, 'f', -1, 64)
	case KindBoolean:
		return strconv.AppendBool(nil, v.b)
	case KindTimestamp:
		return v.t.AppendFormat(nil, time.RFC3339Nano)
	default:
		if v.raw == nil {
			return []byte{}
		}
		return v.raw
	}
}

// String returns the value as text, replacing invalid UTF-8 sequences with
// the Unicode replacement character.
func (v Value) String() string {
	return strings.ToValidUTF8(string(v.Bytes()), "\uFFFD")
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	if v.kind == KindBytes && v.raw != nil {
		v.raw = bytes.Clone(v.raw)
	}
	return v
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindBoolean:
		return v.b == other.b
	case KindTimestamp:
		return v.t.Equal(other.t)
	default:
		return bytes.Equal(v.raw, other.raw)
	}
}

// Integer returns the integer held by the value.
func (v Value) Integer() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// Float returns the float held by the value.
func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// Boolean returns the boolean held by the value.
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// Timestamp returns the time held by the value.
func (v Value) Timestamp() (time.Time, bool) {
	return v.t, v.kind == KindTimestamp
}

// Interface returns the value as a plain Go value suitable for JSON
// serialization: string, int64, float64, bool, or an RFC 3339 string for
// timestamps.
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBoolean:
		return v.b
	case KindTimestamp:
		return v.t.Format(time.RFC3339Nano)
	default:
		return v.String()
	}
}
