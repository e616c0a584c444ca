// Package conversion parses type names such as "int" or
// "timestamp|2006-01-02" and converts event values into the named kind.
package conversion

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/event"
)

// Conversion converts values to a single target kind. The zero value is
// the bytes conversion.
type Conversion struct {
	target event.Kind
	layout string
}

// Parse resolves a type name. Accepted names are bytes, string, asis, int,
// integer, float, bool, boolean, timestamp and timestamp|<layout>, where
// layout is a Go reference-time layout.
func Parse(name string) (Conversion, error) {
	switch name {
	case "bytes", "string", "asis":
		return Conversion{target: event.KindBytes}, nil
	case "int", "integer":
		return Conversion{target: event.KindInteger}, nil
	case "float":
		return Conversion{target: event.KindFloat}, nil
	case "bool", "boolean":
		return Conversion{target: event.KindBoolean}, nil
	case "timestamp":
		return Conversion{target: event.KindTimestamp}, nil
	}

	if layout, ok := strings.CutPrefix(name, "timestamp|"); ok && layout != "" {
		return Conversion{target: event.KindTimestamp, layout: layout}, nil
	}

	return Conversion{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownConversion, name)
}

// ParseMap resolves every type name in types, keyed by field name.
// The first unknown name, in field order, is reported as a ConfigError.
func ParseMap(types map[string]string) (map[string]Conversion, error) {
	fields := make([]string, 0, len(types))
	for field := range types {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	conversions := make(map[string]Conversion, len(types))
	for _, field := range fields {
		conv, err := Parse(types[field])
		if err != nil {
			return nil, &apperrors.ConfigError{Component: "conversion", Key: field, Err: err}
		}
		conversions[field] = conv
	}
	return conversions, nil
}

// Target returns the kind produced by Convert.
func (c Conversion) Target() event.Kind {
	return c.target
}

// String returns the canonical type name.
func (c Conversion) String() string {
	if c.target == event.KindTimestamp && c.layout != "" {
		return "timestamp|" + c.layout
	}
	return c.target.String()
}

// Convert converts v into the target kind. Values already of the target
// kind are returned unchanged; other values are parsed from their textual
// form.
func (c Conversion) Convert(v event.Value) (event.Value, error) {
	if v.Kind() == c.target {
		return v, nil
	}
	if c.target == event.KindBytes {
		return event.NewBytes(v.Bytes()), nil
	}

	s := v.String()
	switch c.target {
	case event.KindInteger:
		i, err := parseInt(s)
		if err != nil {
			return v, c.fail(s, err)
		}
		return event.NewInteger(i), nil
	case event.KindFloat:
		f, err := cast.ToFloat64E(strings.TrimSpace(s))
		if err != nil {
			return v, c.fail(s, err)
		}
		return event.NewFloat(f), nil
	case event.KindBoolean:
		b, err := parseBool(s)
		if err != nil {
			return v, c.fail(s, err)
		}
		return event.NewBoolean(b), nil
	case event.KindTimestamp:
		t, err := c.parseTimestamp(s)
		if err != nil {
			return v, c.fail(s, err)
		}
		return event.NewTimestamp(t), nil
	default:
		return v, c.fail(s, fmt.Errorf("unsupported target kind %s", c.target))
	}
}

func (c Conversion) fail(value string, err error) error {
	return &apperrors.ConversionError{Target: c.String(), Value: value, Err: err}
}

func (c Conversion) parseTimestamp(s string) (time.Time, error) {
	if c.layout != "" {
		return time.ParseInLocation(c.layout, s, time.UTC)
	}
	return cast.ToTimeE(s)
}

// parseBool accepts true/t/yes/y and false/f/no/n in any case, or an
// integer where anything but zero is true.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y":
		return true, nil
	case "false", "f", "no", "n":
		return false, nil
	}

	i, err := parseInt(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return i != 0, nil
}

// parseInt reads a base-10 integer. Leading zeros do not switch to octal
// and prefixes, underscores and fractions are rejected.
func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
