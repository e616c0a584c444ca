// Package coercer implements a transform that converts selected event
// fields to a configured kind, leaving a field untouched when its value
// cannot be converted.
package coercer

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/bittrance/vector/internal/conversion"
	apperrors "github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/event"
	"github.com/bittrance/vector/pkg/transform"
)

// Ensure implementation satisfies interface at compile time.
var _ transform.Transformer = (*Coercer)(nil)

// Config maps field names to type names understood by conversion.Parse.
type Config struct {
	Types map[string]string `mapstructure:"types"`
}

// MetricsCollector defines metrics operations for the coercer.
type MetricsCollector interface {
	IncCoercionFailures(field string)
}

type fieldConversion struct {
	field string
	conv  conversion.Conversion
}

// Coercer converts configured fields in place. It holds no mutable state
// and is safe for concurrent use.
type Coercer struct {
	conversions []fieldConversion
	logger      *slog.Logger
	metrics     MetricsCollector
}

// New builds a coercer. Every type name is resolved up front; an unknown
// name fails the build with a ConfigError.
func New(cfg Config, logger *slog.Logger, metrics MetricsCollector) (*Coercer, error) {
	parsed, err := conversion.ParseMap(cfg.Types)
	if err != nil {
		var cfgErr *apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, &apperrors.ConfigError{Component: "coercer", Key: cfgErr.Key, Err: cfgErr.Err}
		}
		return nil, err
	}

	fields := make([]string, 0, len(parsed))
	for field := range parsed {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	conversions := make([]fieldConversion, 0, len(fields))
	for _, field := range fields {
		conversions = append(conversions, fieldConversion{field: field, conv: parsed[field]})
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Info("coercer created", "fields", fields)

	return &Coercer{
		conversions: conversions,
		logger:      logger,
		metrics:     metrics,
	}, nil
}

// Transform converts every configured field present on e and returns e.
func (c *Coercer) Transform(e *event.Log) *event.Log {
	for _, fc := range c.conversions {
		value, ok := e.Get(fc.field)
		if !ok {
			continue
		}

		converted, err := fc.conv.Convert(value)
		if err != nil {
			c.logger.Debug("could not convert types", "field", fc.field, "error", err)
			if c.metrics != nil {
				c.metrics.IncCoercionFailures(fc.field)
			}
			continue
		}

		e.Insert(fc.field, converted)
	}
	return e
}

// Fields returns the configured field names in ascending order.
func (c *Coercer) Fields() []string {
	fields := make([]string, 0, len(c.conversions))
	for _, fc := range c.conversions {
		fields = append(fields, fc.field)
	}
	return fields
}
