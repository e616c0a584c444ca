package storage

import (
	"fmt"
	"time"

	"github.com/bittrance/vector/pkg/event"
	"github.com/bittrance/vector/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.RotationPolicy = (*CompositePolicy)(nil)

// RotationStrategy determines how rotation conditions are combined.
type RotationStrategy string

const (
	// StrategyAny rotates as soon as one limit is reached.
	StrategyAny RotationStrategy = "any"
	// StrategyAll rotates only once every configured limit is reached.
	StrategyAll RotationStrategy = "all"
)

// PolicyConfig configures rotation behavior. A zero limit is disabled.
type PolicyConfig struct {
	MaxObjectSizeBytes int64
	MaxLinesPerObject  int
	MaxAge             time.Duration
	Strategy           RotationStrategy
}

// CompositePolicy rotates based on size, line count and age.
type CompositePolicy struct {
	maxSizeBytes int64
	maxLines     int
	maxAge       time.Duration
	strategy     RotationStrategy
	now          func() time.Time
}

// NewPolicy creates a composite rotation policy.
func NewPolicy(config PolicyConfig) (*CompositePolicy, error) {
	strategy := config.Strategy
	if strategy == "" {
		strategy = StrategyAny
	}
	if strategy != StrategyAny && strategy != StrategyAll {
		return nil, fmt.Errorf("unsupported rotation strategy: %s", strategy)
	}

	return &CompositePolicy{
		maxSizeBytes: config.MaxObjectSizeBytes,
		maxLines:     config.MaxLinesPerObject,
		maxAge:       config.MaxAge,
		strategy:     strategy,
		now:          time.Now,
	}, nil
}

// ShouldRotate reports whether a buffer with stats should be written out.
// Empty buffers never rotate.
func (p *CompositePolicy) ShouldRotate(stats event.BatchStats) bool {
	if stats.RecordCount == 0 {
		return false
	}

	var checks []bool
	if p.maxSizeBytes > 0 {
		checks = append(checks, stats.SizeBytes >= p.maxSizeBytes)
	}
	if p.maxLines > 0 {
		checks = append(checks, stats.RecordCount >= p.maxLines)
	}
	if p.maxAge > 0 && !stats.FirstWriteTime.IsZero() {
		checks = append(checks, p.now().Sub(stats.FirstWriteTime) >= p.maxAge)
	}
	if len(checks) == 0 {
		return false
	}

	if p.strategy == StrategyAll {
		for _, ok := range checks {
			if !ok {
				return false
			}
		}
		return true
	}

	for _, ok := range checks {
		if ok {
			return true
		}
	}
	return false
}
