// Package storage defines interfaces for writing encoded log objects.
//
// This package provides abstractions for putting objects into various
// storage backends (S3, GCS, Azure Blob, local filesystem).
package storage

import (
	"context"

	"github.com/bittrance/vector/pkg/event"
)

// Writer puts whole objects into a storage backend.
type Writer interface {
	// Put stores body under key, replacing any existing object.
	// Returns the number of bytes written.
	Put(ctx context.Context, key string, body []byte) (int64, error)

	// Backend returns the backend name used in logs and metrics.
	Backend() string

	// Close closes the writer and releases resources.
	Close() error
}

// RotationPolicy determines when to rotate (flush) buffered lines to storage.
type RotationPolicy interface {
	// ShouldRotate returns true if the buffer should be flushed based on stats.
	ShouldRotate(stats event.BatchStats) bool
}
