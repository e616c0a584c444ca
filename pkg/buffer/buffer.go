// Package buffer defines interfaces for line buffering operations.
//
// Buffers are used to batch encoded events before writing to storage,
// improving throughput and reducing storage operations.
package buffer

import (
	"github.com/bittrance/vector/pkg/event"
)

// Buffer accumulates encoded lines for a single partition key.
// All implementations must be thread-safe.
type Buffer interface {
	// Add appends a line to the buffer.
	// Returns an error if the buffer is full or capacity would be exceeded.
	Add(line []byte) error

	// Drain removes and returns all lines from the buffer.
	// The buffer is reset after draining.
	Drain() [][]byte

	// Restore puts drained lines back ahead of any buffered lines and
	// keeps the write times recorded in stats, so age-based rotation is
	// not restarted. Lines beyond the buffer limits are not restored.
	// Returns the number of lines restored.
	Restore(lines [][]byte, stats event.BatchStats) int

	// Stats returns current buffer statistics without modifying the buffer.
	Stats() event.BatchStats

	// IsEmpty returns true if the buffer contains no lines.
	IsEmpty() bool

	// Reset clears the buffer and resets all statistics.
	Reset()
}

// Manager creates and manages buffers keyed by partition key.
type Manager interface {
	// GetOrCreate returns the buffer for key, creating one if it doesn't exist.
	GetOrCreate(key string) Buffer

	// Keys returns the keys of all live buffers in ascending order.
	Keys() []string

	// Remove forgets the buffer for key.
	Remove(key string)
}
