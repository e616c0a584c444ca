// Package sink defines the interface implemented by every event destination.
package sink

import (
	"context"

	"github.com/bittrance/vector/pkg/event"
)

// Sink delivers log events to a destination.
type Sink interface {
	// Send encodes e and hands it to the destination. An event whose
	// partition key cannot be resolved is dropped without error.
	Send(ctx context.Context, e *event.Log) error

	// FlushExpired writes out any batch whose rotation policy has fired.
	FlushExpired(ctx context.Context) error

	// Close flushes pending data and releases resources.
	Close(ctx context.Context) error

	// Name returns the sink type used in logs and metrics.
	Name() string
}
