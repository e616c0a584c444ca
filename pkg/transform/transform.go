// Package transform defines the interface of a per-event transform stage.
package transform

import "github.com/bittrance/vector/pkg/event"

// Transformer rewrites a single event. Implementations must be safe for
// concurrent use and always return an event.
type Transformer interface {
	Transform(e *event.Log) *event.Log
}
