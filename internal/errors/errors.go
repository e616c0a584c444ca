// Package errors defines application-specific error types and sentinel errors.
package errors

import (
	"errors"
	"fmt"

	"github.com/bittrance/vector/pkg/event"
)

// Sentinel errors for common conditions.
var (
	ErrBufferFull        = errors.New("buffer is full")
	ErrConsumerClosed    = errors.New("consumer is closed")
	ErrInvalidEvent      = errors.New("invalid event")
	ErrSinkClosed        = errors.New("sink is closed")
	ErrWriterClosed      = errors.New("storage writer is closed")
	ErrConnectionLost    = errors.New("connection lost")
	ErrUnknownConversion = errors.New("unknown conversion")
	ErrUnknownEncoding   = errors.New("unknown encoding")
)

// ConfigError represents an invalid configuration value detected while
// building a component, before any event is processed.
type ConfigError struct {
	Component string
	Key       string
	Err       error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: component=%s key=%s: %v",
		e.Component, e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// EncodeError represents a failure to encode a single event for a sink.
type EncodeError struct {
	Encoding string
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode error: encoding=%s: %v", e.Encoding, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// ConversionError represents a failure to convert a value to a target kind.
type ConversionError struct {
	Target string
	Value  string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error: target=%s value=%q: %v",
		e.Target, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// DecodeError represents a consumed payload that could not be decoded into
// a log event.
type DecodeError struct {
	Decoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: decoding=%s: %v", e.Decoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ProcessingError represents an error during event processing.
type ProcessingError struct {
	PartitionID event.PartitionID
	Offset      int64
	Stage       string
	Err         error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing error: partition=%s offset=%d stage=%s: %v",
		e.PartitionID, e.Offset, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// StorageError represents a storage operation failure.
type StorageError struct {
	Backend   string
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: backend=%s operation=%s path=%s: %v",
		e.Backend, e.Operation, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Retryable defines an interface for errors that can indicate if they are retryable.
type Retryable interface {
	error
	IsRetryable() bool
}

// IsRetryable checks if an error is retryable.
// It first checks if the error implements the Retryable interface,
// then falls back to checking sentinel errors.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable Retryable
	if errors.As(err, &retryable) {
		return retryable.IsRetryable()
	}

	return errors.Is(err, ErrConnectionLost)
}

// IsRetryable determines if a StorageError is retryable based on the operation type.
func (e *StorageError) IsRetryable() bool {
	return e.Operation == "write" || e.Operation == "upload" || e.Operation == "create"
}

// IsRetryable determines if a ProcessingError is retryable.
func (e *ProcessingError) IsRetryable() bool {
	return IsRetryable(e.Err)
}
