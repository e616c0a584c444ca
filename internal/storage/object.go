// Package storage implements object writers for the local filesystem,
// AWS S3, Google Cloud Storage and Azure Blob Storage, plus the rotation
// policy deciding when buffered lines become an object.
package storage

import (
	"strings"
	"time"

	apperrors "github.com/bittrance/vector/internal/errors"
)

// MetricsCollector defines metrics operations for storage.
type MetricsCollector interface {
	IncObjectsWritten(backend string, status string)
	ObserveObjectSize(backend string, size float64)
	ObserveStorageWriteDuration(backend string, duration float64)
	IncStorageErrors(backend string, operation string)
}

const logContentType = "text/x-log"

// contentHeaders derives object headers from the key suffix.
func contentHeaders(key string) (contentType, contentEncoding string) {
	if strings.HasSuffix(key, ".gz") {
		return logContentType, "gzip"
	}
	return logContentType, ""
}

// normalizeKey strips a leading slash; object stores treat keys as opaque.
func normalizeKey(key string) string {
	return strings.TrimLeft(key, "/")
}

func recordSuccess(metrics MetricsCollector, backend string, size int, start time.Time) {
	if metrics == nil {
		return
	}
	metrics.IncObjectsWritten(backend, "success")
	metrics.ObserveObjectSize(backend, float64(size))
	metrics.ObserveStorageWriteDuration(backend, time.Since(start).Seconds())
}

func recordFailure(metrics MetricsCollector, backend, operation, key string, err error) error {
	if metrics != nil {
		metrics.IncObjectsWritten(backend, "failure")
		metrics.IncStorageErrors(backend, operation)
	}
	return &apperrors.StorageError{Backend: backend, Operation: operation, Path: key, Err: err}
}
