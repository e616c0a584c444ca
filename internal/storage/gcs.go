package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Writer = (*GCSWriter)(nil)

const backendGCS = "gcs"

// GCSConfig contains Google Cloud Storage configuration.
type GCSConfig struct {
	Bucket               string
	ProjectID            string
	CredentialsFile      string
	CredentialsJSON      string
	Endpoint             string
	UseDefaultCredential bool
}

// Validate validates GCS configuration.
func (c GCSConfig) Validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("gcs bucket is required")
	}
	return nil
}

// clientOptions selects the authentication method: explicit default
// credentials, inline JSON, a credentials file, then the default chain.
func (c GCSConfig) clientOptions() ([]option.ClientOption, string) {
	var opts []option.ClientOption
	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}

	switch {
	case c.UseDefaultCredential:
		return opts, "default"
	case c.CredentialsJSON != "":
		return append(opts, option.WithCredentialsJSON([]byte(c.CredentialsJSON))), "json"
	case c.CredentialsFile != "":
		return append(opts, option.WithCredentialsFile(c.CredentialsFile)), "file"
	default:
		return opts, "default"
	}
}

// GCSWriter implements storage.Writer for Google Cloud Storage.
type GCSWriter struct {
	client  *gcs.Client
	bucket  string
	logger  *slog.Logger
	metrics MetricsCollector
	mu      sync.RWMutex
	closed  bool
}

// NewGCSWriter creates a new Google Cloud Storage writer.
func NewGCSWriter(ctx context.Context, cfg GCSConfig, logger *slog.Logger, metrics MetricsCollector) (*GCSWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts, auth := cfg.clientOptions()

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	logger.Info("GCS writer created",
		"bucket", cfg.Bucket,
		"project_id", cfg.ProjectID,
		"auth", auth,
	)

	return &GCSWriter{
		client:  client,
		bucket:  cfg.Bucket,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Put writes body to gs://<bucket>/<key>.
func (w *GCSWriter) Put(ctx context.Context, key string, body []byte) (int64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return 0, errors.ErrWriterClosed
	}

	start := time.Now()
	objectKey := normalizeKey(key)

	ow := w.client.Bucket(w.bucket).Object(objectKey).NewWriter(ctx)
	ow.ContentType, ow.ContentEncoding = contentHeaders(objectKey)

	if _, err := ow.Write(body); err != nil {
		ow.Close()
		return 0, recordFailure(w.metrics, backendGCS, "upload", objectKey, err)
	}
	if err := ow.Close(); err != nil {
		return 0, recordFailure(w.metrics, backendGCS, "upload", objectKey, err)
	}

	w.logger.Debug("wrote object to GCS",
		"bucket", w.bucket,
		"object", objectKey,
		"size", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	recordSuccess(w.metrics, backendGCS, len(body), start)

	return int64(len(body)), nil
}

// Backend returns "gcs".
func (w *GCSWriter) Backend() string {
	return backendGCS
}

// Close closes the GCS writer.
func (w *GCSWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.logger.Info("closing GCS writer")
	return w.client.Close()
}
