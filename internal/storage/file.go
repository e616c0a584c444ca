package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Writer = (*FileWriter)(nil)

const backendFile = "file"

// FileConfig contains local filesystem configuration.
type FileConfig struct {
	BasePath string
}

// FileWriter implements storage.Writer for the local filesystem.
// Objects are written to a temporary file and renamed into place so that
// readers never observe a partial object.
type FileWriter struct {
	basePath string
	logger   *slog.Logger
	metrics  MetricsCollector
	mu       sync.RWMutex
	closed   bool
}

// NewFileWriter creates a new filesystem storage writer.
func NewFileWriter(config FileConfig, logger *slog.Logger, metrics MetricsCollector) (*FileWriter, error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("file base path is required")
	}
	if err := os.MkdirAll(config.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	logger.Info("filesystem writer created", "base_path", config.BasePath)

	return &FileWriter{
		basePath: config.BasePath,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Put writes body to <base path>/<key>.
func (w *FileWriter) Put(ctx context.Context, key string, body []byte) (int64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return 0, errors.ErrWriterClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()

	rel := filepath.FromSlash(normalizeKey(key))
	if !filepath.IsLocal(rel) {
		return 0, recordFailure(w.metrics, backendFile, "path", key,
			fmt.Errorf("key escapes base path"))
	}

	fullPath := filepath.Join(w.basePath, rel)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, recordFailure(w.metrics, backendFile, "mkdir", key, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(fullPath)+"-*")
	if err != nil {
		return 0, recordFailure(w.metrics, backendFile, "create", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return 0, recordFailure(w.metrics, backendFile, "write", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, recordFailure(w.metrics, backendFile, "write", key, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return 0, recordFailure(w.metrics, backendFile, "rename", key, err)
	}

	w.logger.Debug("wrote object to file",
		"path", fullPath,
		"size", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	recordSuccess(w.metrics, backendFile, len(body), start)

	return int64(len(body)), nil
}

// Backend returns "file".
func (w *FileWriter) Backend() string {
	return backendFile
}

// Close closes the writer.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.logger.Info("closing filesystem writer")
	return nil
}
