package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/bittrance/vector/internal/errors"
	"github.com/bittrance/vector/pkg/storage"
)

// Ensure implementation satisfies interface at compile time.
var _ storage.Writer = (*AzureWriter)(nil)

const backendAzure = "azure"

// AzureConfig contains Azure Blob Storage configuration.
type AzureConfig struct {
	AccountName   string
	AccountKey    string
	ContainerName string
	Endpoint      string
	// ConnectionString, when set, takes precedence over account name and key.
	ConnectionString string
}

// Validate validates Azure configuration.
func (c AzureConfig) Validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("azure container is required")
	}
	if c.ConnectionString == "" && c.AccountName == "" {
		return fmt.Errorf("azure account name or connection string is required")
	}
	return nil
}

func (c AzureConfig) connectionString() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	if c.Endpoint != "" {
		return fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;BlobEndpoint=%s",
			c.AccountName, c.AccountKey, c.Endpoint)
	}
	return fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;EndpointSuffix=core.windows.net",
		c.AccountName, c.AccountKey)
}

// AzureWriter implements storage.Writer for Azure Blob Storage.
type AzureWriter struct {
	client        *azblob.Client
	containerName string
	logger        *slog.Logger
	metrics       MetricsCollector
	mu            sync.RWMutex
	closed        bool
}

// NewAzureWriter creates a new Azure Blob storage writer.
func NewAzureWriter(cfg AzureConfig, logger *slog.Logger, metrics MetricsCollector) (*AzureWriter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := azblob.NewClientFromConnectionString(cfg.connectionString(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	logger.Info("Azure writer created",
		"container", cfg.ContainerName,
		"account", cfg.AccountName,
	)

	return &AzureWriter{
		client:        client,
		containerName: cfg.ContainerName,
		logger:        logger,
		metrics:       metrics,
	}, nil
}

// Put uploads body as block blob <container>/<key>.
func (w *AzureWriter) Put(ctx context.Context, key string, body []byte) (int64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return 0, errors.ErrWriterClosed
	}

	start := time.Now()
	blobName := normalizeKey(key)
	contentType, contentEncoding := contentHeaders(blobName)

	headers := &blob.HTTPHeaders{BlobContentType: &contentType}
	if contentEncoding != "" {
		headers.BlobContentEncoding = &contentEncoding
	}

	_, err := w.client.UploadBuffer(ctx, w.containerName, blobName, body, &azblob.UploadBufferOptions{
		HTTPHeaders: headers,
	})
	if err != nil {
		return 0, recordFailure(w.metrics, backendAzure, "upload", blobName, err)
	}

	w.logger.Debug("wrote object to Azure Blob",
		"container", w.containerName,
		"blob", blobName,
		"size", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	recordSuccess(w.metrics, backendAzure, len(body), start)

	return int64(len(body)), nil
}

// Backend returns "azure".
func (w *AzureWriter) Backend() string {
	return backendAzure
}

// Close closes the Azure writer.
func (w *AzureWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.closed {
		w.closed = true
		w.logger.Info("Azure writer closed")
	}
	return nil
}
