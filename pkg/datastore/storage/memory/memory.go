package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"sync"

	"github.com/tendant/simple-datastore/pkg/datastore"
)

// Backend is an in-memory implementation of the datastore.BlobStore interface
type Backend struct {
	mu       sync.RWMutex
	objects  map[string][]byte
	mimeType map[string]string
	metadata map[string]map[string]string
}

// New creates a new in-memory storage backend
func New() datastore.BlobStore {
	return &Backend{
		objects:  make(map[string][]byte),
		mimeType: make(map[string]string),
		metadata: make(map[string]map[string]string),
	}
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	// Set default MIME type if not set
	if _, exists := b.mimeType[objectKey]; !exists {
		b.mimeType[objectKey] = "application/octet-stream"
	}
	return nil
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params datastore.UploadParams) error {
	if err := b.Upload(ctx, params.ObjectKey, reader); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if params.MimeType != "" {
		b.mimeType[params.ObjectKey] = params.MimeType
	}
	if len(params.Metadata) > 0 {
		b.metadata[params.ObjectKey] = maps.Clone(params.Metadata)
	}
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return errors.New("object not found")
	}

	delete(b.objects, objectKey)
	delete(b.mimeType, objectKey)
	delete(b.metadata, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*datastore.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	meta := &datastore.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: b.mimeType[objectKey],
		Metadata:    maps.Clone(b.metadata[objectKey]),
	}
	return meta, nil
}

// GetDownloadURL returns a URL for downloading content
// In-memory implementation doesn't use URLs
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "", errors.New("direct download required for memory backend")
}
