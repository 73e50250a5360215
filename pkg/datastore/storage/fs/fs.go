package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tendant/simple-datastore/pkg/datastore"
)

// Backend is a filesystem implementation of the datastore.BlobStore interface
type Backend struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing blobs
	URLPrefix string // Optional URL prefix for download URLs
}

// New creates a new filesystem storage backend
func New(config Config) (datastore.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

// Upload uploads content directly to the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	filePath := filepath.Join(b.baseDir, objectKey)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// UploadWithParams uploads content with additional parameters. The MIME type
// and metadata are persisted in a sidecar file next to the blob.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params datastore.UploadParams) error {
	if err := b.Upload(ctx, params.ObjectKey, reader); err != nil {
		return err
	}

	if params.MimeType == "" && len(params.Metadata) == 0 {
		return nil
	}

	sidecar := sidecarData{MimeType: params.MimeType, Metadata: params.Metadata}
	data, err := json.Marshal(sidecar)
	if err != nil {
		return fmt.Errorf("failed to encode object metadata: %w", err)
	}
	if err := os.WriteFile(b.sidecarPath(params.ObjectKey), data, 0644); err != nil {
		return fmt.Errorf("failed to write object metadata: %w", err)
	}
	return nil
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	filePath := filepath.Join(b.baseDir, objectKey)

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, errors.New("object not found")
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath := filepath.Join(b.baseDir, objectKey)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return errors.New("object not found")
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	os.Remove(b.sidecarPath(objectKey))

	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*datastore.ObjectMeta, error) {
	filePath := filepath.Join(b.baseDir, objectKey)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, errors.New("object not found")
	} else if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	meta := &datastore.ObjectMeta{
		Key:       objectKey,
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}

	if sidecar, err := b.readSidecar(objectKey); err == nil {
		meta.ContentType = sidecar.MimeType
		meta.Metadata = sidecar.Metadata
	}
	if meta.ContentType == "" {
		meta.ContentType = b.detectContentType(filePath)
	}

	return meta, nil
}

// GetDownloadURL returns a URL for downloading content
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("direct download required for filesystem backend")
	}

	if downloadFilename != "" {
		return fmt.Sprintf("%s/download/%s?filename=%s", b.urlPrefix, objectKey, url.QueryEscape(downloadFilename)), nil
	}
	return fmt.Sprintf("%s/download/%s", b.urlPrefix, objectKey), nil
}

type sidecarData struct {
	MimeType string            `json:"mime_type,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (b *Backend) sidecarPath(objectKey string) string {
	return filepath.Join(b.baseDir, objectKey+".meta.json")
}

func (b *Backend) readSidecar(objectKey string) (*sidecarData, error) {
	data, err := os.ReadFile(b.sidecarPath(objectKey))
	if err != nil {
		return nil, err
	}
	var sidecar sidecarData
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, err
	}
	return &sidecar, nil
}

func (b *Backend) detectContentType(filePath string) string {
	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}
	return contentType
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
