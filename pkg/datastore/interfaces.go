package datastore

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for blob storage backends. Blobs are
// addressed by a single opaque string key; there are no directory semantics
// beyond key-prefix convention.
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored blob
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)
}

// Repository defines the interface for content and project persistence.
type Repository interface {
	// Content operations
	CreateContent(ctx context.Context, record *ContentRecord) error
	GetContent(ctx context.Context, id uuid.UUID) (*ContentRecord, error)
	UpdateContent(ctx context.Context, record *ContentRecord) error
	DeleteContent(ctx context.Context, id uuid.UUID) error
	ListContent(ctx context.Context, params ListContentParams) ([]*ContentRecord, error)
	SearchContent(ctx context.Context, params SearchContentParams) ([]*ContentRecord, error)
	CountContentByProject(ctx context.Context, projectID uuid.UUID) (int64, error)

	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
	ListProjects(ctx context.Context, tenantID string) ([]*Project, error)
}

// EventSink defines the interface for lifecycle event handling.
type EventSink interface {
	// ContentCreated is fired when a content record is created
	ContentCreated(ctx context.Context, record *ContentRecord) error

	// ContentUpdated is fired when a content record is updated
	ContentUpdated(ctx context.Context, record *ContentRecord) error

	// ContentDeleted is fired when a content record is deleted
	ContentDeleted(ctx context.Context, contentID uuid.UUID) error

	// BlobOrphaned is fired when a blob is known to have been left behind
	// without a referencing record (a reconciliation candidate)
	BlobOrphaned(ctx context.Context, objectKey string, reason string) error
}

// ObjectMeta contains metadata about a blob in storage.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading a blob.
type UploadParams struct {
	ObjectKey string
	MimeType  string
	Metadata  map[string]string
}
