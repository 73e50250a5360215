package datastore

import (
	"io"

	"github.com/google/uuid"
)

// Request/Response DTOs

// FileUpload carries an uploaded file's stream and its caller-supplied
// metadata. Size is the declared size in bytes.
type FileUpload struct {
	Reader   io.Reader
	FileName string
	MimeType string
	Size     int64
}

// CreateContentRequest contains parameters for registering new content.
// Content carries the raw text for KindText and the URL for external-link
// kinds; File carries the payload for file kinds.
type CreateContentRequest struct {
	TenantID  string
	ProjectID uuid.UUID
	Kind      Kind
	Title     string
	Content   string
	File      *FileUpload
}

// UpdateContentRequest contains parameters for updating content. Nil fields
// are left unchanged.
type UpdateContentRequest struct {
	ID        uuid.UUID
	Kind      *Kind
	Title     *string
	Content   *string
	ProjectID *uuid.UUID
	File      *FileUpload
}

// ListContentRequest contains parameters for a tenant-scoped listing.
type ListContentRequest struct {
	TenantID  string
	ProjectID *uuid.UUID
}

// SearchContentRequest contains parameters for a tenant-scoped search.
type SearchContentRequest struct {
	TenantID string
	Query    string
	Kind     *Kind
}

// CreateProjectRequest contains parameters for creating a project. Status
// defaults to active when empty.
type CreateProjectRequest struct {
	TenantID    string
	Name        string
	Description string
	Status      ProjectStatus
}

// UpdateProjectRequest contains parameters for updating a project. Nil
// fields are left unchanged.
type UpdateProjectRequest struct {
	TenantID    string
	ID          uuid.UUID
	Name        *string
	Description *string
	Status      *ProjectStatus
}

// ProjectWithContents bundles a project with its content records.
type ProjectWithContents struct {
	Project      *Project         `json:"project"`
	Contents     []*ContentRecord `json:"contents"`
	ContentCount int64            `json:"content_count"`
}
