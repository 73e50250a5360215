package datastore

import (
	"context"

	"github.com/google/uuid"
)

// Service is the main interface for the content lifecycle. Content records
// are created, mutated, and destroyed only through this interface; the
// implementation owns the blob-store/record-store ordering and the
// compensating actions described in the package documentation.
type Service interface {
	// Content lifecycle
	CreateContent(ctx context.Context, req CreateContentRequest) (*ContentRecord, error)
	UpdateContent(ctx context.Context, req UpdateContentRequest) (*ContentRecord, error)
	DeleteContent(ctx context.Context, id uuid.UUID) error

	// Content queries
	GetContent(ctx context.Context, id uuid.UUID) (*ContentRecord, error)
	ListContent(ctx context.Context, req ListContentRequest) ([]*ContentRecord, error)
	SearchContent(ctx context.Context, req SearchContentRequest) ([]*ContentRecord, error)
	GetContentDownloadURL(ctx context.Context, id uuid.UUID) (string, error)

	// Project operations
	CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error)
	GetProject(ctx context.Context, tenantID string, id uuid.UUID) (*Project, error)
	ListProjects(ctx context.Context, tenantID string) ([]*Project, error)
	UpdateProject(ctx context.Context, req UpdateProjectRequest) (*Project, error)
	DeleteProject(ctx context.Context, tenantID string, id uuid.UUID) error
	GetProjectWithContents(ctx context.Context, tenantID string, id uuid.UUID) (*ProjectWithContents, error)
}
