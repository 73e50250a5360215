package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/tendant/simple-datastore/pkg/datastore"
)

// Repository implements datastore.Repository using in-memory storage
type Repository struct {
	mu       sync.RWMutex
	contents map[uuid.UUID]*datastore.ContentRecord
	projects map[uuid.UUID]*datastore.Project
}

// New creates a new in-memory repository
func New() datastore.Repository {
	return &Repository{
		contents: make(map[uuid.UUID]*datastore.ContentRecord),
		projects: make(map[uuid.UUID]*datastore.Project),
	}
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, record *datastore.ContentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	recordCopy := *record
	r.contents[record.ID] = &recordCopy

	return nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*datastore.ContentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.contents[id]
	if !exists || record.DeletedAt != nil {
		return nil, datastore.ErrContentNotFound
	}

	recordCopy := *record
	return &recordCopy, nil
}

func (r *Repository) UpdateContent(ctx context.Context, record *datastore.ContentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.contents[record.ID]
	if !exists || existing.DeletedAt != nil {
		return datastore.ErrContentNotFound
	}

	recordCopy := *record
	r.contents[record.ID] = &recordCopy

	return nil
}

func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.contents[id]
	if !exists || record.DeletedAt != nil {
		return datastore.ErrContentNotFound
	}

	now := time.Now()
	record.DeletedAt = &now
	record.UpdatedAt = now
	return nil
}

func (r *Repository) ListContent(ctx context.Context, params datastore.ListContentParams) ([]*datastore.ContentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*datastore.ContentRecord
	for _, record := range r.contents {
		if record.DeletedAt != nil || record.TenantID != params.TenantID {
			continue
		}
		if params.ProjectID != nil && record.ProjectID != *params.ProjectID {
			continue
		}
		recordCopy := *record
		result = append(result, &recordCopy)
	}

	sortByCreatedAtDesc(result)
	return result, nil
}

func (r *Repository) SearchContent(ctx context.Context, params datastore.SearchContentParams) ([]*datastore.ContentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		record *datastore.ContentRecord
		score  int
	}

	var matches []scored
	for _, record := range r.contents {
		if record.DeletedAt != nil || record.TenantID != params.TenantID {
			continue
		}
		if params.Kind != nil && record.Kind != *params.Kind {
			continue
		}
		score := 0
		if params.Query != "" {
			score = relevance(record, params.Query)
			if score == 0 {
				continue
			}
		}
		recordCopy := *record
		matches = append(matches, scored{record: &recordCopy, score: score})
	}

	slices.SortFunc(matches, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return b.record.CreatedAt.Compare(a.record.CreatedAt)
	})

	result := make([]*datastore.ContentRecord, 0, len(matches))
	for _, m := range matches {
		result = append(result, m.record)
	}
	return result, nil
}

func (r *Repository) CountContentByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, record := range r.contents {
		if record.DeletedAt == nil && record.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

// Project operations

func (r *Repository) CreateProject(ctx context.Context, project *datastore.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	projectCopy := *project
	r.projects[project.ID] = &projectCopy

	return nil
}

func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*datastore.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, exists := r.projects[id]
	if !exists || project.DeletedAt != nil {
		return nil, datastore.ErrProjectNotFound
	}

	projectCopy := *project
	return &projectCopy, nil
}

func (r *Repository) UpdateProject(ctx context.Context, project *datastore.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.projects[project.ID]
	if !exists || existing.DeletedAt != nil {
		return datastore.ErrProjectNotFound
	}

	projectCopy := *project
	r.projects[project.ID] = &projectCopy

	return nil
}

func (r *Repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	project, exists := r.projects[id]
	if !exists || project.DeletedAt != nil {
		return datastore.ErrProjectNotFound
	}

	now := time.Now()
	project.DeletedAt = &now
	project.UpdatedAt = now
	return nil
}

func (r *Repository) ListProjects(ctx context.Context, tenantID string) ([]*datastore.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*datastore.Project
	for _, project := range r.projects {
		if project.DeletedAt == nil && project.TenantID == tenantID {
			projectCopy := *project
			result = append(result, &projectCopy)
		}
	}

	slices.SortFunc(result, func(a, b *datastore.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return result, nil
}

// relevance is a naive text score standing in for the store-delegated
// relevance ranking: title hits weigh double payload/metadata hits.
func relevance(record *datastore.ContentRecord, query string) int {
	q := strings.ToLower(query)
	score := 2 * strings.Count(strings.ToLower(record.Title), q)
	score += strings.Count(strings.ToLower(record.PayloadRef), q)
	if v, ok := record.Metadata[datastore.MetaURL].(string); ok {
		score += strings.Count(strings.ToLower(v), q)
	}
	if v, ok := record.Metadata[datastore.MetaFileName].(string); ok {
		score += strings.Count(strings.ToLower(v), q)
	}
	return score
}

func sortByCreatedAtDesc(records []*datastore.ContentRecord) {
	slices.SortFunc(records, func(a, b *datastore.ContentRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
