package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-datastore/pkg/datastore"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements datastore.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) datastore.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) datastore.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, record *datastore.ContentRecord) error {
	query := `
		INSERT INTO content (
			id, tenant_id, project_id, kind, title, payload_ref,
			metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		record.ID, record.TenantID, record.ProjectID, string(record.Kind),
		record.Title, record.PayloadRef, record.Metadata,
		record.CreatedAt, record.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create content", err)
	}

	return nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*datastore.ContentRecord, error) {
	query := `
        SELECT id, tenant_id, project_id, kind, title, payload_ref,
               metadata, created_at, updated_at
        FROM content WHERE id = $1 AND deleted_at IS NULL`

	record, err := r.scanContent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, datastore.ErrContentNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *Repository) UpdateContent(ctx context.Context, record *datastore.ContentRecord) error {
	query := `
		UPDATE content SET
			project_id = $2, kind = $3, title = $4, payload_ref = $5,
			metadata = $6, updated_at = $7
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		record.ID, record.ProjectID, string(record.Kind), record.Title,
		record.PayloadRef, record.Metadata, record.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update content", err)
	}
	if tag.RowsAffected() == 0 {
		return datastore.ErrContentNotFound
	}
	return nil
}

func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID) error {
	// Soft delete: all reads, searches, and counts exclude deleted rows
	query := `UPDATE content SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("delete content", err)
	}
	if tag.RowsAffected() == 0 {
		return datastore.ErrContentNotFound
	}
	return nil
}

func (r *Repository) ListContent(ctx context.Context, params datastore.ListContentParams) ([]*datastore.ContentRecord, error) {
	query := `
        SELECT id, tenant_id, project_id, kind, title, payload_ref,
               metadata, created_at, updated_at
        FROM content WHERE tenant_id = $1 AND deleted_at IS NULL`
	args := []interface{}{params.TenantID}

	if params.ProjectID != nil {
		query += ` AND project_id = $2`
		args = append(args, *params.ProjectID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list content", err)
	}
	defer rows.Close()

	return r.collectContent(rows)
}

func (r *Repository) SearchContent(ctx context.Context, params datastore.SearchContentParams) ([]*datastore.ContentRecord, error) {
	var sb strings.Builder
	sb.WriteString(`
        SELECT id, tenant_id, project_id, kind, title, payload_ref,
               metadata, created_at, updated_at
        FROM content WHERE tenant_id = $1 AND deleted_at IS NULL`)
	args := []interface{}{params.TenantID}

	if params.Kind != nil {
		args = append(args, string(*params.Kind))
		fmt.Fprintf(&sb, " AND kind = $%d", len(args))
	}

	if params.Query != "" {
		// Text relevance is delegated to Postgres full-text search over the
		// title and payload reference, ranked by ts_rank.
		args = append(args, params.Query)
		n := len(args)
		fmt.Fprintf(&sb, ` AND to_tsvector('english', coalesce(title, '') || ' ' || coalesce(payload_ref, ''))
            @@ plainto_tsquery('english', $%d)`, n)
		fmt.Fprintf(&sb, ` ORDER BY ts_rank(to_tsvector('english', coalesce(title, '') || ' ' || coalesce(payload_ref, '')),
            plainto_tsquery('english', $%d)) DESC, created_at DESC`, n)
	} else {
		sb.WriteString(` ORDER BY created_at DESC`)
	}

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, r.handlePostgresError("search content", err)
	}
	defer rows.Close()

	return r.collectContent(rows)
}

func (r *Repository) CountContentByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM content WHERE project_id = $1 AND deleted_at IS NULL`

	var count int64
	if err := r.db.QueryRow(ctx, query, projectID).Scan(&count); err != nil {
		return 0, r.handlePostgresError("count content", err)
	}
	return count, nil
}

// Project operations

func (r *Repository) CreateProject(ctx context.Context, project *datastore.Project) error {
	query := `
		INSERT INTO project (
			id, tenant_id, name, description, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		project.ID, project.TenantID, project.Name, project.Description,
		string(project.Status), project.CreatedAt, project.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create project", err)
	}
	return nil
}

func (r *Repository) GetProject(ctx context.Context, id uuid.UUID) (*datastore.Project, error) {
	query := `
        SELECT id, tenant_id, name, description, status, created_at, updated_at
        FROM project WHERE id = $1 AND deleted_at IS NULL`

	project, err := r.scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, datastore.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

func (r *Repository) UpdateProject(ctx context.Context, project *datastore.Project) error {
	query := `
		UPDATE project SET
			name = $2, description = $3, status = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		project.ID, project.Name, project.Description, string(project.Status), project.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update project", err)
	}
	if tag.RowsAffected() == 0 {
		return datastore.ErrProjectNotFound
	}
	return nil
}

func (r *Repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE project SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return datastore.ErrProjectNotFound
	}
	return nil
}

func (r *Repository) ListProjects(ctx context.Context, tenantID string) ([]*datastore.Project, error) {
	query := `
        SELECT id, tenant_id, name, description, status, created_at, updated_at
        FROM project WHERE tenant_id = $1 AND deleted_at IS NULL
        ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, r.handlePostgresError("list projects", err)
	}
	defer rows.Close()

	var result []*datastore.Project
	for rows.Next() {
		project, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	return result, rows.Err()
}

// Scan helpers

func (r *Repository) scanContent(row pgx.Row) (*datastore.ContentRecord, error) {
	var record datastore.ContentRecord
	var kind string
	err := row.Scan(
		&record.ID, &record.TenantID, &record.ProjectID, &kind,
		&record.Title, &record.PayloadRef, &record.Metadata,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	record.Kind = datastore.Kind(kind)
	return &record, nil
}

func (r *Repository) collectContent(rows pgx.Rows) ([]*datastore.ContentRecord, error) {
	var result []*datastore.ContentRecord
	for rows.Next() {
		record, err := r.scanContent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

func (r *Repository) scanProject(row pgx.Row) (*datastore.Project, error) {
	var project datastore.Project
	var status string
	err := row.Scan(
		&project.ID, &project.TenantID, &project.Name, &project.Description,
		&status, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, err
	}
	project.Status = datastore.ProjectStatus(status)
	return &project, nil
}
