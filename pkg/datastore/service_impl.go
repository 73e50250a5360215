package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-datastore/pkg/datastore/blobkey"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	keys       blobkey.Builder
	eventSink  EventSink
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the record store for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithKeyBuilder sets the blob key generation strategy
func WithKeyBuilder(builder blobkey.Builder) Option {
	return func(s *service) {
		s.keys = builder
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the structured logger used for tolerated failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.keys == nil {
		s.keys = blobkey.NewTenantPrefixBuilder()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Content lifecycle

func (s *service) CreateContent(ctx context.Context, req CreateContentRequest) (*ContentRecord, error) {
	payload, err := Classify(req.Kind, req.Title, req.ProjectID, req.Content, req.File)
	if err != nil {
		return nil, err
	}

	// The record's tenant must equal the tenant of the referenced project.
	// A project owned by another tenant looks nonexistent.
	if _, err := s.ownedProject(ctx, req.TenantID, req.ProjectID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var payloadRef string
	var metadata map[string]interface{}

	switch payload {
	case PayloadText:
		key, meta, err := s.uploadText(ctx, req.TenantID, req.Title, req.Content, now)
		if err != nil {
			return nil, err
		}
		payloadRef, metadata = key, meta

	case PayloadFile:
		key := s.keys.Build(req.TenantID, req.Kind.Category(), req.File.FileName, now)
		params := UploadParams{
			ObjectKey: key,
			MimeType:  req.File.MimeType,
			Metadata: map[string]string{
				"title":            req.Title,
				"originalFileName": req.File.FileName,
				"kind":             string(req.Kind),
			},
		}
		if err := s.blobStore.UploadWithParams(ctx, req.File.Reader, params); err != nil {
			return nil, &StorageError{Key: key, Op: "upload", Err: fmt.Errorf("%w: %v", ErrUploadFailed, err)}
		}
		payloadRef = key
		metadata = map[string]interface{}{
			MetaFileName: req.File.FileName,
			MetaMimeType: req.File.MimeType,
			MetaSize:     req.File.Size,
		}

	case PayloadExternalLink:
		payloadRef = req.Content
		metadata = map[string]interface{}{MetaURL: req.Content}
	}

	record := &ContentRecord{
		ID:         uuid.New(),
		TenantID:   req.TenantID,
		ProjectID:  req.ProjectID,
		Kind:       req.Kind,
		Title:      req.Title,
		PayloadRef: payloadRef,
		Metadata:   metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repository.CreateContent(ctx, record); err != nil {
		// The blob (if any) is now unreferenced. Surface the persistence
		// failure distinctly; the orphan is reported for reconciliation,
		// never retried here.
		if payload != PayloadExternalLink {
			s.reportOrphan(ctx, payloadRef, "record creation failed")
		}
		return nil, &ContentError{ContentID: record.ID, Op: "create", Err: err}
	}

	s.fireContentCreated(ctx, record)
	return record, nil
}

func (s *service) UpdateContent(ctx context.Context, req UpdateContentRequest) (*ContentRecord, error) {
	record, err := s.repository.GetContent(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	newKind := record.Kind
	if req.Kind != nil {
		if !req.Kind.IsValid() {
			return nil, &ValidationError{Field: "kind", Reason: "unrecognized content kind"}
		}
		newKind = *req.Kind
	}

	oldPayload, _ := record.Kind.PayloadKind()
	newPayload, _ := newKind.PayloadKind()
	wasFile := oldPayload == PayloadFile
	becomesFile := newPayload == PayloadFile

	now := time.Now().UTC()

	// Title applies before any payload work so blob names derived from it
	// reflect the updated value.
	if req.Title != nil {
		record.Title = *req.Title
	}

	switch {
	case req.File != nil && (wasFile || becomesFile):
		if !becomesFile {
			return nil, &ValidationError{
				Field:  "kind",
				Reason: "content kind " + string(newKind) + " does not take a file upload",
			}
		}
		// Replace the payload: delete the old blob, upload the new one, and
		// move payloadRef/metadata/kind together as one logical unit. The
		// old-blob deletion is tolerated to fail; the upload is not.
		if record.Kind.IsBlobBacked() && record.PayloadRef != "" {
			s.deleteBlobTolerant(ctx, record.PayloadRef, "replaced during update")
		}
		key := s.keys.Build(record.TenantID, newKind.Category(), req.File.FileName, now)
		params := UploadParams{
			ObjectKey: key,
			MimeType:  req.File.MimeType,
			Metadata: map[string]string{
				"originalFileName": req.File.FileName,
				"kind":             string(newKind),
			},
		}
		if err := s.blobStore.UploadWithParams(ctx, req.File.Reader, params); err != nil {
			return nil, &StorageError{Key: key, Op: "upload", Err: fmt.Errorf("%w: %v", ErrUploadFailed, err)}
		}
		record.PayloadRef = key
		record.Metadata = map[string]interface{}{
			MetaFileName: req.File.FileName,
			MetaMimeType: req.File.MimeType,
			MetaSize:     req.File.Size,
		}
		record.Kind = newKind

	case becomesFile && !wasFile:
		return nil, &ValidationError{
			Field:  "contentFile",
			Reason: "file upload is required to change content kind to " + string(newKind),
		}

	default:
		if err := s.applyNonFileUpdate(ctx, record, newKind, req.Content, now); err != nil {
			return nil, err
		}
	}

	if req.ProjectID != nil && *req.ProjectID != record.ProjectID {
		if _, err := s.ownedProject(ctx, record.TenantID, *req.ProjectID); err != nil {
			return nil, err
		}
		record.ProjectID = *req.ProjectID
	}

	record.UpdatedAt = now
	if err := s.repository.UpdateContent(ctx, record); err != nil {
		return nil, &ContentError{ContentID: record.ID, Op: "update", Err: err}
	}

	s.fireContentUpdated(ctx, record)
	return record, nil
}

// applyNonFileUpdate mutates record for updates that do not carry a new
// file: content rewrites for Text and external-link kinds, and kind
// transitions that do not cross the file payload boundary.
func (s *service) applyNonFileUpdate(ctx context.Context, record *ContentRecord, newKind Kind, content *string, now time.Time) error {
	oldPayload, _ := record.Kind.PayloadKind()
	newPayload, _ := newKind.PayloadKind()

	if newKind != record.Kind {
		// Kind changes that stay file-backed keep the existing blob; only
		// crossing out of the file side needs a payload of the new shape.
		if oldPayload == PayloadFile && newPayload != PayloadFile {
			return &ValidationError{
				Field:  "kind",
				Reason: "cannot change a file-backed record to " + string(newKind) + " without new payload",
			}
		}
		// Text <-> external-link transitions change the payload shape and
		// need a payload of the new shape.
		if oldPayload != newPayload && content == nil {
			return &ValidationError{
				Field:  "content",
				Reason: "content is required to change content kind to " + string(newKind),
			}
		}
	}

	if content != nil && newPayload != PayloadFile {
		switch newPayload {
		case PayloadText:
			var key string
			if oldPayload == PayloadText && record.PayloadRef != "" {
				// Rewrite the existing text blob in place.
				key = record.PayloadRef
			} else {
				key = s.keys.Build(record.TenantID, KindText.Category(), textFileName(record.Title), now)
			}
			data := strings.NewReader(*content)
			params := UploadParams{ObjectKey: key, MimeType: "text/plain", Metadata: map[string]string{"kind": string(KindText)}}
			if err := s.blobStore.UploadWithParams(ctx, data, params); err != nil {
				return &StorageError{Key: key, Op: "upload", Err: fmt.Errorf("%w: %v", ErrUploadFailed, err)}
			}
			record.PayloadRef = key
			record.Metadata = map[string]interface{}{
				MetaFileName: textFileName(record.Title),
				MetaMimeType: "text/plain",
				MetaSize:     int64(len(*content)),
			}

		case PayloadExternalLink:
			if oldPayload == PayloadText && record.PayloadRef != "" {
				s.deleteBlobTolerant(ctx, record.PayloadRef, "record changed to external link")
			}
			record.PayloadRef = *content
			record.Metadata = map[string]interface{}{MetaURL: *content}
		}
	}

	record.Kind = newKind
	return nil
}

func (s *service) DeleteContent(ctx context.Context, id uuid.UUID) error {
	record, err := s.repository.GetContent(ctx, id)
	if err != nil {
		return err
	}

	// Blob first, record second. A blob-deletion failure never blocks the
	// record deletion: the stated policy is to prefer an occasional
	// orphaned blob over a dangling record.
	if record.Kind.IsBlobBacked() && record.PayloadRef != "" {
		s.deleteBlobTolerant(ctx, record.PayloadRef, "content deleted")
	}

	if err := s.repository.DeleteContent(ctx, id); err != nil {
		return &ContentError{ContentID: id, Op: "delete", Err: err}
	}

	s.fireContentDeleted(ctx, id)
	return nil
}

// Content queries

func (s *service) GetContent(ctx context.Context, id uuid.UUID) (*ContentRecord, error) {
	return s.repository.GetContent(ctx, id)
}

func (s *service) ListContent(ctx context.Context, req ListContentRequest) ([]*ContentRecord, error) {
	return s.repository.ListContent(ctx, ListContentParams{
		TenantID:  req.TenantID,
		ProjectID: req.ProjectID,
	})
}

func (s *service) SearchContent(ctx context.Context, req SearchContentRequest) ([]*ContentRecord, error) {
	if req.Kind != nil && !req.Kind.IsValid() {
		return nil, &ValidationError{Field: "kind", Reason: "unrecognized content kind"}
	}
	return s.repository.SearchContent(ctx, SearchContentParams{
		TenantID: req.TenantID,
		Query:    req.Query,
		Kind:     req.Kind,
	})
}

func (s *service) GetContentDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	record, err := s.repository.GetContent(ctx, id)
	if err != nil {
		return "", err
	}

	if !record.Kind.IsBlobBacked() {
		// External links resolve to the stored URL itself.
		return record.PayloadRef, nil
	}

	filename := ""
	if v, ok := record.Metadata[MetaFileName].(string); ok {
		filename = v
	}
	url, err := s.blobStore.GetDownloadURL(ctx, record.PayloadRef, filename)
	if err != nil {
		return "", &StorageError{Key: record.PayloadRef, Op: "get_download_url", Err: err}
	}
	return url, nil
}

// Project operations

func (s *service) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	if req.Name == "" {
		return nil, &ValidationError{Field: "name", Reason: "project name is required"}
	}
	status := req.Status
	if status == "" {
		status = ProjectStatusActive
	}
	if !status.IsValid() {
		return nil, &ValidationError{Field: "status", Reason: "unrecognized project status"}
	}

	now := time.Now().UTC()
	project := &Project{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repository.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

func (s *service) GetProject(ctx context.Context, tenantID string, id uuid.UUID) (*Project, error) {
	return s.ownedProject(ctx, tenantID, id)
}

func (s *service) ListProjects(ctx context.Context, tenantID string) ([]*Project, error) {
	return s.repository.ListProjects(ctx, tenantID)
}

func (s *service) UpdateProject(ctx context.Context, req UpdateProjectRequest) (*Project, error) {
	project, err := s.ownedProject(ctx, req.TenantID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, &ValidationError{Field: "name", Reason: "project name is required"}
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, &ValidationError{Field: "status", Reason: "unrecognized project status"}
		}
		project.Status = *req.Status
	}

	project.UpdatedAt = time.Now().UTC()
	if err := s.repository.UpdateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

func (s *service) DeleteProject(ctx context.Context, tenantID string, id uuid.UUID) error {
	project, err := s.ownedProject(ctx, tenantID, id)
	if err != nil {
		return err
	}

	count, err := s.repository.CountContentByProject(ctx, project.ID)
	if err != nil {
		return fmt.Errorf("failed to count project content: %w", err)
	}
	if count > 0 {
		return &ProjectNotEmptyError{ProjectID: project.ID, Count: count}
	}

	if err := s.repository.DeleteProject(ctx, project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func (s *service) GetProjectWithContents(ctx context.Context, tenantID string, id uuid.UUID) (*ProjectWithContents, error) {
	project, err := s.ownedProject(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	contents, err := s.repository.ListContent(ctx, ListContentParams{
		TenantID:  tenantID,
		ProjectID: &project.ID,
	})
	if err != nil {
		return nil, err
	}

	return &ProjectWithContents{
		Project:      project,
		Contents:     contents,
		ContentCount: int64(len(contents)),
	}, nil
}

// Helper methods

// ownedProject resolves a project for a tenant. A project owned by another
// tenant is indistinguishable from a nonexistent one.
func (s *service) ownedProject(ctx context.Context, tenantID string, id uuid.UUID) (*Project, error) {
	project, err := s.repository.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.TenantID != tenantID {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *service) uploadText(ctx context.Context, tenantID, title, content string, now time.Time) (string, map[string]interface{}, error) {
	filename := textFileName(title)
	key := s.keys.Build(tenantID, KindText.Category(), filename, now)
	params := UploadParams{
		ObjectKey: key,
		MimeType:  "text/plain",
		Metadata: map[string]string{
			"title":            title,
			"originalFileName": filename,
			"kind":             string(KindText),
		},
	}
	if err := s.blobStore.UploadWithParams(ctx, strings.NewReader(content), params); err != nil {
		return "", nil, &StorageError{Key: key, Op: "upload", Err: fmt.Errorf("%w: %v", ErrUploadFailed, err)}
	}
	meta := map[string]interface{}{
		MetaFileName: filename,
		MetaMimeType: "text/plain",
		MetaSize:     int64(len(content)),
	}
	return key, meta, nil
}

// deleteBlobTolerant deletes a blob and swallows any failure, logging the
// leftover key as a reconciliation candidate.
func (s *service) deleteBlobTolerant(ctx context.Context, objectKey, reason string) {
	if err := s.blobStore.Delete(ctx, objectKey); err != nil {
		s.logger.Warn("blob deletion failed, leaving reconciliation candidate",
			"object_key", objectKey, "reason", reason, "err", err)
		s.reportOrphan(ctx, objectKey, reason)
	}
}

func (s *service) reportOrphan(ctx context.Context, objectKey, reason string) {
	s.logger.Warn("orphaned blob", "object_key", objectKey, "reason", reason)
	if s.eventSink != nil {
		if err := s.eventSink.BlobOrphaned(ctx, objectKey, reason); err != nil {
			s.logger.Error("event sink failed", "event", "blob_orphaned", "err", err)
		}
	}
}

func (s *service) fireContentCreated(ctx context.Context, record *ContentRecord) {
	if s.eventSink != nil {
		if err := s.eventSink.ContentCreated(ctx, record); err != nil {
			s.logger.Error("event sink failed", "event", "content_created", "err", err)
		}
	}
}

func (s *service) fireContentUpdated(ctx context.Context, record *ContentRecord) {
	if s.eventSink != nil {
		if err := s.eventSink.ContentUpdated(ctx, record); err != nil {
			s.logger.Error("event sink failed", "event", "content_updated", "err", err)
		}
	}
}

func (s *service) fireContentDeleted(ctx context.Context, id uuid.UUID) {
	if s.eventSink != nil {
		if err := s.eventSink.ContentDeleted(ctx, id); err != nil {
			s.logger.Error("event sink failed", "event", "content_deleted", "err", err)
		}
	}
}

func textFileName(title string) string {
	name := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	if name == "" {
		name = "text_content"
	}
	return name + ".txt"
}
