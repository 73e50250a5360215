package datastore_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-datastore/pkg/datastore"
	"github.com/tendant/simple-datastore/pkg/datastore/repo/memory"
	memorystorage "github.com/tendant/simple-datastore/pkg/datastore/storage/memory"
)

// countingBlobStore wraps a real backend, counts calls, and can be told to
// fail uploads or deletes.
type countingBlobStore struct {
	datastore.BlobStore

	mu          sync.Mutex
	uploads     int
	deletes     int
	failUpload  bool
	failDelete  bool
	downloadURL string
}

func newCountingBlobStore() *countingBlobStore {
	return &countingBlobStore{BlobStore: memorystorage.New()}
}

func (s *countingBlobStore) UploadWithParams(ctx context.Context, reader io.Reader, params datastore.UploadParams) error {
	s.mu.Lock()
	s.uploads++
	fail := s.failUpload
	s.mu.Unlock()
	if fail {
		return errors.New("backend unavailable")
	}
	return s.BlobStore.UploadWithParams(ctx, reader, params)
}

func (s *countingBlobStore) Delete(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	s.deletes++
	fail := s.failDelete
	s.mu.Unlock()
	if fail {
		return errors.New("backend unavailable")
	}
	return s.BlobStore.Delete(ctx, objectKey)
}

func (s *countingBlobStore) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if s.downloadURL != "" {
		return s.downloadURL + "/" + objectKey, nil
	}
	return s.BlobStore.GetDownloadURL(ctx, objectKey, downloadFilename)
}

// failingRepo wraps a real repository and can be told to fail record
// creation.
type failingRepo struct {
	datastore.Repository
	failCreateContent bool
}

func (r *failingRepo) CreateContent(ctx context.Context, record *datastore.ContentRecord) error {
	if r.failCreateContent {
		return errors.New("connection refused")
	}
	return r.Repository.CreateContent(ctx, record)
}

// recordingSink captures lifecycle events.
type recordingSink struct {
	mu       sync.Mutex
	created  []uuid.UUID
	updated  []uuid.UUID
	deleted  []uuid.UUID
	orphaned []string
}

func (s *recordingSink) ContentCreated(ctx context.Context, record *datastore.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, record.ID)
	return nil
}

func (s *recordingSink) ContentUpdated(ctx context.Context, record *datastore.ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, record.ID)
	return nil
}

func (s *recordingSink) ContentDeleted(ctx context.Context, contentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, contentID)
	return nil
}

func (s *recordingSink) BlobOrphaned(ctx context.Context, objectKey string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orphaned = append(s.orphaned, objectKey)
	return nil
}

type testEnv struct {
	svc   datastore.Service
	store *countingBlobStore
	repo  *failingRepo
	sink  *recordingSink
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()

	store := newCountingBlobStore()
	repo := &failingRepo{Repository: memory.New()}
	sink := &recordingSink{}

	svc, err := datastore.New(
		datastore.WithRepository(repo),
		datastore.WithBlobStore(store),
		datastore.WithEventSink(sink),
	)
	require.NoError(t, err)

	return &testEnv{svc: svc, store: store, repo: repo, sink: sink}
}

func createTestProject(t *testing.T, svc datastore.Service, tenantID string) *datastore.Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), datastore.CreateProjectRequest{
		TenantID: tenantID,
		Name:     "Test Project",
	})
	require.NoError(t, err)
	return project
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []datastore.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []datastore.Option{},
			expectError: true,
		},
		{
			name: "repository alone should fail",
			options: []datastore.Option{
				datastore.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "repository and blob store should succeed",
			options: []datastore.Option{
				datastore.WithRepository(memory.New()),
				datastore.WithBlobStore(memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := datastore.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateContent_Text(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindText,
		Title:     "My Note",
		Content:   "hello",
	})
	require.NoError(t, err)

	assert.Equal(t, datastore.KindText, record.Kind)
	assert.Equal(t, "tenant-a", record.TenantID)
	assert.True(t, strings.HasPrefix(record.PayloadRef, "tenant-a/uploads/text/"), "key %q", record.PayloadRef)
	assert.True(t, strings.HasSuffix(record.PayloadRef, "-My_Note.txt"), "key %q", record.PayloadRef)
	assert.Equal(t, "My_Note.txt", record.Metadata[datastore.MetaFileName])
	assert.Equal(t, "text/plain", record.Metadata[datastore.MetaMimeType])
	assert.Equal(t, int64(5), record.Metadata[datastore.MetaSize])

	// The raw text must live in the blob store under the record's key.
	body, err := env.store.Download(ctx, record.PayloadRef)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, []uuid.UUID{record.ID}, env.sink.created)
}

func TestCreateContent_File(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindImage,
		Title:     "Vacation Photo",
		File: &datastore.FileUpload{
			Reader:   strings.NewReader("fake image bytes"),
			FileName: "beach day.jpg",
			MimeType: "image/jpeg",
			Size:     16,
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record.PayloadRef, "tenant-a/uploads/image/"), "key %q", record.PayloadRef)
	assert.True(t, strings.HasSuffix(record.PayloadRef, "-beach_day.jpg"), "key %q", record.PayloadRef)
	assert.Equal(t, "beach day.jpg", record.Metadata[datastore.MetaFileName])
	assert.Equal(t, "image/jpeg", record.Metadata[datastore.MetaMimeType])
	assert.Equal(t, int64(16), record.Metadata[datastore.MetaSize])

	meta, err := env.store.GetObjectMeta(ctx, record.PayloadRef)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", meta.ContentType)
}

func TestCreateContent_ExternalLink(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	for _, kind := range []datastore.Kind{datastore.KindYouTube, datastore.KindLink, datastore.KindWebsite} {
		t.Run(string(kind), func(t *testing.T) {
			url := "https://example.com/" + strings.ToLower(string(kind))
			record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
				TenantID:  "tenant-a",
				ProjectID: project.ID,
				Kind:      kind,
				Title:     "A Link",
				Content:   url,
			})
			require.NoError(t, err)

			assert.Equal(t, url, record.PayloadRef)
			assert.Equal(t, url, record.Metadata[datastore.MetaURL])
		})
	}

	// Link kinds never touch the blob store.
	assert.Equal(t, 0, env.store.uploads)
}

func TestCreateContent_Validation(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	tests := []struct {
		name  string
		req   datastore.CreateContentRequest
		field string
	}{
		{
			name: "missing title",
			req: datastore.CreateContentRequest{
				TenantID: "tenant-a", ProjectID: project.ID,
				Kind: datastore.KindText, Content: "x",
			},
			field: "title",
		},
		{
			name: "missing project",
			req: datastore.CreateContentRequest{
				TenantID: "tenant-a", Title: "t",
				Kind: datastore.KindText, Content: "x",
			},
			field: "projectId",
		},
		{
			name: "unrecognized kind",
			req: datastore.CreateContentRequest{
				TenantID: "tenant-a", ProjectID: project.ID, Title: "t",
				Kind: "Audio", Content: "x",
			},
			field: "kind",
		},
		{
			name: "text without content",
			req: datastore.CreateContentRequest{
				TenantID: "tenant-a", ProjectID: project.ID, Title: "t",
				Kind: datastore.KindText,
			},
			field: "content",
		},
		{
			name: "image without file",
			req: datastore.CreateContentRequest{
				TenantID: "tenant-a", ProjectID: project.ID, Title: "t",
				Kind: datastore.KindImage,
			},
			field: "contentFile",
		},
		{
			name: "link without url",
			req: datastore.CreateContentRequest{
				TenantID: "tenant-a", ProjectID: project.ID, Title: "t",
				Kind: datastore.KindLink,
			},
			field: "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateContent(ctx, tt.req)

			var validationErr *datastore.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	// Validation failures must leave both stores untouched.
	assert.Equal(t, 0, env.store.uploads)
	records, err := env.svc.ListContent(ctx, datastore.ListContentRequest{TenantID: "tenant-a"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateContent_ForeignProjectLooksNonexistent(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	_, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-b",
		ProjectID: project.ID,
		Kind:      datastore.KindText,
		Title:     "t",
		Content:   "x",
	})
	assert.ErrorIs(t, err, datastore.ErrProjectNotFound)
	assert.Equal(t, 0, env.store.uploads)
}

func TestCreateContent_UploadFailureLeavesNoRecord(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")
	env.store.failUpload = true

	_, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindText,
		Title:     "t",
		Content:   "x",
	})

	var storageErr *datastore.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, datastore.ErrUploadFailed)

	records, listErr := env.svc.ListContent(ctx, datastore.ListContentRequest{TenantID: "tenant-a"})
	require.NoError(t, listErr)
	assert.Empty(t, records)
	assert.Empty(t, env.sink.created)
}

func TestCreateContent_PersistFailureReportsOrphan(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")
	env.repo.failCreateContent = true

	_, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindText,
		Title:     "t",
		Content:   "x",
	})

	var contentErr *datastore.ContentError
	require.ErrorAs(t, err, &contentErr)
	assert.Equal(t, "create", contentErr.Op)

	// The uploaded blob is now unreferenced and must be reported, not
	// silently dropped.
	require.Len(t, env.sink.orphaned, 1)
	assert.True(t, strings.HasPrefix(env.sink.orphaned[0], "tenant-a/uploads/text/"))
}

func TestUpdateContent_TitleOnly(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindLink,
		Title:     "Old Title",
		Content:   "https://example.com",
	})
	require.NoError(t, err)

	title := "New Title"
	updated, err := env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{ID: record.ID, Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, record.PayloadRef, updated.PayloadRef)
	assert.Equal(t, []uuid.UUID{record.ID}, env.sink.updated)
}

func TestUpdateContent_TextRewritesBlobInPlace(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindText,
		Title:     "Note",
		Content:   "first version",
	})
	require.NoError(t, err)

	content := "second version"
	updated, err := env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{ID: record.ID, Content: &content})
	require.NoError(t, err)

	// Same key, new bytes: the record never points at a missing blob.
	assert.Equal(t, record.PayloadRef, updated.PayloadRef)
	assert.Equal(t, int64(len(content)), updated.Metadata[datastore.MetaSize])

	body, err := env.store.Download(ctx, updated.PayloadRef)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "second version", string(data))
}

func TestUpdateContent_FileReplacement(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindImage,
		Title:     "Photo",
		File: &datastore.FileUpload{
			Reader:   strings.NewReader("old bytes"),
			FileName: "old.jpg",
			MimeType: "image/jpeg",
			Size:     9,
		},
	})
	require.NoError(t, err)
	oldKey := record.PayloadRef

	updated, err := env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{
		ID: record.ID,
		File: &datastore.FileUpload{
			Reader:   strings.NewReader("new bytes"),
			FileName: "new.png",
			MimeType: "image/png",
			Size:     9,
		},
	})
	require.NoError(t, err)

	assert.NotEqual(t, oldKey, updated.PayloadRef)
	assert.Equal(t, "new.png", updated.Metadata[datastore.MetaFileName])
	assert.Equal(t, "image/png", updated.Metadata[datastore.MetaMimeType])

	// The old blob is gone.
	_, err = env.store.Download(ctx, oldKey)
	assert.Error(t, err)
}

func TestUpdateContent_FileReplacementSurvivesOldBlobDeleteFailure(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindPDF,
		Title:     "Report",
		File: &datastore.FileUpload{
			Reader:   strings.NewReader("pdf bytes"),
			FileName: "report.pdf",
			MimeType: "application/pdf",
			Size:     9,
		},
	})
	require.NoError(t, err)
	env.store.failDelete = true

	updated, err := env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{
		ID: record.ID,
		File: &datastore.FileUpload{
			Reader:   strings.NewReader("pdf v2"),
			FileName: "report-v2.pdf",
			MimeType: "application/pdf",
			Size:     6,
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, record.PayloadRef, updated.PayloadRef)
	assert.Equal(t, []string{record.PayloadRef}, env.sink.orphaned)
}

func TestUpdateContent_KindTransitions(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	t.Run("file kind change without payload is rejected", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindImage,
			Title:     "Photo",
			File: &datastore.FileUpload{
				Reader:   strings.NewReader("bytes"),
				FileName: "a.jpg",
				MimeType: "image/jpeg",
				Size:     5,
			},
		})
		require.NoError(t, err)

		kind := datastore.KindText
		_, err = env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{ID: record.ID, Kind: &kind})
		var validationErr *datastore.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("becoming a file kind requires a file", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindLink,
			Title:     "Link",
			Content:   "https://example.com",
		})
		require.NoError(t, err)

		kind := datastore.KindVideo
		_, err = env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{ID: record.ID, Kind: &kind})
		var validationErr *datastore.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "contentFile", validationErr.Field)
	})

	t.Run("file upload with a link kind is rejected", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindImage,
			Title:     "Photo",
			File: &datastore.FileUpload{
				Reader:   strings.NewReader("bytes"),
				FileName: "a.jpg",
				MimeType: "image/jpeg",
				Size:     5,
			},
		})
		require.NoError(t, err)
		deletesBefore := env.store.deletes

		kind := datastore.KindLink
		_, err = env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{
			ID:   record.ID,
			Kind: &kind,
			File: &datastore.FileUpload{
				Reader:   strings.NewReader("more"),
				FileName: "b.jpg",
				MimeType: "image/jpeg",
				Size:     4,
			},
		})
		var validationErr *datastore.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "kind", validationErr.Field)
		assert.Equal(t, deletesBefore, env.store.deletes, "original blob must survive a rejected update")

		got, err := env.svc.GetContent(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, datastore.KindImage, got.Kind)
		assert.Equal(t, record.PayloadRef, got.PayloadRef)
	})

	t.Run("file to file kind change keeps the blob", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindImage,
			Title:     "Scan",
			File: &datastore.FileUpload{
				Reader:   strings.NewReader("%PDF-ish"),
				FileName: "scan.jpg",
				MimeType: "image/jpeg",
				Size:     8,
			},
		})
		require.NoError(t, err)
		uploadsBefore := env.store.uploads

		kind := datastore.KindPDF
		updated, err := env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{ID: record.ID, Kind: &kind})
		require.NoError(t, err)

		assert.Equal(t, datastore.KindPDF, updated.Kind)
		assert.Equal(t, record.PayloadRef, updated.PayloadRef)
		assert.Equal(t, uploadsBefore, env.store.uploads)

		body, err := env.store.Download(ctx, updated.PayloadRef)
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-ish", string(data))
	})

	t.Run("text to link drops the blob", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindText,
			Title:     "Note",
			Content:   "some text",
		})
		require.NoError(t, err)
		oldKey := record.PayloadRef

		kind := datastore.KindLink
		url := "https://example.com/moved"
		updated, err := env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{
			ID: record.ID, Kind: &kind, Content: &url,
		})
		require.NoError(t, err)

		assert.Equal(t, datastore.KindLink, updated.Kind)
		assert.Equal(t, url, updated.PayloadRef)
		_, err = env.store.Download(ctx, oldKey)
		assert.Error(t, err)
	})

	t.Run("link to text names the blob after the updated title", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindLink,
			Title:     "Old Bookmark",
			Content:   "https://example.com/old",
		})
		require.NoError(t, err)

		kind := datastore.KindText
		title := "Fresh Notes"
		content := "now plain text"
		updated, err := env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{
			ID: record.ID, Kind: &kind, Title: &title, Content: &content,
		})
		require.NoError(t, err)

		assert.Equal(t, "Fresh Notes", updated.Title)
		assert.True(t, strings.HasSuffix(updated.PayloadRef, "-Fresh_Notes.txt"), "key %q", updated.PayloadRef)
		assert.Equal(t, "Fresh_Notes.txt", updated.Metadata[datastore.MetaFileName])
	})

	t.Run("text to link without content is rejected", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindText,
			Title:     "Note",
			Content:   "some text",
		})
		require.NoError(t, err)

		kind := datastore.KindWebsite
		_, err = env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{ID: record.ID, Kind: &kind})
		var validationErr *datastore.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "content", validationErr.Field)
	})
}

func TestUpdateContent_MoveToForeignProjectRejected(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")
	foreign := createTestProject(t, env.svc, "tenant-b")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindLink,
		Title:     "Link",
		Content:   "https://example.com",
	})
	require.NoError(t, err)

	_, err = env.svc.UpdateContent(ctx, datastore.UpdateContentRequest{ID: record.ID, ProjectID: &foreign.ID})
	assert.ErrorIs(t, err, datastore.ErrProjectNotFound)
}

func TestDeleteContent(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindText,
		Title:     "Note",
		Content:   "bye",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteContent(ctx, record.ID))

	_, err = env.svc.GetContent(ctx, record.ID)
	assert.ErrorIs(t, err, datastore.ErrContentNotFound)
	_, err = env.store.Download(ctx, record.PayloadRef)
	assert.Error(t, err)
	assert.Equal(t, []uuid.UUID{record.ID}, env.sink.deleted)
}

func TestDeleteContent_BlobFailureStillDeletesRecord(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindText,
		Title:     "Note",
		Content:   "sticky",
	})
	require.NoError(t, err)
	env.store.failDelete = true

	require.NoError(t, env.svc.DeleteContent(ctx, record.ID))

	_, err = env.svc.GetContent(ctx, record.ID)
	assert.ErrorIs(t, err, datastore.ErrContentNotFound)
	assert.Equal(t, []string{record.PayloadRef}, env.sink.orphaned)
}

func TestDeleteContent_LinkSkipsBlobStore(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID:  "tenant-a",
		ProjectID: project.ID,
		Kind:      datastore.KindYouTube,
		Title:     "Video",
		Content:   "https://youtube.com/watch?v=x",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteContent(ctx, record.ID))
	assert.Equal(t, 0, env.store.deletes)
}

func TestGetContentDownloadURL(t *testing.T) {
	env := setupTestService(t)
	env.store.downloadURL = "https://cdn.example.com"
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	t.Run("external link returns stored url", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindLink,
			Title:     "Link",
			Content:   "https://example.com/page",
		})
		require.NoError(t, err)

		url, err := env.svc.GetContentDownloadURL(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/page", url)
	})

	t.Run("blob backed delegates to the store", func(t *testing.T) {
		record, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID:  "tenant-a",
			ProjectID: project.ID,
			Kind:      datastore.KindText,
			Title:     "Note",
			Content:   "x",
		})
		require.NoError(t, err)

		url, err := env.svc.GetContentDownloadURL(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/"+record.PayloadRef, url)
	})
}

func TestSearchContent(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")
	otherProject := createTestProject(t, env.svc, "tenant-b")

	mustCreate := func(tenant string, proj uuid.UUID, kind datastore.Kind, title, content string) *datastore.ContentRecord {
		req := datastore.CreateContentRequest{TenantID: tenant, ProjectID: proj, Kind: kind, Title: title, Content: content}
		record, err := env.svc.CreateContent(ctx, req)
		require.NoError(t, err)
		return record
	}

	noteAboutGo := mustCreate("tenant-a", project.ID, datastore.KindText, "go notes go", "x")
	linkAboutGo := mustCreate("tenant-a", project.ID, datastore.KindLink, "language link", "https://go.dev")
	mustCreate("tenant-a", project.ID, datastore.KindText, "unrelated", "x")
	mustCreate("tenant-b", otherProject.ID, datastore.KindText, "go elsewhere", "x")

	t.Run("query is tenant scoped and ranked", func(t *testing.T) {
		results, err := env.svc.SearchContent(ctx, datastore.SearchContentRequest{TenantID: "tenant-a", Query: "go"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		// Two title hits outrank one payload hit.
		assert.Equal(t, noteAboutGo.ID, results[0].ID)
		assert.Equal(t, linkAboutGo.ID, results[1].ID)
	})

	t.Run("kind filter", func(t *testing.T) {
		kind := datastore.KindLink
		results, err := env.svc.SearchContent(ctx, datastore.SearchContentRequest{TenantID: "tenant-a", Query: "go", Kind: &kind})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, linkAboutGo.ID, results[0].ID)
	})

	t.Run("invalid kind", func(t *testing.T) {
		kind := datastore.Kind("Audio")
		_, err := env.svc.SearchContent(ctx, datastore.SearchContentRequest{TenantID: "tenant-a", Kind: &kind})
		var validationErr *datastore.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestProjectLifecycle(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	project, err := env.svc.CreateProject(ctx, datastore.CreateProjectRequest{
		TenantID:    "tenant-a",
		Name:        "Research",
		Description: "papers",
	})
	require.NoError(t, err)
	assert.Equal(t, datastore.ProjectStatusActive, project.Status)

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := env.svc.CreateProject(ctx, datastore.CreateProjectRequest{TenantID: "tenant-a"})
		var validationErr *datastore.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("foreign tenant cannot see the project", func(t *testing.T) {
		_, err := env.svc.GetProject(ctx, "tenant-b", project.ID)
		assert.ErrorIs(t, err, datastore.ErrProjectNotFound)
	})

	t.Run("status update", func(t *testing.T) {
		status := datastore.ProjectStatusCompleted
		updated, err := env.svc.UpdateProject(ctx, datastore.UpdateProjectRequest{
			TenantID: "tenant-a", ID: project.ID, Status: &status,
		})
		require.NoError(t, err)
		assert.Equal(t, datastore.ProjectStatusCompleted, updated.Status)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		status := datastore.ProjectStatus("paused")
		_, err := env.svc.UpdateProject(ctx, datastore.UpdateProjectRequest{
			TenantID: "tenant-a", ID: project.ID, Status: &status,
		})
		var validationErr *datastore.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}

func TestDeleteProject_Guard(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")

	first, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID: "tenant-a", ProjectID: project.ID,
		Kind: datastore.KindText, Title: "one", Content: "x",
	})
	require.NoError(t, err)
	second, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID: "tenant-a", ProjectID: project.ID,
		Kind: datastore.KindLink, Title: "two", Content: "https://example.com",
	})
	require.NoError(t, err)

	err = env.svc.DeleteProject(ctx, "tenant-a", project.ID)
	var notEmptyErr *datastore.ProjectNotEmptyError
	require.ErrorAs(t, err, &notEmptyErr)
	assert.Equal(t, int64(2), notEmptyErr.Count)

	require.NoError(t, env.svc.DeleteContent(ctx, first.ID))
	require.NoError(t, env.svc.DeleteContent(ctx, second.ID))

	require.NoError(t, env.svc.DeleteProject(ctx, "tenant-a", project.ID))
	_, err = env.svc.GetProject(ctx, "tenant-a", project.ID)
	assert.ErrorIs(t, err, datastore.ErrProjectNotFound)
}

func TestGetProjectWithContents(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	project := createTestProject(t, env.svc, "tenant-a")
	other := createTestProject(t, env.svc, "tenant-a")

	for i := 0; i < 3; i++ {
		_, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
			TenantID: "tenant-a", ProjectID: project.ID,
			Kind: datastore.KindLink, Title: fmt.Sprintf("link %d", i),
			Content: fmt.Sprintf("https://example.com/%d", i),
		})
		require.NoError(t, err)
	}
	_, err := env.svc.CreateContent(ctx, datastore.CreateContentRequest{
		TenantID: "tenant-a", ProjectID: other.ID,
		Kind: datastore.KindLink, Title: "elsewhere", Content: "https://example.com/other",
	})
	require.NoError(t, err)

	result, err := env.svc.GetProjectWithContents(ctx, "tenant-a", project.ID)
	require.NoError(t, err)

	assert.Equal(t, project.ID, result.Project.ID)
	assert.Equal(t, int64(3), result.ContentCount)
	assert.Len(t, result.Contents, 3)
}
