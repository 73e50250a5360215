package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-datastore/pkg/datastore"
)

// maxUploadSize bounds in-memory buffering of multipart uploads (32 MiB);
// larger files spill to temp files.
const maxUploadSize = 32 << 20

// ContentHandler handles HTTP requests for content records
type ContentHandler struct {
	service datastore.Service
}

// NewContentHandler creates a new content handler
func NewContentHandler(service datastore.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// Routes returns the routes for content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateContent)
	r.Get("/", h.ListContent)
	r.Get("/{id}", h.GetContent)
	r.Get("/{id}/download-url", h.GetDownloadURL)
	r.Put("/{id}", h.UpdateContent)
	r.Delete("/{id}", h.DeleteContent)

	return r
}

// DownloadURLResponse is the response body for a download URL request
type DownloadURLResponse struct {
	URL string `json:"url"`
}

// ContentResponse is a content record with an optional download URL attached.
type ContentResponse struct {
	*datastore.ContentRecord
	DownloadURL string `json:"download_url,omitempty"`
}

// CreateContent registers a new content record from a multipart form.
//
// Form fields: type, title, projectId, content (text or URL), and an
// optional file part named "contentFile" for file kinds.
func (h *ContentHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	projectID, err := uuid.Parse(r.FormValue("projectId"))
	if err != nil {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return
	}

	req := datastore.CreateContentRequest{
		TenantID:  TenantID(r.Context()),
		ProjectID: projectID,
		Kind:      datastore.Kind(r.FormValue("type")),
		Title:     r.FormValue("title"),
		Content:   r.FormValue("content"),
	}

	if file, header, err := r.FormFile("contentFile"); err == nil {
		defer file.Close()
		req.File = &datastore.FileUpload{
			Reader:   file,
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
		}
	}

	record, err := h.service.CreateContent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Content created", "content_id", record.ID, "kind", record.Kind)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, record)
}

// GetContent retrieves a content record by ID
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	record, ok := h.ownedContent(w, r)
	if !ok {
		return
	}

	resp := ContentResponse{ContentRecord: record}
	if record.Kind.IsBlobBacked() {
		// Best effort: some backends cannot mint URLs and the record is still useful without one.
		if url, err := h.service.GetContentDownloadURL(r.Context(), record.ID); err == nil {
			resp.DownloadURL = url
		}
	}
	render.JSON(w, r, resp)
}

// ListContent lists the tenant's content, optionally filtered by project
func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	req := datastore.ListContentRequest{TenantID: TenantID(r.Context())}

	if v := r.URL.Query().Get("projectId"); v != "" {
		projectID, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "Invalid project ID", http.StatusBadRequest)
			return
		}
		req.ProjectID = &projectID
	}

	records, err := h.service.ListContent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*datastore.ContentRecord{}
	}

	render.JSON(w, r, records)
}

// SearchContent searches the tenant's content by text query and kind
func (h *ContentHandler) SearchContent(w http.ResponseWriter, r *http.Request) {
	req := datastore.SearchContentRequest{
		TenantID: TenantID(r.Context()),
		Query:    r.URL.Query().Get("q"),
	}

	if v := r.URL.Query().Get("kind"); v != "" {
		kind := datastore.Kind(v)
		if !kind.IsValid() {
			http.Error(w, "Invalid content kind", http.StatusBadRequest)
			return
		}
		req.Kind = &kind
	}

	records, err := h.service.SearchContent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*datastore.ContentRecord{}
	}

	render.JSON(w, r, records)
}

// GetDownloadURL returns a URL the client can fetch the payload from
func (h *ContentHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	record, ok := h.ownedContent(w, r)
	if !ok {
		return
	}

	url, err := h.service.GetContentDownloadURL(r.Context(), record.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, DownloadURLResponse{URL: url})
}

// UpdateContent updates a content record from a multipart form. Absent form
// fields are left unchanged.
func (h *ContentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	record, ok := h.ownedContent(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	req := datastore.UpdateContentRequest{ID: record.ID}

	if v := r.FormValue("type"); v != "" {
		kind := datastore.Kind(v)
		req.Kind = &kind
	}
	if _, ok := r.MultipartForm.Value["title"]; ok {
		title := r.FormValue("title")
		req.Title = &title
	}
	if _, ok := r.MultipartForm.Value["content"]; ok {
		content := r.FormValue("content")
		req.Content = &content
	}
	if v := r.FormValue("projectId"); v != "" {
		projectID, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "Invalid project ID", http.StatusBadRequest)
			return
		}
		req.ProjectID = &projectID
	}

	if file, header, err := r.FormFile("contentFile"); err == nil {
		defer file.Close()
		req.File = &datastore.FileUpload{
			Reader:   file,
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
		}
	}

	updated, err := h.service.UpdateContent(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Content updated", "content_id", updated.ID)

	render.JSON(w, r, updated)
}

// DeleteContent deletes a content record and its blob
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	record, ok := h.ownedContent(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteContent(r.Context(), record.ID); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Content deleted", "content_id", record.ID)

	render.NoContent(w, r)
}

// ownedContent resolves the {id} route parameter to a content record owned
// by the calling tenant. Foreign records are reported as not found.
func (h *ContentHandler) ownedContent(w http.ResponseWriter, r *http.Request) (*datastore.ContentRecord, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid content ID", http.StatusBadRequest)
		return nil, false
	}

	record, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}

	if record.TenantID != TenantID(r.Context()) {
		writeError(w, r, datastore.ErrContentNotFound)
		return nil, false
	}

	return record, true
}
