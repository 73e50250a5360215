package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-datastore/pkg/datastore"
)

// ProjectHandler handles HTTP requests for projects
type ProjectHandler struct {
	service datastore.Service
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(service datastore.Service) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// Routes returns the routes for projects
func (h *ProjectHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateProject)
	r.Get("/", h.ListProjects)
	r.Get("/{id}", h.GetProject)
	r.Get("/{id}/contents", h.GetProjectWithContents)
	r.Put("/{id}", h.UpdateProject)
	r.Delete("/{id}", h.DeleteProject)

	return r
}

// CreateProjectRequest is the request body for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// UpdateProjectRequest is the request body for updating a project. Absent
// fields are left unchanged.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project, err := h.service.CreateProject(r.Context(), datastore.CreateProjectRequest{
		TenantID:    TenantID(r.Context()),
		Name:        req.Name,
		Description: req.Description,
		Status:      datastore.ProjectStatus(req.Status),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Project created", "project_id", project.ID)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, project)
}

// GetProject retrieves a project by ID
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	project, err := h.service.GetProject(r.Context(), TenantID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, project)
}

// GetProjectWithContents retrieves a project together with its content
func (h *ProjectHandler) GetProjectWithContents(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetProjectWithContents(r.Context(), TenantID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result.Contents == nil {
		result.Contents = []*datastore.ContentRecord{}
	}

	render.JSON(w, r, result)
}

// ListProjects lists the tenant's projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context(), TenantID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if projects == nil {
		projects = []*datastore.Project{}
	}

	render.JSON(w, r, projects)
}

// UpdateProject updates a project
func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	update := datastore.UpdateProjectRequest{
		TenantID:    TenantID(r.Context()),
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := datastore.ProjectStatus(*req.Status)
		update.Status = &status
	}

	project, err := h.service.UpdateProject(r.Context(), update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Project updated", "project_id", project.ID)

	render.JSON(w, r, project)
}

// DeleteProject deletes a project if it has no content
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteProject(r.Context(), TenantID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("Project deleted", "project_id", id)

	render.NoContent(w, r)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid project ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
