package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/httputil"
)

// ProjectHandler handles project HTTP requests.
// Handlers only talk to services, never to repositories.
type ProjectHandler struct {
	projectService services.ProjectService
	revisions      services.RevisionService
	gate           services.PublicationGate
	logger         *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	projectService services.ProjectService,
	revisions services.RevisionService,
	gate services.PublicationGate,
	logger *slog.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		revisions:      revisions,
		gate:           gate,
		logger:         logger,
	}
}

// ListProjects handles GET /api/projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListProjects(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, projects)
}

// CreateProject handles POST /api/projects.
// The project is created and its first generation runs before responding.
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectRequest
	if !parseBody(w, r, &req) {
		return
	}
	req.UserID = httputil.GetUserID(r)

	result, err := h.revisions.CreateProject(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, result)
}

// GetProject handles GET /api/projects/{id}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, project)
}

// GetTimeline handles GET /api/projects/{id}/timeline
func (h *ProjectHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	timeline, err := h.projectService.GetTimeline(r.Context(), id, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, timeline)
}

// DeleteProject handles DELETE /api/projects/{id}
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(r.Context(), id, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveCode handles PUT /api/projects/{id}/code
func (h *ProjectHandler) SaveCode(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	var req services.SaveCodeRequest
	if !parseBody(w, r, &req) {
		return
	}

	project, err := h.projectService.SaveCode(r.Context(), id, httputil.GetUserID(r), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, project)
}

type publishRequest struct {
	Published *bool `json:"published"`
}

// Validate rejects bodies that omit the flag
func (r *publishRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Published, validation.NotNil),
	)
}

// SetPublished handles POST /api/projects/{id}/publish
func (h *ProjectHandler) SetPublished(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	var req publishRequest
	if !parseBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		handleError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	published, err := h.gate.SetPublished(r.Context(), httputil.GetUserID(r), id, *req.Published)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"is_published": published})
}

// ListPublished handles GET /api/published (public)
func (h *ProjectHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListPublished(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, projects)
}

// GetPublicCode handles GET /api/published/{id} (public)
func (h *ProjectHandler) GetPublicCode(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}

	code, err := h.projectService.GetPublicCode(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"code": code})
}
