package services

import (
	"context"

	"wbuilder/internal/domain/models"
)

// SaveCodeRequest is a manual overwrite of the current code
type SaveCodeRequest struct {
	Code string `json:"code"`
}

// ProjectService covers project reads, manual saves and deletion.
type ProjectService interface {
	// GetProject returns the project with ordered conversation and versions
	GetProject(ctx context.Context, id, userID string) (*models.ProjectDetail, error)

	// GetTimeline returns the merged conversation/version view
	GetTimeline(ctx context.Context, id, userID string) ([]models.TimelineItem, error)

	ListProjects(ctx context.Context, userID string) ([]models.Project, error)

	// SaveCode records the code as a new version and makes it current
	SaveCode(ctx context.Context, id, userID string, req *SaveCodeRequest) (*models.Project, error)

	DeleteProject(ctx context.Context, id, userID string) error

	// GetPublicCode returns current code of a published project, ErrNotFound otherwise
	GetPublicCode(ctx context.Context, id string) (string, error)

	ListPublished(ctx context.Context) ([]models.PublishedProject, error)
}

// PublicationGate controls anonymous read visibility of a project's current code
type PublicationGate interface {
	SetPublished(ctx context.Context, userID, projectID string, published bool) (bool, error)
}
