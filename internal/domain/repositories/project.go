package repositories

import (
	"context"

	"wbuilder/internal/domain/models"
)

// ProjectRepository persists projects. Lookups taking a userID only match
// projects owned by that user and return ErrNotFound otherwise.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error

	GetByID(ctx context.Context, id, userID string) (*models.Project, error)

	// GetPublic returns a project regardless of owner (public reads)
	GetPublic(ctx context.Context, id string) (*models.Project, error)

	// List returns the user's projects ordered by updated_at DESC
	List(ctx context.Context, userID string) ([]models.Project, error)

	// ListPublished returns published projects ordered by updated_at DESC
	ListPublished(ctx context.Context) ([]models.PublishedProject, error)

	// SetPublished updates the visibility flag and returns the stored value
	SetPublished(ctx context.Context, id, userID string, published bool) (bool, error)

	// Delete removes the project together with its versions and conversation
	Delete(ctx context.Context, id, userID string) error
}
