package repositories

import (
	"context"

	"wbuilder/internal/domain/models"
)

// VersionRepository is the append-only version store plus the project's
// current pointer.
type VersionRepository interface {
	// Append inserts an immutable version. It never moves the current pointer.
	Append(ctx context.Context, projectID, code, description string) (*models.Version, error)

	// SetCurrent points the project at versionID, copying its code into
	// current_code in the same atomic step. Returns ErrNotFound if the version
	// does not belong to the project.
	SetCurrent(ctx context.Context, projectID, versionID string) (*models.Version, error)

	Get(ctx context.Context, projectID, versionID string) (*models.Version, error)

	// ListOrdered returns versions by ascending timestamp, ties by insertion order
	ListOrdered(ctx context.Context, projectID string) ([]models.Version, error)
}
