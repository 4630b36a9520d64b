package services

import "context"

// ResourceAuthorizer checks if a user can access resources.
// Ownership failures are reported as ErrNotFound so that callers cannot probe
// for projects they do not own.
type ResourceAuthorizer interface {
	// CanAccessProject checks if user can access a project
	CanAccessProject(ctx context.Context, userID, projectID string) error
}
