package projects

import (
	"context"
	"log/slog"

	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/domain/services"
)

// publicationGate implements the PublicationGate interface
type publicationGate struct {
	projectRepo repositories.ProjectRepository
	logger      *slog.Logger
}

// NewPublicationGate creates a new publication gate
func NewPublicationGate(projectRepo repositories.ProjectRepository, logger *slog.Logger) services.PublicationGate {
	return &publicationGate{projectRepo: projectRepo, logger: logger}
}

// SetPublished flips visibility for the owner. History and credits are untouched.
func (g *publicationGate) SetPublished(ctx context.Context, userID, projectID string, published bool) (bool, error) {
	stored, err := g.projectRepo.SetPublished(ctx, projectID, userID, published)
	if err != nil {
		return false, err
	}

	g.logger.Info("project visibility changed",
		"project_id", projectID,
		"user_id", userID,
		"published", stored,
	)
	return stored, nil
}
