package projects

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"wbuilder/internal/config"
	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/policy"
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo      repositories.ProjectRepository
	versionRepo      repositories.VersionRepository
	conversationRepo repositories.ConversationRepository
	txManager        repositories.TransactionManager
	policy           *policy.Policy
	logger           *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	versionRepo repositories.VersionRepository,
	conversationRepo repositories.ConversationRepository,
	txManager repositories.TransactionManager,
	pol *policy.Policy,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo:      projectRepo,
		versionRepo:      versionRepo,
		conversationRepo: conversationRepo,
		txManager:        txManager,
		policy:           pol,
		logger:           logger,
	}
}

// GetProject retrieves a project with its ordered history
func (s *projectService) GetProject(ctx context.Context, id, userID string) (*models.ProjectDetail, error) {
	project, err := s.projectRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.conversationRepo.ListOrdered(ctx, id)
	if err != nil {
		return nil, err
	}
	versions, err := s.versionRepo.ListOrdered(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.ProjectDetail{
		Project:      *project,
		Conversation: entries,
		Versions:     versions,
	}, nil
}

// GetTimeline merges conversation and versions into one ordered view
func (s *projectService) GetTimeline(ctx context.Context, id, userID string) ([]models.TimelineItem, error) {
	detail, err := s.GetProject(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return models.BuildTimeline(detail.Conversation, detail.Versions), nil
}

// ListProjects retrieves all projects for a user
func (s *projectService) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	return s.projectRepo.List(ctx, userID)
}

// SaveCode records a manual edit as a new version and points the project at it
func (s *projectService) SaveCode(ctx context.Context, id, userID string, req *services.SaveCodeRequest) (*models.Project, error) {
	if err := s.validateSaveRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.projectRepo.GetByID(ctx, id, userID); err != nil {
		return nil, err
	}

	var version *models.Version
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		version, err = s.versionRepo.Append(ctx, id, req.Code, models.VersionDescriptionManual)
		if err != nil {
			return err
		}
		if _, err := s.versionRepo.SetCurrent(ctx, id, version.ID); err != nil {
			return err
		}
		_, err = s.conversationRepo.Append(ctx, id, models.RoleAssistant, s.policy.Messages.ManualSaved)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("save code: %w", err)
	}

	s.logger.Info("manual edit saved",
		"project_id", id,
		"user_id", userID,
		"version_id", version.ID,
	)

	return s.projectRepo.GetByID(ctx, id, userID)
}

// DeleteProject deletes a project and its history
func (s *projectService) DeleteProject(ctx context.Context, id, userID string) error {
	if err := s.projectRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info("project deleted",
		"project_id", id,
		"user_id", userID,
	)
	return nil
}

// GetPublicCode returns the current code of a published project
func (s *projectService) GetPublicCode(ctx context.Context, id string) (string, error) {
	project, err := s.projectRepo.GetPublic(ctx, id)
	if err != nil {
		return "", err
	}
	if !project.IsPublished || project.CurrentCode == "" {
		return "", fmt.Errorf("published project %s: %w", id, domain.ErrNotFound)
	}
	return project.CurrentCode, nil
}

// ListPublished returns the community listing
func (s *projectService) ListPublished(ctx context.Context) ([]models.PublishedProject, error) {
	return s.projectRepo.ListPublished(ctx)
}

// validateSaveRequest validates a manual save request
func (s *projectService) validateSaveRequest(req *services.SaveCodeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Code,
			validation.Required,
			validation.By(maxBytes(config.MaxCodeLength)),
		),
	)
}

func maxBytes(max int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > max {
			return fmt.Errorf("must be at most %d bytes", max)
		}
		return nil
	}
}
