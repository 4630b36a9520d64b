package revision

import (
	"context"
	"log/slog"

	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/policy"
)

// rollbackService implements the RollbackService interface
type rollbackService struct {
	projectRepo      repositories.ProjectRepository
	versionRepo      repositories.VersionRepository
	conversationRepo repositories.ConversationRepository
	txManager        repositories.TransactionManager
	policy           *policy.Policy
	logger           *slog.Logger
}

// NewRollbackService creates a new rollback coordinator
func NewRollbackService(
	projectRepo repositories.ProjectRepository,
	versionRepo repositories.VersionRepository,
	conversationRepo repositories.ConversationRepository,
	txManager repositories.TransactionManager,
	pol *policy.Policy,
	logger *slog.Logger,
) services.RollbackService {
	return &rollbackService{
		projectRepo:      projectRepo,
		versionRepo:      versionRepo,
		conversationRepo: conversationRepo,
		txManager:        txManager,
		policy:           pol,
		logger:           logger,
	}
}

// Rollback points the project at an existing version. Rolling back to the
// current version changes nothing. No credits move.
func (s *rollbackService) Rollback(ctx context.Context, userID, projectID, versionID string) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.versionRepo.Get(ctx, projectID, versionID); err != nil {
		return nil, err
	}
	if project.CurrentVersionID == versionID {
		return project, nil
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if _, err := s.versionRepo.SetCurrent(ctx, projectID, versionID); err != nil {
			return err
		}
		_, err := s.conversationRepo.Append(ctx, projectID, models.RoleAssistant, s.policy.Messages.RolledBack)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project rolled back",
		"project_id", projectID,
		"user_id", userID,
		"version_id", versionID,
	)

	return s.projectRepo.GetByID(ctx, projectID, userID)
}
