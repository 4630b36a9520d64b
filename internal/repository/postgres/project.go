package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/utils"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	clock  *utils.MonotonicClock
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		clock:  config.Clock,
	}
}

const projectColumns = `id::text, user_id, name, initial_prompt, current_code,
	COALESCE(current_version_id::text, ''), is_published, created_at, updated_at`

func scanProject(row pgx.Row) (*models.Project, error) {
	var project models.Project
	err := row.Scan(
		&project.ID,
		&project.UserID,
		&project.Name,
		&project.InitialPrompt,
		&project.CurrentCode,
		&project.CurrentVersionID,
		&project.IsPublished,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Create creates a new project without a current version
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, name, initial_prompt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id::text, created_at, updated_at
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		project.UserID,
		project.Name,
		project.InitialPrompt,
		r.clock.Next(),
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("owner %s: %w", project.UserID, domain.ErrNotFound)
		}
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project owned by userID
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id, userID string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, projectColumns, r.tables.Projects)

	project, err := scanProject(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, userID))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidUUID(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return project, nil
}

// GetPublic retrieves a project regardless of owner
func (r *PostgresProjectRepository) GetPublic(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, projectColumns, r.tables.Projects)

	project, err := scanProject(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidUUID(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return project, nil
}

// List retrieves all projects for a user, ordered by updated_at DESC
func (r *PostgresProjectRepository) List(ctx context.Context, userID string) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, projectColumns, r.tables.Projects)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

// ListPublished retrieves published projects, ordered by updated_at DESC
func (r *PostgresProjectRepository) ListPublished(ctx context.Context) ([]models.PublishedProject, error) {
	query := fmt.Sprintf(`
		SELECT id::text, name, user_id, updated_at
		FROM %s
		WHERE is_published
		ORDER BY updated_at DESC
	`, r.tables.Projects)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list published projects: %w", err)
	}
	defer rows.Close()

	published := []models.PublishedProject{}
	for rows.Next() {
		var p models.PublishedProject
		if err := rows.Scan(&p.ID, &p.Name, &p.UserID, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan published project: %w", err)
		}
		published = append(published, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate published projects: %w", err)
	}

	return published, nil
}

// SetPublished updates the visibility flag
func (r *PostgresProjectRepository) SetPublished(ctx context.Context, id, userID string, published bool) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_published = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING is_published
	`, r.tables.Projects)

	var stored bool
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, userID, published, r.clock.Next()).Scan(&stored)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidUUID(err) {
			return false, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return false, fmt.Errorf("set published: %w", err)
	}

	return stored, nil
}

// Delete removes a project; versions and conversation cascade
func (r *PostgresProjectRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Projects)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, userID)
	if err != nil {
		if IsPgInvalidUUID(err) {
			return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
