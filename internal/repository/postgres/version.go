package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/utils"
)

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	clock  *utils.MonotonicClock
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *RepositoryConfig) repositories.VersionRepository {
	return &PostgresVersionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		clock:  config.Clock,
	}
}

// Append inserts an immutable version
func (r *PostgresVersionRepository) Append(ctx context.Context, projectID, code, description string) (*models.Version, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, code, description, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, project_id::text, code, description, timestamp, seq
	`, r.tables.Versions)

	var v models.Version
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, projectID, code, description, r.clock.Next()).Scan(
		&v.ID,
		&v.ProjectID,
		&v.Code,
		&v.Description,
		&v.Timestamp,
		&v.Seq,
	)
	if err != nil {
		if IsPgForeignKeyError(err) || IsPgInvalidUUID(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("append version: %w", err)
	}

	return &v, nil
}

// SetCurrent repoints the project in one statement. The join on project_id
// makes a version of another project match zero rows.
func (r *PostgresVersionRepository) SetCurrent(ctx context.Context, projectID, versionID string) (*models.Version, error) {
	query := fmt.Sprintf(`
		UPDATE %s p
		SET current_version_id = v.id, current_code = v.code, updated_at = $3
		FROM %s v
		WHERE v.id = $1 AND v.project_id = p.id AND p.id = $2
		RETURNING v.id::text, v.project_id::text, v.code, v.description, v.timestamp, v.seq
	`, r.tables.Projects, r.tables.Versions)

	var v models.Version
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, versionID, projectID, r.clock.Next()).Scan(
		&v.ID,
		&v.ProjectID,
		&v.Code,
		&v.Description,
		&v.Timestamp,
		&v.Seq,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidUUID(err) {
			return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("set current version: %w", err)
	}

	return &v, nil
}

// Get retrieves one version of a project
func (r *PostgresVersionRepository) Get(ctx context.Context, projectID, versionID string) (*models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id::text, project_id::text, code, description, timestamp, seq
		FROM %s
		WHERE id = $1 AND project_id = $2
	`, r.tables.Versions)

	var v models.Version
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, versionID, projectID).Scan(
		&v.ID,
		&v.ProjectID,
		&v.Code,
		&v.Description,
		&v.Timestamp,
		&v.Seq,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidUUID(err) {
			return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	return &v, nil
}

// ListOrdered returns versions by (timestamp, seq)
func (r *PostgresVersionRepository) ListOrdered(ctx context.Context, projectID string) ([]models.Version, error) {
	query := fmt.Sprintf(`
		SELECT id::text, project_id::text, code, description, timestamp, seq
		FROM %s
		WHERE project_id = $1
		ORDER BY timestamp, seq
	`, r.tables.Versions)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.ID, &v.ProjectID, &v.Code, &v.Description, &v.Timestamp, &v.Seq); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}
