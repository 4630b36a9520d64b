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

// PostgresConversationRepository implements the ConversationRepository interface
type PostgresConversationRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	clock  *utils.MonotonicClock
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(config *RepositoryConfig) repositories.ConversationRepository {
	return &PostgresConversationRepository{
		pool:   config.Pool,
		tables: config.Tables,
		clock:  config.Clock,
	}
}

// Append inserts an immutable conversation entry
func (r *PostgresConversationRepository) Append(ctx context.Context, projectID string, role models.Role, content string) (*models.ConversationEntry, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrValidation)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, role, content, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, project_id::text, role, content, timestamp, seq
	`, r.tables.ConversationEntries)

	var e models.ConversationEntry
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, projectID, string(role), content, r.clock.Next()).Scan(
		&e.ID,
		&e.ProjectID,
		&e.Role,
		&e.Content,
		&e.Timestamp,
		&e.Seq,
	)
	if err != nil {
		if IsPgForeignKeyError(err) || IsPgInvalidUUID(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("append conversation entry: %w", err)
	}

	return &e, nil
}

// ListOrdered returns entries by (timestamp, seq)
func (r *PostgresConversationRepository) ListOrdered(ctx context.Context, projectID string) ([]models.ConversationEntry, error) {
	query := fmt.Sprintf(`
		SELECT id::text, project_id::text, role, content, timestamp, seq
		FROM %s
		WHERE project_id = $1
		ORDER BY timestamp, seq
	`, r.tables.ConversationEntries)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	entries := []models.ConversationEntry{}
	for rows.Next() {
		var e models.ConversationEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Role, &e.Content, &e.Timestamp, &e.Seq); err != nil {
			return nil, fmt.Errorf("scan conversation entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation: %w", err)
	}

	return entries, nil
}
