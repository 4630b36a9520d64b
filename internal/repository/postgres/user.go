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

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	clock  *utils.MonotonicClock
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		clock:  config.Clock,
	}
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, email, credits, total_creations, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	var user models.User
	err := executor.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Credits,
		&user.TotalCreations,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// Create inserts a user with its opening balance
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, credits, total_creations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING created_at, updated_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Credits,
		user.TotalCreations,
		r.clock.Next(),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user '%s' already exists", user.ID),
				ResourceType: "user",
				ResourceID:   user.ID,
			}
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// AdjustCredits applies delta in a single conditional UPDATE. Zero affected rows
// means either an unknown user or a balance that cannot cover the debit.
func (r *PostgresUserRepository) AdjustCredits(ctx context.Context, id string, delta int) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET credits = credits + $2, updated_at = $3
		WHERE id = $1 AND credits + $2 >= 0
		RETURNING credits
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	var balance int
	err := executor.QueryRow(ctx, query, id, delta, r.clock.Next()).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !IsPgNoRowsError(err) {
		return 0, fmt.Errorf("adjust credits: %w", err)
	}

	// Distinguish missing user from insufficient balance
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return 0, getErr
	}
	return 0, fmt.Errorf("user %s cannot cover %d credits: %w", id, -delta, domain.ErrInsufficientCredits)
}

// IncrementCreations bumps the total creations counter
func (r *PostgresUserRepository) IncrementCreations(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET total_creations = total_creations + 1, updated_at = $2
		WHERE id = $1
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, r.clock.Next())
	if err != nil {
		return fmt.Errorf("increment creations: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
