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

// PostgresCreditTransactionRepository implements the CreditTransactionRepository interface
type PostgresCreditTransactionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	clock  *utils.MonotonicClock
}

// NewCreditTransactionRepository creates a new ledger repository
func NewCreditTransactionRepository(config *RepositoryConfig) repositories.CreditTransactionRepository {
	return &PostgresCreditTransactionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		clock:  config.Clock,
	}
}

// Record appends a ledger row
func (r *PostgresCreditTransactionRepository) Record(ctx context.Context, tx *models.CreditTransaction) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, kind, amount, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, created_at
	`, r.tables.CreditTransactions)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		tx.UserID,
		string(tx.Kind),
		tx.Amount,
		tx.BalanceAfter,
		tx.Reference,
		r.clock.Next(),
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if IsPgCheckViolation(err) {
			return fmt.Errorf("ledger row %s/%d: %w", tx.Kind, tx.Amount, domain.ErrValidation)
		}
		return fmt.Errorf("record credit transaction: %w", err)
	}

	return nil
}

// ListByUser returns the newest ledger rows first
func (r *PostgresCreditTransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	query := fmt.Sprintf(`
		SELECT id::text, user_id, kind, amount, balance_after, reference, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, r.tables.CreditTransactions)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list credit transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.CreditTransaction{}
	for rows.Next() {
		var t models.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Kind, &t.Amount, &t.BalanceAfter, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit transaction: %w", err)
		}
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit transactions: %w", err)
	}

	return txs, nil
}

// PostgresPurchaseRepository implements the PurchaseRepository interface
type PostgresPurchaseRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	clock  *utils.MonotonicClock
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(config *RepositoryConfig) repositories.PurchaseRepository {
	return &PostgresPurchaseRepository{
		pool:   config.Pool,
		tables: config.Tables,
		clock:  config.Clock,
	}
}

// Create records a pending purchase
func (r *PostgresPurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, plan_id, amount, credits, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at
	`, r.tables.Purchases)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		purchase.UserID,
		purchase.PlanID,
		purchase.Amount,
		purchase.Credits,
		r.clock.Next(),
	).Scan(&purchase.ID, &purchase.CreatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("user %s: %w", purchase.UserID, domain.ErrNotFound)
		}
		return fmt.Errorf("create purchase: %w", err)
	}

	return nil
}

// Get retrieves a purchase by ID
func (r *PostgresPurchaseRepository) Get(ctx context.Context, id string) (*models.Purchase, error) {
	query := fmt.Sprintf(`
		SELECT id::text, user_id, plan_id, amount::float8, credits, is_paid, created_at, paid_at
		FROM %s
		WHERE id = $1
	`, r.tables.Purchases)

	var p models.Purchase
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.UserID,
		&p.PlanID,
		&p.Amount,
		&p.Credits,
		&p.IsPaid,
		&p.CreatedAt,
		&p.PaidAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) || IsPgInvalidUUID(err) {
			return nil, fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}

	return &p, nil
}

// MarkPaid flips is_paid once; a second call matches zero rows
func (r *PostgresPurchaseRepository) MarkPaid(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_paid = TRUE, paid_at = $2
		WHERE id = $1 AND NOT is_paid
	`, r.tables.Purchases)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, r.clock.Next())
	if err != nil {
		if IsPgInvalidUUID(err) {
			return false, fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
		}
		return false, fmt.Errorf("mark purchase paid: %w", err)
	}
	if result.RowsAffected() == 1 {
		return true, nil
	}

	// Already paid, or absent
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}
