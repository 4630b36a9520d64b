package repositories

import (
	"context"

	"wbuilder/internal/domain/models"
)

// CreditTransactionRepository records the immutable ledger rows
type CreditTransactionRepository interface {
	Record(ctx context.Context, tx *models.CreditTransaction) error

	// ListByUser returns the user's ledger, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
}

// PurchaseRepository persists credit purchase intents
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *models.Purchase) error

	Get(ctx context.Context, id string) (*models.Purchase, error)

	// MarkPaid flips is_paid from false to true. Returns false without error
	// if the purchase was already paid.
	MarkPaid(ctx context.Context, id string) (bool, error)
}
