package services

import (
	"context"

	"wbuilder/internal/domain/models"
)

// CreditLedger owns every change to a user's credit balance.
// Each change writes a ledger row in the same transaction as the balance update.
type CreditLedger interface {
	// EnsureUser returns the user, provisioning it with the signup grant on first sight
	EnsureUser(ctx context.Context, userID, email string) (*models.User, error)

	Balance(ctx context.Context, userID string) (int, error)

	// Debit fails with ErrInsufficientCredits, leaving the balance untouched,
	// if the balance cannot cover amount. Returns the new balance.
	Debit(ctx context.Context, userID string, amount int, reference string) (int, error)

	// Credit adds amount (purchase grants). Amount must be positive.
	Credit(ctx context.Context, userID string, amount int, reference string) (int, error)

	// Refund is the compensating action for a Debit
	Refund(ctx context.Context, userID string, amount int, reference string) (int, error)

	History(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error)
}

// PaymentService turns verified payments into credit grants
type PaymentService interface {
	Plans() []models.Plan

	// CreatePurchase records a pending purchase. Unknown plans are ErrValidation.
	CreatePurchase(ctx context.Context, userID, planID string) (*models.Purchase, error)

	// ConfirmPurchase grants the purchase's credits exactly once
	ConfirmPurchase(ctx context.Context, purchaseID string) (*models.Purchase, error)
}
