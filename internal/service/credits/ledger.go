package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wbuilder/internal/config"
	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/domain/services"
)

const defaultHistoryLimit = 50

// Reference used for the signup grant ledger row
const signupReference = "signup"

// ledger implements the CreditLedger interface
type ledger struct {
	userRepo    repositories.UserRepository
	txRepo      repositories.CreditTransactionRepository
	txManager   repositories.TransactionManager
	signupGrant int
	logger      *slog.Logger
}

// NewLedger creates a new credit ledger
func NewLedger(
	userRepo repositories.UserRepository,
	txRepo repositories.CreditTransactionRepository,
	txManager repositories.TransactionManager,
	signupGrant int,
	logger *slog.Logger,
) services.CreditLedger {
	return &ledger{
		userRepo:    userRepo,
		txRepo:      txRepo,
		txManager:   txManager,
		signupGrant: signupGrant,
		logger:      logger,
	}
}

// EnsureUser returns the user, creating it with the signup grant if unknown
func (l *ledger) EnsureUser(ctx context.Context, userID, email string) (*models.User, error) {
	user, err := l.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user = &models.User{ID: userID, Email: email, Credits: l.signupGrant}
	err = l.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := l.userRepo.Create(ctx, user); err != nil {
			return err
		}
		if l.signupGrant == 0 {
			return nil
		}
		return l.txRepo.Record(ctx, &models.CreditTransaction{
			UserID:       userID,
			Kind:         models.CreditGrant,
			Amount:       l.signupGrant,
			BalanceAfter: l.signupGrant,
			Reference:    signupReference,
		})
	})
	if err != nil {
		// Concurrent first requests race to create the row
		if errors.Is(err, domain.ErrConflict) {
			return l.userRepo.GetByID(ctx, userID)
		}
		return nil, err
	}

	l.logger.Info("user provisioned",
		"user_id", userID,
		"credits", l.signupGrant,
	)
	return user, nil
}

// Balance returns the user's current balance
func (l *ledger) Balance(ctx context.Context, userID string) (int, error) {
	user, err := l.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

// Debit removes amount in one conditional update
func (l *ledger) Debit(ctx context.Context, userID string, amount int, reference string) (int, error) {
	balance, err := l.apply(ctx, userID, models.CreditDebit, amount, reference)
	if err != nil {
		return 0, err
	}
	l.logger.Info("credits debited",
		"user_id", userID,
		"amount", amount,
		"balance", balance,
		"reference", reference,
	)
	return balance, nil
}

// Credit adds purchased credits
func (l *ledger) Credit(ctx context.Context, userID string, amount int, reference string) (int, error) {
	balance, err := l.apply(ctx, userID, models.CreditGrant, amount, reference)
	if err != nil {
		return 0, err
	}
	l.logger.Info("credits granted",
		"user_id", userID,
		"amount", amount,
		"balance", balance,
		"reference", reference,
	)
	return balance, nil
}

// Refund returns credits taken by a Debit
func (l *ledger) Refund(ctx context.Context, userID string, amount int, reference string) (int, error) {
	balance, err := l.apply(ctx, userID, models.CreditRefund, amount, reference)
	if err != nil {
		return 0, err
	}
	l.logger.Info("credits refunded",
		"user_id", userID,
		"amount", amount,
		"balance", balance,
		"reference", reference,
	)
	return balance, nil
}

// History returns the newest ledger rows first
func (l *ledger) History(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > config.MaxTransactionHistory:
		limit = config.MaxTransactionHistory
	}
	return l.txRepo.ListByUser(ctx, userID, limit)
}

// apply changes the balance and records the ledger row in one transaction
func (l *ledger) apply(ctx context.Context, userID string, kind models.CreditTxKind, amount int, reference string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d: %w", amount, domain.ErrValidation)
	}

	delta := amount
	if kind == models.CreditDebit {
		delta = -amount
	}

	var balance int
	err := l.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		balance, err = l.userRepo.AdjustCredits(ctx, userID, delta)
		if err != nil {
			return err
		}
		return l.txRepo.Record(ctx, &models.CreditTransaction{
			UserID:       userID,
			Kind:         kind,
			Amount:       amount,
			BalanceAfter: balance,
			Reference:    reference,
		})
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
