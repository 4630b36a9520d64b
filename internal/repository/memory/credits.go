package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
)

type creditTxRepo struct{ s *Store }

func (r *creditTxRepo) Record(ctx context.Context, tx *models.CreditTransaction) error {
	return r.s.write(ctx, func() error {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		tx.CreatedAt = r.s.clock.Next()
		r.s.ledger = append(r.s.ledger, *tx)
		return nil
	})
}

func (r *creditTxRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.CreditTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.CreditTransaction{}
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		if r.s.ledger[i].UserID == userID {
			out = append(out, r.s.ledger[i])
		}
	}
	return out, nil
}

type purchaseRepo struct{ s *Store }

func (r *purchaseRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.s.write(ctx, func() error {
		if purchase.ID == "" {
			purchase.ID = uuid.NewString()
		}
		purchase.CreatedAt = r.s.clock.Next()
		r.s.purchases[purchase.ID] = *purchase
		return nil
	})
}

func (r *purchaseRepo) Get(ctx context.Context, id string) (*models.Purchase, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	purchase, ok := r.s.purchases[id]
	if !ok {
		return nil, fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
	}
	return &purchase, nil
}

func (r *purchaseRepo) MarkPaid(ctx context.Context, id string) (bool, error) {
	var flipped bool
	err := r.s.write(ctx, func() error {
		purchase, ok := r.s.purchases[id]
		if !ok {
			return fmt.Errorf("purchase %s: %w", id, domain.ErrNotFound)
		}
		if purchase.IsPaid {
			return nil
		}
		now := r.s.clock.Next()
		purchase.IsPaid = true
		purchase.PaidAt = &now
		r.s.purchases[id] = purchase
		flipped = true
		return nil
	})
	return flipped, err
}
