package memory

import (
	"context"
	"fmt"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
)

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.s.write(ctx, func() error {
		if _, exists := r.s.users[user.ID]; exists {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user '%s' already exists", user.ID),
				ResourceType: "user",
				ResourceID:   user.ID,
			}
		}
		now := r.s.clock.Next()
		user.CreatedAt = now
		user.UpdatedAt = now
		r.s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) AdjustCredits(ctx context.Context, id string, delta int) (int, error) {
	var balance int
	err := r.s.write(ctx, func() error {
		user, ok := r.s.users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		if user.Credits+delta < 0 {
			return fmt.Errorf("balance %d cannot cover %d: %w", user.Credits, -delta, domain.ErrInsufficientCredits)
		}
		user.Credits += delta
		user.UpdatedAt = r.s.clock.Next()
		r.s.users[id] = user
		balance = user.Credits
		return nil
	})
	return balance, err
}

func (r *userRepo) IncrementCreations(ctx context.Context, id string) error {
	return r.s.write(ctx, func() error {
		user, ok := r.s.users[id]
		if !ok {
			return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		user.TotalCreations++
		user.UpdatedAt = r.s.clock.Next()
		r.s.users[id] = user
		return nil
	})
}
