package repositories

import (
	"context"

	"wbuilder/internal/domain/models"
)

// UserRepository persists users and their credit balance
type UserRepository interface {
	// GetByID returns ErrNotFound for unknown users
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Create inserts a user with an opening balance. Returns a ConflictError
	// if the id already exists.
	Create(ctx context.Context, user *models.User) error

	// AdjustCredits atomically adds delta to the balance and returns the new
	// balance. A negative delta that would take the balance below zero changes
	// nothing and returns ErrInsufficientCredits.
	AdjustCredits(ctx context.Context, id string, delta int) (int, error)

	// IncrementCreations bumps the total creations counter
	IncrementCreations(ctx context.Context, id string) error
}
