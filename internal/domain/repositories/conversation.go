package repositories

import (
	"context"

	"wbuilder/internal/domain/models"
)

// ConversationRepository is the append-only conversation log.
// There are deliberately no update or delete operations.
type ConversationRepository interface {
	Append(ctx context.Context, projectID string, role models.Role, content string) (*models.ConversationEntry, error)

	// ListOrdered returns entries by ascending timestamp, ties by insertion order
	ListOrdered(ctx context.Context, projectID string) ([]models.ConversationEntry, error)
}
