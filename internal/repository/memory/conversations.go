package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
)

type conversationRepo struct{ s *Store }

func (r *conversationRepo) Append(ctx context.Context, projectID string, role models.Role, content string) (*models.ConversationEntry, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrValidation)
	}

	var entry models.ConversationEntry
	err := r.s.write(ctx, func() error {
		if _, ok := r.s.projects[projectID]; !ok {
			return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		ts, seq := r.s.next()
		entry = models.ConversationEntry{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			Role:      role,
			Content:   content,
			Timestamp: ts,
			Seq:       seq,
		}
		r.s.entries[projectID] = append(r.s.entries[projectID], entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *conversationRepo) ListOrdered(ctx context.Context, projectID string) ([]models.ConversationEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := slices.Clone(r.s.entries[projectID])
	if entries == nil {
		entries = []models.ConversationEntry{}
	}
	return entries, nil
}
