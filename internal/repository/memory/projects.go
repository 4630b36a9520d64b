package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
)

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(ctx context.Context, project *models.Project) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.users[project.UserID]; !ok {
			return fmt.Errorf("owner %s: %w", project.UserID, domain.ErrNotFound)
		}
		if project.ID == "" {
			project.ID = uuid.NewString()
		}
		now := r.s.clock.Next()
		project.CreatedAt = now
		project.UpdatedAt = now
		r.s.projects[project.ID] = *project
		return nil
	})
}

func (r *projectRepo) GetByID(ctx context.Context, id, userID string) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	project, ok := r.s.projects[id]
	if !ok || project.UserID != userID {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return &project, nil
}

func (r *projectRepo) GetPublic(ctx context.Context, id string) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	project, ok := r.s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return &project, nil
}

func (r *projectRepo) List(ctx context.Context, userID string) ([]models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	projects := []models.Project{}
	for _, p := range r.s.projects {
		if p.UserID == userID {
			projects = append(projects, p)
		}
	}
	slices.SortFunc(projects, func(a, b models.Project) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return projects, nil
}

func (r *projectRepo) ListPublished(ctx context.Context) ([]models.PublishedProject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var published []models.Project
	for _, p := range r.s.projects {
		if p.IsPublished {
			published = append(published, p)
		}
	}
	slices.SortFunc(published, func(a, b models.Project) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	out := make([]models.PublishedProject, 0, len(published))
	for _, p := range published {
		out = append(out, models.PublishedProject{ID: p.ID, Name: p.Name, UserID: p.UserID, UpdatedAt: p.UpdatedAt})
	}
	return out, nil
}

func (r *projectRepo) SetPublished(ctx context.Context, id, userID string, published bool) (bool, error) {
	err := r.s.write(ctx, func() error {
		project, ok := r.s.projects[id]
		if !ok || project.UserID != userID {
			return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		project.IsPublished = published
		project.UpdatedAt = r.s.clock.Next()
		r.s.projects[id] = project
		return nil
	})
	if err != nil {
		return false, err
	}
	return published, nil
}

func (r *projectRepo) Delete(ctx context.Context, id, userID string) error {
	return r.s.write(ctx, func() error {
		project, ok := r.s.projects[id]
		if !ok || project.UserID != userID {
			return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		delete(r.s.projects, id)
		delete(r.s.versions, id)
		delete(r.s.entries, id)
		return nil
	})
}
