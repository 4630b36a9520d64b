package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
)

type versionRepo struct{ s *Store }

func (r *versionRepo) Append(ctx context.Context, projectID, code, description string) (*models.Version, error) {
	var version models.Version
	err := r.s.write(ctx, func() error {
		if _, ok := r.s.projects[projectID]; !ok {
			return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		ts, seq := r.s.next()
		version = models.Version{
			ID:          uuid.NewString(),
			ProjectID:   projectID,
			Code:        code,
			Description: description,
			Timestamp:   ts,
			Seq:         seq,
		}
		r.s.versions[projectID] = append(r.s.versions[projectID], version)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// SetCurrent moves both pointer fields under one lock acquisition.
func (r *versionRepo) SetCurrent(ctx context.Context, projectID, versionID string) (*models.Version, error) {
	var version models.Version
	err := r.s.write(ctx, func() error {
		project, ok := r.s.projects[projectID]
		if !ok {
			return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		i := slices.IndexFunc(r.s.versions[projectID], func(v models.Version) bool { return v.ID == versionID })
		if i < 0 {
			return fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
		}
		version = r.s.versions[projectID][i]

		project.CurrentVersionID = version.ID
		project.CurrentCode = version.Code
		project.UpdatedAt = r.s.clock.Next()
		r.s.projects[projectID] = project
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &version, nil
}

func (r *versionRepo) Get(ctx context.Context, projectID, versionID string) (*models.Version, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, v := range r.s.versions[projectID] {
		if v.ID == versionID {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("version %s: %w", versionID, domain.ErrNotFound)
}

// ListOrdered returns a copy; appends happen in timestamp order already.
func (r *versionRepo) ListOrdered(ctx context.Context, projectID string) ([]models.Version, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	versions := slices.Clone(r.s.versions[projectID])
	if versions == nil {
		versions = []models.Version{}
	}
	return versions, nil
}
