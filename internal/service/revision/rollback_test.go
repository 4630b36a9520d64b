package revision

import (
	"context"
	"errors"
	"testing"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
)

func TestRollbackScenario(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	v1, _ := f.store.Versions().Append(ctx, f.project.ID, "<v1/>", models.VersionDescriptionRevision)
	v2, _ := f.store.Versions().Append(ctx, f.project.ID, "<v2/>", models.VersionDescriptionRevision)
	if _, err := f.store.Versions().SetCurrent(ctx, f.project.ID, v2.ID); err != nil {
		t.Fatalf("set current: %v", err)
	}

	project, err := f.rollback.Rollback(ctx, "owner", f.project.ID, f.v0.ID)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if project.CurrentVersionID != f.v0.ID || project.CurrentCode != templateT0 {
		t.Errorf("pointer = (%s, %q), want v0", project.CurrentVersionID, project.CurrentCode)
	}
	assertPointerConsistent(t, f)

	entries := f.entries(t)
	if len(entries) != 1 || entries[0].Content != f.policy.Messages.RolledBack {
		t.Errorf("entries = %+v, want one rollback note", entries)
	}
	if f.balance(t) != 20 {
		t.Errorf("rollback changed the balance")
	}

	versions := f.versions(t)
	if len(versions) != 3 || versions[1].Code != v1.Code || versions[2].Code != v2.Code || versions[2].ID != v2.ID {
		t.Errorf("later versions changed: %+v", versions)
	}
}

func TestRollbackIdempotent(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	v1, _ := f.store.Versions().Append(ctx, f.project.ID, "<v1/>", models.VersionDescriptionRevision)
	f.store.Versions().SetCurrent(ctx, f.project.ID, v1.ID)

	first, err := f.rollback.Rollback(ctx, "owner", f.project.ID, f.v0.ID)
	if err != nil {
		t.Fatalf("first rollback: %v", err)
	}
	second, err := f.rollback.Rollback(ctx, "owner", f.project.ID, f.v0.ID)
	if err != nil {
		t.Fatalf("second rollback: %v", err)
	}

	if first.CurrentVersionID != second.CurrentVersionID || first.CurrentCode != second.CurrentCode {
		t.Error("second rollback changed the pointer")
	}
	if n := len(f.entries(t)); n != 1 {
		t.Errorf("entries = %d, want 1 (second rollback is a no-op)", n)
	}
	if f.balance(t) != 20 {
		t.Error("rollback changed the balance")
	}
}

func TestRollbackNotFound(t *testing.T) {
	f := newFixture(t, 20)
	ctx := context.Background()

	other := &models.Project{UserID: "owner", Name: "Other"}
	if err := f.store.Projects().Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}
	foreign, _ := f.store.Versions().Append(ctx, other.ID, "<other/>", models.VersionDescriptionInitial)

	tests := []struct {
		name      string
		userID    string
		versionID string
	}{
		{"unknown version", "owner", "missing"},
		{"version of another project", "owner", foreign.ID},
		{"not owner", "stranger", f.v0.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.rollback.Rollback(ctx, tt.userID, f.project.ID, tt.versionID)
			if !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if p := f.current(t); p.CurrentVersionID != f.v0.ID {
				t.Error("pointer moved")
			}
		})
	}
}
