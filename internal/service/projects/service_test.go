package projects

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"wbuilder/internal/config"
	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/policy"
	"wbuilder/internal/repository/memory"
)

type fixture struct {
	store   *memory.Store
	svc     services.ProjectService
	gate    services.PublicationGate
	project *models.Project
	v0      *models.Version
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	pol, err := policy.Default()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()

	if err := store.Users().Create(ctx, &models.User{ID: "owner", Credits: 20}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := &models.Project{UserID: "owner", Name: "Bakery"}
	if err := store.Projects().Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	v0, err := store.Versions().Append(ctx, project.ID, "<T0/>", models.VersionDescriptionInitial)
	if err != nil {
		t.Fatalf("append version: %v", err)
	}
	if _, err := store.Versions().SetCurrent(ctx, project.ID, v0.ID); err != nil {
		t.Fatalf("set current: %v", err)
	}

	return &fixture{
		store:   store,
		svc:     NewProjectService(store.Projects(), store.Versions(), store.Conversations(), store.TxManager(), pol, logger),
		gate:    NewPublicationGate(store.Projects(), logger),
		project: project,
		v0:      v0,
	}
}

func TestSaveCodeCreatesVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project, err := f.svc.SaveCode(ctx, f.project.ID, "owner", &services.SaveCodeRequest{Code: "<edited/>"})
	if err != nil {
		t.Fatalf("SaveCode: %v", err)
	}
	if project.CurrentCode != "<edited/>" {
		t.Errorf("CurrentCode = %q", project.CurrentCode)
	}

	detail, _ := f.svc.GetProject(ctx, f.project.ID, "owner")
	if len(detail.Versions) != 2 {
		t.Fatalf("versions = %d, want 2", len(detail.Versions))
	}
	latest := detail.Versions[1]
	if latest.ID != project.CurrentVersionID || latest.Code != project.CurrentCode {
		t.Errorf("pointer does not reference the manual version")
	}
	if latest.Description != models.VersionDescriptionManual {
		t.Errorf("Description = %q", latest.Description)
	}
	if detail.Versions[0].Code != "<T0/>" {
		t.Error("earlier version changed")
	}
	if len(detail.Conversation) != 1 || detail.Conversation[0].Role != models.RoleAssistant {
		t.Errorf("expected one assistant entry, got %+v", detail.Conversation)
	}

	balance, _ := f.store.Users().GetByID(ctx, "owner")
	if balance.Credits != 20 {
		t.Errorf("manual save charged credits: balance %d", balance.Credits)
	}
}

func TestSaveCodeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		code    string
		wantErr error
	}{
		{"empty code", "owner", "", domain.ErrValidation},
		{"oversized code", "owner", strings.Repeat("x", config.MaxCodeLength+1), domain.ErrValidation},
		{"not owner", "stranger", "<x/>", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SaveCode(ctx, f.project.ID, tt.userID, &services.SaveCodeRequest{Code: tt.code})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	versions, _ := f.store.Versions().ListOrdered(ctx, f.project.ID)
	if len(versions) != 1 {
		t.Errorf("rejected saves created versions: %d", len(versions))
	}
}

func TestPublicCodeRequiresPublication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.GetPublicCode(ctx, f.project.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unpublished: expected ErrNotFound, got %v", err)
	}

	published, err := f.gate.SetPublished(ctx, "owner", f.project.ID, true)
	if err != nil || !published {
		t.Fatalf("SetPublished = (%v, %v)", published, err)
	}

	code, err := f.svc.GetPublicCode(ctx, f.project.ID)
	if err != nil || code != "<T0/>" {
		t.Fatalf("GetPublicCode = (%q, %v)", code, err)
	}

	list, _ := f.svc.ListPublished(ctx)
	if len(list) != 1 || list[0].ID != f.project.ID {
		t.Errorf("ListPublished = %+v", list)
	}

	if _, err := f.gate.SetPublished(ctx, "stranger", f.project.ID, false); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("stranger unpublish: expected ErrNotFound, got %v", err)
	}

	published, err = f.gate.SetPublished(ctx, "owner", f.project.ID, false)
	if err != nil || published {
		t.Fatalf("unpublish = (%v, %v)", published, err)
	}
	if _, err := f.svc.GetPublicCode(ctx, f.project.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("after unpublish: expected ErrNotFound, got %v", err)
	}
}

func TestPublicCodeRequiresCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := &models.Project{UserID: "owner", Name: "Empty"}
	if err := f.store.Projects().Create(ctx, empty); err != nil {
		t.Fatalf("create: %v", err)
	}
	f.gate.SetPublished(ctx, "owner", empty.ID, true)

	if _, err := f.svc.GetPublicCode(ctx, empty.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for published project without code, got %v", err)
	}
}

func TestTimelineInterleaves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.Conversations().Append(ctx, f.project.ID, models.RoleUser, "make it blue")
	if _, err := f.svc.SaveCode(ctx, f.project.ID, "owner", &services.SaveCodeRequest{Code: "<blue/>"}); err != nil {
		t.Fatalf("SaveCode: %v", err)
	}

	items, err := f.svc.GetTimeline(ctx, f.project.ID, "owner")
	if err != nil {
		t.Fatalf("GetTimeline: %v", err)
	}

	want := []models.TimelineItemType{
		models.TimelineVersion, // v0
		models.TimelineMessage, // user
		models.TimelineVersion, // manual
		models.TimelineMessage, // manual saved note
	}
	if len(items) != len(want) {
		t.Fatalf("items = %d, want %d", len(items), len(want))
	}
	for i, typ := range want {
		if items[i].Type != typ {
			t.Errorf("items[%d].Type = %s, want %s", i, items[i].Type, typ)
		}
	}
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.DeleteProject(ctx, f.project.ID, "stranger"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stranger delete: expected ErrNotFound, got %v", err)
	}
	if err := f.svc.DeleteProject(ctx, f.project.ID, "owner"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := f.svc.GetProject(ctx, f.project.ID, "owner"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
