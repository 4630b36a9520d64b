package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"wbuilder/internal/domain"
	"wbuilder/internal/domain/models"
	"wbuilder/internal/utils"
)

func setupIntegration(t *testing.T) *RepositoryConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := CreateConnectionPool(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	prefix := "it_" + uuid.NewString()[:8] + "_"
	tables := NewTableNames(prefix)
	if err := ApplyMigrations(ctx, pool, tables); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if err := DropAllTables(context.Background(), pool, tables); err != nil {
			t.Logf("drop tables: %v", err)
		}
		pool.Close()
	})

	return &RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: slog.Default(),
		Clock:  utils.NewMonotonicClock(),
	}
}

func TestPostgresRevisionFlow(t *testing.T) {
	cfg := setupIntegration(t)
	ctx := context.Background()

	users := NewUserRepository(cfg)
	projects := NewProjectRepository(cfg)
	versions := NewVersionRepository(cfg)
	conversation := NewConversationRepository(cfg)

	user := &models.User{ID: "user-" + uuid.NewString(), Credits: 10}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := &models.Project{UserID: user.ID, Name: "Bakery", InitialPrompt: "a bakery"}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	if _, err := conversation.Append(ctx, project.ID, models.RoleUser, "make it blue"); err != nil {
		t.Fatalf("append entry: %v", err)
	}
	v0, err := versions.Append(ctx, project.ID, "<v0/>", models.VersionDescriptionInitial)
	if err != nil {
		t.Fatalf("append version: %v", err)
	}
	if _, err := versions.SetCurrent(ctx, project.ID, v0.ID); err != nil {
		t.Fatalf("set current: %v", err)
	}

	got, err := projects.GetByID(ctx, project.ID, user.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.CurrentVersionID != v0.ID || got.CurrentCode != "<v0/>" {
		t.Errorf("pointer = (%s, %q), want (%s, <v0/>)", got.CurrentVersionID, got.CurrentCode, v0.ID)
	}

	if _, err := projects.GetByID(ctx, project.ID, "someone-else"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign owner: expected ErrNotFound, got %v", err)
	}
	if _, err := projects.GetByID(ctx, "not-a-uuid", user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("malformed id: expected ErrNotFound, got %v", err)
	}
}

func TestPostgresConcurrentDebits(t *testing.T) {
	cfg := setupIntegration(t)
	ctx := context.Background()
	users := NewUserRepository(cfg)

	user := &models.User{ID: "user-" + uuid.NewString(), Credits: 10}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := users.AdjustCredits(ctx, user.ID, -5); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, domain.ErrInsufficientCredits) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", succeeded)
	}
}

func TestPostgresVersionsAreImmutable(t *testing.T) {
	cfg := setupIntegration(t)
	ctx := context.Background()

	users := NewUserRepository(cfg)
	projects := NewProjectRepository(cfg)
	versions := NewVersionRepository(cfg)

	user := &models.User{ID: "user-" + uuid.NewString()}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	project := &models.Project{UserID: user.ID, Name: "Site"}
	if err := projects.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	v, err := versions.Append(ctx, project.ID, "<v0/>", models.VersionDescriptionInitial)
	if err != nil {
		t.Fatalf("append version: %v", err)
	}

	_, err = cfg.Pool.Exec(ctx, "UPDATE "+cfg.Tables.Versions+" SET code = 'tampered' WHERE id = $1", v.ID)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "55000" {
		t.Fatalf("expected SQLSTATE 55000, got %v", err)
	}

	// Deleting the project still cascades through the guarded table
	if err := projects.Delete(ctx, project.ID, user.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}
}
