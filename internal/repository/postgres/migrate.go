package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

const prefixPlaceholder = "{{prefix}}"

// Migration is one embedded schema step with the table prefix applied
type Migration struct {
	Version string
	SQL     string
}

// LoadMigrations returns the embedded migrations in apply order
func LoadMigrations(tables *TableNames) ([]Migration, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		contents, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, Migration{
			Version: strings.TrimPrefix(name, "migrations/"),
			SQL:     strings.ReplaceAll(string(contents), prefixPlaceholder, tables.Prefix),
		})
	}
	return migrations, nil
}

// ApplyMigrations runs every embedded migration not yet recorded, each in its
// own transaction.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	if err := ensureMigrationsTable(ctx, pool, tables); err != nil {
		return err
	}

	migrations, err := LoadMigrations(tables)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if migrated, err := isMigrated(ctx, pool, tables, m.Version); err != nil {
			return err
		} else if migrated {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("execute migration %s: %w", m.Version, err)
		}

		record := fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, tables.SchemaMigrations)
		if _, err := tx.Exec(ctx, record, m.Version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Version, err)
		}
	}

	return nil
}

// DropAllTables removes every prefixed table. Dev tooling only.
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range tables.All() {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	guard := fmt.Sprintf(`DROP FUNCTION IF EXISTS %shistory_immutable_guard() CASCADE`, tables.Prefix)
	if _, err := pool.Exec(ctx, guard); err != nil {
		return fmt.Errorf("drop immutability guard: %w", err)
	}
	return nil
}

func ensureMigrationsTable(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	_, err := pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, tables.SchemaMigrations))
	if err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

func isMigrated(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, version string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE version = $1)`, tables.SchemaMigrations)
	if err := pool.QueryRow(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}
