package postgres

import (
	"strings"
	"testing"
)

func TestLoadMigrationsAppliesPrefix(t *testing.T) {
	migrations, err := LoadMigrations(NewTableNames("test_"))
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}

	for i, m := range migrations {
		if strings.Contains(m.SQL, prefixPlaceholder) {
			t.Errorf("%s still contains %s", m.Version, prefixPlaceholder)
		}
		if !strings.HasSuffix(m.Version, ".up.sql") {
			t.Errorf("unexpected migration name %q", m.Version)
		}
		if i > 0 && migrations[i-1].Version >= m.Version {
			t.Errorf("migrations out of order: %s before %s", migrations[i-1].Version, m.Version)
		}
	}

	if !strings.Contains(migrations[0].SQL, "CREATE TABLE IF NOT EXISTS test_versions") {
		t.Error("expected prefixed versions table")
	}
}

func TestSchemaGuardsBalanceAndRoles(t *testing.T) {
	migrations, err := LoadMigrations(NewTableNames(""))
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	schema := migrations[0].SQL

	expected := []string{
		"credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0)",
		"CHECK (role IN ('user', 'assistant', 'system'))",
		"CHECK (kind IN ('debit', 'refund', 'grant'))",
		"REFERENCES projects(id) ON DELETE CASCADE",
	}
	for _, snippet := range expected {
		if !strings.Contains(schema, snippet) {
			t.Errorf("expected schema to contain %q", snippet)
		}
	}
}

func TestHistoryImmutabilityMigrationUsesBlockingTriggers(t *testing.T) {
	migrations, err := LoadMigrations(NewTableNames("dev_"))
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}

	var sqlText string
	for _, m := range migrations {
		if strings.Contains(m.Version, "immutability") {
			sqlText = m.SQL
		}
	}
	if sqlText == "" {
		t.Fatal("immutability migration not found")
	}

	expectedSnippets := []string{
		"dev_history_immutable_guard",
		"RAISE EXCEPTION",
		"ERRCODE = '55000'",
		"CREATE TRIGGER trg_versions_block_update",
		"CREATE TRIGGER trg_conversation_entries_block_update",
		"CREATE TRIGGER trg_credit_transactions_block_update",
	}
	for _, snippet := range expectedSnippets {
		if !strings.Contains(sqlText, snippet) {
			t.Fatalf("expected migration to contain %q", snippet)
		}
	}
	if strings.Contains(sqlText, "DO INSTEAD NOTHING") {
		t.Fatalf("expected hard-fail immutability guard, found silent DO INSTEAD NOTHING rule")
	}
}

func TestTableNamesDropOrder(t *testing.T) {
	tables := NewTableNames("dev_")
	all := tables.All()

	index := make(map[string]int, len(all))
	for i, name := range all {
		index[name] = i
	}
	if index[tables.Versions] > index[tables.Projects] {
		t.Error("versions must be dropped before projects")
	}
	if index[tables.Projects] > index[tables.Users] {
		t.Error("projects must be dropped before users")
	}
}
