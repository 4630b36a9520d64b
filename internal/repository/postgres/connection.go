package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wbuilder/internal/domain/repositories"
	"wbuilder/internal/utils"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
	// Clock stamps append-only rows so causal order within a process is strict
	Clock *utils.MonotonicClock
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix              string
	Users               string
	Projects            string
	Versions            string
	ConversationEntries string
	CreditTransactions  string
	Purchases           string
	SchemaMigrations    string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:              prefix,
		Users:               fmt.Sprintf("%susers", prefix),
		Projects:            fmt.Sprintf("%sprojects", prefix),
		Versions:            fmt.Sprintf("%sversions", prefix),
		ConversationEntries: fmt.Sprintf("%sconversation_entries", prefix),
		CreditTransactions:  fmt.Sprintf("%scredit_transactions", prefix),
		Purchases:           fmt.Sprintf("%spurchases", prefix),
		SchemaMigrations:    fmt.Sprintf("%sschema_migrations", prefix),
	}
}

// All returns every table, dependents first (drop order)
func (t *TableNames) All() []string {
	return []string{
		t.CreditTransactions,
		t.Purchases,
		t.ConversationEntries,
		t.Versions,
		t.Projects,
		t.Users,
		t.SchemaMigrations,
	}
}

// CreateConnectionPool creates a new pgx connection pool with automatic PgBouncer compatibility.
//
// Query Execution Mode Configuration:
//
// By default, pgx uses prepared statements (QueryExecModeCacheStatement) which provide:
// - Better performance through statement caching
// - Proper JSONB encoding/decoding
// - Protection against SQL injection
//
// However, PgBouncer in transaction pooling mode (port 6543 on Supabase) does NOT support
// prepared statements, causing "prepared statement already exists" errors.
//
// Port 6543 is detected as the pooler and switched to QueryExecModeCacheDescribe.
// An explicit ?default_query_exec_mode= in the connection string takes precedence.
// Table prefixes are interpolated before statements reach the server, so each
// environment gets its own cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 2

	// Transaction pooler on 6543 rejects prepared statements
	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// A transaction stored in the context wins over the pool, so repositories join
// any unit of work started by TransactionManager.ExecTx.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
