package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"univault/internal/domain/repositories"
)

// RepositoryConfig holds shared dependencies for repository implementations.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds prefixed table names so multiple environments can
// share one database.
type TableNames struct {
	Folders string
	Files   string
	Users   string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Folders: fmt.Sprintf("%sfolders", prefix),
		Files:   fmt.Sprintf("%suploaded_files", prefix),
		Users:   fmt.Sprintf("%susers", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool and verifies the
// connection with a ping.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction bound to the context when there is
// one, the pool otherwise. Repositories call this on every query so they
// automatically join an ambient transaction.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
