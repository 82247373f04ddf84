package ports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repository methods accept a DBTX so callers decide whether an operation
// joins a transaction or runs against the pool directly.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DBPort abstracts the database connection and transaction management
type DBPort interface {
	// GetDB returns the underlying connection pool
	GetDB() *pgxpool.Pool

	// WithTransaction executes fn within a transaction, committing on nil
	// error and rolling back otherwise
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}
