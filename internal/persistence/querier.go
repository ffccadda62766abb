package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repository methods that must run inside a caller-owned transaction take a
// Querier explicitly instead of reaching for a stored pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the transactional scope handed to saga executions.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the pool-scoped query surface plus the ability to open
// transactions. Satisfied by Postgres; tests substitute fakes.
type Store interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
}
