package postgres

import (
	"context"
	"database/sql"
)

// Querier abstracts over *sql.DB and *sql.Tx so each repository can run
// either standalone or inside a caller-managed transaction. Route writes
// rely on this: the routes row and its route_stops rows go through the same
// transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)
