package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"txprop/internal/core/tx"
)

// Querier is the subset of pgx shared by pgx.Tx and pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the physical transaction bound to ctx when it belongs
// to this pool, otherwise the pool itself (auto-commit).
// This allows repos to work both inside and outside transactions.
func (p *Pool) GetQuerier(ctx context.Context) Querier {
	if c, ok := tx.ResourceFrom(ctx).(*Conn); ok && c.pool == p && c.tx != nil {
		return c.tx
	}
	return p.Pool
}
