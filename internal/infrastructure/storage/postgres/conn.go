package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"txprop/internal/core/tx"
	"txprop/pkg/logger"
)

var (
	ErrConnReleased  = errors.New("postgres: connection already released")
	ErrTxInProgress  = errors.New("postgres: transaction already in progress")
	ErrNoTransaction = errors.New("postgres: no transaction in progress")
)

// Compile-time check that Conn implements tx.Resource.
var _ tx.Resource = (*Conn)(nil)

// Conn is a pooled connection carrying at most one physical transaction.
type Conn struct {
	conn             *pgxpool.Conn
	pool             *Pool
	id               string
	statementTimeout time.Duration

	tx pgx.Tx
}

// ID returns "pg-<backend pid>".
func (c *Conn) ID() string { return c.id }

// Begin starts a physical transaction in READ COMMITTED.
func (c *Conn) Begin(ctx context.Context, opts tx.BeginOptions) error {
	if c.conn == nil {
		return ErrConnReleased
	}
	if c.tx != nil {
		return ErrTxInProgress
	}

	access := pgx.ReadWrite
	if opts.ReadOnly {
		access = pgx.ReadOnly
	}
	pgxTx, err := c.conn.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: access,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Set statement timeout for protection against runaway queries
	if c.statementTimeout > 0 {
		_, err = pgxTx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", c.statementTimeout.Milliseconds()))
		if err != nil {
			_ = pgxTx.Rollback(context.WithoutCancel(ctx))
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	c.tx = pgxTx
	return nil
}

// Commit commits the physical transaction.
func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	err := c.tx.Commit(ctx)
	c.tx = nil
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback rolls the physical transaction back.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	err := c.tx.Rollback(ctx)
	c.tx = nil
	if err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// Release returns the connection to pgxpool. Releasing twice is a no-op.
func (c *Conn) Release() {
	if c.conn == nil {
		return
	}
	if c.tx != nil {
		logger.Warn(context.Background(), "connection released with open transaction, rolling back", "connection", c.id)
		_ = c.tx.Rollback(context.Background())
		c.tx = nil
	}
	c.conn.Release()
	c.conn = nil
}
