package memdb

import (
	"context"

	"txprop/internal/core/tx"
)

// Session runs fn on the connection bound to the transaction in ctx, or on
// a freshly acquired auto-commit connection when no transaction from this
// pool is active.
func (p *Pool) Session(ctx context.Context, fn func(c *Conn) error) error {
	if c, ok := tx.ResourceFrom(ctx).(*Conn); ok && c.pool == p {
		return fn(c)
	}
	c, err := p.AcquireConn(ctx)
	if err != nil {
		return err
	}
	defer c.Release()
	return fn(c)
}
