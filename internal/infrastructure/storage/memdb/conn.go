package memdb

import (
	"context"
	"errors"
	"sync"

	"txprop/internal/core/tx"
)

var (
	ErrConnReleased  = errors.New("memdb: connection already released")
	ErrTxInProgress  = errors.New("memdb: transaction already in progress")
	ErrNoTransaction = errors.New("memdb: no transaction in progress")
	ErrReadOnly      = errors.New("memdb: cannot execute write in a read-only transaction")
)

// Compile-time check that Conn implements tx.Resource.
var _ tx.Resource = (*Conn)(nil)

// Conn is one pooled connection. Outside a transaction it writes straight to
// the store (auto-commit); inside one it buffers writes until Commit.
//
// Participants of one transaction may use the same Conn from several
// goroutines.
type Conn struct {
	id   string
	pool *Pool

	mu       sync.Mutex
	leased   bool
	inTx     bool
	readOnly bool
	pending  []op
}

func (c *Conn) reset() {
	c.inTx = false
	c.readOnly = false
	c.pending = nil
}

// ID returns the pool slot name, e.g. "conn0".
func (c *Conn) ID() string { return c.id }

// InTransaction reports whether a physical transaction is open.
func (c *Conn) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inTx
}

// Begin switches the connection to manual commit.
func (c *Conn) Begin(_ context.Context, opts tx.BeginOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.leased {
		return ErrConnReleased
	}
	if c.inTx {
		return ErrTxInProgress
	}
	c.inTx = true
	c.readOnly = opts.ReadOnly
	return nil
}

// Commit publishes buffered writes and returns to auto-commit. When the
// store rejects the writes the transaction is rolled back and the error
// wraps ErrDuplicateKey.
func (c *Conn) Commit(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.leased {
		return ErrConnReleased
	}
	if !c.inTx {
		return ErrNoTransaction
	}
	err := c.pool.store.apply(c.pending)
	if err != nil {
		c.pool.rollbacks.Add(1)
	} else {
		c.pool.commits.Add(1)
	}
	c.reset()
	return err
}

// Rollback discards buffered writes and returns to auto-commit.
func (c *Conn) Rollback(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.leased {
		return ErrConnReleased
	}
	if !c.inTx {
		return ErrNoTransaction
	}
	c.pool.rollbacks.Add(1)
	c.reset()
	return nil
}

// Release returns the connection to its pool. Releasing twice is a no-op.
func (c *Conn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.leased {
		return
	}
	c.pool.release(c)
}

// Put writes row under table/key, replacing any existing row.
func (c *Conn) Put(table, key string, row any) error {
	return c.write(op{kind: opPut, table: table, key: key, value: row})
}

// Insert writes a new row under table/key. The commit fails if another
// connection committed the key in the meantime.
func (c *Conn) Insert(table, key string, row any) error {
	return c.write(op{kind: opInsert, table: table, key: key, value: row})
}

func (c *Conn) write(o op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.leased {
		return ErrConnReleased
	}
	if !c.inTx {
		return c.pool.store.apply([]op{o})
	}
	if c.readOnly {
		return ErrReadOnly
	}
	c.pending = append(c.pending, o)
	return nil
}

// Get reads table/key as seen by this connection: its own uncommitted
// writes first, then committed rows.
func (c *Conn) Get(table, key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.leased {
		return nil, false, ErrConnReleased
	}
	for i := len(c.pending) - 1; i >= 0; i-- {
		o := c.pending[i]
		if o.table == table && o.key == key {
			return o.value, true, nil
		}
	}
	v, ok := c.pool.store.get(table, key)
	return v, ok, nil
}
