package memdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"txprop/internal/core/tx"
	"txprop/pkg/logger"
)

// ErrPoolExhausted is returned by Acquire when no connection became free in time.
var ErrPoolExhausted = errors.New("memdb: connection pool exhausted")

// Compile-time check that Pool implements tx.ResourcePool.
var _ tx.ResourcePool = (*Pool)(nil)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	MaxConns       int
	AcquireTimeout time.Duration
}

// DefaultPoolConfig returns sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:       10,
		AcquireTimeout: 5 * time.Second,
	}
}

// Pool hands out Conns over a shared Store. Released connections are reused
// most-recently-released first, so sequential transactions run on the same
// slot.
type Pool struct {
	store *Store
	cfg   PoolConfig
	slots chan struct{}

	mu   sync.Mutex
	idle []*Conn
	next int

	acquires  atomic.Int64
	releases  atomic.Int64
	commits   atomic.Int64
	rollbacks atomic.Int64
}

// NewPool creates a pool over store.
func NewPool(store *Store, cfg PoolConfig) *Pool {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultPoolConfig().MaxConns
	}
	return &Pool{
		store: store,
		cfg:   cfg,
		slots: make(chan struct{}, cfg.MaxConns),
	}
}

// Store returns the store backing the pool.
func (p *Pool) Store() *Store {
	return p.store
}

// Acquire implements tx.ResourcePool.
func (p *Pool) Acquire(ctx context.Context) (tx.Resource, error) {
	return p.AcquireConn(ctx)
}

// AcquireConn borrows a connection in auto-commit mode. It blocks while all
// slots are taken, up to AcquireTimeout or ctx cancellation.
func (p *Pool) AcquireConn(ctx context.Context) (*Conn, error) {
	if p.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.AcquireTimeout)
		defer cancel()
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrPoolExhausted, ctx.Err())
	}

	p.mu.Lock()
	var c *Conn
	if n := len(p.idle); n > 0 {
		c = p.idle[n-1]
		p.idle = p.idle[:n-1]
	} else {
		c = &Conn{id: fmt.Sprintf("conn%d", p.next), pool: p}
		p.next++
	}
	p.mu.Unlock()

	c.reset()
	c.leased = true
	p.acquires.Add(1)
	return c, nil
}

func (p *Pool) release(c *Conn) {
	if c.inTx {
		logger.Warn(context.Background(), "connection released with open transaction, discarding writes", "connection", c.id)
	}
	c.reset()
	c.leased = false

	p.mu.Lock()
	p.idle = append(p.idle, c)
	p.mu.Unlock()

	p.releases.Add(1)
	<-p.slots
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Acquires  int64
	Releases  int64
	Commits   int64
	Rollbacks int64
	InUse     int
	Open      int
	MaxConns  int
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	open := p.next
	p.mu.Unlock()
	return PoolStats{
		Acquires:  p.acquires.Load(),
		Releases:  p.releases.Load(),
		Commits:   p.commits.Load(),
		Rollbacks: p.rollbacks.Load(),
		InUse:     len(p.slots),
		Open:      open,
		MaxConns:  p.cfg.MaxConns,
	}
}

// Ping reports whether the pool can serve requests.
func (p *Pool) Ping(ctx context.Context) error {
	return ctx.Err()
}
