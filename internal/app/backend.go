// Package app assembles the storage backend, the transaction coordinator
// and the services on top of them. Both binaries build on it.
package app

import (
	"context"
	"fmt"

	"txprop/internal/config"
	"txprop/internal/core/tx"
	"txprop/internal/domain/member"
	"txprop/internal/domain/order"
	"txprop/internal/infrastructure/storage/memdb"
	"txprop/internal/infrastructure/storage/postgres"
	"txprop/internal/infrastructure/storage/postgres/member_repo"
	"txprop/internal/infrastructure/storage/postgres/order_repo"
	"txprop/internal/scenario"
)

// Backend names.
const (
	BackendMemDB    = "memdb"
	BackendPostgres = "postgres"
)

// Prober is implemented by both pools.
type Prober interface {
	Ping(ctx context.Context) error
}

// Backend is an opened storage backend with its coordinator.
type Backend struct {
	Name    string
	Coord   *tx.Coordinator
	Orders  order.Repository
	Members member.Repository
	Logs    member.LogRepository
	Probe   Prober

	stats func() any
	close func()
}

// Open selects PostgreSQL when cfg.Database.URL is set, the in-memory store
// otherwise. opts are passed to the coordinator.
func Open(ctx context.Context, cfg *config.Config, opts ...tx.Option) (*Backend, error) {
	if cfg.Database.Enabled() {
		return openPostgres(ctx, cfg.Database, opts)
	}
	return openMemDB(cfg.MemDB, opts), nil
}

func openMemDB(cfg config.MemDBConfig, opts []tx.Option) *Backend {
	pool := memdb.NewPool(memdb.NewStore(), memdb.PoolConfig{
		MaxConns:       cfg.MaxConns,
		AcquireTimeout: cfg.AcquireTimeout,
	})
	return &Backend{
		Name:    BackendMemDB,
		Coord:   tx.NewCoordinator(pool, opts...),
		Orders:  memdb.NewOrderRepository(pool),
		Members: memdb.NewMemberRepository(pool),
		Logs:    memdb.NewLogRepository(pool),
		Probe:   pool,
		stats:   func() any { return pool.Stats() },
		close:   func() {},
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, opts []tx.Option) (*Backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.URL)
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.StatementTimeout = cfg.StatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Bootstrap(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	pool.LogPoolStats(ctx)

	return &Backend{
		Name:    BackendPostgres,
		Coord:   tx.NewCoordinator(pool, opts...),
		Orders:  order_repo.New(pool),
		Members: member_repo.NewMemberRepo(pool),
		Logs:    member_repo.NewLogRepo(pool),
		Probe:   pool,
		stats:   func() any { return pool.Stats() },
		close: func() {
			pool.LogPoolStats(context.WithoutCancel(ctx))
			pool.Close()
		},
	}, nil
}

// Stats returns a snapshot of the pool counters.
func (b *Backend) Stats() any {
	return b.stats()
}

// Close releases the pool.
func (b *Backend) Close() {
	b.close()
}

// OrderService returns the order service over b.
func (b *Backend) OrderService() *order.Service {
	return order.NewService(b.Orders, b.Coord)
}

// MemberServices returns one member service per layout, keyed by the
// names accepted by the join endpoint.
func (b *Backend) MemberServices(layouts map[string]member.Layout) map[string]*member.Service {
	out := make(map[string]*member.Service, len(layouts))
	for name, layout := range layouts {
		out[name] = member.NewService(b.Coord, b.Members, b.Logs, layout)
	}
	return out
}

// ScenarioEnv returns the scenario environment over b.
func (b *Backend) ScenarioEnv() scenario.Env {
	return scenario.Env{
		Coord:   b.Coord,
		Orders:  b.Orders,
		Members: b.Members,
		Logs:    b.Logs,
	}
}
