package tx_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txprop/internal/core/tx"
	"txprop/internal/infrastructure/storage/memdb"
)

func newCoordinator(t *testing.T, cfg memdb.PoolConfig) (*tx.Coordinator, *memdb.Pool) {
	t.Helper()
	pool := memdb.NewPool(memdb.NewStore(), cfg)
	return tx.NewCoordinator(pool), pool
}

func put(t *testing.T, ctx context.Context, key string) {
	t.Helper()
	conn, ok := tx.ResourceFrom(ctx).(*memdb.Conn)
	require.True(t, ok, "no memdb connection bound to ctx")
	require.NoError(t, conn.Put("rows", key, key))
}

func committed(pool *memdb.Pool, key string) bool {
	_, ok := pool.Store().Committed("rows", key)
	return ok
}

func TestCommit_OnePhysicalCommitOneRelease(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())
	ctx := context.Background()

	ctx, st, err := coord.Begin(ctx, tx.DefaultDefinition())
	require.NoError(t, err)
	assert.True(t, st.IsNewTransaction())
	assert.True(t, tx.IsActive(ctx))
	put(t, ctx, "a")

	require.NoError(t, coord.Commit(ctx, st))

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Commits)
	assert.Equal(t, int64(0), stats.Rollbacks)
	assert.Equal(t, int64(1), stats.Acquires)
	assert.Equal(t, int64(1), stats.Releases)
	assert.Equal(t, 0, stats.InUse)
	assert.True(t, committed(pool, "a"))
	assert.True(t, st.IsCompleted())
	assert.False(t, tx.IsActive(ctx))
}

func TestRollback_DiscardsWrites(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx, st, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	put(t, ctx, "a")
	require.NoError(t, coord.Rollback(ctx, st))

	assert.Equal(t, int64(1), pool.Stats().Rollbacks)
	assert.Equal(t, int64(1), pool.Stats().Releases)
	assert.False(t, committed(pool, "a"))
}

func TestDoubleCommit_ReusesPooledConnection(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())
	ctx := context.Background()

	ctx1, tx1, err := coord.Begin(ctx, tx.DefaultDefinition())
	require.NoError(t, err)
	require.NoError(t, coord.Commit(ctx1, tx1))

	ctx2, tx2, err := coord.Begin(ctx, tx.DefaultDefinition())
	require.NoError(t, err)
	require.NoError(t, coord.Commit(ctx2, tx2))

	assert.Equal(t, "conn0", tx1.Resource().ID())
	assert.Equal(t, "conn0", tx2.Resource().ID())
	assert.Equal(t, 1, pool.Stats().Open)
	assert.Equal(t, int64(2), pool.Stats().Commits)
}

func TestRequired_InnerParticipatesOnSameConnection(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx1, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	ctx2, inner, err := coord.Begin(ctx1, tx.DefaultDefinition())
	require.NoError(t, err)

	assert.True(t, outer.IsNewTransaction())
	assert.False(t, inner.IsNewTransaction())
	assert.Same(t, outer.Resource(), inner.Resource())
	assert.Equal(t, 2, tx.Depth(ctx2))
	put(t, ctx2, "inner")

	require.NoError(t, coord.Commit(ctx2, inner))
	// Participant commit does not touch the physical transaction.
	assert.Equal(t, int64(0), pool.Stats().Commits)
	assert.False(t, committed(pool, "inner"))

	require.NoError(t, coord.Commit(ctx1, outer))
	assert.Equal(t, int64(1), pool.Stats().Commits)
	assert.Equal(t, int64(1), pool.Stats().Acquires)
	assert.True(t, committed(pool, "inner"))
}

func TestRequired_InnerRollbackMakesOuterCommitFail(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx1, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	put(t, ctx1, "outer")
	ctx2, inner, err := coord.Begin(ctx1, tx.DefaultDefinition())
	require.NoError(t, err)
	put(t, ctx2, "inner")

	require.NoError(t, coord.Rollback(ctx2, inner))
	// No physical rollback yet, only the mark.
	assert.Equal(t, int64(0), pool.Stats().Rollbacks)
	assert.True(t, outer.IsRollbackOnly())
	assert.True(t, inner.IsRollbackOnly())

	err = coord.Commit(ctx1, outer)
	require.ErrorIs(t, err, tx.ErrUnexpectedRollback)

	stats := pool.Stats()
	assert.Equal(t, int64(0), stats.Commits)
	assert.Equal(t, int64(1), stats.Rollbacks)
	assert.Equal(t, int64(1), stats.Releases)
	assert.False(t, committed(pool, "outer"))
	assert.False(t, committed(pool, "inner"))
	assert.False(t, tx.IsActive(ctx1))
}

func TestOuterRollback_DiscardsCommittedParticipant(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx1, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	ctx2, inner, err := coord.Begin(ctx1, tx.DefaultDefinition())
	require.NoError(t, err)
	put(t, ctx2, "inner")
	require.NoError(t, coord.Commit(ctx2, inner))

	require.NoError(t, coord.Rollback(ctx1, outer))

	assert.False(t, committed(pool, "inner"))
	assert.Equal(t, int64(1), pool.Stats().Rollbacks)
}

func TestRequiresNew_InnerRollbackKeepsOuter(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx1, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	put(t, ctx1, "outer")

	ctx2, inner, err := coord.Begin(ctx1, tx.RequiresNew())
	require.NoError(t, err)
	assert.True(t, inner.IsNewTransaction())
	assert.Equal(t, "conn0", outer.Resource().ID())
	assert.Equal(t, "conn1", inner.Resource().ID())
	assert.Same(t, outer.Resource(), inner.SuspendedResource())
	assert.Same(t, inner.Resource(), tx.ResourceFrom(ctx2))
	put(t, ctx2, "inner")

	require.NoError(t, coord.Rollback(ctx2, inner))
	// The suspended transaction is current again.
	assert.Same(t, outer, tx.Current(ctx1))
	assert.False(t, outer.IsRollbackOnly())

	require.NoError(t, coord.Commit(ctx1, outer))

	assert.True(t, committed(pool, "outer"))
	assert.False(t, committed(pool, "inner"))
	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Commits)
	assert.Equal(t, int64(1), stats.Rollbacks)
	assert.Equal(t, int64(2), stats.Releases)
}

func TestRequiresNew_SiblingsAreIndependent(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)

	ctxA, a, err := coord.Begin(ctx, tx.RequiresNew())
	require.NoError(t, err)
	put(t, ctxA, "a")
	require.NoError(t, coord.Rollback(ctxA, a))

	ctxB, b, err := coord.Begin(ctx, tx.RequiresNew())
	require.NoError(t, err)
	put(t, ctxB, "b")
	require.NoError(t, coord.Commit(ctxB, b))

	require.NoError(t, coord.Commit(ctx, outer))

	assert.NotSame(t, a.Resource(), outer.Resource())
	assert.NotSame(t, b.Resource(), outer.Resource())
	assert.False(t, committed(pool, "a"))
	assert.True(t, committed(pool, "b"))
	assert.False(t, outer.IsRollbackOnly())
}

func TestOutOfOrderCompletion_ReturnsErrorAndKeepsState(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx1, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	ctx2, inner, err := coord.Begin(ctx1, tx.RequiresNew())
	require.NoError(t, err)

	err = coord.Commit(ctx2, outer)
	require.ErrorIs(t, err, tx.ErrPropagationOrder)
	err = coord.Rollback(ctx2, outer)
	require.ErrorIs(t, err, tx.ErrPropagationOrder)

	assert.False(t, outer.IsCompleted())
	assert.Same(t, inner, tx.Current(ctx2))
	assert.Equal(t, 2, tx.Depth(ctx2))
	assert.Equal(t, int64(0), pool.Stats().Releases)

	// The outer context does not see inner, but inner is still open.
	err = coord.Commit(ctx1, outer)
	require.ErrorIs(t, err, tx.ErrPropagationOrder)
	assert.False(t, outer.IsCompleted())

	require.NoError(t, coord.Commit(ctx2, inner))
	require.NoError(t, coord.Commit(ctx1, outer))
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestOutOfOrderCompletion_UnnamedTransactionsReportIDs(t *testing.T) {
	coord, _ := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx1, outer, err := coord.Begin(context.Background(), tx.Definition{Propagation: tx.PropagationRequired})
	require.NoError(t, err)
	ctx2, inner, err := coord.Begin(ctx1, tx.Definition{Propagation: tx.PropagationRequiresNew})
	require.NoError(t, err)
	require.Empty(t, outer.Name())

	err = coord.Commit(ctx2, outer)
	require.ErrorIs(t, err, tx.ErrPropagationOrder)
	assert.Contains(t, err.Error(), outer.ID().String())
	assert.Contains(t, err.Error(), inner.ID().String())
	assert.NotContains(t, err.Error(), `""`)

	require.NoError(t, coord.Rollback(ctx2, inner))
	require.NoError(t, coord.Rollback(ctx1, outer))
}

func TestCompleteTwice(t *testing.T) {
	coord, _ := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx, st, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	require.NoError(t, coord.Commit(ctx, st))

	assert.ErrorIs(t, coord.Commit(ctx, st), tx.ErrTransactionCompleted)
	assert.ErrorIs(t, coord.Rollback(ctx, st), tx.ErrTransactionCompleted)
}

func TestStatusFromAnotherChain(t *testing.T) {
	coord, _ := newCoordinator(t, memdb.DefaultPoolConfig())

	ctxA, a, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)
	ctxB, b, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)

	assert.NotSame(t, a.Resource(), b.Resource())
	assert.ErrorIs(t, coord.Commit(ctxB, a), tx.ErrNoTransaction)
	assert.ErrorIs(t, coord.Commit(context.Background(), a), tx.ErrNoTransaction)
	assert.ErrorIs(t, coord.Commit(ctxA, nil), tx.ErrNoTransaction)

	require.NoError(t, coord.Commit(ctxA, a))
	require.NoError(t, coord.Commit(ctxB, b))
}

func TestRequiresNew_AcquisitionFailureLeavesOuterUsable(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.PoolConfig{MaxConns: 1, AcquireTimeout: 20 * time.Millisecond})

	ctx, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)

	_, inner, err := coord.Begin(ctx, tx.RequiresNew())
	require.ErrorIs(t, err, tx.ErrResourceAcquisition)
	require.ErrorIs(t, err, memdb.ErrPoolExhausted)
	assert.Nil(t, inner)
	assert.Same(t, outer, tx.Current(ctx))

	put(t, ctx, "outer")
	require.NoError(t, coord.Commit(ctx, outer))
	assert.True(t, committed(pool, "outer"))
}

func TestBegin_CancelledContext(t *testing.T) {
	coord, _ := newCoordinator(t, memdb.PoolConfig{MaxConns: 1})

	ctx, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = coord.Begin(cancelled, tx.RequiresNew())
	require.ErrorIs(t, err, tx.ErrResourceAcquisition)
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, coord.Rollback(ctx, outer))
}

func TestReadOnly(t *testing.T) {
	coord, _ := newCoordinator(t, memdb.DefaultPoolConfig())

	ctx1, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition().AsReadOnly())
	require.NoError(t, err)
	assert.True(t, tx.IsReadOnly(ctx1))

	// A read-write participant reports the flag of the transaction it joined.
	ctx2, inner, err := coord.Begin(ctx1, tx.DefaultDefinition())
	require.NoError(t, err)
	assert.True(t, inner.IsReadOnly())

	conn := tx.ResourceFrom(ctx2).(*memdb.Conn)
	assert.ErrorIs(t, conn.Put("rows", "k", 1), memdb.ErrReadOnly)

	require.NoError(t, coord.Commit(ctx2, inner))
	require.NoError(t, coord.Commit(ctx1, outer))
	assert.False(t, tx.IsReadOnly(ctx1))
}

func TestChain_NoTransaction(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, tx.Current(ctx))
	assert.False(t, tx.IsActive(ctx))
	assert.False(t, tx.IsReadOnly(ctx))
	assert.Nil(t, tx.ResourceFrom(ctx))
	assert.Equal(t, 0, tx.Depth(ctx))
}

func TestCommit_PhysicalCommitFailure(t *testing.T) {
	res := &fakeResource{commitErr: errors.New("connection reset")}
	coord := tx.NewCoordinator(fakePool{res: res})

	ctx, st, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)

	err = coord.Commit(ctx, st)
	require.Error(t, err)
	assert.ErrorIs(t, err, res.commitErr)
	assert.True(t, res.released)
	assert.False(t, tx.IsActive(ctx))
}

func TestBegin_ResourceBeginFailureReleases(t *testing.T) {
	res := &fakeResource{beginErr: errors.New("read-only replica")}
	coord := tx.NewCoordinator(fakePool{res: res})

	_, st, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.ErrorIs(t, err, tx.ErrResourceAcquisition)
	assert.ErrorIs(t, err, res.beginErr)
	assert.Nil(t, st)
	assert.True(t, res.released)
}

type fakeResource struct {
	beginErr  error
	commitErr error

	committed  bool
	rolledBack bool
	released   bool
}

func (r *fakeResource) ID() string { return "fake" }

func (r *fakeResource) Begin(context.Context, tx.BeginOptions) error { return r.beginErr }

func (r *fakeResource) Commit(context.Context) error {
	r.committed = true
	return r.commitErr
}

func (r *fakeResource) Rollback(context.Context) error {
	r.rolledBack = true
	return nil
}

func (r *fakeResource) Release() { r.released = true }

type fakePool struct {
	res *fakeResource
}

func (p fakePool) Acquire(context.Context) (tx.Resource, error) { return p.res, nil }

func TestRunInTransaction_ConcurrentParticipants(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())
	const workers = 8
	errs := make([]error, workers)

	err := coord.RunInTransaction(context.Background(), func(ctx context.Context) error {
		put(t, ctx, "outer")

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = coord.RunInTransaction(ctx, func(ctx context.Context) error {
					conn := tx.ResourceFrom(ctx).(*memdb.Conn)
					return conn.Put("rows", fmt.Sprintf("worker-%d", i), i)
				})
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, tx.Depth(ctx))
		return nil
	})
	require.NoError(t, err)
	for i, werr := range errs {
		assert.NoError(t, werr, "worker %d", i)
	}

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Acquires)
	assert.Equal(t, int64(1), stats.Commits)
	assert.Equal(t, 0, stats.InUse)
	assert.True(t, committed(pool, "outer"))
	for i := range workers {
		assert.True(t, committed(pool, fmt.Sprintf("worker-%d", i)))
	}
}

func TestRequiresNew_ConcurrentBranches(t *testing.T) {
	coord, pool := newCoordinator(t, memdb.DefaultPoolConfig())
	const workers = 4

	ctx, outer, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wctx, st, err := coord.Begin(ctx, tx.RequiresNew())
			if err != nil {
				errs[i] = err
				return
			}
			// Siblings never become current for each other or for the parent.
			if tx.Current(wctx) != st || tx.Current(ctx) != outer {
				errs[i] = errors.New("transaction leaked across branches")
			}
			if i%2 == 0 {
				errs[i] = errors.Join(errs[i], coord.Rollback(wctx, st))
				return
			}
			conn := tx.ResourceFrom(wctx).(*memdb.Conn)
			errs[i] = errors.Join(errs[i], conn.Put("rows", fmt.Sprintf("branch-%d", i), i), coord.Commit(wctx, st))
		}()
	}
	wg.Wait()
	for i, werr := range errs {
		assert.NoError(t, werr, "worker %d", i)
	}

	assert.Same(t, outer, tx.Current(ctx))
	require.NoError(t, coord.Commit(ctx, outer))
	assert.Equal(t, 0, pool.Stats().InUse)
	assert.True(t, committed(pool, "branch-1"))
	assert.False(t, committed(pool, "branch-0"))
}
