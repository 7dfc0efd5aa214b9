package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txprop/internal/core/tx"
	"txprop/internal/infrastructure/storage/memdb"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.TransactionsBegun)
	assert.NotNil(t, m.TransactionsCompleted)
	assert.NotNil(t, m.ConnectionsSuspended)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
}

func TestRecorder_CountsCoordinatorActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	pool := memdb.NewPool(memdb.NewStore(), memdb.DefaultPoolConfig())
	coord := tx.NewCoordinator(pool, tx.WithRecorder(m))
	ctx := context.Background()

	ctx, outer, err := coord.Begin(ctx, tx.DefaultDefinition())
	require.NoError(t, err)
	ctx, inner, err := coord.Begin(ctx, tx.RequiresNew())
	require.NoError(t, err)
	require.NoError(t, coord.Rollback(ctx, inner))
	ctx, joined, err := coord.Begin(ctx, tx.DefaultDefinition())
	require.NoError(t, err)
	require.NoError(t, coord.Rollback(ctx, joined))
	require.ErrorIs(t, coord.Commit(ctx, outer), tx.ErrUnexpectedRollback)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsBegun.WithLabelValues("REQUIRED", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsBegun.WithLabelValues("REQUIRED", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsBegun.WithLabelValues("REQUIRES_NEW", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsSuspended))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsCompleted.WithLabelValues("REQUIRES_NEW", "rolled_back")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsCompleted.WithLabelValues("REQUIRED", "marked_rollback_only")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsCompleted.WithLabelValues("REQUIRED", "unexpected_rollback")))
}

func TestRecorder_AcquisitionFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	coord := tx.NewCoordinator(failingPool{}, tx.WithRecorder(m))

	_, _, err := coord.Begin(context.Background(), tx.DefaultDefinition())
	require.ErrorIs(t, err, tx.ErrResourceAcquisition)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsCompleted.WithLabelValues("REQUIRED", "failed")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.TransactionsBegun))
}

func TestHTTPRequestsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/orders", "201").Inc()
	m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/orders", "500").Inc()
	m.HTTPRequestDuration.WithLabelValues("POST", "/api/v1/orders").Observe(0.02)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "http_requests_total" {
			found = true
			assert.Equal(t, 2, len(f.GetMetric()))
		}
	}
	assert.True(t, found, "http_requests_total metric not found")
}

type failingPool struct{}

func (failingPool) Acquire(context.Context) (tx.Resource, error) {
	return nil, errors.New("database is down")
}
