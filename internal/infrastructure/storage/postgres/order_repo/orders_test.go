package order_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txprop/internal/core/id"
	"txprop/internal/core/types"
	"txprop/internal/domain/order"
	"txprop/internal/infrastructure/storage/postgres"
)

func newTestRepo() *Repo {
	return &Repo{selectCols: postgres.ExtractDBColumns[order.Order]()}
}

func TestInsertQuery(t *testing.T) {
	r := newTestRepo()
	o := order.NewOrder("alice", types.MustMoney("10"))

	sql, args, err := r.insertQuery(o).ToSql()
	require.NoError(t, err)

	// SetMap sorts columns by name.
	assert.Equal(t, "INSERT INTO orders (amount,id,pay_status,username) VALUES ($1,$2,$3,$4)", sql)
	require.Len(t, args, 4)
	assert.Equal(t, o.ID, args[1])
	assert.Equal(t, order.PayStatusNone, args[2])
	assert.Equal(t, "alice", args[3])
}

func TestUpdateQuery(t *testing.T) {
	r := newTestRepo()
	o := order.NewOrder("alice", types.MustMoney("10"))
	o.PayStatus = order.PayStatusWaiting

	sql, args, err := r.updateQuery(o).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE orders SET username = $1, amount = $2, pay_status = $3 WHERE id = $4", sql)
	require.Len(t, args, 4)
	assert.Equal(t, order.PayStatusWaiting, args[2])
	// sq.Eq binds driver.Valuer values through Value().
	assert.Equal(t, o.ID.String(), args[3])
}

func TestSelectByIDQuery(t *testing.T) {
	r := newTestRepo()
	orderID := id.New()

	sql, args, err := r.selectByIDQuery(orderID).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, username, amount, pay_status FROM orders WHERE id = $1 LIMIT 1", sql)
	assert.Equal(t, []any{orderID.String()}, args)
}
