package memdb

import (
	"context"
	"fmt"

	"txprop/internal/core/apperror"
	"txprop/internal/core/id"
	"txprop/internal/domain/order"
)

// TableOrders holds order rows keyed by order ID.
const TableOrders = "orders"

// OrderRepository implements order.Repository on a Pool.
type OrderRepository struct {
	pool *Pool
}

// Compile-time check.
var _ order.Repository = (*OrderRepository)(nil)

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(pool *Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Save inserts a new order.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.pool.Session(ctx, func(c *Conn) error {
		key := o.ID.String()
		if _, exists, err := c.Get(TableOrders, key); err != nil {
			return err
		} else if exists {
			return apperror.NewDuplicate("order", "id", key)
		}
		row := *o
		return c.Insert(TableOrders, key, row)
	})
}

// Update overwrites an existing order.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	return r.pool.Session(ctx, func(c *Conn) error {
		key := o.ID.String()
		if _, exists, err := c.Get(TableOrders, key); err != nil {
			return err
		} else if !exists {
			return apperror.NewNotFound("order", key)
		}
		row := *o
		return c.Put(TableOrders, key, row)
	})
}

// FindByID returns the order visible to the current connection.
func (r *OrderRepository) FindByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	var out *order.Order
	err := r.pool.Session(ctx, func(c *Conn) error {
		v, ok, err := c.Get(TableOrders, orderID.String())
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewNotFound("order", orderID.String())
		}
		row, ok := v.(order.Order)
		if !ok {
			return fmt.Errorf("memdb: unexpected row type %T in %s", v, TableOrders)
		}
		out = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
