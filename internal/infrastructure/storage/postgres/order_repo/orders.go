// Package order_repo provides the PostgreSQL implementation of order.Repository.
package order_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"txprop/internal/core/apperror"
	"txprop/internal/core/id"
	"txprop/internal/domain/order"
	"txprop/internal/infrastructure/storage/postgres"
)

const tableName = "orders"

// Compile-time check.
var _ order.Repository = (*Repo)(nil)

// Repo stores orders. Statements run on the transaction bound to ctx.
type Repo struct {
	pool       *postgres.Pool
	selectCols []string
}

// New creates a Repo.
func New(pool *postgres.Pool) *Repo {
	return &Repo{
		pool:       pool,
		selectCols: postgres.ExtractDBColumns[order.Order](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *Repo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Repo) insertQuery(o *order.Order) squirrel.InsertBuilder {
	return r.Builder().
		Insert(tableName).
		SetMap(postgres.StructToMap(o))
}

func (r *Repo) updateQuery(o *order.Order) squirrel.UpdateBuilder {
	return r.Builder().
		Update(tableName).
		Set("username", o.Username).
		Set("amount", o.Amount).
		Set("pay_status", o.PayStatus).
		Where(squirrel.Eq{"id": o.ID})
}

func (r *Repo) selectByIDQuery(orderID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(tableName).
		Where(squirrel.Eq{"id": orderID}).
		Limit(1)
}

// Save inserts a new order.
func (r *Repo) Save(ctx context.Context, o *order.Order) error {
	sql, args, err := r.insertQuery(o).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.pool.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("order", "id", o.ID.String()).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", tableName, err)
	}
	return nil
}

// Update overwrites the mutable columns of an order.
func (r *Repo) Update(ctx context.Context, o *order.Order) error {
	sql, args, err := r.updateQuery(o).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.pool.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("order", o.ID.String())
	}
	return nil
}

// FindByID retrieves an order by ID.
func (r *Repo) FindByID(ctx context.Context, orderID id.ID) (*order.Order, error) {
	sql, args, err := r.selectByIDQuery(orderID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o order.Order
	if err := pgxscan.Get(ctx, r.pool.GetQuerier(ctx), &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	return &o, nil
}
