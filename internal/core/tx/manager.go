// Package tx provides transaction management abstractions.
// It implements declarative transaction propagation (REQUIRED, REQUIRES_NEW)
// over pooled connections: a Coordinator mapping logical transactions onto
// physical ones, a chain of open transactions carried by context.Context,
// and an Interceptor turning the outcome of a unit of work into commit or
// rollback.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls join the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Compile-time check that Coordinator implements ReadOnlyManager.
var _ ReadOnlyManager = (*Coordinator)(nil)

// RunInTransaction executes fn under the default attribute.
func (c *Coordinator) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return execute(ctx, c, DefaultAttribute(), fn)
}

// RunInNewTransaction executes fn in its own physical transaction,
// suspending the active one.
func (c *Coordinator) RunInNewTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return execute(ctx, c, Attribute{Definition: RequiresNew()}, fn)
}

// ReadOnly executes fn in a read-only transaction.
func (c *Coordinator) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return execute(ctx, c, Attribute{Definition: DefaultDefinition().AsReadOnly()}, fn)
}

// RunWithAttribute executes fn under attr.
func (c *Coordinator) RunWithAttribute(ctx context.Context, attr Attribute, fn func(ctx context.Context) error) error {
	return execute(ctx, c, attr, fn)
}
