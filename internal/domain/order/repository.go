package order

import (
	"context"

	"txprop/internal/core/id"
)

// Repository defines the interface for Order persistence.
// Implementations run on the connection of the transaction in ctx.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error

	// FindByID returns an apperror NotFound error when the order does not exist.
	FindByID(ctx context.Context, orderID id.ID) (*Order, error)
}
