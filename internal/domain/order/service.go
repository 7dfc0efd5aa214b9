package order

import (
	"context"
	"fmt"

	"txprop/internal/core/apperror"
	"txprop/internal/core/id"
	"txprop/internal/core/tx"
	"txprop/internal/core/types"
	"txprop/pkg/logger"
)

// Service places and pays orders.
//
// Place commits on ErrNotEnoughMoney (declared as a non-rollback error) and
// rolls back on anything else.
type Service struct {
	repo     Repository
	boundary *tx.Interceptor
}

// Attributes returns the transactional declaration of Service.
func Attributes() *tx.AttributeSource {
	return tx.NewAttributeSource("OrderService").
		Method("Place", tx.Attribute{
			Definition: tx.DefaultDefinition(),
			Rules:      tx.NoRollbackFor(ErrNotEnoughMoney),
		}).
		Method("Get", tx.Attribute{
			Definition: tx.DefaultDefinition().AsReadOnly(),
		})
}

// NewService creates a new order service.
func NewService(repo Repository, coord *tx.Coordinator) *Service {
	return &Service{
		repo:     repo,
		boundary: tx.NewInterceptor(coord, Attributes()),
	}
}

// Place saves an order for username and runs the payment.
//
// The returned order is non-nil whenever it passed validation, even when an
// error is returned, so callers can look it up afterwards.
func (s *Service) Place(ctx context.Context, username string, amount types.Money) (*Order, error) {
	o := NewOrder(username, amount)
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}
	err := s.boundary.Call(ctx, "Place", func(ctx context.Context) error {
		return s.place(ctx, o)
	})
	return o, err
}

func (s *Service) place(ctx context.Context, o *Order) error {
	logger.Info(ctx, "placing order", "order_id", o.ID, "username", o.Username)

	if err := s.repo.Save(ctx, o); err != nil {
		return fmt.Errorf("save order: %w", err)
	}

	logger.Info(ctx, "entering payment process", "order_id", o.ID)

	switch o.Username {
	case UsernameSystemFailure:
		logger.Info(ctx, "payment system failure", "order_id", o.ID)
		return apperror.NewInternal(ErrSystemFailure).WithDetail("order_id", o.ID)

	case UsernameNotEnoughMoney:
		logger.Info(ctx, "not enough money, order left waiting", "order_id", o.ID)
		o.PayStatus = PayStatusWaiting
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return apperror.NewBusinessRule(apperror.CodeNotEnoughMoney, "Not enough money, please deposit to the separate account").
			WithCause(ErrNotEnoughMoney).
			WithDetail("order_id", o.ID)

	default:
		logger.Info(ctx, "payment approved", "order_id", o.ID)
		o.PayStatus = PayStatusCompleted
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
	}

	logger.Info(ctx, "payment process completed", "order_id", o.ID)
	return nil
}

// Get returns the order in a read-only transaction.
func (s *Service) Get(ctx context.Context, orderID id.ID) (*Order, error) {
	return tx.Execute(ctx, s.boundary, "Get", func(ctx context.Context) (*Order, error) {
		return s.repo.FindByID(ctx, orderID)
	})
}
