package scenario

import (
	"context"
	"errors"
	"fmt"

	"txprop/internal/core/apperror"
	"txprop/internal/core/types"
	"txprop/internal/domain/order"
)

func orderScenarios() []Scenario {
	return []Scenario{
		{Name: "order_complete", Run: runOrderComplete},
		{Name: "order_system_failure", Run: runOrderSystemFailure},
		{Name: "order_not_enough_money", Run: runOrderNotEnoughMoney},
	}
}

func runOrderComplete(ctx context.Context, env Env) (string, error) {
	svc := order.NewService(env.Orders, env.Coord)
	o, err := svc.Place(ctx, "regular", types.MustMoney("10.00"))
	if err != nil {
		return "", err
	}
	stored, err := svc.Get(ctx, o.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("order %s %s", stored.ID, stored.PayStatus),
		expect(stored.PayStatus == order.PayStatusCompleted, "pay status %q, want COMPLETED", stored.PayStatus)
}

func runOrderSystemFailure(ctx context.Context, env Env) (string, error) {
	svc := order.NewService(env.Orders, env.Coord)
	o, placeErr := svc.Place(ctx, order.UsernameSystemFailure, types.MustMoney("10.00"))
	if o == nil {
		return "", placeErr
	}
	_, getErr := svc.Get(ctx, o.ID)

	return fmt.Sprintf("place err=%v", placeErr), errors.Join(
		expect(errors.Is(placeErr, order.ErrSystemFailure), "place should fail with system failure, got %v", placeErr),
		expect(apperror.IsNotFound(getErr), "order should be rolled back, lookup returned %v", getErr),
	)
}

func runOrderNotEnoughMoney(ctx context.Context, env Env) (string, error) {
	svc := order.NewService(env.Orders, env.Coord)
	o, placeErr := svc.Place(ctx, order.UsernameNotEnoughMoney, types.MustMoney("10.00"))
	if o == nil {
		return "", placeErr
	}
	stored, err := svc.Get(ctx, o.ID)
	if err != nil {
		return "", fmt.Errorf("order should be committed: %w", err)
	}

	return fmt.Sprintf("place err=%v, stored status %s", placeErr, stored.PayStatus), errors.Join(
		expect(errors.Is(placeErr, order.ErrNotEnoughMoney), "place should report not enough money, got %v", placeErr),
		expect(stored.PayStatus == order.PayStatusWaiting, "pay status %q, want WAITING", stored.PayStatus),
	)
}
