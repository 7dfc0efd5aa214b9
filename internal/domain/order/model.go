// Package order provides the order payment flow: an order is saved, then
// paid. A system failure rolls the order back; a shortage of funds is a
// business outcome that keeps the order in WAITING state.
package order

import (
	"context"
	"errors"

	"txprop/internal/core/apperror"
	"txprop/internal/core/id"
	"txprop/internal/core/types"
)

// PayStatus is the payment state of an order.
type PayStatus string

const (
	PayStatusNone      PayStatus = ""
	PayStatusWaiting   PayStatus = "WAITING"
	PayStatusCompleted PayStatus = "COMPLETED"
)

// Usernames that drive the payment outcome.
const (
	UsernameSystemFailure  = "exception"
	UsernameNotEnoughMoney = "not-enough-money"
)

var (
	// ErrSystemFailure is an unexpected payment failure. It rolls back.
	ErrSystemFailure = errors.New("payment system failure")

	// ErrNotEnoughMoney is a business outcome. The order is committed in
	// WAITING state and the caller is expected to handle the error.
	ErrNotEnoughMoney = errors.New("not enough money")
)

// Order is a customer order.
type Order struct {
	ID        id.ID       `db:"id" json:"id"`
	Username  string      `db:"username" json:"username"`
	Amount    types.Money `db:"amount" json:"amount"`
	PayStatus PayStatus   `db:"pay_status" json:"payStatus"`
}

// NewOrder creates an unpaid order.
func NewOrder(username string, amount types.Money) *Order {
	return &Order{
		ID:       id.New(),
		Username: username,
		Amount:   amount,
	}
}

// Validate checks order invariants.
func (o *Order) Validate(_ context.Context) error {
	if o.Username == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if !o.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", o.Amount.String())
	}
	return nil
}
