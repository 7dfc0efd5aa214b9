package dto

import (
	"txprop/internal/core/types"
	"txprop/internal/domain/order"
)

// PlaceOrderRequest is the body of POST /api/v1/orders.
type PlaceOrderRequest struct {
	Username string `json:"username" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// OrderResponse is an order as returned by the API.
type OrderResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Amount    types.Money `json:"amount"`
	PayStatus string      `json:"payStatus"`
}

// FromOrder converts a domain order.
func FromOrder(o *order.Order) OrderResponse {
	return OrderResponse{
		ID:        o.ID.String(),
		Username:  o.Username,
		Amount:    o.Amount,
		PayStatus: string(o.PayStatus),
	}
}
