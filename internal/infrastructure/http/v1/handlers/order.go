package handlers

import (
	"github.com/gin-gonic/gin"

	"txprop/internal/core/apperror"
	"txprop/internal/core/id"
	"txprop/internal/core/types"
	"txprop/internal/domain/order"
	"txprop/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	*BaseHandler
	service *order.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *order.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// Place creates and pays an order.
// POST /api/v1/orders
func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	amount, err := types.NewMoneyFromString(req.Amount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("field", "amount"))
		return
	}

	o, err := h.service.Place(c.Request.Context(), req.Username, amount)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromOrder(o))
}

// Get returns an order.
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id").WithDetail("id", c.Param("id")))
		return
	}

	o, err := h.service.Get(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}
