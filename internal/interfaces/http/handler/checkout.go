package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	checkoutapp "github.com/openmarket/backend/internal/application/checkout"
	"github.com/openmarket/backend/internal/application/fulfillment"
)

// CheckoutService is the checkout surface the handler depends on
type CheckoutService interface {
	PlaceOrder(ctx context.Context, actor fulfillment.Actor, req checkoutapp.PlaceOrderRequest) (*checkoutapp.PlaceOrderResponse, error)
}

// CheckoutHandler handles cart checkout
type CheckoutHandler struct {
	BaseHandler
	checkoutService CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout", h.PlaceOrder)
}

// PlaceOrder turns a cart into one order per retailer store, reserving
// stock and arranging wholesaler sourcing for shortfalls
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req checkoutapp.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.checkoutService.PlaceOrder(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}
