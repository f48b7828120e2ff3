package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/application/fulfillment"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/shared"
)

// OrderStatusService is the order lifecycle surface the handler depends on
type OrderStatusService interface {
	Advance(ctx context.Context, actor fulfillment.Actor, orderID uuid.UUID, target order.Status) (*fulfillment.OrderResponse, error)
	Cancel(ctx context.Context, actor fulfillment.Actor, orderID uuid.UUID, reason string) (*fulfillment.OrderResponse, error)
	GetByID(ctx context.Context, actor fulfillment.Actor, orderID uuid.UUID) (*fulfillment.OrderResponse, error)
	ListForBuyer(ctx context.Context, actor fulfillment.Actor, filter shared.Filter) ([]fulfillment.OrderResponse, error)
	ListForSellerStore(ctx context.Context, actor fulfillment.Actor, filter shared.Filter) ([]fulfillment.OrderResponse, error)
	ListPendingApproval(ctx context.Context, actor fulfillment.Actor, filter shared.Filter) ([]fulfillment.OrderResponse, error)
}

// ApprovalService is the retailer approval surface the handler depends on
type ApprovalService interface {
	ApproveAndPay(ctx context.Context, actor fulfillment.Actor, orderID uuid.UUID) (*fulfillment.OrderResponse, error)
}

// OrderHandler handles order lifecycle endpoints
type OrderHandler struct {
	BaseHandler
	statusService   OrderStatusService
	approvalService ApprovalService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(statusService OrderStatusService, approvalService ApprovalService) *OrderHandler {
	return &OrderHandler{
		statusService:   statusService,
		approvalService: approvalService,
	}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.List)
		orders.GET("/pending-approval", h.ListPendingApproval)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/approve", h.Approve)
		orders.POST("/:id/advance", h.Advance)
		orders.POST("/:id/cancel", h.Cancel)
	}
}

// List returns the actor's orders. Store owners pass view=seller to see
// orders placed against their store instead of orders they placed.
func (h *OrderHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	var (
		resp []fulfillment.OrderResponse
		err  error
	)
	if c.Query("view") == "seller" {
		resp, err = h.statusService.ListForSellerStore(c.Request.Context(), actor, filter)
	} else {
		resp, err = h.statusService.ListForBuyer(c.Request.Context(), actor, filter)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListPendingApproval returns the retailer's orders blocked on proxy
// approval
func (h *OrderHandler) ListPendingApproval(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	resp, err := h.statusService.ListPendingApproval(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Get returns a single order
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.statusService.GetByID(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Approve is the retailer's approval of an order that needs proxy
// sourcing: it pays the wholesalers and spawns the proxy orders
func (h *OrderHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.approvalService.ApproveAndPay(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Advance moves an order to the named status
func (h *OrderHandler) Advance(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req fulfillment.AdvanceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	target := order.Status(req.Status)
	if !target.IsValid() {
		h.BadRequest(c, "Unknown order status: "+req.Status)
		return
	}

	resp, err := h.statusService.Advance(c.Request.Context(), actor, orderID, target)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel cancels an order with a reason
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req fulfillment.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.statusService.Cancel(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
