package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/application/fulfillment"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
)

// ProxyOrderService is the proxy order surface the handler depends on
type ProxyOrderService interface {
	RequestApproval(ctx context.Context, actor fulfillment.Actor, orderID uuid.UUID) ([]fulfillment.ProxyOrderResponse, error)
	Approve(ctx context.Context, actor fulfillment.Actor, proxyOrderID uuid.UUID, notes string) (*fulfillment.ProxyOrderResponse, error)
	Reject(ctx context.Context, actor fulfillment.Actor, proxyOrderID uuid.UUID, notes string) (*fulfillment.ProxyOrderResponse, error)
	MarkDelivered(ctx context.Context, actor fulfillment.Actor, proxyOrderID uuid.UUID) (*fulfillment.ProxyOrderResponse, error)
	Cancel(ctx context.Context, actor fulfillment.Actor, proxyOrderID uuid.UUID, reason string) (*fulfillment.ProxyOrderResponse, error)
	GetByID(ctx context.Context, actor fulfillment.Actor, proxyOrderID uuid.UUID) (*fulfillment.ProxyOrderResponse, error)
	ListForWholesaler(ctx context.Context, actor fulfillment.Actor, status *proxy.Status, filter shared.Filter) ([]fulfillment.ProxyOrderResponse, error)
	ListForRetailer(ctx context.Context, actor fulfillment.Actor, filter shared.Filter) ([]fulfillment.ProxyOrderResponse, error)
}

// ProxyOrderHandler handles the wholesaler-facing proxy order workflow
type ProxyOrderHandler struct {
	BaseHandler
	proxyService ProxyOrderService
}

// NewProxyOrderHandler creates a new ProxyOrderHandler
func NewProxyOrderHandler(proxyService ProxyOrderService) *ProxyOrderHandler {
	return &ProxyOrderHandler{proxyService: proxyService}
}

// RegisterRoutes registers proxy order routes
func (h *ProxyOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/:id/request-approval", h.RequestApproval)

	proxies := rg.Group("/proxy-orders")
	{
		proxies.GET("", h.List)
		proxies.GET("/:id", h.Get)
		proxies.POST("/:id/approve", h.Approve)
		proxies.POST("/:id/reject", h.Reject)
		proxies.POST("/:id/deliver", h.MarkDelivered)
		proxies.POST("/:id/cancel", h.Cancel)
	}
}

// RequestApproval creates PENDING proxy orders for an order's unresolved
// requirements so wholesalers can rule on them individually
func (h *ProxyOrderHandler) RequestApproval(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.proxyService.RequestApproval(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// List returns the actor's proxy orders: wholesalers see orders directed at
// their store (optionally narrowed by status), retailers see orders they
// placed
func (h *ProxyOrderHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	if actor.Role == fulfillment.RoleRetailer {
		resp, err := h.proxyService.ListForRetailer(c.Request.Context(), actor, filter)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
		return
	}

	var status *proxy.Status
	if raw := c.Query("status"); raw != "" {
		s := proxy.Status(raw)
		if !s.IsValid() {
			h.BadRequest(c, "Unknown proxy order status: "+raw)
			return
		}
		status = &s
	}

	resp, err := h.proxyService.ListForWholesaler(c.Request.Context(), actor, status, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Get returns a single proxy order
func (h *ProxyOrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	proxyOrderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.proxyService.GetByID(c.Request.Context(), actor, proxyOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Approve is the wholesaler's acceptance of a pending proxy order
func (h *ProxyOrderHandler) Approve(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	proxyOrderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req fulfillment.ApproveProxyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.proxyService.Approve(c.Request.Context(), actor, proxyOrderID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Reject is the wholesaler's refusal of a pending proxy order; notes are
// mandatory so the retailer learns why
func (h *ProxyOrderHandler) Reject(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	proxyOrderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req fulfillment.RejectProxyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.proxyService.Reject(c.Request.Context(), actor, proxyOrderID, req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MarkDelivered records the wholesaler's delivery to the retailer and
// settles the retailer's side of the proxy order
func (h *ProxyOrderHandler) MarkDelivered(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	proxyOrderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.proxyService.MarkDelivered(c.Request.Context(), actor, proxyOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel cancels a proxy order with a reason
func (h *ProxyOrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	proxyOrderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req fulfillment.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.proxyService.Cancel(c.Request.Context(), actor, proxyOrderID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
