package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/openmarket/backend/internal/application/inventory"
	"github.com/openmarket/backend/internal/domain/shared"
)

// InventoryService is the inventory management surface the handler depends on
type InventoryService interface {
	CreateListing(ctx context.Context, ownerID, storeID uuid.UUID, req inventoryapp.CreateListingRequest) (*inventoryapp.RecordResponse, error)
	Restock(ctx context.Context, ownerID, recordID uuid.UUID, req inventoryapp.RestockRequest) (*inventoryapp.RecordResponse, error)
	UpdatePricing(ctx context.Context, ownerID, recordID uuid.UUID, req inventoryapp.UpdatePricingRequest) (*inventoryapp.RecordResponse, error)
	GetByID(ctx context.Context, recordID uuid.UUID) (*inventoryapp.RecordResponse, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventoryapp.RecordResponse, int64, error)
	Delete(ctx context.Context, ownerID, recordID uuid.UUID) error
}

// InventoryHandler handles inventory listing endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// RegisterRoutes registers inventory routes
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/stores")
	{
		stores.POST("/:id/inventory", h.CreateListing)
		stores.GET("/:id/inventory", h.ListByStore)
	}

	records := rg.Group("/inventory")
	{
		records.GET("/:id", h.Get)
		records.POST("/:id/restock", h.Restock)
		records.PUT("/:id/pricing", h.UpdatePricing)
		records.DELETE("/:id", h.Delete)
	}
}

// CreateListing lists a product for sale in a store
func (h *InventoryHandler) CreateListing(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	storeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.inventoryService.CreateListing(c.Request.Context(), actor.UserID, storeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// ListByStore lists a store's inventory records, paginated and searchable
// by product name
func (h *InventoryHandler) ListByStore(c *gin.Context) {
	storeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	records, total, err := h.inventoryService.ListByStore(c.Request.Context(), storeID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}

// Get returns a single inventory record
func (h *InventoryHandler) Get(c *gin.Context) {
	recordID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.inventoryService.GetByID(c.Request.Context(), recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Restock adds stock to an existing record
func (h *InventoryHandler) Restock(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.inventoryService.Restock(c.Request.Context(), actor.UserID, recordID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdatePricing changes the prices on a record
func (h *InventoryHandler) UpdatePricing(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.UpdatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.inventoryService.UpdatePricing(c.Request.Context(), actor.UserID, recordID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete removes a listing from the store
func (h *InventoryHandler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	recordID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.Delete(c.Request.Context(), actor.UserID, recordID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
