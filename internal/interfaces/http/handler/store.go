package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	storeapp "github.com/openmarket/backend/internal/application/store"
)

// StoreService is the store management surface the handler depends on
type StoreService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req storeapp.CreateStoreRequest) (*storeapp.StoreResponse, error)
	GetByID(ctx context.Context, storeID uuid.UUID) (*storeapp.StoreResponse, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]storeapp.StoreResponse, error)
	Rename(ctx context.Context, ownerID, storeID uuid.UUID, req storeapp.RenameStoreRequest) (*storeapp.StoreResponse, error)
	Deactivate(ctx context.Context, ownerID, storeID uuid.UUID) error
}

// StoreHandler handles store management endpoints
type StoreHandler struct {
	BaseHandler
	storeService StoreService
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(storeService StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

// RegisterRoutes registers store routes
func (h *StoreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/stores")
	{
		stores.POST("", h.Create)
		stores.GET("", h.ListMine)
		stores.GET("/:id", h.Get)
		stores.PUT("/:id/name", h.Rename)
		stores.DELETE("/:id", h.Deactivate)
	}
}

// Create opens a new store owned by the authenticated account
func (h *StoreHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req storeapp.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.storeService.Create(c.Request.Context(), actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// ListMine lists the stores owned by the authenticated account
func (h *StoreHandler) ListMine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.storeService.ListByOwner(c.Request.Context(), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Get returns a single store
func (h *StoreHandler) Get(c *gin.Context) {
	storeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.storeService.GetByID(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Rename changes a store's display name
func (h *StoreHandler) Rename(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	storeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	var req storeapp.RenameStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.storeService.Rename(c.Request.Context(), actor.UserID, storeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Deactivate takes a store off the marketplace
func (h *StoreHandler) Deactivate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	storeID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.storeService.Deactivate(c.Request.Context(), actor.UserID, storeID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
