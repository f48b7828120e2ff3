package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/store"
)

// CreateStoreRequest opens a new store for the acting account
type CreateStoreRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=RETAILER WHOLESALER"`
}

// RenameStoreRequest changes a store's display name
type RenameStoreRequest struct {
	Name string `json:"name" binding:"required"`
}

// StoreResponse represents a store in responses
type StoreResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      store.StoreType `json:"type"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToStoreResponse converts a store to its response representation
func ToStoreResponse(st *store.Store) StoreResponse {
	return StoreResponse{
		ID:        st.ID,
		Name:      st.Name,
		Type:      st.Type,
		OwnerID:   st.OwnerID,
		Active:    st.Active,
		CreatedAt: st.CreatedAt,
	}
}

// Service manages store registration and lifecycle. A store's type is fixed
// at creation; there is no operation to change it.
type Service struct {
	storeRepo store.Repository
}

// NewService creates a new store Service
func NewService(storeRepo store.Repository) *Service {
	return &Service{storeRepo: storeRepo}
}

// Create opens a new store owned by the actor
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateStoreRequest) (*StoreResponse, error) {
	st, err := store.NewStore(req.Name, store.StoreType(req.Type), ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := ToStoreResponse(st)
	return &resp, nil
}

// GetByID retrieves a store
func (s *Service) GetByID(ctx context.Context, storeID uuid.UUID) (*StoreResponse, error) {
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	resp := ToStoreResponse(st)
	return &resp, nil
}

// ListByOwner lists the actor's stores
func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]StoreResponse, error) {
	stores, err := s.storeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]StoreResponse, 0, len(stores))
	for i := range stores {
		out = append(out, ToStoreResponse(&stores[i]))
	}
	return out, nil
}

// Rename changes the actor's store name
func (s *Service) Rename(ctx context.Context, ownerID, storeID uuid.UUID, req RenameStoreRequest) (*StoreResponse, error) {
	st, err := s.loadOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	if err := st.Rename(req.Name); err != nil {
		return nil, err
	}
	if err := s.storeRepo.Save(ctx, st); err != nil {
		return nil, err
	}
	resp := ToStoreResponse(st)
	return &resp, nil
}

// Deactivate closes the actor's store
func (s *Service) Deactivate(ctx context.Context, ownerID, storeID uuid.UUID) error {
	st, err := s.loadOwned(ctx, ownerID, storeID)
	if err != nil {
		return err
	}
	st.Deactivate()
	return s.storeRepo.Save(ctx, st)
}

func (s *Service) loadOwned(ctx context.Context, ownerID, storeID uuid.UUID) (*store.Store, error) {
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !st.IsOwnedBy(ownerID) {
		return nil, shared.ErrForbidden
	}
	return st, nil
}
