package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Repository defines the interface for store persistence
type Repository interface {
	// FindByID finds a store by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)

	// FindByIDs finds multiple stores by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Store, error)

	// FindByOwner finds all stores owned by a user
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]Store, error)

	// FindByType finds stores of a given type
	FindByType(ctx context.Context, storeType StoreType, filter shared.Filter) ([]Store, error)

	// Save creates or updates a store
	Save(ctx context.Context, s *Store) error

	// Delete deletes a store
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts stores matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
