package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Repository defines the interface for inventory record persistence.
//
// Stock quantity changes go through DecrementStock / IncrementStock, which
// must be implemented as single conditional updates so two concurrent
// checkouts or settlements can never both succeed on the same stock.
type Repository interface {
	// FindByID finds an inventory record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryRecord, error)

	// FindByIDs finds multiple records by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]InventoryRecord, error)

	// FindByStoreAndProduct finds the record for a store-product combination
	FindByStoreAndProduct(ctx context.Context, storeID, productID uuid.UUID) (*InventoryRecord, error)

	// FindByStore finds all records for a store
	FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]InventoryRecord, error)

	// FindWholesalerCandidates finds wholesaler-store records whose product
	// name matches (case-insensitive, trimmed) and whose stock covers the
	// needed quantity, ordered by stock quantity descending.
	FindWholesalerCandidates(ctx context.Context, productName string, neededQty int) ([]InventoryRecord, error)

	// Save creates or updates an inventory record
	Save(ctx context.Context, r *InventoryRecord) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, r *InventoryRecord) error

	// DecrementStock atomically decrements stock by qty, failing with
	// shared.ErrConcurrencyConflict when stock < qty at execution time.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error

	// IncrementStock atomically increments stock by qty
	IncrementStock(ctx context.Context, id uuid.UUID, qty int) error

	// Delete deletes an inventory record
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStore counts records for a store
	CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error)
}
