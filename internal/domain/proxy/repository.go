package proxy

import (
	"context"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Repository defines the interface for proxy order persistence
type Repository interface {
	// FindByID finds a proxy order by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProxyOrder, error)

	// FindByCustomerOrder finds the proxy orders backing a customer order
	FindByCustomerOrder(ctx context.Context, customerOrderID uuid.UUID) ([]ProxyOrder, error)

	// FindByRetailerStore finds proxy orders placed by a retailer store
	FindByRetailerStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]ProxyOrder, error)

	// FindByWholesalerStore finds proxy orders directed at a wholesaler
	// store, optionally narrowed to one status
	FindByWholesalerStore(ctx context.Context, storeID uuid.UUID, status *Status, filter shared.Filter) ([]ProxyOrder, error)

	// LastWholesalerFor returns the wholesaler store that most recently
	// fulfilled the given product for the retailer, or shared.ErrNotFound
	// when there is no fulfillment history
	LastWholesalerFor(ctx context.Context, retailerStoreID, productID uuid.UUID) (uuid.UUID, error)

	// Save creates or updates a proxy order
	Save(ctx context.Context, p *ProxyOrder) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, p *ProxyOrder) error

	// Delete deletes a proxy order
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus counts a wholesaler store's proxy orders in a status
	CountByStatus(ctx context.Context, wholesalerStoreID uuid.UUID, status Status) (int64, error)
}
