package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence. Orders are saved
// with their lines and requirements in a single transaction; requirement
// rows are deleted when the aggregate clears them.
type Repository interface {
	// FindByID finds an order with its lines and requirements
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by its number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindByBuyer finds orders placed by a buyer
	FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindBySellerStore finds orders sold by a store
	FindBySellerStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindPendingApprovalBySellerStore finds orders whose fulfillment
	// requirements still await the retailer's decision
	FindPendingApprovalBySellerStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order together with its lines and
	// requirements in one transaction
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, o *Order) error

	// SaveAll saves multiple orders atomically (all-or-nothing across
	// retailer stores in one checkout)
	SaveAll(ctx context.Context, orders []*Order) error

	// Delete deletes an order
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus counts a seller store's orders in a status
	CountByStatus(ctx context.Context, storeID uuid.UUID, status Status) (int64, error)

	// GenerateOrderNumber generates a new unique order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
