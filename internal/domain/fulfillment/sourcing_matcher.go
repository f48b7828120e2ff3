package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
)

// SourcingMatcher locates the wholesaler inventory record best suited to
// cover a retailer's stock shortfall.
//
// Ranking: a wholesaler that previously fulfilled this retailer for this
// product wins when it still has enough stock; otherwise the wholesaler
// with the highest stock whose product name matches (case-insensitive,
// trimmed). The decision is a point-in-time snapshot and must be
// re-validated at approval time.
type SourcingMatcher struct {
	inventoryRepo inventory.Repository
	proxyRepo     proxy.Repository
}

// NewSourcingMatcher creates a new SourcingMatcher
func NewSourcingMatcher(inventoryRepo inventory.Repository, proxyRepo proxy.Repository) *SourcingMatcher {
	return &SourcingMatcher{
		inventoryRepo: inventoryRepo,
		proxyRepo:     proxyRepo,
	}
}

// Match returns the best wholesaler candidate for the shortfall, or
// shared.ErrNotFound when no wholesaler can cover it.
func (m *SourcingMatcher) Match(ctx context.Context, retailerStoreID, productID uuid.UUID, productName string, neededQty int) (*inventory.InventoryRecord, error) {
	if neededQty <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Needed quantity must be positive")
	}

	if preferred, err := m.fromHistory(ctx, retailerStoreID, productID, neededQty); err != nil {
		return nil, err
	} else if preferred != nil {
		return preferred, nil
	}

	candidates, err := m.inventoryRepo.FindWholesalerCandidates(ctx, productName, neededQty)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, shared.ErrNotFound
	}

	// candidates arrive ordered by stock descending
	return &candidates[0], nil
}

func (m *SourcingMatcher) fromHistory(ctx context.Context, retailerStoreID, productID uuid.UUID, neededQty int) (*inventory.InventoryRecord, error) {
	wholesalerStoreID, err := m.proxyRepo.LastWholesalerFor(ctx, retailerStoreID, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	record, err := m.inventoryRepo.FindByStoreAndProduct(ctx, wholesalerStoreID, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !record.CanFulfill(neededQty) {
		return nil, nil
	}

	return record, nil
}
