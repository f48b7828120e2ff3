package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourcingHistoryStore caches the last wholesaler that delivered a product to
// a retailer. Entries are hints only: sourcing falls back to the database on a
// miss and re-validates stock either way, so a stale or lost entry costs one
// extra query, never a wrong decision.
type SourcingHistoryStore interface {
	// Get returns the cached wholesaler store, or found=false on a miss
	Get(ctx context.Context, retailerStoreID, productID uuid.UUID) (wholesalerStoreID uuid.UUID, found bool, err error)

	// Set records the wholesaler that last delivered the product
	Set(ctx context.Context, retailerStoreID, productID, wholesalerStoreID uuid.UUID, ttl time.Duration) error

	// Invalidate drops the entry for a retailer/product pair
	Invalidate(ctx context.Context, retailerStoreID, productID uuid.UUID) error

	// Close releases any resources held by the store
	Close() error
}

// sourcingKey builds the cache key for a retailer/product pair
func sourcingKey(prefix string, retailerStoreID, productID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", prefix, retailerStoreID, productID)
}
