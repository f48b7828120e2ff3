package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/proxy"
)

// CachingProxyRepository decorates a proxy order repository with a sourcing
// history cache. LastWholesalerFor is served from the cache when possible,
// and deliveries refresh the cached entry as a side effect of saving.
//
// Cache failures are logged and swallowed: the wrapped repository is always
// the source of truth.
type CachingProxyRepository struct {
	proxy.Repository
	store  SourcingHistoryStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingProxyRepository wraps the given repository with sourcing history
// caching
func NewCachingProxyRepository(inner proxy.Repository, store SourcingHistoryStore, ttl time.Duration, logger *zap.Logger) *CachingProxyRepository {
	return &CachingProxyRepository{
		Repository: inner,
		store:      store,
		ttl:        ttl,
		logger:     logger.Named("sourcing-cache"),
	}
}

// LastWholesalerFor answers from the cache when it can, falling through to
// the wrapped repository and caching positive results. Misses (including
// shared.ErrNotFound from the repository) are not cached: a retailer with no
// history gains one as soon as a delivery lands, and a stale negative entry
// would hide it.
func (r *CachingProxyRepository) LastWholesalerFor(ctx context.Context, retailerStoreID, productID uuid.UUID) (uuid.UUID, error) {
	if cached, found, err := r.store.Get(ctx, retailerStoreID, productID); err != nil {
		r.logger.Warn("sourcing cache read failed",
			zap.String("retailer_store_id", retailerStoreID.String()),
			zap.Error(err),
		)
	} else if found {
		return cached, nil
	}

	wholesalerStoreID, err := r.Repository.LastWholesalerFor(ctx, retailerStoreID, productID)
	if err != nil {
		return uuid.Nil, err
	}

	if err := r.store.Set(ctx, retailerStoreID, productID, wholesalerStoreID, r.ttl); err != nil {
		r.logger.Warn("sourcing cache write failed",
			zap.String("retailer_store_id", retailerStoreID.String()),
			zap.Error(err),
		)
	}

	return wholesalerStoreID, nil
}

// Save persists the proxy order and refreshes the cache on delivery
func (r *CachingProxyRepository) Save(ctx context.Context, p *proxy.ProxyOrder) error {
	if err := r.Repository.Save(ctx, p); err != nil {
		return err
	}
	r.refreshOnDelivery(ctx, p)
	return nil
}

// SaveWithLock persists with optimistic locking and refreshes the cache on
// delivery
func (r *CachingProxyRepository) SaveWithLock(ctx context.Context, p *proxy.ProxyOrder) error {
	if err := r.Repository.SaveWithLock(ctx, p); err != nil {
		return err
	}
	r.refreshOnDelivery(ctx, p)
	return nil
}

// refreshOnDelivery overwrites the cached last wholesaler once an order has
// actually been delivered. Earlier states carry no fulfillment history.
func (r *CachingProxyRepository) refreshOnDelivery(ctx context.Context, p *proxy.ProxyOrder) {
	if p.Status != proxy.StatusDeliveredToRetailer && p.Status != proxy.StatusCompleted {
		return
	}

	if err := r.store.Set(ctx, p.RetailerStoreID, p.ProductID, p.WholesalerStoreID, r.ttl); err != nil {
		r.logger.Warn("sourcing cache refresh failed",
			zap.String("proxy_order_id", p.ID.String()),
			zap.Error(err),
		)
	}
}

var _ proxy.Repository = (*CachingProxyRepository)(nil)
