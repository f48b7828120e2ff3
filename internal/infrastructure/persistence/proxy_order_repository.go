package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
)

// GormProxyOrderRepository implements proxy.Repository using GORM
type GormProxyOrderRepository struct {
	db *gorm.DB
}

// NewGormProxyOrderRepository creates a new GormProxyOrderRepository
func NewGormProxyOrderRepository(db *gorm.DB) *GormProxyOrderRepository {
	return &GormProxyOrderRepository{db: db}
}

// FindByID finds a proxy order by its ID
func (r *GormProxyOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*proxy.ProxyOrder, error) {
	var p proxy.ProxyOrder
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByCustomerOrder finds the proxy orders backing a customer order
func (r *GormProxyOrderRepository) FindByCustomerOrder(ctx context.Context, customerOrderID uuid.UUID) ([]proxy.ProxyOrder, error) {
	var proxies []proxy.ProxyOrder
	if err := r.db.WithContext(ctx).
		Where("customer_order_id = ?", customerOrderID).
		Order("created_at ASC").
		Find(&proxies).Error; err != nil {
		return nil, err
	}
	return proxies, nil
}

// FindByRetailerStore finds proxy orders placed by a retailer store
func (r *GormProxyOrderRepository) FindByRetailerStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]proxy.ProxyOrder, error) {
	var proxies []proxy.ProxyOrder
	query := applyFilter(
		r.db.WithContext(ctx).Model(&proxy.ProxyOrder{}).Where("retailer_store_id = ?", storeID),
		filter, ProxyOrderSortFields,
	)

	if err := query.Find(&proxies).Error; err != nil {
		return nil, err
	}
	return proxies, nil
}

// FindByWholesalerStore finds proxy orders directed at a wholesaler store,
// optionally narrowed to one status
func (r *GormProxyOrderRepository) FindByWholesalerStore(ctx context.Context, storeID uuid.UUID, status *proxy.Status, filter shared.Filter) ([]proxy.ProxyOrder, error) {
	var proxies []proxy.ProxyOrder
	query := r.db.WithContext(ctx).Model(&proxy.ProxyOrder{}).Where("wholesaler_store_id = ?", storeID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	query = applyFilter(query, filter, ProxyOrderSortFields)

	if err := query.Find(&proxies).Error; err != nil {
		return nil, err
	}
	return proxies, nil
}

// LastWholesalerFor returns the wholesaler store that most recently delivered
// the given product for the retailer
func (r *GormProxyOrderRepository) LastWholesalerFor(ctx context.Context, retailerStoreID, productID uuid.UUID) (uuid.UUID, error) {
	var p proxy.ProxyOrder
	err := r.db.WithContext(ctx).
		Where("retailer_store_id = ? AND product_id = ?", retailerStoreID, productID).
		Where("status IN ?", []proxy.Status{proxy.StatusDeliveredToRetailer, proxy.StatusCompleted}).
		Order("delivered_at DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return p.WholesalerStoreID, nil
}

// Save creates or updates a proxy order
func (r *GormProxyOrderRepository) Save(ctx context.Context, p *proxy.ProxyOrder) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormProxyOrderRepository) SaveWithLock(ctx context.Context, p *proxy.ProxyOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		lookup := tx.Model(&proxy.ProxyOrder{}).
			Where("id = ?", p.ID).
			Select("version").
			Scan(&currentVersion)
		if lookup.Error != nil {
			return lookup.Error
		}
		// Scan reports no error on zero rows
		if lookup.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if currentVersion != p.Version {
			return shared.ErrConcurrencyConflict
		}

		p.Version++
		p.UpdatedAt = time.Now()

		result := tx.Model(&proxy.ProxyOrder{}).
			Where("id = ? AND version = ?", p.ID, currentVersion).
			Updates(map[string]interface{}{
				"wholesaler_order_id": p.WholesalerOrderID,
				"status":              p.Status,
				"payment_status":      p.PaymentStatus,
				"approved_at":         p.ApprovedAt,
				"paid_at":             p.PaidAt,
				"rejected_at":         p.RejectedAt,
				"delivered_at":        p.DeliveredAt,
				"completed_at":        p.CompletedAt,
				"cancelled_at":        p.CancelledAt,
				"cancellation_reason": p.CancellationReason,
				"wholesaler_notes":    p.WholesalerNotes,
				"version":             p.Version,
				"updated_at":          p.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// Delete deletes a proxy order
func (r *GormProxyOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&proxy.ProxyOrder{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByStatus counts a wholesaler store's proxy orders in a status
func (r *GormProxyOrderRepository) CountByStatus(ctx context.Context, wholesalerStoreID uuid.UUID, status proxy.Status) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&proxy.ProxyOrder{}).
		Where("wholesaler_store_id = ? AND status = ?", wholesalerStoreID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ proxy.Repository = (*GormProxyOrderRepository)(nil)
