package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM. Lines and
// requirements are persisted together with the order; requirement rows
// removed from the aggregate are deleted on save.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its lines and requirements
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Requirements").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order by its number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Requirements").
		First(&o, "order_number = ?", orderNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByBuyer finds orders placed by a buyer
func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyerID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := applyFilter(
		r.db.WithContext(ctx).Model(&order.Order{}).Where("buyer_id = ?", buyerID),
		filter, OrderSortFields,
	)

	if err := query.Preload("Lines").Preload("Requirements").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindBySellerStore finds orders sold by a store
func (r *GormOrderRepository) FindBySellerStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := applyFilter(
		r.db.WithContext(ctx).Model(&order.Order{}).Where("seller_store_id = ?", storeID),
		filter, OrderSortFields,
	)

	if err := query.Preload("Lines").Preload("Requirements").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindPendingApprovalBySellerStore finds orders whose fulfillment
// requirements still await the retailer's decision
func (r *GormOrderRepository) FindPendingApprovalBySellerStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := applyFilter(
		r.db.WithContext(ctx).Model(&order.Order{}).
			Where("seller_store_id = ? AND needs_proxy_approval = ? AND proxy_approved_at IS NULL", storeID, true),
		filter, OrderSortFields,
	)

	if err := query.Preload("Lines").Preload("Requirements").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates an order together with its lines and requirements
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines", "Requirements").Save(o).Error; err != nil {
			return err
		}
		return r.syncChildren(tx, o)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		lookup := tx.Model(&order.Order{}).
			Where("id = ?", o.ID).
			Select("version").
			Scan(&currentVersion)
		if lookup.Error != nil {
			return lookup.Error
		}
		// Scan reports no error on zero rows
		if lookup.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if currentVersion != o.Version {
			return shared.ErrConcurrencyConflict
		}

		o.Version++
		o.UpdatedAt = time.Now()

		result := tx.Model(&order.Order{}).
			Where("id = ? AND version = ?", o.ID, currentVersion).
			Updates(map[string]interface{}{
				"total_amount":         o.TotalAmount,
				"status":               o.Status,
				"payment_status":       o.PaymentStatus,
				"needs_proxy_approval": o.NeedsProxyApproval,
				"proxy_approved_at":    o.ProxyApprovedAt,
				"confirmed_at":         o.ConfirmedAt,
				"packed_at":            o.PackedAt,
				"shipped_at":           o.ShippedAt,
				"delivered_at":         o.DeliveredAt,
				"cancelled_at":         o.CancelledAt,
				"cancel_reason":        o.CancelReason,
				"version":              o.Version,
				"updated_at":           o.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.syncChildren(tx, o)
	})
}

// SaveAll saves multiple orders atomically
func (r *GormOrderRepository) SaveAll(ctx context.Context, orders []*order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			if err := tx.Omit("Lines", "Requirements").Save(o).Error; err != nil {
				return err
			}
			if err := r.syncChildren(tx, o); err != nil {
				return err
			}
		}
		return nil
	})
}

// syncChildren saves the current lines and requirements and deletes rows the
// aggregate no longer carries. Resolving requirements into lines relies on
// the delete half.
func (r *GormOrderRepository) syncChildren(tx *gorm.DB, o *order.Order) error {
	lineIDs := make([]uuid.UUID, len(o.Lines))
	for i := range o.Lines {
		o.Lines[i].OrderID = o.ID
		lineIDs[i] = o.Lines[i].ID
	}
	if len(lineIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", o.ID, lineIDs).
			Delete(&order.Line{}).Error; err != nil {
			return err
		}
	} else if err := tx.Where("order_id = ?", o.ID).Delete(&order.Line{}).Error; err != nil {
		return err
	}
	for i := range o.Lines {
		if err := tx.Save(&o.Lines[i]).Error; err != nil {
			return err
		}
	}

	reqIDs := make([]uuid.UUID, len(o.Requirements))
	for i := range o.Requirements {
		o.Requirements[i].OrderID = o.ID
		reqIDs[i] = o.Requirements[i].ID
	}
	if len(reqIDs) > 0 {
		if err := tx.Where("order_id = ? AND id NOT IN ?", o.ID, reqIDs).
			Delete(&order.Requirement{}).Error; err != nil {
			return err
		}
	} else if err := tx.Where("order_id = ?", o.ID).Delete(&order.Requirement{}).Error; err != nil {
		return err
	}
	for i := range o.Requirements {
		if err := tx.Save(&o.Requirements[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// Delete deletes an order with its lines and requirements
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&order.Line{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&order.Requirement{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&order.Order{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// CountByStatus counts a seller store's orders in a status
func (r *GormOrderRepository) CountByStatus(ctx context.Context, storeID uuid.UUID, status order.Status) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("seller_store_id = ? AND status = ?", storeID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GenerateOrderNumber generates a unique order number.
// Format: ORD-YYYY-NNNNN (e.g., ORD-2026-00001)
func (r *GormOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("ORD-%d-", year)

	var lastOrder order.Order
	err := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&lastOrder).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderNumber != "" {
		parts := strings.Split(lastOrder.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	orderNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// retry past any number already taken by a concurrent checkout
	for i := 0; i < 100; i++ {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&order.Order{}).
			Where("order_number = ?", orderNumber).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			break
		}
		nextNum++
		orderNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
	}

	return orderNumber, nil
}

var _ order.Repository = (*GormOrderRepository)(nil)
