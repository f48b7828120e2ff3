package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/store"
)

// GormInventoryRepository implements inventory.Repository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByID finds an inventory record by its ID
func (r *GormInventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryRecord, error) {
	var rec inventory.InventoryRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByIDs finds multiple records by their IDs
func (r *GormInventoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.InventoryRecord, error) {
	if len(ids) == 0 {
		return []inventory.InventoryRecord{}, nil
	}

	var records []inventory.InventoryRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByStoreAndProduct finds the record for a store-product combination
func (r *GormInventoryRepository) FindByStoreAndProduct(ctx context.Context, storeID, productID uuid.UUID) (*inventory.InventoryRecord, error) {
	var rec inventory.InventoryRecord
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByStore finds all records for a store
func (r *GormInventoryRepository) FindByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]inventory.InventoryRecord, error) {
	var records []inventory.InventoryRecord
	query := r.db.WithContext(ctx).Model(&inventory.InventoryRecord{}).Where("store_id = ?", storeID)
	if filter.Search != "" {
		query = query.Where("product_name ILIKE ?", "%"+filter.Search+"%")
	}
	query = applyFilter(query, filter, InventorySortFields)

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindWholesalerCandidates finds wholesaler-store records whose product name
// matches (case-insensitive, trimmed) and whose stock covers the needed
// quantity, best-stocked first.
func (r *GormInventoryRepository) FindWholesalerCandidates(ctx context.Context, productName string, neededQty int) ([]inventory.InventoryRecord, error) {
	var records []inventory.InventoryRecord
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryRecord{}).
		Joins("JOIN stores ON stores.id = inventory_records.store_id").
		Where("stores.type = ? AND stores.active = ?", store.StoreTypeWholesaler, true).
		Where("LOWER(TRIM(inventory_records.product_name)) = LOWER(?)", strings.TrimSpace(productName)).
		Where("inventory_records.stock_qty >= ?", neededQty).
		Order("inventory_records.stock_qty DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates an inventory record
func (r *GormInventoryRepository) Save(ctx context.Context, rec *inventory.InventoryRecord) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormInventoryRepository) SaveWithLock(ctx context.Context, rec *inventory.InventoryRecord) error {
	result := r.db.WithContext(ctx).
		Model(rec).
		Where("id = ? AND version = ?", rec.ID, rec.Version-1).
		Updates(map[string]interface{}{
			"product_name":   rec.ProductName,
			"product_image":  rec.ProductImage,
			"unit_price":     rec.UnitPrice,
			"list_price":     rec.ListPrice,
			"stock_qty":      rec.StockQty,
			"lead_time_days": rec.LeadTimeDays,
			"version":        rec.Version,
			"updated_at":     rec.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DecrementStock atomically decrements stock. The WHERE guard makes the
// decrement conditional on sufficient stock, so losing a race surfaces as
// shared.ErrConcurrencyConflict instead of negative stock.
func (r *GormInventoryRepository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryRecord{}).
		Where("id = ? AND stock_qty >= ?", id, qty).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty - ?", qty))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// IncrementStock atomically increments stock by qty
func (r *GormInventoryRepository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryRecord{}).
		Where("id = ?", id).
		UpdateColumn("stock_qty", gorm.Expr("stock_qty + ?", qty))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete deletes an inventory record
func (r *GormInventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.InventoryRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByStore counts records for a store
func (r *GormInventoryRepository) CountByStore(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryRecord{}).
		Where("store_id = ?", storeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ inventory.Repository = (*GormInventoryRepository)(nil)
