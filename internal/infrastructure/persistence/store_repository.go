package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/store"
)

// GormStoreRepository implements store.Repository using GORM
type GormStoreRepository struct {
	db *gorm.DB
}

// NewGormStoreRepository creates a new GormStoreRepository
func NewGormStoreRepository(db *gorm.DB) *GormStoreRepository {
	return &GormStoreRepository{db: db}
}

// FindByID finds a store by its ID
func (r *GormStoreRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Store, error) {
	var s store.Store
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindByIDs finds multiple stores by their IDs
func (r *GormStoreRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]store.Store, error) {
	if len(ids) == 0 {
		return []store.Store{}, nil
	}

	var stores []store.Store
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// FindByOwner finds all stores owned by a user
func (r *GormStoreRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]store.Store, error) {
	var stores []store.Store
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// FindByType finds stores of a given type
func (r *GormStoreRepository) FindByType(ctx context.Context, storeType store.StoreType, filter shared.Filter) ([]store.Store, error) {
	var stores []store.Store
	query := applyFilter(
		r.db.WithContext(ctx).Model(&store.Store{}).Where("type = ?", storeType),
		filter, StoreSortFields,
	)

	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

// Save creates or updates a store
func (r *GormStoreRepository) Save(ctx context.Context, s *store.Store) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Delete deletes a store
func (r *GormStoreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&store.Store{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts stores matching the filter
func (r *GormStoreRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&store.Store{})
	if t, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", t)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ store.Repository = (*GormStoreRepository)(nil)
