package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
	"github.com/openmarket/backend/internal/domain/store"
)

// Service manages a store's inventory records: listing products, restocking
// and pricing. Stock decrements never go through this service; they happen
// inside checkout and delivery settlement.
type Service struct {
	inventoryRepo  inventory.Repository
	storeRepo      store.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new inventory Service
func NewService(inventoryRepo inventory.Repository, storeRepo store.Repository, logger *zap.Logger) *Service {
	return &Service{
		inventoryRepo: inventoryRepo,
		storeRepo:     storeRepo,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateListing lists a product for sale in the actor's store
func (s *Service) CreateListing(ctx context.Context, ownerID, storeID uuid.UUID, req CreateListingRequest) (*RecordResponse, error) {
	if err := s.authorizeOwner(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	if existing, err := s.inventoryRepo.FindByStoreAndProduct(ctx, storeID, req.ProductID); err == nil && existing != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Product is already listed in this store")
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	record, err := inventory.NewInventoryRecord(storeID, req.ProductID, req.ProductName,
		valueobject.NewMoneyUSD(req.UnitPrice), valueobject.NewMoneyUSD(req.ListPrice),
		req.StockQty, req.LeadTimeDays)
	if err != nil {
		return nil, err
	}
	record.ProductImage = req.ProductImage

	if err := s.inventoryRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	resp := ToRecordResponse(record)
	return &resp, nil
}

// Restock adds stock to an existing record
func (s *Service) Restock(ctx context.Context, ownerID, recordID uuid.UUID, req RestockRequest) (*RecordResponse, error) {
	record, err := s.inventoryRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, ownerID, record.StoreID); err != nil {
		return nil, err
	}

	if err := record.Restock(req.Quantity); err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	s.publish(ctx, record)

	resp := ToRecordResponse(record)
	return &resp, nil
}

// UpdatePricing changes a record's unit and list prices
func (s *Service) UpdatePricing(ctx context.Context, ownerID, recordID uuid.UUID, req UpdatePricingRequest) (*RecordResponse, error) {
	record, err := s.inventoryRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, ownerID, record.StoreID); err != nil {
		return nil, err
	}

	if err := record.UpdatePricing(valueobject.NewMoneyUSD(req.UnitPrice), valueobject.NewMoneyUSD(req.ListPrice)); err != nil {
		return nil, err
	}
	if err := s.inventoryRepo.SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	resp := ToRecordResponse(record)
	return &resp, nil
}

// GetByID retrieves a single record
func (s *Service) GetByID(ctx context.Context, recordID uuid.UUID) (*RecordResponse, error) {
	record, err := s.inventoryRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	resp := ToRecordResponse(record)
	return &resp, nil
}

// ListByStore lists a store's records
func (s *Service) ListByStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]RecordResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	records, err := s.inventoryRepo.FindByStore(ctx, storeID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.inventoryRepo.CountByStore(ctx, storeID)
	if err != nil {
		return nil, 0, err
	}
	return ToRecordResponses(records), total, nil
}

// Delete removes a listing from the actor's store
func (s *Service) Delete(ctx context.Context, ownerID, recordID uuid.UUID) error {
	record, err := s.inventoryRepo.FindByID(ctx, recordID)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(ctx, ownerID, record.StoreID); err != nil {
		return err
	}
	return s.inventoryRepo.Delete(ctx, recordID)
}

func (s *Service) authorizeOwner(ctx context.Context, ownerID, storeID uuid.UUID) error {
	st, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return err
	}
	if !st.IsOwnedBy(ownerID) {
		return shared.ErrForbidden
	}
	if !st.Active {
		return shared.NewDomainError(shared.CodeValidation, "Store is not active")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, record *inventory.InventoryRecord) {
	if s.eventPublisher == nil {
		return
	}
	for _, ev := range record.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, ev); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", ev.EventType()),
				zap.Error(err))
		}
	}
	record.ClearDomainEvents()
}
