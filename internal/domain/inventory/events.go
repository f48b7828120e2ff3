package inventory

import (
	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeInventoryRecord = "InventoryRecord"

// Event type constants
const (
	EventTypeStockRestocked = "StockRestocked"
	EventTypeStockDeducted  = "StockDeducted"
)

// StockRestockedEvent is raised when stock is added to a record
type StockRestockedEvent struct {
	shared.BaseDomainEvent
	RecordID  uuid.UUID `json:"record_id"`
	StoreID   uuid.UUID `json:"store_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	NewStock  int       `json:"new_stock"`
}

// NewStockRestockedEvent creates a new StockRestockedEvent
func NewStockRestockedEvent(r *InventoryRecord, qty int) *StockRestockedEvent {
	return &StockRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestocked, AggregateTypeInventoryRecord, r.ID),
		RecordID:        r.ID,
		StoreID:         r.StoreID,
		ProductID:       r.ProductID,
		Quantity:        qty,
		NewStock:        r.StockQty,
	}
}

// EventType returns the event type name
func (e *StockRestockedEvent) EventType() string {
	return EventTypeStockRestocked
}

// StockDeductedEvent is raised when stock is removed from a record
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	RecordID  uuid.UUID `json:"record_id"`
	StoreID   uuid.UUID `json:"store_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	NewStock  int       `json:"new_stock"`
}

// NewStockDeductedEvent creates a new StockDeductedEvent
func NewStockDeductedEvent(r *InventoryRecord, qty int) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, AggregateTypeInventoryRecord, r.ID),
		RecordID:        r.ID,
		StoreID:         r.StoreID,
		ProductID:       r.ProductID,
		Quantity:        qty,
		NewStock:        r.StockQty,
	}
}

// EventType returns the event type name
func (e *StockDeductedEvent) EventType() string {
	return EventTypeStockDeducted
}
