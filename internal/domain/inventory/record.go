package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
)

// SourceType records the provenance of an inventory record
type SourceType string

const (
	SourceTypeListed    SourceType = "LISTED"    // Directly listed by the store
	SourceTypePurchased SourceType = "PURCHASED" // Bought from a wholesaler and relisted
)

// IsValid checks if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeListed, SourceTypePurchased:
		return true
	}
	return false
}

// InventoryRecord represents per-store, per-product stock.
// It is the aggregate root for all stock operations; the quantity itself is
// mutated through conditional repository updates so concurrent checkouts and
// settlements never read-then-write.
type InventoryRecord struct {
	shared.BaseAggregateRoot
	StoreID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_store_product,priority:1"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_store_product,priority:2"`
	ProductName   string          `gorm:"size:200;not null;index"`
	ProductImage  string          `gorm:"size:500"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ListPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	StockQty      int             `gorm:"not null;default:0"`
	LeadTimeDays  int             `gorm:"not null;default:0"`
	SourceOrderID *uuid.UUID      `gorm:"type:uuid"`
	SourceType    SourceType      `gorm:"size:20;not null;default:'LISTED'"`
}

// TableName returns the table name for GORM
func (InventoryRecord) TableName() string {
	return "inventory_records"
}

// NewInventoryRecord creates a new directly-listed inventory record
func NewInventoryRecord(storeID, productID uuid.UUID, productName string, unitPrice, listPrice valueobject.Money, stockQty, leadTimeDays int) (*InventoryRecord, error) {
	productName = strings.TrimSpace(productName)
	if storeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Store ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}
	if unitPrice.IsNegative() || listPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Prices cannot be negative")
	}
	if stockQty < 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Stock quantity cannot be negative")
	}
	if leadTimeDays < 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Lead time cannot be negative")
	}

	return &InventoryRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StoreID:           storeID,
		ProductID:         productID,
		ProductName:       productName,
		UnitPrice:         unitPrice.Amount(),
		ListPrice:         listPrice.Amount(),
		StockQty:          stockQty,
		LeadTimeDays:      leadTimeDays,
		SourceType:        SourceTypeListed,
	}, nil
}

// NewPurchasedRecord creates an inventory record for stock bought from a
// wholesaler and relisted by a retailer. The source order links back to the
// wholesaler-facing order that delivered the stock.
func NewPurchasedRecord(storeID, productID uuid.UUID, productName string, unitPrice, listPrice valueobject.Money, stockQty, leadTimeDays int, sourceOrderID uuid.UUID) (*InventoryRecord, error) {
	rec, err := NewInventoryRecord(storeID, productID, productName, unitPrice, listPrice, stockQty, leadTimeDays)
	if err != nil {
		return nil, err
	}
	if sourceOrderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Source order ID cannot be empty for purchased stock")
	}
	rec.SourceType = SourceTypePurchased
	rec.SourceOrderID = &sourceOrderID
	return rec, nil
}

// Restock increases the stock quantity
func (r *InventoryRecord) Restock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "Restock quantity must be positive")
	}

	r.StockQty += qty
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewStockRestockedEvent(r, qty))
	return nil
}

// Deduct decreases the stock quantity. Persistence performs the actual
// decrement as a conditional update; this method keeps the in-memory
// aggregate consistent and enforces the non-negative invariant.
func (r *InventoryRecord) Deduct(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError(shared.CodeValidation, "Deduct quantity must be positive")
	}
	if r.StockQty < qty {
		return shared.NewDomainError(shared.CodeInsufficientStock, "Insufficient stock for "+r.ProductName)
	}

	r.StockQty -= qty
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewStockDeductedEvent(r, qty))
	return nil
}

// UpdatePricing updates unit and list prices
func (r *InventoryRecord) UpdatePricing(unitPrice, listPrice valueobject.Money) error {
	if unitPrice.IsNegative() || listPrice.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Prices cannot be negative")
	}
	r.UnitPrice = unitPrice.Amount()
	r.ListPrice = listPrice.Amount()
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// CanFulfill returns true if stock covers the requested quantity
func (r *InventoryRecord) CanFulfill(qty int) bool {
	return r.StockQty >= qty
}

// HasStock returns true if any stock is available
func (r *InventoryRecord) HasStock() bool {
	return r.StockQty > 0
}

// IsPurchased returns true if this stock was sourced from a wholesaler
func (r *InventoryRecord) IsPurchased() bool {
	return r.SourceType == SourceTypePurchased
}

// GetUnitPriceMoney returns the unit price as a Money value object
func (r *InventoryRecord) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(r.UnitPrice)
}

// GetListPriceMoney returns the list price as a Money value object
func (r *InventoryRecord) GetListPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(r.ListPrice)
}
