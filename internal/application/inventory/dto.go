package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmarket/backend/internal/domain/inventory"
)

// CreateListingRequest lists a product for sale in a store
type CreateListingRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	ProductName  string          `json:"product_name" binding:"required"`
	ProductImage string          `json:"product_image"`
	UnitPrice    decimal.Decimal `json:"unit_price" binding:"required"`
	ListPrice    decimal.Decimal `json:"list_price" binding:"required"`
	StockQty     int             `json:"stock_qty" binding:"gte=0"`
	LeadTimeDays int             `json:"lead_time_days" binding:"gte=0"`
}

// RestockRequest adds stock to an existing record
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// UpdatePricingRequest changes the prices on a record
type UpdatePricingRequest struct {
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
	ListPrice decimal.Decimal `json:"list_price" binding:"required"`
}

// RecordResponse represents an inventory record in responses
type RecordResponse struct {
	ID            uuid.UUID            `json:"id"`
	StoreID       uuid.UUID            `json:"store_id"`
	ProductID     uuid.UUID            `json:"product_id"`
	ProductName   string               `json:"product_name"`
	ProductImage  string               `json:"product_image,omitempty"`
	UnitPrice     decimal.Decimal      `json:"unit_price"`
	ListPrice     decimal.Decimal      `json:"list_price"`
	StockQty      int                  `json:"stock_qty"`
	LeadTimeDays  int                  `json:"lead_time_days"`
	SourceType    inventory.SourceType `json:"source_type"`
	SourceOrderID *uuid.UUID           `json:"source_order_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ToRecordResponse converts a record to its response representation
func ToRecordResponse(r *inventory.InventoryRecord) RecordResponse {
	return RecordResponse{
		ID:            r.ID,
		StoreID:       r.StoreID,
		ProductID:     r.ProductID,
		ProductName:   r.ProductName,
		ProductImage:  r.ProductImage,
		UnitPrice:     r.UnitPrice,
		ListPrice:     r.ListPrice,
		StockQty:      r.StockQty,
		LeadTimeDays:  r.LeadTimeDays,
		SourceType:    r.SourceType,
		SourceOrderID: r.SourceOrderID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ToRecordResponses converts a slice of records
func ToRecordResponses(records []inventory.InventoryRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for i := range records {
		out = append(out, ToRecordResponse(&records[i]))
	}
	return out
}
