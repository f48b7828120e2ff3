package checkout

import (
	"github.com/google/uuid"

	"github.com/openmarket/backend/internal/application/fulfillment"
)

// CartLineRequest is one cart line: the retailer inventory record the
// customer selected and how many units they want
type CartLineRequest struct {
	InventoryRecordID uuid.UUID `json:"inventory_record_id" binding:"required"`
	Quantity          int       `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrderRequest is a whole cart. Lines may span several retailer
// stores; each store yields an independent order. AllowPartial controls
// what happens to a shortfall no wholesaler can cover: reject the checkout
// (default) or place the order without the uncoverable portion.
type PlaceOrderRequest struct {
	Lines         []CartLineRequest `json:"lines" binding:"required,min=1,dive"`
	AllowPartial  bool              `json:"allow_partial"`
	PaymentMethod string            `json:"payment_method"`
}

// PlaceOrderResponse carries the orders produced by one checkout, one per
// retailer store in the cart
type PlaceOrderResponse struct {
	Orders []fulfillment.OrderResponse `json:"orders"`
}
