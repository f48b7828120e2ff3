package fulfillment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
)

// Roles carried by the authenticated actor
const (
	RoleCustomer   = "customer"
	RoleRetailer   = "retailer"
	RoleWholesaler = "wholesaler"
)

// Actor is the authenticated caller of a fulfillment operation. StoreID is
// zero for customers.
type Actor struct {
	UserID  uuid.UUID
	StoreID uuid.UUID
	Role    string
}

// OrderLineResponse represents an order line in responses
type OrderLineResponse struct {
	ID                uuid.UUID       `json:"id"`
	InventoryRecordID uuid.UUID       `json:"inventory_record_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ProductImage      string          `json:"product_image,omitempty"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
	SourcedViaProxy   bool            `json:"sourced_via_proxy"`
}

// RequirementResponse represents a pending fulfillment requirement
type RequirementResponse struct {
	ID                    uuid.UUID       `json:"id"`
	ProductID             uuid.UUID       `json:"product_id"`
	ProductName           string          `json:"product_name"`
	Quantity              int             `json:"quantity"`
	WholesalerStoreID     uuid.UUID       `json:"wholesaler_store_id"`
	WholesalerInventoryID uuid.UUID       `json:"wholesaler_inventory_id"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
	WholesalerLeadDays    int             `json:"wholesaler_lead_days"`
	RetailerLeadDays      int             `json:"retailer_lead_days"`
}

// OrderResponse represents an order in responses
type OrderResponse struct {
	ID                 uuid.UUID             `json:"id"`
	OrderNumber        string                `json:"order_number"`
	BuyerID            uuid.UUID             `json:"buyer_id"`
	BuyerStoreID       *uuid.UUID            `json:"buyer_store_id,omitempty"`
	SellerStoreID      uuid.UUID             `json:"seller_store_id"`
	Status             order.Status          `json:"status"`
	PaymentStatus      order.PaymentStatus   `json:"payment_status"`
	TotalAmount        decimal.Decimal       `json:"total_amount"`
	NeedsProxyApproval bool                  `json:"needs_proxy_approval"`
	ProxyApprovedAt    *time.Time            `json:"proxy_approved_at,omitempty"`
	Lines              []OrderLineResponse   `json:"lines"`
	Requirements       []RequirementResponse `json:"requirements,omitempty"`
	CancelReason       string                `json:"cancel_reason,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	DeliveredAt        *time.Time            `json:"delivered_at,omitempty"`
}

// ToOrderResponse converts an order to its response representation
func ToOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		BuyerID:            o.BuyerID,
		BuyerStoreID:       o.BuyerStoreID,
		SellerStoreID:      o.SellerStoreID,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		TotalAmount:        o.TotalAmount,
		NeedsProxyApproval: o.NeedsProxyApproval,
		ProxyApprovedAt:    o.ProxyApprovedAt,
		CancelReason:       o.CancelReason,
		CreatedAt:          o.CreatedAt,
		DeliveredAt:        o.DeliveredAt,
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, OrderLineResponse{
			ID:                l.ID,
			InventoryRecordID: l.InventoryRecordID,
			ProductID:         l.ProductID,
			ProductName:       l.ProductName,
			ProductImage:      l.ProductImage,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			LineTotal:         l.LineTotal,
			SourcedViaProxy:   l.SourcedViaProxy,
		})
	}
	for _, r := range o.Requirements {
		resp.Requirements = append(resp.Requirements, RequirementResponse{
			ID:                    r.ID,
			ProductID:             r.ProductID,
			ProductName:           r.ProductName,
			Quantity:              r.Quantity,
			WholesalerStoreID:     r.WholesalerStoreID,
			WholesalerInventoryID: r.WholesalerInventoryID,
			UnitPrice:             r.UnitPrice,
			WholesalerLeadDays:    r.WholesalerLeadDays,
			RetailerLeadDays:      r.RetailerLeadDays,
		})
	}
	return resp
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []*order.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, ToOrderResponse(o))
	}
	return out
}

// ProxyOrderResponse represents a proxy order in responses
type ProxyOrderResponse struct {
	ID                 uuid.UUID           `json:"id"`
	RetailerStoreID    uuid.UUID           `json:"retailer_store_id"`
	WholesalerStoreID  uuid.UUID           `json:"wholesaler_store_id"`
	ProductID          uuid.UUID           `json:"product_id"`
	ProductName        string              `json:"product_name"`
	Quantity           int                 `json:"quantity"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	TotalAmount        decimal.Decimal     `json:"total_amount"`
	CustomerOrderID    uuid.UUID           `json:"customer_order_id"`
	WholesalerOrderID  *uuid.UUID          `json:"wholesaler_order_id,omitempty"`
	Status             proxy.Status        `json:"status"`
	PaymentStatus      order.PaymentStatus `json:"payment_status"`
	WholesalerNotes    string              `json:"wholesaler_notes,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	ApprovedAt         *time.Time          `json:"approved_at,omitempty"`
	DeliveredAt        *time.Time          `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
}

// ToProxyOrderResponse converts a proxy order to its response representation
func ToProxyOrderResponse(p *proxy.ProxyOrder) ProxyOrderResponse {
	return ProxyOrderResponse{
		ID:                 p.ID,
		RetailerStoreID:    p.RetailerStoreID,
		WholesalerStoreID:  p.WholesalerStoreID,
		ProductID:          p.ProductID,
		ProductName:        p.ProductName,
		Quantity:           p.Quantity,
		UnitPrice:          p.UnitPrice,
		TotalAmount:        p.TotalAmount,
		CustomerOrderID:    p.CustomerOrderID,
		WholesalerOrderID:  p.WholesalerOrderID,
		Status:             p.Status,
		PaymentStatus:      p.PaymentStatus,
		WholesalerNotes:    p.WholesalerNotes,
		CancellationReason: p.CancellationReason,
		CreatedAt:          p.CreatedAt,
		ApprovedAt:         p.ApprovedAt,
		DeliveredAt:        p.DeliveredAt,
		CompletedAt:        p.CompletedAt,
	}
}

// ToProxyOrderResponses converts a slice of proxy orders
func ToProxyOrderResponses(proxies []proxy.ProxyOrder) []ProxyOrderResponse {
	out := make([]ProxyOrderResponse, 0, len(proxies))
	for i := range proxies {
		out = append(out, ToProxyOrderResponse(&proxies[i]))
	}
	return out
}

// RejectProxyOrderRequest carries the wholesaler's rejection notes
type RejectProxyOrderRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// ApproveProxyOrderRequest carries the wholesaler's optional notes
type ApproveProxyOrderRequest struct {
	Notes string `json:"notes"`
}

// CancelRequest carries a mandatory cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AdvanceOrderRequest names the target status for an order transition
type AdvanceOrderRequest struct {
	Status string `json:"status" binding:"required"`
}
