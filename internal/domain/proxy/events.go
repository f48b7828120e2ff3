package proxy

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeProxyOrder = "ProxyOrder"

// Event type constants
const (
	EventTypeProxyOrderCreated   = "ProxyOrderCreated"
	EventTypeProxyOrderApproved  = "ProxyOrderApproved"
	EventTypeProxyOrderRejected  = "ProxyOrderRejected"
	EventTypeProxyOrderDelivered = "ProxyOrderDelivered"
	EventTypeProxyOrderCompleted = "ProxyOrderCompleted"
	EventTypeProxyOrderCancelled = "ProxyOrderCancelled"
)

// ProxyOrderCreatedEvent is raised when a proxy order is created on either
// creation path
type ProxyOrderCreatedEvent struct {
	shared.BaseDomainEvent
	ProxyOrderID      uuid.UUID       `json:"proxy_order_id"`
	RetailerStoreID   uuid.UUID       `json:"retailer_store_id"`
	WholesalerStoreID uuid.UUID       `json:"wholesaler_store_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	Quantity          int             `json:"quantity"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	CustomerOrderID   uuid.UUID       `json:"customer_order_id"`
}

// NewProxyOrderCreatedEvent creates a new ProxyOrderCreatedEvent
func NewProxyOrderCreatedEvent(p *ProxyOrder) *ProxyOrderCreatedEvent {
	return &ProxyOrderCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeProxyOrderCreated, AggregateTypeProxyOrder, p.ID),
		ProxyOrderID:      p.ID,
		RetailerStoreID:   p.RetailerStoreID,
		WholesalerStoreID: p.WholesalerStoreID,
		ProductID:         p.ProductID,
		Quantity:          p.Quantity,
		TotalAmount:       p.TotalAmount,
		CustomerOrderID:   p.CustomerOrderID,
	}
}

// EventType returns the event type name
func (e *ProxyOrderCreatedEvent) EventType() string {
	return EventTypeProxyOrderCreated
}

// ProxyOrderApprovedEvent is raised when a proxy order becomes approved
type ProxyOrderApprovedEvent struct {
	shared.BaseDomainEvent
	ProxyOrderID      uuid.UUID `json:"proxy_order_id"`
	WholesalerStoreID uuid.UUID `json:"wholesaler_store_id"`
	CustomerOrderID   uuid.UUID `json:"customer_order_id"`
}

// NewProxyOrderApprovedEvent creates a new ProxyOrderApprovedEvent
func NewProxyOrderApprovedEvent(p *ProxyOrder) *ProxyOrderApprovedEvent {
	return &ProxyOrderApprovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeProxyOrderApproved, AggregateTypeProxyOrder, p.ID),
		ProxyOrderID:      p.ID,
		WholesalerStoreID: p.WholesalerStoreID,
		CustomerOrderID:   p.CustomerOrderID,
	}
}

// EventType returns the event type name
func (e *ProxyOrderApprovedEvent) EventType() string {
	return EventTypeProxyOrderApproved
}

// ProxyOrderRejectedEvent is raised when the wholesaler rejects a pending
// proxy order. Carries the customer order reference so the rejection can
// cascade.
type ProxyOrderRejectedEvent struct {
	shared.BaseDomainEvent
	ProxyOrderID    uuid.UUID `json:"proxy_order_id"`
	CustomerOrderID uuid.UUID `json:"customer_order_id"`
	Notes           string    `json:"notes"`
}

// NewProxyOrderRejectedEvent creates a new ProxyOrderRejectedEvent
func NewProxyOrderRejectedEvent(p *ProxyOrder) *ProxyOrderRejectedEvent {
	return &ProxyOrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProxyOrderRejected, AggregateTypeProxyOrder, p.ID),
		ProxyOrderID:    p.ID,
		CustomerOrderID: p.CustomerOrderID,
		Notes:           p.WholesalerNotes,
	}
}

// EventType returns the event type name
func (e *ProxyOrderRejectedEvent) EventType() string {
	return EventTypeProxyOrderRejected
}

// ProxyOrderDeliveredEvent is raised when the wholesaler delivers the stock
// to the retailer
type ProxyOrderDeliveredEvent struct {
	shared.BaseDomainEvent
	ProxyOrderID      uuid.UUID `json:"proxy_order_id"`
	RetailerStoreID   uuid.UUID `json:"retailer_store_id"`
	InventoryRecordID uuid.UUID `json:"inventory_record_id"`
	Quantity          int       `json:"quantity"`
	CustomerOrderID   uuid.UUID `json:"customer_order_id"`
}

// NewProxyOrderDeliveredEvent creates a new ProxyOrderDeliveredEvent
func NewProxyOrderDeliveredEvent(p *ProxyOrder) *ProxyOrderDeliveredEvent {
	return &ProxyOrderDeliveredEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeProxyOrderDelivered, AggregateTypeProxyOrder, p.ID),
		ProxyOrderID:      p.ID,
		RetailerStoreID:   p.RetailerStoreID,
		InventoryRecordID: p.InventoryRecordID,
		Quantity:          p.Quantity,
		CustomerOrderID:   p.CustomerOrderID,
	}
}

// EventType returns the event type name
func (e *ProxyOrderDeliveredEvent) EventType() string {
	return EventTypeProxyOrderDelivered
}

// ProxyOrderCompletedEvent is raised when a delivered proxy order completes
type ProxyOrderCompletedEvent struct {
	shared.BaseDomainEvent
	ProxyOrderID    uuid.UUID `json:"proxy_order_id"`
	CustomerOrderID uuid.UUID `json:"customer_order_id"`
}

// NewProxyOrderCompletedEvent creates a new ProxyOrderCompletedEvent
func NewProxyOrderCompletedEvent(p *ProxyOrder) *ProxyOrderCompletedEvent {
	return &ProxyOrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProxyOrderCompleted, AggregateTypeProxyOrder, p.ID),
		ProxyOrderID:    p.ID,
		CustomerOrderID: p.CustomerOrderID,
	}
}

// EventType returns the event type name
func (e *ProxyOrderCompletedEvent) EventType() string {
	return EventTypeProxyOrderCompleted
}

// ProxyOrderCancelledEvent is raised when a proxy order is cancelled before
// delivery. The fulfillment coordinator cancels the linked customer order
// when it consumes this event.
type ProxyOrderCancelledEvent struct {
	shared.BaseDomainEvent
	ProxyOrderID    uuid.UUID `json:"proxy_order_id"`
	CustomerOrderID uuid.UUID `json:"customer_order_id"`
	Reason          string    `json:"reason"`
}

// NewProxyOrderCancelledEvent creates a new ProxyOrderCancelledEvent
func NewProxyOrderCancelledEvent(p *ProxyOrder) *ProxyOrderCancelledEvent {
	return &ProxyOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProxyOrderCancelled, AggregateTypeProxyOrder, p.ID),
		ProxyOrderID:    p.ID,
		CustomerOrderID: p.CustomerOrderID,
		Reason:          p.CancellationReason,
	}
}

// EventType returns the event type name
func (e *ProxyOrderCancelledEvent) EventType() string {
	return EventTypeProxyOrderCancelled
}
