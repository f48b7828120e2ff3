package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmarket/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced         = "OrderPlaced"
	EventTypeOrderProxyApproved  = "OrderProxyApproved"
	EventTypeOrderStatusAdvanced = "OrderStatusAdvanced"
	EventTypeOrderDelivered      = "OrderDelivered"
	EventTypeOrderCancelled      = "OrderCancelled"
)

// OrderPlacedEvent is raised when a new order is created
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	SellerStoreID uuid.UUID `json:"seller_store_id"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		BuyerID:         o.BuyerID,
		SellerStoreID:   o.SellerStoreID,
	}
}

// EventType returns the event type name
func (e *OrderPlacedEvent) EventType() string {
	return EventTypeOrderPlaced
}

// OrderProxyApprovedEvent is raised when the retailer approves the order's
// fulfillment requirements and they are resolved into proxy-sourced lines
type OrderProxyApprovedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewOrderProxyApprovedEvent creates a new OrderProxyApprovedEvent
func NewOrderProxyApprovedEvent(o *Order) *OrderProxyApprovedEvent {
	return &OrderProxyApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderProxyApproved, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		TotalAmount:     o.TotalAmount,
	}
}

// EventType returns the event type name
func (e *OrderProxyApprovedEvent) EventType() string {
	return EventTypeOrderProxyApproved
}

// OrderStatusAdvancedEvent is raised on forward status transitions other
// than delivery
type OrderStatusAdvancedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	NewStatus   Status    `json:"new_status"`
}

// NewOrderStatusAdvancedEvent creates a new OrderStatusAdvancedEvent
func NewOrderStatusAdvancedEvent(o *Order, status Status) *OrderStatusAdvancedEvent {
	return &OrderStatusAdvancedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusAdvanced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		NewStatus:       status,
	}
}

// EventType returns the event type name
func (e *OrderStatusAdvancedEvent) EventType() string {
	return EventTypeOrderStatusAdvanced
}

// OrderDeliveredEvent is raised when the customer order reaches DELIVERED.
// The fulfillment coordinator completes the linked proxy orders on it.
type OrderDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	SellerStoreID uuid.UUID `json:"seller_store_id"`
}

// NewOrderDeliveredEvent creates a new OrderDeliveredEvent
func NewOrderDeliveredEvent(o *Order) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderDelivered, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		SellerStoreID:   o.SellerStoreID,
	}
}

// EventType returns the event type name
func (e *OrderDeliveredEvent) EventType() string {
	return EventTypeOrderDelivered
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Reason:          o.CancelReason,
	}
}

// EventType returns the event type name
func (e *OrderCancelledEvent) EventType() string {
	return EventTypeOrderCancelled
}
