package proxy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
)

// Status represents the state of a proxy order
type Status string

const (
	StatusPending             Status = "PENDING"
	StatusApproved            Status = "APPROVED"
	StatusRejected            Status = "REJECTED"
	StatusDeliveredToRetailer Status = "DELIVERED_TO_RETAILER"
	StatusCompleted           Status = "COMPLETED"
	StatusCancelled           Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected,
		StatusDeliveredToRetailer, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for states with no outgoing transitions
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// ProxyOrder represents a dependent retailer-to-wholesaler transaction that
// covers a retailer's stock shortfall for a customer order.
//
// Two creation paths feed one state machine: the bundled approval path
// creates the proxy order directly in APPROVED with payment settled and the
// wholesaler-facing order attached, while the wholesaler-approval path
// starts at PENDING with no wholesaler order yet. Everything downstream of
// APPROVED is shared.
type ProxyOrder struct {
	shared.BaseAggregateRoot
	RetailerStoreID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	WholesalerStoreID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName        string          `gorm:"size:200;not null"`
	InventoryRecordID  uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity           int             `gorm:"not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CustomerOrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	WholesalerOrderID  *uuid.UUID      `gorm:"type:uuid;index"`
	Status             Status          `gorm:"size:30;not null;index"`
	PaymentStatus      order.PaymentStatus `gorm:"size:20;not null"`
	ApprovedAt         *time.Time
	PaidAt             *time.Time
	RejectedAt         *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason string `gorm:"size:500"`
	WholesalerNotes    string `gorm:"size:500"`
}

// TableName returns the table name for GORM
func (ProxyOrder) TableName() string {
	return "proxy_orders"
}

func newProxyOrder(retailerStoreID, wholesalerStoreID, productID uuid.UUID, productName string, inventoryRecordID uuid.UUID, quantity int, unitPrice valueobject.Money, customerOrderID uuid.UUID) (*ProxyOrder, error) {
	if retailerStoreID == uuid.Nil || wholesalerStoreID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Store references cannot be empty")
	}
	if productID == uuid.Nil || inventoryRecordID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product references cannot be empty")
	}
	if strings.TrimSpace(productName) == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
	}
	if customerOrderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Customer order reference cannot be empty")
	}

	return &ProxyOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RetailerStoreID:   retailerStoreID,
		WholesalerStoreID: wholesalerStoreID,
		ProductID:         productID,
		ProductName:       strings.TrimSpace(productName),
		InventoryRecordID: inventoryRecordID,
		Quantity:          quantity,
		UnitPrice:         unitPrice.Amount(),
		TotalAmount:       unitPrice.MultiplyByInt(int64(quantity)).Amount(),
		CustomerOrderID:   customerOrderID,
		Status:            StatusPending,
		PaymentStatus:     order.PaymentStatusPending,
	}, nil
}

// NewPendingProxyOrder creates a proxy order on the wholesaler-approval
// path: it starts PENDING with no wholesaler order and must be explicitly
// approved or rejected by the wholesaler before payment.
func NewPendingProxyOrder(retailerStoreID, wholesalerStoreID, productID uuid.UUID, productName string, inventoryRecordID uuid.UUID, quantity int, unitPrice valueobject.Money, customerOrderID uuid.UUID) (*ProxyOrder, error) {
	p, err := newProxyOrder(retailerStoreID, wholesalerStoreID, productID, productName, inventoryRecordID, quantity, unitPrice, customerOrderID)
	if err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProxyOrderCreatedEvent(p))
	return p, nil
}

// NewApprovedProxyOrder creates a proxy order on the bundled approval path:
// the retailer has approved and paid, so the proxy order is born APPROVED
// with payment settled and the wholesaler-facing order attached. Creation
// and wholesaler-order creation are atomic on this path; PENDING is never
// visited.
func NewApprovedProxyOrder(retailerStoreID, wholesalerStoreID, productID uuid.UUID, productName string, inventoryRecordID uuid.UUID, quantity int, unitPrice valueobject.Money, customerOrderID, wholesalerOrderID uuid.UUID) (*ProxyOrder, error) {
	p, err := newProxyOrder(retailerStoreID, wholesalerStoreID, productID, productName, inventoryRecordID, quantity, unitPrice, customerOrderID)
	if err != nil {
		return nil, err
	}
	if wholesalerOrderID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Wholesaler order reference cannot be empty")
	}

	now := time.Now()
	p.Status = StatusApproved
	p.PaymentStatus = order.PaymentStatusPaid
	p.WholesalerOrderID = &wholesalerOrderID
	p.ApprovedAt = &now
	p.PaidAt = &now

	p.AddDomainEvent(NewProxyOrderCreatedEvent(p))
	p.AddDomainEvent(NewProxyOrderApprovedEvent(p))

	return p, nil
}

// Approve moves a pending proxy order to APPROVED. Notes are optional.
// Wholesaler-approval path only.
func (p *ProxyOrder) Approve(notes string) error {
	if p.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot approve proxy order in %s status", p.Status))
	}

	now := time.Now()
	p.Status = StatusApproved
	p.ApprovedAt = &now
	p.WholesalerNotes = strings.TrimSpace(notes)
	p.UpdatedAt = now

	p.AddDomainEvent(NewProxyOrderApprovedEvent(p))

	return nil
}

// Reject moves a pending proxy order to REJECTED. Notes are mandatory so
// the retailer knows why the shortfall will not be covered.
func (p *ProxyOrder) Reject(notes string) error {
	if p.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot reject proxy order in %s status", p.Status))
	}
	if strings.TrimSpace(notes) == "" {
		return shared.NewDomainError(shared.CodeValidation, "Rejection notes are required")
	}

	now := time.Now()
	p.Status = StatusRejected
	p.RejectedAt = &now
	p.WholesalerNotes = strings.TrimSpace(notes)
	p.UpdatedAt = now

	p.AddDomainEvent(NewProxyOrderRejectedEvent(p))

	return nil
}

// MarkPaid settles payment on an approved proxy order created on the
// wholesaler-approval path
func (p *ProxyOrder) MarkPaid(wholesalerOrderID uuid.UUID) error {
	if p.Status != StatusApproved {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot pay proxy order in %s status", p.Status))
	}
	if p.PaymentStatus == order.PaymentStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Proxy order is already paid")
	}
	if wholesalerOrderID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Wholesaler order reference cannot be empty")
	}

	now := time.Now()
	p.PaymentStatus = order.PaymentStatusPaid
	p.WholesalerOrderID = &wholesalerOrderID
	p.PaidAt = &now
	p.UpdatedAt = now

	return nil
}

// MarkDelivered records that the wholesaler delivered the stock to the
// retailer. Requires an approved and paid proxy order; calling it again on
// a delivered order fails, which is what makes the downstream inventory
// settlement safe to retry.
func (p *ProxyOrder) MarkDelivered() error {
	if p.Status != StatusApproved {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot mark proxy order delivered in %s status", p.Status))
	}
	if p.PaymentStatus != order.PaymentStatusPaid {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Cannot mark an unpaid proxy order delivered")
	}

	now := time.Now()
	p.Status = StatusDeliveredToRetailer
	p.DeliveredAt = &now
	p.UpdatedAt = now

	p.AddDomainEvent(NewProxyOrderDeliveredEvent(p))

	return nil
}

// Complete finishes a delivered proxy order. Triggered when the customer
// order reaches DELIVERED.
func (p *ProxyOrder) Complete() error {
	if p.Status != StatusDeliveredToRetailer {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot complete proxy order in %s status", p.Status))
	}

	now := time.Now()
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now

	p.AddDomainEvent(NewProxyOrderCompletedEvent(p))

	return nil
}

// Cancel cancels a proxy order before delivery. Requires a non-empty
// reason; the cancellation cascades to the linked customer order through
// the fulfillment coordinator. Cancellation after delivery is not permitted
// because the stock has already moved.
func (p *ProxyOrder) Cancel(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancellation reason is required")
	}
	if p.Status != StatusPending && p.Status != StatusApproved {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot cancel proxy order in %s status", p.Status))
	}

	now := time.Now()
	p.Status = StatusCancelled
	p.CancelledAt = &now
	p.CancellationReason = strings.TrimSpace(reason)
	p.UpdatedAt = now

	p.AddDomainEvent(NewProxyOrderCancelledEvent(p))

	return nil
}

// IsSettleable returns true when delivery settlement may decrement the
// wholesaler's inventory for this proxy order
func (p *ProxyOrder) IsSettleable() bool {
	return p.Status == StatusApproved && p.PaymentStatus == order.PaymentStatusPaid
}

// BlocksCustomerDelivery returns true while this proxy order prevents the
// customer order from advancing
func (p *ProxyOrder) BlocksCustomerDelivery() bool {
	switch p.Status {
	case StatusDeliveredToRetailer, StatusCompleted:
		return false
	}
	return true
}

// GetTotalAmountMoney returns the total as a Money value object
func (p *ProxyOrder) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.TotalAmount)
}
