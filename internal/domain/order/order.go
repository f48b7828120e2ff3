package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
)

// Line represents an ordered line with an immutable product snapshot taken
// at placement time, so later catalog changes never alter what was sold.
type Line struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	InventoryRecordID uuid.UUID       `gorm:"type:uuid;not null"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName       string          `gorm:"size:200;not null"`
	ProductImage      string          `gorm:"size:500"`
	Quantity          int             `gorm:"not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LineTotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SourcedViaProxy   bool            `gorm:"not null;default:false"`
	CreatedAt         time.Time
}

// TableName returns the table name for GORM
func (Line) TableName() string {
	return "order_lines"
}

// Requirement is the pre-approval record of a stock shortfall and its
// candidate wholesaler source. Requirements exist only between order
// placement and retailer approval or rejection; resolving them into proxy
// orders clears the collection.
type Requirement struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID             uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName           string          `gorm:"size:200;not null"`
	Quantity              int             `gorm:"not null"`
	WholesalerStoreID     uuid.UUID       `gorm:"type:uuid;not null"`
	WholesalerInventoryID uuid.UUID       `gorm:"type:uuid;not null"`
	UnitPrice             decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	WholesalerLeadDays    int             `gorm:"not null;default:0"`
	RetailerLeadDays      int             `gorm:"not null;default:0"`
	CreatedAt             time.Time
}

// TableName returns the table name for GORM
func (Requirement) TableName() string {
	return "fulfillment_requirements"
}

// Order represents a marketplace order aggregate root. The buyer is either a
// customer or, for wholesaler-facing orders created during proxy approval, a
// retailer store acting as buyer. Lines and totals are immutable after
// placement; only status, payment status and timestamps change.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber        string     `gorm:"size:50;not null;uniqueIndex"`
	BuyerID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	BuyerStoreID       *uuid.UUID `gorm:"type:uuid;index"` // Set when a retailer buys from a wholesaler
	SellerStoreID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Lines              []Line     `gorm:"foreignKey:OrderID;references:ID"`
	Requirements       []Requirement `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status             Status          `gorm:"size:20;not null;index"`
	PaymentStatus      PaymentStatus   `gorm:"size:20;not null"`
	NeedsProxyApproval bool            `gorm:"not null;default:false"`
	ProxyApprovedAt    *time.Time
	ConfirmedAt        *time.Time
	PackedAt           *time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	CancelReason       string `gorm:"size:500"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in PENDING status with no lines
func NewOrder(orderNumber string, buyerID, sellerStoreID uuid.UUID) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Order number cannot exceed 50 characters")
	}
	if buyerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Buyer ID cannot be empty")
	}
	if sellerStoreID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Seller store ID cannot be empty")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		BuyerID:           buyerID,
		SellerStoreID:     sellerStoreID,
		Lines:             make([]Line, 0),
		Requirements:      make([]Requirement, 0),
		TotalAmount:       decimal.Zero,
		Status:            StatusPending,
		PaymentStatus:     PaymentStatusPending,
	}

	o.AddDomainEvent(NewOrderPlacedEvent(o))

	return o, nil
}

// NewWholesalerOrder creates a wholesaler-facing order with a retailer store
// as the buyer. Used by the bundled proxy approval path.
func NewWholesalerOrder(orderNumber string, retailerOwnerID, retailerStoreID, wholesalerStoreID uuid.UUID) (*Order, error) {
	if retailerStoreID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Retailer store ID cannot be empty")
	}
	o, err := NewOrder(orderNumber, retailerOwnerID, wholesalerStoreID)
	if err != nil {
		return nil, err
	}
	o.BuyerStoreID = &retailerStoreID
	return o, nil
}

// AddLine adds a line to the order. Only allowed while PENDING.
func (o *Order) AddLine(inventoryRecordID, productID uuid.UUID, productName, productImage string, quantity int, unitPrice valueobject.Money, sourcedViaProxy bool) (*Line, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "Cannot add lines to a non-pending order")
	}
	if inventoryRecordID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Inventory record ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product ID cannot be empty")
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

	line := Line{
		ID:                uuid.New(),
		OrderID:           o.ID,
		InventoryRecordID: inventoryRecordID,
		ProductID:         productID,
		ProductName:       strings.TrimSpace(productName),
		ProductImage:      productImage,
		Quantity:          quantity,
		UnitPrice:         unitPrice.Amount(),
		LineTotal:         unitPrice.MultiplyByInt(int64(quantity)).Amount(),
		SourcedViaProxy:   sourcedViaProxy,
		CreatedAt:         time.Now(),
	}

	o.Lines = append(o.Lines, line)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return &o.Lines[len(o.Lines)-1], nil
}

// AddRequirement records a stock shortfall with its candidate wholesaler
// source and marks the order as waiting for retailer proxy approval.
// Only allowed while PENDING, before approval.
func (o *Order) AddRequirement(productID uuid.UUID, productName string, quantity int, wholesalerStoreID, wholesalerInventoryID uuid.UUID, unitPrice valueobject.Money, wholesalerLeadDays, retailerLeadDays int) (*Requirement, error) {
	if o.Status != StatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "Cannot add requirements to a non-pending order")
	}
	if o.ProxyApprovedAt != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "Requirements are already resolved")
	}
	if productID == uuid.Nil || wholesalerStoreID == uuid.Nil || wholesalerInventoryID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Requirement references cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Requirement quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
	}

	req := Requirement{
		ID:                    uuid.New(),
		OrderID:               o.ID,
		ProductID:             productID,
		ProductName:           strings.TrimSpace(productName),
		Quantity:              quantity,
		WholesalerStoreID:     wholesalerStoreID,
		WholesalerInventoryID: wholesalerInventoryID,
		UnitPrice:             unitPrice.Amount(),
		WholesalerLeadDays:    wholesalerLeadDays,
		RetailerLeadDays:      retailerLeadDays,
		CreatedAt:             time.Now(),
	}

	o.Requirements = append(o.Requirements, req)
	o.NeedsProxyApproval = true
	o.UpdatedAt = time.Now()

	return &o.Requirements[len(o.Requirements)-1], nil
}

// ResolveRequirements converts every pending requirement into a proxy-sourced
// order line, clears the requirement collection, and stamps the approval.
// The caller is responsible for having created the matching proxy orders in
// the same transaction.
func (o *Order) ResolveRequirements() error {
	if !o.NeedsProxyApproval {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Order has no pending fulfillment requirements")
	}
	if len(o.Requirements) == 0 {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Order has no requirements to resolve")
	}

	now := time.Now()
	for _, req := range o.Requirements {
		unitPrice := valueobject.NewMoneyUSD(req.UnitPrice)
		line := Line{
			ID:                uuid.New(),
			OrderID:           o.ID,
			InventoryRecordID: req.WholesalerInventoryID,
			ProductID:         req.ProductID,
			ProductName:       req.ProductName,
			Quantity:          req.Quantity,
			UnitPrice:         req.UnitPrice,
			LineTotal:         unitPrice.MultiplyByInt(int64(req.Quantity)).Amount(),
			SourcedViaProxy:   true,
			CreatedAt:         now,
		}
		o.Lines = append(o.Lines, line)
	}

	o.Requirements = o.Requirements[:0]
	o.NeedsProxyApproval = false
	o.ProxyApprovedAt = &now
	o.recalculateTotal()
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderProxyApprovedEvent(o))

	return nil
}

// MarkPaid records a successful charge
func (o *Order) MarkPaid() error {
	if o.PaymentStatus != PaymentStatusPending {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot pay an order with payment status %s", o.PaymentStatus))
	}
	o.PaymentStatus = PaymentStatusPaid
	o.UpdatedAt = time.Now()
	return nil
}

// AdvanceTo moves the order to the target status. Gate conditions that span
// other aggregates (proxy approval, proxy delivery) are checked by the
// fulfillment status guard before this is called.
func (o *Order) AdvanceTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Unknown order status "+target.String())
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot move order from %s to %s", o.Status, target))
	}

	now := time.Now()
	o.Status = target
	o.UpdatedAt = now

	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = &now
	case StatusPacked:
		o.PackedAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
		o.AddDomainEvent(NewOrderDeliveredEvent(o))
		return nil
	}

	o.AddDomainEvent(NewOrderStatusAdvancedEvent(o, target))

	return nil
}

// Cancel cancels the order with a mandatory reason
func (o *Order) Cancel(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancel reason is required")
	}
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}

	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderCancelledEvent(o))

	return nil
}

// recalculateTotal recalculates the order total from its lines
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.LineTotal)
	}
	o.TotalAmount = total
}

// GetTotalAmountMoney returns the total as a Money value object
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}

// IsEmpty returns true if the order carries neither lines nor requirements
func (o *Order) IsEmpty() bool {
	return len(o.Lines) == 0 && len(o.Requirements) == 0
}

// IsWholesalerFacing returns true for orders where a retailer is the buyer
func (o *Order) IsWholesalerFacing() bool {
	return o.BuyerStoreID != nil
}

// HasPendingApproval returns true while fulfillment requirements await the
// retailer's decision
func (o *Order) HasPendingApproval() bool {
	return o.NeedsProxyApproval && o.ProxyApprovedAt == nil
}

// QuantityForProduct returns the line quantity and requirement quantity
// currently recorded for a product
func (o *Order) QuantityForProduct(productID uuid.UUID) (lineQty, reqQty int) {
	for _, line := range o.Lines {
		if line.ProductID == productID {
			lineQty += line.Quantity
		}
	}
	for _, req := range o.Requirements {
		if req.ProductID == productID {
			reqQty += req.Quantity
		}
	}
	return lineQty, reqQty
}

// ProxySourcedLines returns the lines that were resolved from requirements
func (o *Order) ProxySourcedLines() []Line {
	lines := make([]Line, 0)
	for _, line := range o.Lines {
		if line.SourcedViaProxy {
			lines = append(lines, line)
		}
	}
	return lines
}
