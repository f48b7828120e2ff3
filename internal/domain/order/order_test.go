package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder("ORD-2026-00001", uuid.New(), uuid.New())
	require.NoError(t, err)
	return o
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusPacked, true},
		{StatusPacked, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusPacked, false},
		{StatusPending, StatusDelivered, false},
		{StatusDelivered, StatusConfirmed, false},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusRefunded, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusRefunded, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewOrderValidation(t *testing.T) {
	_, err := NewOrder("", uuid.New(), uuid.New())
	assert.Error(t, err)

	_, err = NewOrder("ORD-1", uuid.Nil, uuid.New())
	assert.Error(t, err)

	_, err = NewOrder("ORD-1", uuid.New(), uuid.Nil)
	assert.Error(t, err)

	o, err := NewOrder("ORD-1", uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
	assert.False(t, o.NeedsProxyApproval)
	assert.True(t, o.IsEmpty())
}

func TestAddLine(t *testing.T) {
	o := newTestOrder(t)
	price := valueobject.NewMoneyUSDFromFloat(10.00)

	line, err := o.AddLine(uuid.New(), uuid.New(), "Olive Oil 1L", "", 5, price, false)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.LineTotal.Equal(decimal.NewFromInt(50)))
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(50)))

	_, err = o.AddLine(uuid.New(), uuid.New(), "Olive Oil 1L", "", 0, price, false)
	assert.Error(t, err)

	require.NoError(t, o.AdvanceTo(StatusConfirmed))
	_, err = o.AddLine(uuid.New(), uuid.New(), "Olive Oil 1L", "", 1, price, false)
	assert.Error(t, err)
}

func TestAddRequirement(t *testing.T) {
	o := newTestOrder(t)
	price := valueobject.NewMoneyUSDFromFloat(8.00)

	req, err := o.AddRequirement(uuid.New(), "Olive Oil 1L", 3, uuid.New(), uuid.New(), price, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, req.Quantity)
	assert.True(t, o.NeedsProxyApproval)
	assert.True(t, o.HasPendingApproval())

	_, err = o.AddRequirement(uuid.New(), "Olive Oil 1L", 0, uuid.New(), uuid.New(), price, 4, 2)
	assert.Error(t, err)

	_, err = o.AddRequirement(uuid.New(), "Olive Oil 1L", 3, uuid.Nil, uuid.New(), price, 4, 2)
	assert.Error(t, err)
}

func TestResolveRequirements(t *testing.T) {
	o := newTestOrder(t)
	productID := uuid.New()
	wholesalerInvID := uuid.New()
	price := valueobject.NewMoneyUSDFromFloat(8.00)

	_, err := o.AddLine(uuid.New(), productID, "Olive Oil 1L", "", 5, valueobject.NewMoneyUSDFromFloat(10.00), false)
	require.NoError(t, err)
	_, err = o.AddRequirement(productID, "Olive Oil 1L", 3, uuid.New(), wholesalerInvID, price, 4, 2)
	require.NoError(t, err)

	lineQty, reqQty := o.QuantityForProduct(productID)
	assert.Equal(t, 8, lineQty+reqQty)

	require.NoError(t, o.ResolveRequirements())

	assert.False(t, o.NeedsProxyApproval)
	assert.NotNil(t, o.ProxyApprovedAt)
	assert.Empty(t, o.Requirements)

	lineQty, reqQty = o.QuantityForProduct(productID)
	assert.Equal(t, 8, lineQty)
	assert.Equal(t, 0, reqQty)

	proxyLines := o.ProxySourcedLines()
	require.Len(t, proxyLines, 1)
	assert.Equal(t, 3, proxyLines[0].Quantity)
	assert.Equal(t, wholesalerInvID, proxyLines[0].InventoryRecordID)

	// 5*10 + 3*8
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(74)))

	err = o.ResolveRequirements()
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
}

func TestAdvanceTo(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.AdvanceTo(StatusConfirmed))
	assert.NotNil(t, o.ConfirmedAt)

	err := o.AdvanceTo(StatusDelivered)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))

	require.NoError(t, o.AdvanceTo(StatusPacked))
	require.NoError(t, o.AdvanceTo(StatusShipped))
	require.NoError(t, o.AdvanceTo(StatusDelivered))
	assert.NotNil(t, o.DeliveredAt)

	found := false
	for _, ev := range o.GetDomainEvents() {
		if ev.EventType() == EventTypeOrderDelivered {
			found = true
		}
	}
	assert.True(t, found, "delivery should raise OrderDelivered")
}

func TestCancel(t *testing.T) {
	o := newTestOrder(t)

	err := o.Cancel("")
	assert.Error(t, err)

	require.NoError(t, o.Cancel("customer changed their mind"))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.NotNil(t, o.CancelledAt)

	err = o.Cancel("again")
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
}

func TestMarkPaid(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.MarkPaid())
	assert.Equal(t, PaymentStatusPaid, o.PaymentStatus)
	assert.Error(t, o.MarkPaid())
}

func TestNewWholesalerOrder(t *testing.T) {
	retailerStoreID := uuid.New()
	o, err := NewWholesalerOrder("WHO-2026-00001", uuid.New(), retailerStoreID, uuid.New())
	require.NoError(t, err)
	assert.True(t, o.IsWholesalerFacing())
	require.NotNil(t, o.BuyerStoreID)
	assert.Equal(t, retailerStoreID, *o.BuyerStoreID)
}
