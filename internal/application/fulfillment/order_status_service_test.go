package fulfillment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
)

func TestAdvanceBlockedByPendingApproval(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	_, err := f.status.Advance(context.Background(), f.retailerActor(), o.ID, order.StatusConfirmed)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeApprovalRequired))
}

func TestAdvanceBlockedByUndeliveredProxy(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	_, err := f.approval.ApproveAndPay(context.Background(), f.retailerActor(), o.ID)
	require.NoError(t, err)

	_, err = f.status.Advance(context.Background(), f.retailerActor(), o.ID, order.StatusConfirmed)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeFulfillmentPending))
	assert.Contains(t, err.Error(), "Olive Oil 1L")
}

func TestAdvanceToDeliveredCompletesProxies(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	_, err := f.approval.ApproveAndPay(context.Background(), f.retailerActor(), o.ID)
	require.NoError(t, err)

	proxies, err := f.proxyRepo.FindByCustomerOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	_, err = f.proxies.MarkDelivered(context.Background(), f.wholesalerActor(), proxies[0].ID)
	require.NoError(t, err)

	for _, target := range []order.Status{order.StatusConfirmed, order.StatusPacked, order.StatusShipped, order.StatusDelivered} {
		_, err = f.status.Advance(context.Background(), f.retailerActor(), o.ID, target)
		require.NoError(t, err, "advance to %s", target)
	}

	// linked proxy orders completed with the delivery
	proxies, err = f.proxyRepo.FindByCustomerOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, proxy.StatusCompleted, proxies[0].Status)
}

func TestAdvanceToDeliveredSettlesPendingPayment(t *testing.T) {
	f := newFixture(t)
	o, err := order.NewOrder("ORD-TEST-2", f.customerID, f.retailer.ID)
	require.NoError(t, err)
	_, err = o.AddLine(uuid.New(), uuid.New(), "Sea Salt 500g", "", 2, valueobject.NewMoneyUSDFromFloat(3.00), false)
	require.NoError(t, err)
	o.ClearDomainEvents()
	require.NoError(t, f.orderRepo.Save(context.Background(), o))

	var resp *OrderResponse
	for _, target := range []order.Status{order.StatusConfirmed, order.StatusPacked, order.StatusShipped, order.StatusDelivered} {
		resp, err = f.status.Advance(context.Background(), f.retailerActor(), o.ID, target)
		require.NoError(t, err, "advance to %s", target)
	}

	assert.Equal(t, order.PaymentStatusPaid, resp.PaymentStatus)
}

func TestAdvanceRequiresSellingStore(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	_, err := f.status.Advance(context.Background(), f.wholesalerActor(), o.ID, order.StatusConfirmed)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCancelCascadesToProxies(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)
	_, err := f.proxies.RequestApproval(context.Background(), f.retailerActor(), o.ID)
	require.NoError(t, err)

	resp, err := f.status.Cancel(context.Background(), f.retailerActor(), o.ID, "customer asked to cancel")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, resp.Status)

	proxies, err := f.proxyRepo.FindByCustomerOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	assert.Equal(t, proxy.StatusCancelled, proxies[0].Status)
}

func TestCancelByBuyer(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	_, err := f.status.Cancel(context.Background(), Actor{UserID: f.customerID, Role: RoleCustomer}, o.ID, "changed my mind")
	require.NoError(t, err)
}
