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
)

func TestApproveAndPay(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	resp, err := f.approval.ApproveAndPay(context.Background(), f.retailerActor(), o.ID)
	require.NoError(t, err)

	// requirements resolved into a proxy-sourced line
	assert.False(t, resp.NeedsProxyApproval)
	assert.Empty(t, resp.Requirements)
	require.Len(t, resp.Lines, 2)
	var proxied int
	for _, l := range resp.Lines {
		if l.SourcedViaProxy {
			proxied++
			assert.Equal(t, 5, l.Quantity)
			assert.Equal(t, wrec.ID, l.InventoryRecordID)
		}
	}
	assert.Equal(t, 1, proxied)

	// one approved, paid proxy order linked to the customer order
	proxies, err := f.proxyRepo.FindByCustomerOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	assert.Equal(t, proxy.StatusApproved, proxies[0].Status)
	assert.Equal(t, order.PaymentStatusPaid, proxies[0].PaymentStatus)
	require.NotNil(t, proxies[0].WholesalerOrderID)

	// the wholesaler-facing order exists, is paid, and names the retailer
	// store as buyer
	wo, err := f.orderRepo.FindByID(context.Background(), *proxies[0].WholesalerOrderID)
	require.NoError(t, err)
	assert.True(t, wo.IsWholesalerFacing())
	assert.Equal(t, order.PaymentStatusPaid, wo.PaymentStatus)
	assert.Equal(t, f.wholesaler.ID, wo.SellerStoreID)
	require.NotNil(t, wo.BuyerStoreID)
	assert.Equal(t, f.retailer.ID, *wo.BuyerStoreID)

	// retailer charged for the wholesaler purchase, customer for the order
	require.Len(t, f.gateway.charges, 2)

	// wholesaler stock is untouched until delivery settlement
	stored, err := f.invRepo.FindByID(context.Background(), wrec.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.StockQty)
}

func TestApproveAndPayRevalidatesStock(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 4)
	o := f.orderWithRequirement(t, wrec, 5)

	_, err := f.approval.ApproveAndPay(context.Background(), f.retailerActor(), o.ID)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInsufficientStock))

	// nothing persisted on the failed path
	proxies, err := f.proxyRepo.FindByCustomerOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Empty(t, proxies)
}

func TestApproveAndPayDeclinedPayment(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)
	f.gateway.decline = true

	_, err := f.approval.ApproveAndPay(context.Background(), f.retailerActor(), o.ID)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeExternalFailure))
}

func TestApproveAndPayAuthorization(t *testing.T) {
	f := newFixture(t)
	wrec := f.wholesalerListing(t, "Olive Oil 1L", 50)
	o := f.orderWithRequirement(t, wrec, 5)

	// wrong store
	_, err := f.approval.ApproveAndPay(context.Background(), Actor{UserID: uuid.New(), StoreID: uuid.New(), Role: RoleRetailer}, o.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	// right store, wrong owner
	_, err = f.approval.ApproveAndPay(context.Background(), Actor{UserID: uuid.New(), StoreID: f.retailer.ID, Role: RoleRetailer}, o.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestApproveAndPayNothingPending(t *testing.T) {
	f := newFixture(t)
	o, err := order.NewOrder("ORD-TEST-2", f.customerID, f.retailer.ID)
	require.NoError(t, err)
	require.NoError(t, f.orderRepo.Save(context.Background(), o))

	_, err = f.approval.ApproveAndPay(context.Background(), f.retailerActor(), o.ID)
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeInvalidTransition))
}
