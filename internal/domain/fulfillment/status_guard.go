package fulfillment

import (
	"fmt"
	"strings"

	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
)

// StatusGuard gates customer-order status advancement on the state of the
// order's fulfillment dependencies. An order with unapproved requirements
// cannot move beyond PENDING; once approved, it stays blocked until every
// linked proxy order has delivered to the retailer.
type StatusGuard struct{}

// NewStatusGuard creates a new StatusGuard
func NewStatusGuard() *StatusGuard {
	return &StatusGuard{}
}

// CheckAdvance evaluates whether the order may advance to the target
// status given its linked proxy orders. Rejections carry the
// APPROVAL_REQUIRED or FULFILLMENT_PENDING error code; the latter names
// the blocking products.
func (g *StatusGuard) CheckAdvance(o *order.Order, proxies []proxy.ProxyOrder, target order.Status) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot transition order from %s to %s", o.Status, target))
	}

	// cancellation and refund are always reachable; the guard only
	// protects forward progress
	if target == order.StatusCancelled || target == order.StatusRefunded {
		return nil
	}

	if o.HasPendingApproval() {
		return shared.NewDomainError(shared.CodeApprovalRequired, "Order has fulfillment requirements awaiting retailer approval")
	}

	if blocking := blockingProducts(proxies); len(blocking) > 0 {
		return shared.NewDomainError(shared.CodeFulfillmentPending,
			fmt.Sprintf("Waiting on wholesaler delivery for: %s", strings.Join(blocking, ", ")))
	}

	return nil
}

// CompletableProxies returns the linked proxy orders that should complete
// when the customer order reaches DELIVERED
func (g *StatusGuard) CompletableProxies(proxies []proxy.ProxyOrder) []*proxy.ProxyOrder {
	var out []*proxy.ProxyOrder
	for i := range proxies {
		if proxies[i].Status == proxy.StatusDeliveredToRetailer {
			out = append(out, &proxies[i])
		}
	}
	return out
}

func blockingProducts(proxies []proxy.ProxyOrder) []string {
	seen := make(map[string]bool)
	var names []string
	for i := range proxies {
		p := &proxies[i]
		if p.Status == proxy.StatusCancelled {
			// a cancelled proxy cascades to cancel the order itself, so
			// it never blocks a transition that got this far
			continue
		}
		if p.BlocksCustomerDelivery() && !seen[p.ProductName] {
			seen[p.ProductName] = true
			names = append(names, p.ProductName)
		}
	}
	return names
}
