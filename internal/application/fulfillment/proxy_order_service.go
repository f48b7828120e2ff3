package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/inventory"
	"github.com/openmarket/backend/internal/domain/order"
	"github.com/openmarket/backend/internal/domain/payment"
	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
	"github.com/openmarket/backend/internal/domain/shared/valueobject"
)

// ProxyOrderService drives the proxy order lifecycle on the
// wholesaler-approval path, and delivery settlement on both paths.
type ProxyOrderService struct {
	txScope        TransactionScope
	gateway        payment.Gateway
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProxyOrderService creates a new ProxyOrderService
func NewProxyOrderService(txScope TransactionScope, gateway payment.Gateway, logger *zap.Logger) *ProxyOrderService {
	return &ProxyOrderService{
		txScope: txScope,
		gateway: gateway,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProxyOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RequestApproval starts the wholesaler-approval path for an order: one
// pending proxy order per fulfillment requirement, with no wholesaler
// order and no payment yet. The requirements stay on the order until every
// proxy order is approved and paid.
func (s *ProxyOrderService) RequestApproval(ctx context.Context, actor Actor, orderID uuid.UUID) ([]ProxyOrderResponse, error) {
	var created []*proxy.ProxyOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if actor.StoreID == uuid.Nil || actor.StoreID != o.SellerStoreID {
			return shared.ErrForbidden
		}
		if !o.HasPendingApproval() {
			return shared.NewDomainError(shared.CodeInvalidTransition, "Order has no fulfillment requirements awaiting approval")
		}

		existing, err := repos.ProxyRepo().FindByCustomerOrder(ctx, o.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return shared.NewDomainError(shared.CodeInvalidTransition, "Wholesaler approval has already been requested for this order")
		}

		for _, req := range o.Requirements {
			p, err := proxy.NewPendingProxyOrder(o.SellerStoreID, req.WholesalerStoreID, req.ProductID, req.ProductName, req.WholesalerInventoryID, req.Quantity, valueobject.NewMoneyUSD(req.UnitPrice), o.ID)
			if err != nil {
				return err
			}
			if err := repos.ProxyRepo().Save(ctx, p); err != nil {
				return err
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	roots := make([]shared.AggregateRoot, 0, len(created))
	for _, p := range created {
		roots = append(roots, p)
	}
	s.publish(ctx, roots...)

	out := make([]ProxyOrderResponse, 0, len(created))
	for _, p := range created {
		out = append(out, ToProxyOrderResponse(p))
	}
	return out, nil
}

// Approve records the wholesaler's approval of a pending proxy order, then
// settles it: the retailer is charged, a paid wholesaler-facing order is
// created, and once every proxy order on the customer order is settled the
// order's requirements resolve into proxy-sourced lines.
func (s *ProxyOrderService) Approve(ctx context.Context, actor Actor, proxyOrderID uuid.UUID, notes string) (*ProxyOrderResponse, error) {
	var approved *proxy.ProxyOrder
	var touched []shared.AggregateRoot

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := s.loadForWholesaler(ctx, repos, actor, proxyOrderID)
		if err != nil {
			return err
		}
		if err := p.Approve(notes); err != nil {
			return err
		}

		// stock may have moved since checkout
		record, err := repos.InventoryRepo().FindByID(ctx, p.InventoryRecordID)
		if err != nil {
			return err
		}
		if !record.CanFulfill(p.Quantity) {
			return shared.NewDomainError(shared.CodeInsufficientStock, "Wholesaler stock no longer covers "+p.ProductName)
		}

		o, err := repos.OrderRepo().FindByID(ctx, p.CustomerOrderID)
		if err != nil {
			return err
		}

		wo, err := s.settleRetailerPayment(ctx, repos, p)
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, wo); err != nil {
			return err
		}
		if err := repos.ProxyRepo().SaveWithLock(ctx, p); err != nil {
			return err
		}
		touched = append(touched, wo, p)

		resolved, err := s.resolveWhenAllSettled(ctx, repos, o)
		if err != nil {
			return err
		}
		if resolved {
			touched = append(touched, o)
		}

		approved = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, touched...)

	resp := ToProxyOrderResponse(approved)
	return &resp, nil
}

// Reject records the wholesaler's rejection. Notes are mandatory; the
// coordinator cancels the linked customer order when it consumes the
// rejection event.
func (s *ProxyOrderService) Reject(ctx context.Context, actor Actor, proxyOrderID uuid.UUID, notes string) (*ProxyOrderResponse, error) {
	var rejected *proxy.ProxyOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := s.loadForWholesaler(ctx, repos, actor, proxyOrderID)
		if err != nil {
			return err
		}
		if err := p.Reject(notes); err != nil {
			return err
		}
		if err := repos.ProxyRepo().SaveWithLock(ctx, p); err != nil {
			return err
		}
		rejected = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, rejected)

	resp := ToProxyOrderResponse(rejected)
	return &resp, nil
}

// MarkDelivered confirms wholesaler delivery to the retailer and performs
// delivery settlement in the same transaction: the wholesaler's stock is
// decremented once, and the delivered quantity is relisted in the
// retailer's inventory with purchased provenance. Retried calls fail on
// the state machine before any second decrement can happen.
func (s *ProxyOrderService) MarkDelivered(ctx context.Context, actor Actor, proxyOrderID uuid.UUID) (*ProxyOrderResponse, error) {
	var delivered *proxy.ProxyOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := s.loadForWholesaler(ctx, repos, actor, proxyOrderID)
		if err != nil {
			return err
		}
		if err := p.MarkDelivered(); err != nil {
			return err
		}

		if err := repos.InventoryRepo().DecrementStock(ctx, p.InventoryRecordID, p.Quantity); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return shared.NewDomainError(shared.CodeConcurrencyConflict, "Wholesaler stock changed before settlement for "+p.ProductName)
			}
			return err
		}

		if err := s.relistForRetailer(ctx, repos, p); err != nil {
			return err
		}

		if err := repos.ProxyRepo().SaveWithLock(ctx, p); err != nil {
			return err
		}
		delivered = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, delivered)

	resp := ToProxyOrderResponse(delivered)
	return &resp, nil
}

// Cancel cancels a pre-delivery proxy order. Either side of the
// transaction may cancel; the coordinator cascades the cancellation to the
// customer order.
func (s *ProxyOrderService) Cancel(ctx context.Context, actor Actor, proxyOrderID uuid.UUID, reason string) (*ProxyOrderResponse, error) {
	var cancelled *proxy.ProxyOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.ProxyRepo().FindByID(ctx, proxyOrderID)
		if err != nil {
			return err
		}
		if actor.StoreID != p.RetailerStoreID && actor.StoreID != p.WholesalerStoreID {
			return shared.ErrForbidden
		}
		if err := p.Cancel(reason); err != nil {
			return err
		}
		if err := repos.ProxyRepo().SaveWithLock(ctx, p); err != nil {
			return err
		}
		cancelled = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, cancelled)

	resp := ToProxyOrderResponse(cancelled)
	return &resp, nil
}

// GetByID retrieves a proxy order visible to the acting store
func (s *ProxyOrderService) GetByID(ctx context.Context, actor Actor, proxyOrderID uuid.UUID) (*ProxyOrderResponse, error) {
	var resp ProxyOrderResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		p, err := repos.ProxyRepo().FindByID(ctx, proxyOrderID)
		if err != nil {
			return err
		}
		if actor.StoreID != p.RetailerStoreID && actor.StoreID != p.WholesalerStoreID {
			return shared.ErrForbidden
		}
		resp = ToProxyOrderResponse(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListForWholesaler lists proxy orders directed at the acting wholesaler
func (s *ProxyOrderService) ListForWholesaler(ctx context.Context, actor Actor, status *proxy.Status, filter shared.Filter) ([]ProxyOrderResponse, error) {
	var out []ProxyOrderResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		proxies, err := repos.ProxyRepo().FindByWholesalerStore(ctx, actor.StoreID, status, filter)
		if err != nil {
			return err
		}
		out = ToProxyOrderResponses(proxies)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForRetailer lists proxy orders placed by the acting retailer
func (s *ProxyOrderService) ListForRetailer(ctx context.Context, actor Actor, filter shared.Filter) ([]ProxyOrderResponse, error) {
	var out []ProxyOrderResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		proxies, err := repos.ProxyRepo().FindByRetailerStore(ctx, actor.StoreID, filter)
		if err != nil {
			return err
		}
		out = ToProxyOrderResponses(proxies)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// loadForWholesaler loads a proxy order and checks the actor owns the
// wholesaler side
func (s *ProxyOrderService) loadForWholesaler(ctx context.Context, repos TransactionalRepositories, actor Actor, proxyOrderID uuid.UUID) (*proxy.ProxyOrder, error) {
	p, err := repos.ProxyRepo().FindByID(ctx, proxyOrderID)
	if err != nil {
		return nil, err
	}
	if actor.StoreID == uuid.Nil || actor.StoreID != p.WholesalerStoreID {
		return nil, shared.ErrForbidden
	}
	st, err := repos.StoreRepo().FindByID(ctx, actor.StoreID)
	if err != nil {
		return nil, err
	}
	if !st.IsWholesaler() || !st.IsOwnedBy(actor.UserID) {
		return nil, shared.ErrForbidden
	}
	return p, nil
}

// settleRetailerPayment charges the retailer for one approved proxy order
// and creates the matching paid wholesaler-facing order
func (s *ProxyOrderService) settleRetailerPayment(ctx context.Context, repos TransactionalRepositories, p *proxy.ProxyOrder) (*order.Order, error) {
	number, err := repos.OrderRepo().GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}
	retailer, err := repos.StoreRepo().FindByID(ctx, p.RetailerStoreID)
	if err != nil {
		return nil, err
	}
	wo, err := order.NewWholesalerOrder(number, retailer.OwnerID, p.RetailerStoreID, p.WholesalerStoreID)
	if err != nil {
		return nil, err
	}
	if _, err := wo.AddLine(p.InventoryRecordID, p.ProductID, p.ProductName, "", p.Quantity, valueobject.NewMoneyUSD(p.UnitPrice), false); err != nil {
		return nil, err
	}

	result, err := s.gateway.Charge(ctx, payment.ChargeRequest{
		Reference: wo.OrderNumber,
		PayerID:   retailer.OwnerID,
		Amount:    wo.TotalAmount,
		Method:    payment.MethodBalance,
	})
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeExternalFailure, "Payment gateway unavailable: "+err.Error())
	}
	if !result.Succeeded {
		return nil, shared.NewDomainError(shared.CodeExternalFailure, "Retailer payment declined: "+result.FailureReason)
	}
	if err := wo.MarkPaid(); err != nil {
		return nil, err
	}
	if err := p.MarkPaid(wo.ID); err != nil {
		return nil, err
	}
	return wo, nil
}

// resolveWhenAllSettled resolves the customer order's requirements once
// every linked proxy order is approved and paid
func (s *ProxyOrderService) resolveWhenAllSettled(ctx context.Context, repos TransactionalRepositories, o *order.Order) (bool, error) {
	proxies, err := repos.ProxyRepo().FindByCustomerOrder(ctx, o.ID)
	if err != nil {
		return false, err
	}
	for i := range proxies {
		if !proxies[i].IsSettleable() {
			return false, nil
		}
	}
	if err := o.ResolveRequirements(); err != nil {
		return false, err
	}
	if err := repos.OrderRepo().SaveWithLock(ctx, o); err != nil {
		return false, err
	}
	return true, nil
}

// relistForRetailer moves the delivered quantity into the retailer's
// inventory. An existing retailer record for the product is topped up;
// otherwise a new record with purchased provenance is created, priced at
// the wholesaler's list price.
func (s *ProxyOrderService) relistForRetailer(ctx context.Context, repos TransactionalRepositories, p *proxy.ProxyOrder) error {
	existing, err := repos.InventoryRepo().FindByStoreAndProduct(ctx, p.RetailerStoreID, p.ProductID)
	if err == nil {
		return repos.InventoryRepo().IncrementStock(ctx, existing.ID, p.Quantity)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	source, err := repos.InventoryRepo().FindByID(ctx, p.InventoryRecordID)
	if err != nil {
		return err
	}
	if p.WholesalerOrderID == nil {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Delivered proxy order has no wholesaler order")
	}
	record, err := inventory.NewPurchasedRecord(p.RetailerStoreID, p.ProductID, p.ProductName, source.GetListPriceMoney(), source.GetListPriceMoney(), p.Quantity, source.LeadTimeDays, *p.WholesalerOrderID)
	if err != nil {
		return err
	}
	record.ProductImage = source.ProductImage
	return repos.InventoryRepo().Save(ctx, record)
}

func (s *ProxyOrderService) publish(ctx context.Context, roots ...shared.AggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, root := range roots {
		if root == nil {
			continue
		}
		for _, ev := range root.GetDomainEvents() {
			if err := s.eventPublisher.Publish(ctx, ev); err != nil {
				s.logger.Error("failed to publish domain event",
					zap.String("event_type", ev.EventType()),
					zap.Error(err))
			}
		}
		root.ClearDomainEvents()
	}
}
