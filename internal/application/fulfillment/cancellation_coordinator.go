package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/proxy"
	"github.com/openmarket/backend/internal/domain/shared"
)

// CancellationCoordinator consumes proxy order cancellation and rejection
// events and cascades them to the linked customer order. Keeping the
// cascade in one consumer, instead of at each call site, means the
// proxy-to-order invariant has a single enforcement point.
type CancellationCoordinator struct {
	txScope TransactionScope
	logger  *zap.Logger
}

// NewCancellationCoordinator creates a new CancellationCoordinator
func NewCancellationCoordinator(txScope TransactionScope, logger *zap.Logger) *CancellationCoordinator {
	return &CancellationCoordinator{
		txScope: txScope,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *CancellationCoordinator) EventTypes() []string {
	return []string{
		proxy.EventTypeProxyOrderCancelled,
		proxy.EventTypeProxyOrderRejected,
	}
}

// Handle cancels the customer order linked to a cancelled or rejected
// proxy order
func (h *CancellationCoordinator) Handle(ctx context.Context, event shared.DomainEvent) error {
	var customerOrderID uuid.UUID
	var reason string

	switch ev := event.(type) {
	case *proxy.ProxyOrderCancelledEvent:
		customerOrderID = ev.CustomerOrderID
		reason = "Proxy order cancelled: " + ev.Reason
	case *proxy.ProxyOrderRejectedEvent:
		customerOrderID = ev.CustomerOrderID
		reason = "Wholesaler rejected sourcing: " + ev.Notes
	default:
		h.logger.Error("unexpected event type",
			zap.String("actual", event.EventType()))
		return nil
	}

	err := h.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.OrderRepo().FindByID(ctx, customerOrderID)
		if err != nil {
			return err
		}
		if o.Status.IsTerminal() {
			return nil
		}
		if err := o.Cancel(reason); err != nil {
			return err
		}
		return repos.OrderRepo().SaveWithLock(ctx, o)
	})
	if err != nil {
		// the customer order may already have raced into a terminal state
		if errors.Is(err, shared.ErrNotFound) || shared.IsCode(err, shared.CodeInvalidTransition) {
			h.logger.Warn("skipping cancellation cascade",
				zap.String("customer_order_id", customerOrderID.String()),
				zap.Error(err))
			return nil
		}
		h.logger.Error("failed to cascade proxy cancellation",
			zap.String("customer_order_id", customerOrderID.String()),
			zap.Error(err))
		return err
	}

	h.logger.Info("customer order cancelled after proxy cancellation",
		zap.String("customer_order_id", customerOrderID.String()),
		zap.String("reason", reason))

	return nil
}

// Ensure CancellationCoordinator implements shared.EventHandler
var _ shared.EventHandler = (*CancellationCoordinator)(nil)
