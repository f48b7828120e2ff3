package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openmarket/backend/internal/domain/shared"
)

type stubEvent struct {
	shared.BaseDomainEvent
}

func newStubEvent(eventType string) *stubEvent {
	return &stubEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Stub", uuid.New())}
}

type recordingHandler struct {
	types    []string
	received []string
	fail     error
	panic    bool
}

func (h *recordingHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if h.panic {
		panic("boom")
	}
	h.received = append(h.received, evt.EventType())
	return h.fail
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func TestPublishDeliversToSubscribedHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"order.created"}}
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newStubEvent("order.created")))
	require.NoError(t, bus.Publish(context.Background(), newStubEvent("order.cancelled")))

	assert.Equal(t, []string{"order.created"}, h.received)
}

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"order.created"}, fail: errors.New("db down")}
	healthy := &recordingHandler{types: []string{"order.created"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newStubEvent("order.created")))
	assert.Len(t, healthy.received, 1)
}

func TestPublishRecoversFromHandlerPanic(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	panicking := &recordingHandler{types: []string{"order.created"}, panic: true}
	healthy := &recordingHandler{types: []string{"order.created"}}
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newStubEvent("order.created")))
	assert.Len(t, healthy.received, 1)
}

func TestWildcardHandlerReceivesAllEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(),
		newStubEvent("order.created"), newStubEvent("proxy_order.approved")))

	assert.Equal(t, []string{"order.created", "proxy_order.approved"}, h.received)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"order.created"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newStubEvent("order.created")))
	assert.Empty(t, h.received)
}

func TestRegistryOrdersTypeHandlersBeforeWildcard(t *testing.T) {
	r := NewHandlerRegistry()
	typed := &recordingHandler{types: []string{"order.created"}}
	wildcard := &recordingHandler{}
	r.Register(wildcard)
	r.Register(typed, "order.created")

	got := r.GetHandlers("order.created")
	require.Len(t, got, 2)
	assert.Same(t, typed, got[0].(*recordingHandler))
	assert.Same(t, wildcard, got[1].(*recordingHandler))
}
