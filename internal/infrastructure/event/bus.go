package event

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cos/backend/internal/domain/shared"
)

// InMemoryEventBus delivers domain events to subscribed handlers in the
// publishing goroutine. A failing or panicking handler is logged and does not
// stop delivery to the others, nor does it fail the publisher.
type InMemoryEventBus struct {
	registry  *HandlerRegistry
	logger    *zap.Logger
	running   atomic.Bool
	published atomic.Int64
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish dispatches each event to its handlers in order. Events published
// after Stop are dropped.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if !b.running.Load() {
		b.logger.Debug("event bus not running, dropping events", zap.Int("count", len(events)))
		return nil
	}
	for _, event := range events {
		b.published.Add(1)
		for _, handler := range b.registry.Handlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler; without explicit types the handler's own
// EventTypes are used, and an empty list subscribes to everything
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start enables delivery
func (b *InMemoryEventBus) Start(_ context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop disables delivery
func (b *InMemoryEventBus) Stop(_ context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped", zap.Int64("events_published", b.published.Load()))
	return nil
}

// Published returns how many events have been dispatched
func (b *InMemoryEventBus) Published() int64 {
	return b.published.Load()
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()
	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)

// PublishPending publishes and clears the pending events of each aggregate.
// A nil publisher only clears them.
func PublishPending(ctx context.Context, publisher shared.EventPublisher, aggregates ...shared.AggregateRoot) error {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return nil
	}
	return publisher.Publish(ctx, events...)
}
