package shared

import "context"

// EventHandler reacts to domain events after the state change that raised
// them has been committed. Handler failures never undo that change.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types to deliver; nil means every event
	EventTypes() []string
}

// EventPublisher hands events to whoever is subscribed
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is a publisher handlers can subscribe to
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
