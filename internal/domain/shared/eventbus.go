package shared

import "context"

// EventHandler reacts to published domain events
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the handled event types; empty means every event
	EventTypes() []string
}

// EventPublisher is what application services publish through
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers
type EventBus interface {
	EventPublisher
	// PublishPending publishes the aggregate's queued events and clears them
	PublishPending(ctx context.Context, agg AggregateRoot) error
	// Subscribe registers handler for eventTypes, or its own EventTypes when none are given
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
