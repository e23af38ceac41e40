// Package eventbus delivers domain events to registered listeners:
// synchronously for permission-sensitive listeners, and through an
// ordered single-worker queue for side-effecting listeners.
package eventbus

import (
	"context"

	"github.com/docdeck/docdeck/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	// Handle registers an asynchronous listener. Events reach it in
	// submission order through the single queue worker; listener errors
	// are logged and never block subsequent events.
	Handle(eventType events.EventType, handler EventHandler)

	// HandleSync registers a synchronous listener invoked inline during
	// Publish, in registration order. A sync listener error propagates
	// to the publisher and the event is not queued.
	HandleSync(eventType events.EventType, handler EventHandler)

	// Subscribe starts the queue worker.
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber

	// Drain stops accepting new work and waits until the queue is empty.
	// Used by test harnesses for orderly termination.
	Drain(ctx context.Context) error

	// Reset shuts the queue down and rebuilds it, keeping registered
	// listeners. Test isolation only, not a production code path.
	Reset() error

	Close() error
	GenerateID() string
}
