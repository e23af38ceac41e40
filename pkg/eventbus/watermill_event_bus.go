package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/docdeck/docdeck/pkg/events"
)

// WatermillEventBus implements EventBus on a watermill gochannel pubsub.
// A single subscription goroutine consumes the topic, which gives strict
// submission ordering for the asynchronous leg.
type WatermillEventBus struct {
	logger *slog.Logger

	mu           sync.Mutex
	pubSub       *gochannel.GoChannel
	async        map[events.EventType][]EventHandler
	sync         map[events.EventType][]EventHandler
	inFlight     *sync.WaitGroup
	draining     bool
	subscribed   bool
	subscribeCtx context.Context
}

// NewWatermillEventBus creates an in-process event bus. Subscribe must be
// called before published events reach asynchronous listeners.
func NewWatermillEventBus(logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		logger:   logger.With("module", "eventbus"),
		pubSub:   newGoChannel(logger),
		async:    make(map[events.EventType][]EventHandler),
		sync:     make(map[events.EventType][]EventHandler),
		inFlight: &sync.WaitGroup{},
	}
}

func newGoChannel(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 1000,
			Persistent:          false,
		},
		watermill.NewSlogLogger(logger),
	)
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish runs the synchronous listeners inline and then hands the event
// to the queue. A synchronous listener error aborts the publish.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	eb.mu.Lock()

	if eb.draining {
		eb.mu.Unlock()

		return fmt.Errorf("event bus is draining, rejecting %s", event.GetType())
	}

	syncHandlers := eb.sync[event.GetType()]
	wg := eb.inFlight
	pubSub := eb.pubSub
	subscribed := eb.subscribed
	eb.mu.Unlock()

	for _, handler := range syncHandlers {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("sync listener for %s failed: %w", event.GetType(), err)
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if !subscribed {
		// No worker yet: the gochannel pubsub would drop the message and
		// Drain would wait forever on it.
		return nil
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	wg.Add(1)

	if err := pubSub.Publish(events.Topic, msg); err != nil {
		wg.Done()

		return err
	}

	return nil
}

// Handle registers an asynchronous listener for the event type.
func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.async[eventType] = append(eb.async[eventType], handler)
}

// HandleSync registers a synchronous listener for the event type.
func (eb *WatermillEventBus) HandleSync(eventType events.EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.sync[eventType] = append(eb.sync[eventType], handler)
}

// Subscribe starts the single queue worker.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	eb.mu.Lock()
	eb.subscribed = true
	eb.subscribeCtx = ctx
	pubSub := eb.pubSub
	eb.mu.Unlock()

	messages, err := pubSub.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go eb.consume(ctx, messages)

	return nil
}

func (eb *WatermillEventBus) consume(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		eb.dispatch(ctx, msg)
		msg.Ack()
	}
}

// dispatch decodes one message and feeds it to every registered listener.
// Listener failures are logged per event; they never stop the worker.
func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eb.mu.Lock()
	wg := eb.inFlight
	eb.mu.Unlock()

	defer wg.Done()

	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	event, err := decodeEvent(eventType, msg.Payload)
	if err != nil {
		// Default case for unrouted events: log, never crash the worker.
		eb.logger.ErrorContext(ctx, "Dropping undecodable event",
			"event_type", eventType, "error", err)

		return
	}

	eb.mu.Lock()
	handlers := eb.async[eventType]
	eb.mu.Unlock()

	if len(handlers) == 0 {
		eb.logger.DebugContext(ctx, "No listener registered for event", "event_type", eventType)

		return
	}

	for _, handler := range handlers {
		eb.invoke(ctx, eventType, handler, event)
	}
}

func (eb *WatermillEventBus) invoke(ctx context.Context, eventType events.EventType, handler EventHandler, event any) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.ErrorContext(ctx, "Event listener panicked",
				"event_type", eventType, "panic", r)
		}
	}()

	if err := handler(ctx, event); err != nil {
		eb.logger.ErrorContext(ctx, "Event listener failed",
			"event_type", eventType, "error", err)
	}
}

func decodeEvent(eventType events.EventType, payload []byte) (any, error) {
	var event any

	switch eventType {
	case events.DocumentCreatedEvent:
		event = &events.DocumentCreated{}
	case events.DocumentUpdatedEvent:
		event = &events.DocumentUpdated{}
	case events.DocumentDeletedEvent:
		event = &events.DocumentDeleted{}
	case events.FileCreatedEvent:
		event = &events.FileCreated{}
	case events.FileDeletedEvent:
		event = &events.FileDeleted{}
	case events.FileReprocessEvent:
		event = &events.FileReprocess{}
	case events.AclCreatedEvent:
		event = &events.AclCreated{}
	case events.AclDeletedEvent:
		event = &events.AclDeleted{}
	case events.RouteCompletedEvent:
		event = &events.RouteCompleted{}
	case events.GroupMembershipChangedEvent:
		event = &events.GroupMembershipChanged{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, err
	}

	return event, nil
}

// Drain stops accepting new events and waits for the queue to empty.
func (eb *WatermillEventBus) Drain(ctx context.Context) error {
	eb.mu.Lock()
	eb.draining = true
	wg := eb.inFlight
	eb.mu.Unlock()

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset rebuilds the underlying pubsub between test cases, keeping the
// registered listeners. It re-subscribes when Subscribe was active.
func (eb *WatermillEventBus) Reset() error {
	eb.mu.Lock()

	old := eb.pubSub
	eb.pubSub = newGoChannel(eb.logger)
	eb.inFlight = &sync.WaitGroup{}
	eb.draining = false
	subscribed := eb.subscribed
	subscribeCtx := eb.subscribeCtx
	eb.mu.Unlock()

	if err := old.Close(); err != nil {
		return err
	}

	if subscribed {
		return eb.Subscribe(subscribeCtx)
	}

	return nil
}

func (eb *WatermillEventBus) Close() error {
	eb.mu.Lock()
	pubSub := eb.pubSub
	eb.mu.Unlock()

	return pubSub.Close()
}
