package bus

// EventBus is a thread-safe, in-process pub/sub bus for simulation events.
//
// Handlers subscribe by event type and are called synchronously in the
// publisher's goroutine. Errors returned by several handlers are joined and
// returned from Publish.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type.
	Publish(event Event) error
	// PublishBatch publishes events in order and aggregates their errors.
	PublishBatch(events ...Event) error
	// Subscribe registers a handler for one event type.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// SubscribeAll registers a handler that receives every event type.
	SubscribeAll(handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. Nil is accepted.
	Unsubscribe(Subscription) error
	// Subscribers reports how many handlers are registered for eventType.
	Subscribers(eventType string) int
}

// EventHandler is invoked for each delivered event.
type EventHandler func(event Event) error

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}
