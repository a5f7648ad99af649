// Package bus is the in-process publish/subscribe channel through which the
// scene runtime reports what happened during a tick (physics world assembled,
// physics stepped, objects added) to tooling such as the inspector.
package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Handlers subscribe by Event.Type() and are called synchronously in the
// publisher's goroutine, in subscription order. Handler errors are joined
// and returned from Publish. Topics scope subscriptions; the default topic
// is "". Metrics count every publish, with or without observers.
type EventBus interface {
	// Publish delivers the event to the default topic.
	Publish(event Event) error
	// Subscribe registers a handler for eventType in the default topic.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	// PublishWithFilters drops the event silently if any filter rejects it.
	PublishWithFilters(event Event, filters ...EventFilter) error

	// CreateTopic declares a topic. Repeat declarations are no-ops.
	CreateTopic(name string) error
	SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error)
	PublishToTopic(topic string, event Event) error

	// PublishAsync delivers in a new goroutine. The returned channel yields
	// the joined handler error, then closes.
	PublishAsync(event Event) <-chan error
	// PublishBatch publishes events in order and joins their errors.
	PublishBatch(events ...Event) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	Metrics() Metrics
	Topics() []TopicInfo
}

// Event is an immutable message. Data is owned by the publisher and must be
// treated as read-only by handlers.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
	Priority() int
	Metadata() map[string]any
}

type (
	// EventHandler is called once per delivered event.
	EventHandler func(event Event) error
	// EventFilter returns false to drop an event before delivery.
	EventFilter func(event Event) bool
)

// Subscription is a registered handler.
type Subscription interface {
	ID() string
	EventType() string
	Topic() string
	IsActive() bool
	// Cancel removes the handler. Repeated calls are safe.
	Cancel() error
}

// Observer is notified around every delivery. Observers must return quickly.
type Observer interface {
	OnPublish(topic string, event Event)
	OnDelivered(topic string, event Event, handlers int, err error, took time.Duration)
}

// Metrics is a snapshot of delivery counters.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	DroppedByFilters  uint64
	SubscribersActive uint64
	Topics            uint64
}

type TopicInfo struct {
	Name       string
	EventTypes int
	Subs       int
}
