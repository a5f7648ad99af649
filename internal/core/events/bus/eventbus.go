package bus

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrNilHandler = errors.New("bus: nil handler")

type simpleEvent struct {
	typ    string
	source string
	ts     time.Time
	data   any
	prio   int
	meta   map[string]any
}

func (e simpleEvent) Type() string             { return e.typ }
func (e simpleEvent) Source() string           { return e.source }
func (e simpleEvent) Timestamp() time.Time     { return e.ts }
func (e simpleEvent) Data() any                { return e.data }
func (e simpleEvent) Priority() int            { return e.prio }
func (e simpleEvent) Metadata() map[string]any { return e.meta }

// NewEvent builds an Event stamped with the current time.
func NewEvent(typ, src string, data any, priority int, metadata map[string]any) Event {
	return simpleEvent{typ: typ, source: src, ts: time.Now(), data: data, prio: priority, meta: metadata}
}

type subscription struct {
	id        string
	seq       uint64
	topic     string
	eventType string
	handler   EventHandler
	active    atomic.Bool
	cancel    func()
	once      sync.Once
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) Topic() string     { return s.topic }
func (s *subscription) IsActive() bool    { return s.active.Load() }

func (s *subscription) Cancel() error {
	s.once.Do(func() {
		s.active.Store(false)
		s.cancel()
	})
	return nil
}

// topic -> event type -> subscriptions ordered by seq
type handlerTable map[string]map[string][]*subscription

type inMemoryBus struct {
	mu        sync.RWMutex
	handlers  handlerTable
	seq       uint64
	observers []Observer

	published atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// New creates an empty bus with the default topic declared.
func New() EventBus {
	b := &inMemoryBus{handlers: make(handlerTable)}
	b.handlers[""] = make(map[string][]*subscription)
	return b
}

func (b *inMemoryBus) Publish(event Event) error {
	return b.deliver("", event)
}

func (b *inMemoryBus) PublishToTopic(topic string, event Event) error {
	return b.deliver(topic, event)
}

func (b *inMemoryBus) PublishWithFilters(event Event, filters ...EventFilter) error {
	for _, f := range filters {
		if f(event) {
			continue
		}
		b.dropped.Add(1)
		return nil
	}
	return b.Publish(event)
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	return b.SubscribeTopic("", eventType, handler)
}

func (b *inMemoryBus) SubscribeTopic(topic, eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	types := b.topicLocked(topic)
	b.seq++
	s := &subscription{
		id:        uuid.NewString(),
		seq:       b.seq,
		topic:     topic,
		eventType: eventType,
		handler:   handler,
	}
	s.active.Store(true)
	s.cancel = func() { b.remove(s) }
	types[eventType] = append(types[eventType], s)
	return s, nil
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	types := b.handlers[s.topic]
	if types == nil {
		return
	}
	subs := types[s.eventType]
	for i, existing := range subs {
		if existing == s {
			// copy so that in-flight deliveries keep their snapshot intact
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			types[s.eventType] = append(next, subs[i+1:]...)
			return
		}
	}
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- b.Publish(event)
	}()
	return ch
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var errs []error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *inMemoryBus) CreateTopic(name string) error {
	b.mu.Lock()
	b.topicLocked(name)
	b.mu.Unlock()
	return nil
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.observers {
		if existing == obs {
			return
		}
	}
	b.observers = append(b.observers, obs)
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, existing := range b.observers {
		if existing == obs {
			next := make([]Observer, 0, len(b.observers)-1)
			next = append(next, b.observers[:i]...)
			b.observers = append(next, b.observers[i+1:]...)
			return
		}
	}
}

func (b *inMemoryBus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var active uint64
	for _, types := range b.handlers {
		for _, list := range types {
			active += uint64(len(list))
		}
	}
	return Metrics{
		Published:         b.published.Load(),
		DeliveredHandlers: b.delivered.Load(),
		Errors:            b.failed.Load(),
		DroppedByFilters:  b.dropped.Load(),
		SubscribersActive: active,
		Topics:            uint64(len(b.handlers)),
	}
}

// Topics lists the declared topics sorted by name.
func (b *inMemoryBus) Topics() []TopicInfo {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]TopicInfo, 0, len(b.handlers))
	for name, types := range b.handlers {
		info := TopicInfo{Name: name}
		for _, subs := range types {
			if len(subs) == 0 {
				continue
			}
			info.EventTypes++
			info.Subs += len(subs)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (b *inMemoryBus) topicLocked(topic string) map[string][]*subscription {
	types := b.handlers[topic]
	if types == nil {
		types = make(map[string][]*subscription)
		b.handlers[topic] = types
	}
	return types
}

func (b *inMemoryBus) deliver(topic string, event Event) error {
	if event == nil {
		return nil
	}
	start := time.Now()

	// Both slices are replaced, never mutated, on change, so the snapshot
	// stays valid after the lock is released.
	b.mu.RLock()
	subs := b.handlers[topic][event.Type()]
	observers := b.observers
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(topic, event)
	}

	var errs []error
	delivered := 0
	for _, s := range subs {
		if !s.active.Load() {
			continue
		}
		delivered++
		if err := s.handler(event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", event.Type(), err))
		}
	}
	err := errors.Join(errs...)

	b.published.Add(1)
	b.delivered.Add(uint64(delivered))
	if err != nil {
		b.failed.Add(1)
	}

	if len(observers) == 0 {
		return err
	}
	took := time.Since(start)
	for _, obs := range observers {
		obs.OnDelivered(topic, event, delivered, err, took)
	}
	return err
}
