package bus

import (
	"fmt"
	"time"

	"github.com/zeusync/glengine/internal/core/observability/log"
)

// LogObserver writes every delivery to a logger. Deliveries are logged at
// debug level, failed ones and deliveries slower than Slow at warn level.
type LogObserver struct {
	log  log.Log
	Slow time.Duration
}

func NewLogObserver(logger log.Log) *LogObserver {
	return &LogObserver{
		log:  log.OrNop(logger).With(log.String("component", "event_bus")),
		Slow: 5 * time.Millisecond,
	}
}

func (o *LogObserver) OnPublish(string, Event) {}

func (o *LogObserver) OnDelivered(topic string, event Event, handlers int, err error, took time.Duration) {
	fields := []log.Field{
		log.String("topic", topic),
		log.String("event", event.Type()),
		log.String("source", event.Source()),
		log.Int("handlers", handlers),
		log.Duration("took", took),
	}
	switch {
	case err != nil:
		o.log.Warn("event delivery failed", append(fields, log.Error(err))...)
	case o.Slow > 0 && took > o.Slow:
		o.log.Warn("slow event delivery", fields...)
	default:
		o.log.Debug("event delivered", fields...)
	}
}

// SubscribeData subscribes a handler that receives the event payload as T.
// Events carrying another payload type fail delivery with an error.
func SubscribeData[T any](b EventBus, eventType string, fn func(T) error) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(eventType, func(e Event) error {
		data, ok := e.Data().(T)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data())
		}
		return fn(data)
	})
}
