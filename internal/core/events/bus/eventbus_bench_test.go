package bus

import (
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

type nopObserver struct{}

func (nopObserver) OnPublish(string, Event)                              {}
func (nopObserver) OnDelivered(string, Event, int, error, time.Duration) {}

func counting(c *int64) EventHandler {
	return func(Event) error {
		atomic.AddInt64(c, 1)
		return nil
	}
}

func BenchmarkPublishSubscribers(b *testing.B) {
	for _, subs := range []int{1, 16, 256} {
		b.Run("subs="+strconv.Itoa(subs), func(b *testing.B) {
			bus := New()
			var c int64
			for i := 0; i < subs; i++ {
				_, _ = bus.Subscribe("physics.stepped", counting(&c))
			}
			e := NewEvent("physics.stepped", "bench", nil, 0, nil)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = bus.Publish(e)
			}
		})
	}
}

func BenchmarkObserverOverhead(b *testing.B) {
	bus := New()
	var c int64
	for i := 0; i < 16; i++ {
		_, _ = bus.Subscribe("physics.stepped", counting(&c))
	}
	e := NewEvent("physics.stepped", "bench", nil, 0, nil)
	b.Run("none", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = bus.Publish(e)
		}
	})
	b.Run("observed", func(b *testing.B) {
		obs := &nopObserver{}
		bus.AddObserver(obs)
		defer bus.RemoveObserver(obs)
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = bus.Publish(e)
		}
	})
}

func BenchmarkConcurrentPublishers(b *testing.B) {
	bus := New()
	var c int64
	for i := 0; i < 64; i++ {
		_, _ = bus.Subscribe("physics.stepped", counting(&c))
	}
	e := NewEvent("physics.stepped", "bench", nil, 0, nil)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = bus.Publish(e)
		}
	})
}
