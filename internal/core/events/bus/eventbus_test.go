package bus

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/glengine/internal/core/observability/log"
)

type testObserver struct {
	mu        sync.Mutex
	published int
	delivered int
	lastErr   error
}

func (o *testObserver) OnPublish(string, Event) {
	o.mu.Lock()
	o.published++
	o.mu.Unlock()
}

func (o *testObserver) OnDelivered(_ string, _ Event, handlers int, err error, _ time.Duration) {
	o.mu.Lock()
	o.delivered += handlers
	o.lastErr = err
	o.mu.Unlock()
}

func TestPublishInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, err := b.Subscribe("physics.stepped", func(Event) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("physics.stepped", "test", 1, 0, nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	first := errors.New("first")
	second := errors.New("second")
	_, _ = b.Subscribe("x", func(Event) error { return first })
	_, _ = b.Subscribe("x", func(Event) error { return nil })
	_, _ = b.Subscribe("x", func(Event) error { return second })

	err := b.Publish(NewEvent("x", "src", nil, 0, nil))
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)

	err = <-b.PublishAsync(NewEvent("x", "src", nil, 0, nil))
	assert.ErrorIs(t, err, first)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("x", func(Event) error { calls++; return nil })
	require.NoError(t, err)
	assert.True(t, sub.IsActive())

	require.NoError(t, b.Publish(NewEvent("x", "src", nil, 0, nil)))
	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	require.NoError(t, b.Publish(NewEvent("x", "src", nil, 0, nil)))

	assert.Equal(t, 1, calls)
	assert.False(t, sub.IsActive())
	assert.NoError(t, b.Unsubscribe(nil))
}

func TestCancelDuringDelivery(t *testing.T) {
	b := New()
	var second Subscription
	calls := 0
	_, _ = b.Subscribe("x", func(Event) error { return second.Cancel() })
	second, _ = b.Subscribe("x", func(Event) error { calls++; return nil })

	require.NoError(t, b.Publish(NewEvent("x", "src", nil, 0, nil)))
	assert.Zero(t, calls)
}

func TestTopicsIsolation(t *testing.T) {
	b := New()
	require.NoError(t, b.CreateTopic("inspector"))
	require.NoError(t, b.CreateTopic("inspector"))
	inTopic, inDefault := 0, 0
	_, _ = b.SubscribeTopic("inspector", "ev", func(Event) error { inTopic++; return nil })
	_, _ = b.Subscribe("ev", func(Event) error { inDefault++; return nil })

	require.NoError(t, b.PublishToTopic("inspector", NewEvent("ev", "src", nil, 0, nil)))
	assert.Equal(t, 1, inTopic)
	assert.Zero(t, inDefault)

	topics := b.Topics()
	require.Len(t, topics, 2)
	assert.Equal(t, "", topics[0].Name)
	assert.Equal(t, TopicInfo{Name: "inspector", EventTypes: 1, Subs: 1}, topics[1])
}

func TestFiltersAndBatch(t *testing.T) {
	b := New()
	calls := 0
	_, _ = b.Subscribe("x", func(Event) error { calls++; return nil })

	drop := func(Event) bool { return false }
	pass := func(Event) bool { return true }
	require.NoError(t, b.PublishWithFilters(NewEvent("x", "src", nil, 0, nil), pass, drop))
	assert.Zero(t, calls)
	require.NoError(t, b.PublishWithFilters(NewEvent("x", "src", nil, 0, nil), pass))
	assert.Equal(t, 1, calls)

	require.NoError(t, b.PublishBatch(NewEvent("x", "a", nil, 0, nil), NewEvent("y", "b", nil, 0, nil), NewEvent("x", "c", nil, 0, nil)))
	assert.Equal(t, 3, calls)
}

func TestMetricsCountWithoutObservers(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_, _ = b.Subscribe("fail", func(Event) error { return errors.New("boom") })
	require.NoError(t, b.Publish(NewEvent("e", "s", nil, 0, nil)))
	require.Error(t, b.Publish(NewEvent("fail", "s", nil, 0, nil)))
	require.NoError(t, b.PublishWithFilters(NewEvent("e", "s", nil, 0, nil), func(Event) bool { return false }))

	m := b.Metrics()
	assert.Equal(t, uint64(2), m.Published)
	assert.Equal(t, uint64(2), m.DeliveredHandlers)
	assert.Equal(t, uint64(1), m.Errors)
	assert.Equal(t, uint64(1), m.DroppedByFilters)
	assert.Equal(t, uint64(2), m.SubscribersActive)

	obs := &testObserver{}
	b.AddObserver(obs)
	b.AddObserver(obs)
	require.NoError(t, b.Publish(NewEvent("e", "s", nil, 0, nil)))
	assert.Equal(t, 1, obs.published)
	assert.Equal(t, 1, obs.delivered)

	b.RemoveObserver(obs)
	require.NoError(t, b.Publish(NewEvent("e", "s", nil, 0, nil)))
	assert.Equal(t, uint64(4), b.Metrics().Published)
	assert.Equal(t, 1, obs.published)
}

func TestSubscribeData(t *testing.T) {
	type stepped struct{ Tick uint64 }
	b := New()
	var got []uint64
	_, err := SubscribeData(b, "physics.stepped", func(e stepped) error {
		got = append(got, e.Tick)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("physics.stepped", "test", stepped{Tick: 7}, 0, nil)))
	assert.Error(t, b.Publish(NewEvent("physics.stepped", "test", "not a tick", 0, nil)))
	assert.Equal(t, []uint64{7}, got)

	_, err = SubscribeData[stepped](b, "x", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestLogObserver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.log")
	logger := log.NewWithOptions(log.Options{Level: log.LevelDebug, Outputs: []string{path}})
	b := New()
	b.AddObserver(NewLogObserver(logger))
	_, _ = b.Subscribe("x", func(Event) error { return errors.New("boom") })

	require.Error(t, b.Publish(NewEvent("x", "bridge", nil, 0, nil)))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "event delivery failed", entry["msg"])
	assert.Equal(t, "x", entry["event"])
	assert.Equal(t, "bridge", entry["source"])
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b := New()
	b.AddObserver(&testObserver{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = b.Publish(NewEvent("x", "src", j, 0, nil))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub, _ := b.Subscribe("x", func(Event) error { return nil })
				_ = sub.Cancel()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(800), b.Metrics().Published)
}
