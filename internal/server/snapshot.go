package server

import (
	"sync/atomic"
	"time"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/engine"
	"github.com/zeusync/glengine/internal/core/events/bus"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/scene"
)

// Source grants read access to the scene under the game-state lock.
// *engine.Engine implements it.
type Source interface {
	Snapshot(fn func(s *scene.Scene, stats engine.Stats))
}

// Snapshot is the wire form of the scene served by the inspector.
type Snapshot struct {
	TakenAt time.Time        `json:"taken_at"`
	Engine  EngineSnapshot   `json:"engine"`
	Physics *PhysicsSnapshot `json:"physics,omitempty"`
	Camera  string           `json:"camera,omitempty"`
	Objects []ObjectSnapshot `json:"objects"`
}

type EngineSnapshot struct {
	Frames       uint64  `json:"frames"`
	FixedTicks   uint64  `json:"fixed_ticks"`
	DroppedTicks uint64  `json:"dropped_ticks"`
	Renders      uint64  `json:"renders"`
	FPS          float64 `json:"fps"`
}

// PhysicsSnapshot describes the last physics tick.
type PhysicsSnapshot struct {
	Tick          uint64        `json:"tick"`
	Participants  int           `json:"participants"`
	Skipped       int           `json:"skipped"`
	Contacts      int           `json:"contacts"`
	ContactPoints int           `json:"contact_points"`
	Islands       int           `json:"islands"`
	ActiveBodies  int           `json:"active_bodies"`
	Duration      time.Duration `json:"duration_ns"`
}

type ObjectSnapshot struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Parent     string     `json:"parent,omitempty"`
	Depth      int        `json:"depth"`
	Position   [3]float32 `json:"position"`
	Rotation   [4]float32 `json:"rotation"`
	Scale      [3]float32 `json:"scale"`
	Components []string   `json:"components"`
	Touching   []string   `json:"touching,omitempty"`
}

// physicsTracker keeps the latest stepped event published by the bridge.
type physicsTracker struct {
	last atomic.Pointer[PhysicsSnapshot]
	sub  bus.Subscription
}

func trackPhysics(b bus.EventBus) (*physicsTracker, error) {
	t := &physicsTracker{}
	if b == nil {
		return t, nil
	}
	sub, err := bus.SubscribeData(b, scene.EventPhysicsStepped, func(e scene.SteppedEvent) error {
		t.last.Store(&PhysicsSnapshot{
			Tick:          e.Tick,
			Participants:  e.Participants,
			Skipped:       e.Skipped,
			Contacts:      e.Contacts,
			ContactPoints: e.Counters.ContactPoints,
			Islands:       e.Counters.Islands,
			ActiveBodies:  e.Counters.ActiveBodies,
			Duration:      e.Duration,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.sub = sub
	return t, nil
}

func (t *physicsTracker) stop() {
	if t.sub != nil {
		_ = t.sub.Cancel()
	}
}

// Take copies the scene through src. Only plain values leave the lock.
func Take(src Source, physics *PhysicsSnapshot) Snapshot {
	var snap Snapshot
	src.Snapshot(func(s *scene.Scene, stats engine.Stats) {
		snap.Engine = EngineSnapshot{
			Frames:       stats.Frames,
			FixedTicks:   stats.FixedTicks,
			DroppedTicks: stats.DroppedTicks,
			Renders:      stats.Renders,
			FPS:          stats.FPS,
		}
		if cam := s.Camera(); cam != nil {
			snap.Camera = cam.ID().String()
		}
		snap.Objects = make([]ObjectSnapshot, 0, 16)
		s.Walk(func(obj *models.GameObject) bool {
			snap.Objects = append(snap.Objects, describe(obj))
			return true
		})
	})
	if physics != nil {
		p := *physics
		snap.Physics = &p
	}
	snap.TakenAt = time.Now()
	return snap
}

func describe(obj *models.GameObject) ObjectSnapshot {
	t := obj.Transform()
	out := ObjectSnapshot{
		ID:       obj.ID().String(),
		Name:     obj.Name(),
		Depth:    obj.Depth(),
		Position: t.Position,
		Rotation: [4]float32{t.Rotation.W, t.Rotation.V[0], t.Rotation.V[1], t.Rotation.V[2]},
		Scale:    t.Scale,
	}
	if parent := obj.Parent(); parent != nil {
		out.Parent = parent.ID().String()
	}
	cm := obj.Components()
	out.Components = make([]string, 0, cm.Len())
	cm.Each(func(c models.Component) bool {
		out.Components = append(out.Components, c.TypeName())
		return true
	})
	if col, ok := models.Get[*components.Collider](cm); ok {
		for _, id := range col.Touching() {
			out.Touching = append(out.Touching, id.String())
		}
	}
	return out
}
