package scene

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/events/bus"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/observability/log"
	"github.com/zeusync/glengine/internal/core/physics"
	"github.com/zeusync/glengine/pkg/generic"
)

var ErrUnpairedComponent = errors.New("scene: rigid body and collider must be attached together")

// Event types published by the bridge.
const (
	EventPhysicsAssembled = "physics.assembled"
	EventPhysicsStepped   = "physics.stepped"
	EventContactStarted   = "physics.contact_started"
	EventContactStopped   = "physics.contact_stopped"
)

// PairingPolicy decides what happens to an object carrying only one of the
// rigid body and collider components.
type PairingPolicy uint8

const (
	// PairingSkip leaves the object out of the tick and logs at debug level.
	PairingSkip PairingPolicy = iota
	// PairingStrict also leaves the object out but fails the tick with
	// ErrUnpairedComponent once every paired object has been stepped.
	PairingStrict
)

func ParsePairingPolicy(s string) (PairingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return PairingSkip, nil
	case "strict":
		return PairingStrict, nil
	default:
		return PairingSkip, fmt.Errorf("unknown pairing policy %q", s)
	}
}

func (p PairingPolicy) String() string {
	if p == PairingStrict {
		return "strict"
	}
	return "skip"
}

// Participant is an object taking part in one physics tick.
type Participant struct {
	Object   *models.GameObject
	Body     *components.RigidBody
	Collider *components.Collider
}

// AssembledEvent is published once the tick's world is built, before it is
// stepped. Participants is reused after delivery and must not be retained.
type AssembledEvent struct {
	Tick         uint64
	Participants []Participant
}

// SteppedEvent is published after writeback.
type SteppedEvent struct {
	Tick         uint64
	Participants int
	Skipped      int
	Contacts     int
	Counters     physics.Counters
	Duration     time.Duration
}

// ContactEvent reports two participants starting or stopping to touch.
// A sorts before B.
type ContactEvent struct {
	Tick uint64
	A, B uuid.UUID
}

type contactPair struct {
	a, b uuid.UUID
}

func makeContactPair(x, y uuid.UUID) contactPair {
	if bytes.Compare(y[:], x[:]) < 0 {
		x, y = y, x
	}
	return contactPair{a: x, b: y}
}

type BridgeOptions struct {
	Gravity mgl32.Vec3
	Params  physics.IntegrationParameters
	Pairing PairingPolicy
}

func DefaultBridgeOptions() BridgeOptions {
	return BridgeOptions{
		Gravity: mgl32.Vec3{0, -9.81, 0},
		Params:  physics.DefaultIntegrationParameters(),
	}
}

// BridgeStats describe the last tick.
type BridgeStats struct {
	Ticks        uint64
	Participants int
	Skipped      int
	Contacts     int
	LastStep     time.Duration
}

// PhysicsBridge couples the object tree to the physics engine. Every tick
// it collects participants, builds a fresh world from their components,
// steps it once and writes the results back. No world state survives the
// tick; the components own the persistent body and collider data.
type PhysicsBridge struct {
	log     log.Log
	bus     bus.EventBus
	gravity mgl32.Vec3
	params  physics.IntegrationParameters
	pairing PairingPolicy

	participants *generic.SlicePool[Participant]
	stats        BridgeStats

	// state carried between ticks, keyed by object id
	present  map[uuid.UUID]struct{}
	contacts map[contactPair]struct{}
}

// NewPhysicsBridge validates opts. logger and eventBus may be nil.
func NewPhysicsBridge(logger log.Log, eventBus bus.EventBus, opts BridgeOptions) (*PhysicsBridge, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	return &PhysicsBridge{
		log:          log.OrNop(logger).With(log.String("component", "physics_bridge")),
		bus:          eventBus,
		gravity:      opts.Gravity,
		params:       opts.Params,
		pairing:      opts.Pairing,
		participants: generic.NewSlicePool[Participant](64, 4096),
		present:      make(map[uuid.UUID]struct{}),
		contacts:     make(map[contactPair]struct{}),
	}, nil
}

func (b *PhysicsBridge) Stats() BridgeStats                    { return b.stats }
func (b *PhysicsBridge) Params() physics.IntegrationParameters { return b.params }
func (b *PhysicsBridge) Gravity() mgl32.Vec3                   { return b.gravity }
func (b *PhysicsBridge) SetGravity(g mgl32.Vec3)               { b.gravity = g }
func (b *PhysicsBridge) Pairing() PairingPolicy                { return b.pairing }

// Collect appends to dst every object under roots that carries both a
// RigidBody and a Collider, depth first. It returns the number of unpaired
// objects and, under the strict policy, an error naming them.
func (b *PhysicsBridge) Collect(dst []Participant, roots []*models.GameObject) ([]Participant, int, error) {
	var errs []error
	skipped := 0
	for _, root := range roots {
		root.Walk(func(obj *models.GameObject) bool {
			rb, hasBody := models.Get[*components.RigidBody](obj.Components())
			col, hasCollider := models.Get[*components.Collider](obj.Components())
			switch {
			case hasBody && hasCollider:
				dst = append(dst, Participant{Object: obj, Body: rb, Collider: col})
			case hasBody || hasCollider:
				skipped++
				b.log.Debug("skipping unpaired physics object",
					log.String("object", obj.Name()),
					log.Bool("rigid_body", hasBody),
					log.Bool("collider", hasCollider),
				)
				if b.pairing == PairingStrict {
					errs = append(errs, fmt.Errorf("%w: %q", ErrUnpairedComponent, obj.Name()))
				}
			}
			return true
		})
	}
	return dst, skipped, errors.Join(errs...)
}

type world struct {
	bodies    *physics.RigidBodySet
	colliders *physics.ColliderSet
	joints    *physics.ImpulseJointSet
	pipeline  *physics.PhysicsPipeline
	handles   []physics.BodyHandle
	owners    map[physics.ColliderHandle]int
}

// assemble builds the tick's world. Colliders that cannot be attached are
// logged and left out.
func (b *PhysicsBridge) assemble(participants []Participant) *world {
	w := &world{
		bodies:    physics.NewRigidBodySet(),
		colliders: physics.NewColliderSet(),
		joints:    physics.NewImpulseJointSet(),
		pipeline:  physics.NewPhysicsPipeline(),
		handles:   make([]physics.BodyHandle, len(participants)),
		owners:    make(map[physics.ColliderHandle]int, len(participants)),
	}
	for i, p := range participants {
		h := w.bodies.Insert(*p.Body.Body())
		w.handles[i] = h
		for _, c := range p.Collider.Colliders() {
			ch, err := w.colliders.InsertWithParent(c, h, w.bodies)
			if err != nil {
				b.log.Warn("collider rejected", log.String("object", p.Object.Name()), log.Error(err))
				continue
			}
			w.owners[ch] = i
		}
	}
	return w
}

// Step runs one full tick over the objects under roots.
func (b *PhysicsBridge) Step(roots []*models.GameObject) error {
	started := time.Now()
	buf := b.participants.Get()
	defer b.participants.Put(buf)

	participants, skipped, collectErr := b.Collect(*buf, roots)
	*buf = participants
	tick := b.stats.Ticks + 1
	b.wakeNeighbours(participants)

	w := b.assemble(participants)
	b.publish(EventPhysicsAssembled, AssembledEvent{Tick: tick, Participants: participants})

	w.pipeline.Step(b.gravity, &b.params, w.bodies, w.colliders, w.joints)

	contacts := b.recordContacts(tick, w, participants)
	for i, p := range participants {
		body, ok := w.bodies.Get(w.handles[i])
		if !ok {
			continue
		}
		p.Body.SetBody(*body)
		data := p.Object.Data()
		data.Transform.Position = body.Translation()
		data.Transform.Rotation = body.Rotation()
		data.Components.MarkSynced(data.Transform)
	}

	b.stats = BridgeStats{
		Ticks:        tick,
		Participants: len(participants),
		Skipped:      skipped,
		Contacts:     contacts,
		LastStep:     time.Since(started),
	}
	b.publish(EventPhysicsStepped, SteppedEvent{
		Tick:         tick,
		Participants: len(participants),
		Skipped:      skipped,
		Contacts:     contacts,
		Counters:     w.pipeline.Counters(),
		Duration:     b.stats.LastStep,
	})
	return collectErr
}

// wakeNeighbours wakes sleeping participants that touched, on the last
// tick, an object moved by game logic or no longer taking part.
func (b *PhysicsBridge) wakeNeighbours(participants []Participant) {
	var changed map[uuid.UUID]struct{}
	mark := func(id uuid.UUID) {
		if changed == nil {
			changed = make(map[uuid.UUID]struct{})
		}
		changed[id] = struct{}{}
	}

	current := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		current[p.Object.ID()] = struct{}{}
		if p.Body.TakePushed() {
			mark(p.Object.ID())
		}
	}
	for id := range b.present {
		if _, ok := current[id]; !ok {
			mark(id)
		}
	}
	b.present = current
	if changed == nil {
		return
	}

	for _, p := range participants {
		body := p.Body.Body()
		if !body.IsSleeping() {
			continue
		}
		for _, id := range p.Collider.Touching() {
			if _, ok := changed[id]; ok {
				body.WakeUp()
				break
			}
		}
	}
}

// recordContacts stores on each collider component the ids of the objects
// it touched, publishes the pairs that started or stopped touching and
// returns the number of touching pairs.
func (b *PhysicsBridge) recordContacts(tick uint64, w *world, participants []Participant) int {
	touching := make([][]uuid.UUID, len(participants))
	current := make(map[contactPair]struct{}, len(b.contacts))
	for _, m := range w.pipeline.Manifolds() {
		if !m.Touching() {
			continue
		}
		i, ok1 := w.owners[m.Collider1]
		j, ok2 := w.owners[m.Collider2]
		if !ok1 || !ok2 || i == j {
			continue
		}
		idI, idJ := participants[i].Object.ID(), participants[j].Object.ID()
		current[makeContactPair(idI, idJ)] = struct{}{}
		touching[i] = appendUnique(touching[i], idJ)
		touching[j] = appendUnique(touching[j], idI)
	}
	for i, p := range participants {
		p.Collider.SetTouching(touching[i])
	}

	for pair := range current {
		if _, ok := b.contacts[pair]; !ok {
			b.publish(EventContactStarted, ContactEvent{Tick: tick, A: pair.a, B: pair.b})
		}
	}
	for pair := range b.contacts {
		if _, ok := current[pair]; !ok {
			b.publish(EventContactStopped, ContactEvent{Tick: tick, A: pair.a, B: pair.b})
		}
	}
	b.contacts = current
	return len(current)
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func (b *PhysicsBridge) publish(eventType string, data any) {
	if b.bus == nil {
		return
	}
	if err := b.bus.Publish(bus.NewEvent(eventType, "physics_bridge", data, 0, nil)); err != nil {
		b.log.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
