package scene

import (
	"runtime"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/events/bus"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/physics"
	"github.com/zeusync/glengine/internal/core/transform"
)

const tick = time.Second / 60

func newBridge(t testing.TB, eventBus bus.EventBus, mutate ...func(*BridgeOptions)) *PhysicsBridge {
	t.Helper()
	opts := DefaultBridgeOptions()
	for _, fn := range mutate {
		fn(&opts)
	}
	b, err := NewPhysicsBridge(nil, eventBus, opts)
	require.NoError(t, err)
	return b
}

func addPhysics(t testing.TB, obj *models.GameObject, body physics.RigidBody, col physics.Collider) {
	t.Helper()
	require.NoError(t, obj.AddComponent(components.NewRigidBody(body)))
	require.NoError(t, obj.AddComponent(components.NewCollider(col)))
}

// addFloor adds a fixed slab whose top face is at y = 0.
func addFloor(t testing.TB, s *Scene) *models.GameObject {
	t.Helper()
	floor := models.NewWithTransform(nil, "floor", transform.At(mgl32.Vec3{0, -0.5, 0}))
	addPhysics(t, floor, physics.Fixed().Build(), physics.CuboidCollider(10, 0.5, 10).Build())
	require.NoError(t, s.Add(floor))
	return floor
}

func run(t *testing.T, s *Scene, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		require.NoError(t, s.FixedStepRecursive(models.Clock{Delta: tick, Frame: uint64(i)}))
	}
}

func TestCollectPairsOnly(t *testing.T) {
	b := newBridge(t, nil)
	root := models.New(nil, "root")
	child := models.New(root, "child")
	addPhysics(t, child, physics.Dynamic().Build(), physics.BallCollider(0.5).Build())
	loose := models.New(child, "collider_only")
	require.NoError(t, loose.AddComponent(components.NewCollider(physics.BallCollider(1).Build())))
	models.New(root, "empty")

	got, skipped, err := b.Collect(nil, []*models.GameObject{root})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Same(t, child, got[0].Object)
	assert.Equal(t, 1, skipped)

	strict := newBridge(t, nil, func(o *BridgeOptions) { o.Pairing = PairingStrict })
	got, _, err = strict.Collect(nil, []*models.GameObject{root})
	assert.ErrorIs(t, err, ErrUnpairedComponent)
	assert.Len(t, got, 1)
}

func TestStrictPairingStillSteps(t *testing.T) {
	s := New(nil, newBridge(t, nil, func(o *BridgeOptions) { o.Pairing = PairingStrict }))
	ball := s.NewObject("ball")
	ball.SetTransform(transform.At(mgl32.Vec3{0, 10, 0}))
	addPhysics(t, ball, physics.Dynamic().Build(), physics.BallCollider(0.5).Build())
	lonely := s.NewObject("lonely")
	require.NoError(t, lonely.AddComponent(components.NewRigidBody(physics.Dynamic().Build())))

	err := s.FixedStepRecursive(models.Clock{Delta: tick})
	require.ErrorIs(t, err, ErrUnpairedComponent)
	assert.Less(t, ball.Transform().Position[1], float32(10))
	assert.Equal(t, 1, s.Bridge().Stats().Skipped)
}

func TestParsePairingPolicy(t *testing.T) {
	p, err := ParsePairingPolicy(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, PairingStrict, p)
	p, err = ParsePairingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PairingSkip, p)
	_, err = ParsePairingPolicy("lenient")
	assert.Error(t, err)
}

func TestZeroDtTickIsIdempotent(t *testing.T) {
	b := newBridge(t, nil, func(o *BridgeOptions) { o.Params.Dt = 0 })
	s := New(nil, b)
	pose := transform.At(mgl32.Vec3{1, 2, 3}).WithRotation(mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}))
	obj := models.NewWithTransform(nil, "crate", pose)
	addPhysics(t, obj, physics.Dynamic().Build(), physics.CuboidCollider(0.5, 0.5, 0.5).Build())
	require.NoError(t, s.Add(obj))

	run(t, s, 1)
	first := obj.Transform()
	run(t, s, 1)

	assert.Equal(t, first, obj.Transform())
	assert.True(t, first.ApproxEqual(pose, 1e-6))
	assert.Equal(t, uint64(2), b.Stats().Ticks)
}

func TestEditedTransformReachesBody(t *testing.T) {
	eventBus := bus.New()
	s := New(nil, newBridge(t, eventBus))
	obj := s.NewObject("crate")
	addPhysics(t, obj, physics.Dynamic().GravityScale(0).Build(), physics.CuboidCollider(0.5, 0.5, 0.5).Build())

	var seen []mgl32.Vec3
	_, err := eventBus.Subscribe(EventPhysicsAssembled, func(e bus.Event) error {
		ev := e.Data().(AssembledEvent)
		for _, p := range ev.Participants {
			if p.Object == obj {
				seen = append(seen, p.Body.Body().Translation())
			}
		}
		return nil
	})
	require.NoError(t, err)

	run(t, s, 1)
	obj.SetTransform(obj.Transform().WithPosition(mgl32.Vec3{5, 5, 5}))
	run(t, s, 1)

	require.Len(t, seen, 2)
	assert.Equal(t, mgl32.Vec3{5, 5, 5}, seen[1])
	assert.InDelta(t, 5, obj.Transform().Position[1], 1e-3)
}

func TestSteppedEventPublished(t *testing.T) {
	eventBus := bus.New()
	s := New(nil, newBridge(t, eventBus))
	addFloor(t, s)

	var events []SteppedEvent
	_, err := eventBus.Subscribe(EventPhysicsStepped, func(e bus.Event) error {
		events = append(events, e.Data().(SteppedEvent))
		return nil
	})
	require.NoError(t, err)

	run(t, s, 3)
	require.Len(t, events, 3)
	assert.Equal(t, uint64(3), events[2].Tick)
	assert.Equal(t, 1, events[2].Participants)
}

func TestBoxSettlesOnFloor(t *testing.T) {
	s := New(nil, newBridge(t, nil))
	floor := addFloor(t, s)
	box := models.NewWithTransform(nil, "box", transform.At(mgl32.Vec3{0, 3, 0}))
	addPhysics(t, box, physics.Dynamic().LockRotations().Build(), physics.CuboidCollider(0.5, 0.5, 0.5).Build())
	require.NoError(t, s.Add(box))

	run(t, s, 240)

	assert.InDelta(t, 0.5, box.Transform().Position[1], 0.05)
	assert.InDelta(t, -0.5, floor.Transform().Position[1], 1e-6)

	boxCol, ok := models.Get[*components.Collider](box.Components())
	require.True(t, ok)
	floorCol, ok := models.Get[*components.Collider](floor.Components())
	require.True(t, ok)
	boxBody, ok := models.Get[*components.RigidBody](box.Components())
	require.True(t, ok)
	assert.True(t, boxBody.Body().IsSleeping())
	assert.True(t, boxCol.IsTouching(floor.ID()))
	assert.True(t, floorCol.IsTouching(box.ID()))
	assert.Equal(t, 1, s.Bridge().Stats().Contacts)
}

// settledBox drops a box on the floor and runs until it sleeps.
func settledBox(t *testing.T, s *Scene) *models.GameObject {
	t.Helper()
	box := models.NewWithTransform(nil, "box", transform.At(mgl32.Vec3{0, 1, 0}))
	addPhysics(t, box, physics.Dynamic().LockRotations().Build(), physics.CuboidCollider(0.5, 0.5, 0.5).Build())
	require.NoError(t, s.Add(box))
	run(t, s, 240)

	body, ok := models.Get[*components.RigidBody](box.Components())
	require.True(t, ok)
	require.True(t, body.Body().IsSleeping())
	return box
}

func TestSleeperFallsWhenFloorRemoved(t *testing.T) {
	s := New(nil, newBridge(t, nil))
	floor := addFloor(t, s)
	box := settledBox(t, s)

	require.NoError(t, s.Remove(floor))
	run(t, s, 60)

	body, _ := models.Get[*components.RigidBody](box.Components())
	assert.False(t, body.Body().IsSleeping())
	assert.Less(t, box.Transform().Position[1], float32(0))
	assert.Zero(t, s.Bridge().Stats().Contacts)
}

// sink moves its owner down once armed.
type sink struct {
	armed bool
	to    mgl32.Vec3
}

func (k *sink) TypeName() string { return "sink" }

func (k *sink) Step(owner *models.GameObjectData, _ models.Clock) error {
	if k.armed {
		k.armed = false
		owner.Transform.Position = k.to
	}
	return nil
}

func TestSleeperFollowsLoweredFloor(t *testing.T) {
	s := New(nil, newBridge(t, nil))
	floor := addFloor(t, s)
	lower := &sink{to: mgl32.Vec3{0, -4, 0}}
	require.NoError(t, floor.AddComponent(lower))
	box := settledBox(t, s)

	lower.armed = true
	for i := 0; i < 120; i++ {
		clock := models.Clock{Delta: tick, Frame: uint64(i)}
		require.NoError(t, s.StepRecursive(clock))
		require.NoError(t, s.FixedStepRecursive(clock))
	}

	assert.InDelta(t, -4, floor.Transform().Position[1], 1e-6)
	assert.InDelta(t, -3, box.Transform().Position[1], 0.05)
	boxCol, _ := models.Get[*components.Collider](box.Components())
	assert.True(t, boxCol.IsTouching(floor.ID()))
}

func TestPushedFloorWakesRestingBox(t *testing.T) {
	s := New(nil, newBridge(t, nil))
	floor := addFloor(t, s)
	box := settledBox(t, s)

	// raise the floor into the box; only the push can wake it
	floor.SetTransform(floor.Transform().WithPosition(mgl32.Vec3{0, -0.2, 0}))
	run(t, s, 1)

	body, _ := models.Get[*components.RigidBody](box.Components())
	assert.False(t, body.Body().IsSleeping())

	run(t, s, 120)
	assert.InDelta(t, 0.8, box.Transform().Position[1], 0.05)
}

func TestContactEvents(t *testing.T) {
	eventBus := bus.New()
	s := New(nil, newBridge(t, eventBus))
	floor := addFloor(t, s)

	var started, stopped []ContactEvent
	_, err := eventBus.Subscribe(EventContactStarted, func(e bus.Event) error {
		started = append(started, e.Data().(ContactEvent))
		return nil
	})
	require.NoError(t, err)
	_, err = eventBus.Subscribe(EventContactStopped, func(e bus.Event) error {
		stopped = append(stopped, e.Data().(ContactEvent))
		return nil
	})
	require.NoError(t, err)

	box := settledBox(t, s)
	require.NotEmpty(t, started)
	assert.Len(t, stopped, len(started)-1)
	last := started[len(started)-1]
	assert.ElementsMatch(t, []uuid.UUID{box.ID(), floor.ID()}, []uuid.UUID{last.A, last.B})

	require.NoError(t, s.Remove(floor))
	run(t, s, 1)
	require.Len(t, stopped, len(started))
	last = stopped[len(stopped)-1]
	assert.ElementsMatch(t, []uuid.UUID{box.ID(), floor.ID()}, []uuid.UUID{last.A, last.B})
}

func TestNestedParticipantIsStepped(t *testing.T) {
	s := New(nil, newBridge(t, nil))
	addFloor(t, s)
	holder := models.NewWithTransform(nil, "holder", transform.Identity())
	require.NoError(t, s.Add(holder))
	ball := models.NewWithTransform(holder, "ball", transform.At(mgl32.Vec3{0, 2, 0}))
	addPhysics(t, ball, physics.Dynamic().Build(), physics.BallCollider(0.5).Build())

	run(t, s, 240)
	assert.InDelta(t, 0.5, ball.Transform().Position[1], 0.05)
}

type spawner struct {
	scene *Scene
	done  bool
}

func (sp *spawner) TypeName() string { return "spawner" }

func (sp *spawner) Step(_ *models.GameObjectData, _ models.Clock) error {
	if !sp.done {
		sp.done = true
		sp.scene.NewObject("spawned")
	}
	return nil
}

type counter struct{ n int }

func (c *counter) TypeName() string { return "counter" }

func (c *counter) Step(_ *models.GameObjectData, _ models.Clock) error {
	c.n++
	return nil
}

func TestAddDuringStepIsDeferred(t *testing.T) {
	s := New(nil, nil)
	root := s.NewObject("root")
	require.NoError(t, root.AddComponent(&spawner{scene: s}))

	require.NoError(t, s.StepRecursive(models.Clock{Delta: tick}))
	require.Len(t, s.Roots(), 2)
	assert.Equal(t, "spawned", s.Roots()[1].Name())

	c := &counter{}
	require.NoError(t, s.Roots()[1].AddComponent(c))
	require.NoError(t, s.StepRecursive(models.Clock{Delta: tick}))
	assert.Equal(t, 1, c.n)
}

func TestAddRejectsChild(t *testing.T) {
	s := New(nil, nil)
	root := s.NewObject("root")
	child := models.New(root, "child")
	assert.ErrorIs(t, s.Add(child), ErrNotRoot)
	assert.ErrorIs(t, s.Add(nil), models.ErrNilObject)
	assert.Equal(t, 2, s.Len())
	assert.Same(t, child, s.Find(child.ID()))

	require.NoError(t, s.Remove(child))
	assert.Equal(t, 1, s.Len())
	require.NoError(t, s.Remove(root))
	assert.Empty(t, s.Roots())
	assert.ErrorIs(t, s.Remove(root), ErrNotInScene)
}

func TestRenderAccumulatesParents(t *testing.T) {
	s := New(nil, nil)
	assert.Zero(t, s.Render())

	cam, err := NewCamera(nil, "camera", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0},
		mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100))
	require.NoError(t, err)
	require.NoError(t, s.Add(cam))
	require.NoError(t, s.SetCamera(cam))

	parent := models.NewWithTransform(nil, "parent", transform.At(mgl32.Vec3{1, 0, 0}))
	require.NoError(t, s.Add(parent))
	child := models.NewWithTransform(parent, "child", transform.At(mgl32.Vec3{0, 1, 0}))

	var drawn []mgl32.Mat4
	var views []mgl32.Mat4
	require.NoError(t, child.AddComponent(components.NewDrawable(components.DrawerFunc(
		func(model, view mgl32.Mat4, _ []components.LightData) {
			drawn = append(drawn, model)
			views = append(views, view)
		}))))

	assert.Equal(t, 1, s.Render())
	require.Len(t, drawn, 1)
	origin := drawn[0].Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 1, origin[0], 1e-5)
	assert.InDelta(t, 1, origin[1], 1e-5)

	eye := views[0].Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -5, eye[2], 1e-4)
}

func TestSetCameraRequiresComponent(t *testing.T) {
	s := New(nil, nil)
	plain := s.NewObject("plain")
	assert.ErrorIs(t, s.SetCamera(plain), ErrNoCamera)
	assert.Nil(t, s.Camera())
}

func TestCameraReleasedWithObject(t *testing.T) {
	s := New(nil, nil)
	func() {
		cam, err := NewCamera(nil, "temp", mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, mgl32.Ident4())
		require.NoError(t, err)
		require.NoError(t, s.SetCamera(cam))
	}()
	runtime.GC()
	assert.Nil(t, s.Camera())
	assert.Zero(t, s.Render())
}
