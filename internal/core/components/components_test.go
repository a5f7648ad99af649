package components

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/glengine/internal/core/input"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/physics"
	"github.com/zeusync/glengine/internal/core/transform"
)

func TestRigidBodySeededFromOwner(t *testing.T) {
	pose := transform.At(mgl32.Vec3{1, 2, 3}).WithRotation(mgl32.QuatRotate(1, mgl32.Vec3{0, 1, 0}))
	obj := models.NewWithTransform(nil, "crate", pose)
	rb := NewRigidBody(physics.Dynamic().Build())
	require.NoError(t, obj.AddComponent(rb))

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, rb.Position())
	assert.True(t, rb.Rotation().ApproxEqualThreshold(pose.Rotation, 1e-6))

	got, ok := models.Get[*RigidBody](obj.Components())
	require.True(t, ok)
	assert.Same(t, rb, got)

	assert.False(t, rb.TakePushed())

	pusher, ok := models.Find[models.TransformPusher](obj.Components())
	require.True(t, ok)
	pusher.PushTransform(transform.At(mgl32.Vec3{0, 5, 0}))
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, rb.Position())
	assert.True(t, rb.TakePushed())
	assert.False(t, rb.TakePushed())
}

func TestRotatingStep(t *testing.T) {
	obj := models.New(nil, "spinner")
	require.NoError(t, obj.AddComponent(NewRotating(mgl32.Vec3{0, math.Pi / 2, 0})))

	require.NoError(t, obj.StepRecursive(models.Clock{Delta: time.Second}))

	forward := obj.Transform().Forward()
	assert.InDelta(t, -1, forward[0], 1e-5)
	assert.InDelta(t, 0, forward[2], 1e-5)
}

func TestFreeCamMovesForward(t *testing.T) {
	obj := models.New(nil, "camera")
	require.NoError(t, obj.AddComponent(NewFreeCam()))

	state := input.NewState()
	changes := input.NewState()
	changes.Keyboard.Add(input.KeyW, input.Press)
	state.Merge(changes)

	require.NoError(t, obj.StepRecursive(models.Clock{Delta: 100 * time.Millisecond, Input: state}))
	assert.InDelta(t, -1, obj.Transform().Position[2], 1e-5)

	// no input snapshot: nothing moves
	require.NoError(t, obj.StepRecursive(models.Clock{Delta: time.Second}))
	assert.InDelta(t, -1, obj.Transform().Position[2], 1e-5)
}

func TestColliderFromMeshes(t *testing.T) {
	cube := Mesh{
		Vertices: []float32{
			-1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
			-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7},
	}
	hull, err := HullFromMesh(cube, 0.5)
	require.NoError(t, err)
	require.Equal(t, 1, hull.Len())
	assert.Equal(t, physics.ShapeConvexHull, hull.Colliders()[0].Shape().Type())

	mesh, err := TriMeshFromMeshes([]Mesh{cube, cube}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, mesh.Len())

	_, err = HullFromMesh(Mesh{Vertices: []float32{0, 0}}, 1)
	assert.ErrorIs(t, err, ErrInvalidMesh)

	_, err = HullFromMesh(Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 1, 1, 0}}, 1)
	assert.ErrorIs(t, err, physics.ErrInvalidShape)

	_, err = TriMeshFromMesh(Mesh{Vertices: cube.Vertices, Indices: []uint32{0, 1}}, 1)
	assert.ErrorIs(t, err, ErrInvalidMesh)
}

func TestColliderTouching(t *testing.T) {
	c := NewCollider(physics.BallCollider(1).Build())
	id := uuid.New()
	assert.False(t, c.IsTouching(id))
	c.SetTouching([]uuid.UUID{id})
	assert.True(t, c.IsTouching(id))
	assert.Len(t, c.Touching(), 1)
}

func TestDrawableForwardsToDrawer(t *testing.T) {
	var got mgl32.Mat4
	d := NewDrawable(DrawerFunc(func(model, _ mgl32.Mat4, _ []LightData) { got = model }))
	d.Draw(mgl32.Translate3D(1, 0, 0), mgl32.Ident4(), nil)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), got)

	assert.NotPanics(t, func() { (&Drawable{}).Draw(mgl32.Ident4(), mgl32.Ident4(), nil) })
}
