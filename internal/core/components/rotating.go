package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/glengine/internal/core/models"
)

// Rotating spins its owner by Direction radians per second around the local
// X, Y and Z axes, in that order.
type Rotating struct {
	Direction mgl32.Vec3
}

func NewRotating(direction mgl32.Vec3) *Rotating {
	return &Rotating{Direction: direction}
}

func (r *Rotating) TypeName() string { return "rotating" }

func (r *Rotating) Step(owner *models.GameObjectData, clock models.Clock) error {
	angles := r.Direction.Mul(clock.Seconds())
	q := owner.Transform.Rotation
	q = q.Mul(mgl32.QuatRotate(angles[0], mgl32.Vec3{1, 0, 0}))
	q = q.Mul(mgl32.QuatRotate(angles[1], mgl32.Vec3{0, 1, 0}))
	q = q.Mul(mgl32.QuatRotate(angles[2], mgl32.Vec3{0, 0, 1}))
	owner.Transform.Rotation = q.Normalize()
	return nil
}
