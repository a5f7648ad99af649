package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/glengine/internal/core/input"
	"github.com/zeusync/glengine/internal/core/models"
)

const (
	DefaultFreeCamSpeed         = 10
	DefaultFreeCamRotationSpeed = 0.1
)

// FreeCam flies its owner from keyboard and mouse input: WASD moves in the
// view plane, Space and LeftShift move along world Y, the mouse looks
// around and Q/E roll.
type FreeCam struct {
	Speed         float32
	RotationSpeed float32
}

func NewFreeCam() *FreeCam {
	return &FreeCam{Speed: DefaultFreeCamSpeed, RotationSpeed: DefaultFreeCamRotationSpeed}
}

func (f *FreeCam) TypeName() string { return "free_cam" }

func (f *FreeCam) Step(owner *models.GameObjectData, clock models.Clock) error {
	if clock.Input == nil {
		return nil
	}
	dt := clock.Seconds()
	speed := f.Speed * dt
	turn := f.RotationSpeed * dt
	t := &owner.Transform
	forward, right := t.Forward(), t.Right()

	if clock.KeyHeld(input.KeyW) {
		t.Position = t.Position.Add(forward.Mul(speed))
	}
	if clock.KeyHeld(input.KeyS) {
		t.Position = t.Position.Sub(forward.Mul(speed))
	}
	if clock.KeyHeld(input.KeyD) {
		t.Position = t.Position.Add(right.Mul(speed))
	}
	if clock.KeyHeld(input.KeyA) {
		t.Position = t.Position.Sub(right.Mul(speed))
	}
	if clock.KeyHeld(input.KeySpace) {
		t.Position[1] += speed
	}
	if clock.KeyHeld(input.KeyLeftShift) {
		t.Position[1] -= speed
	}

	delta := clock.Input.MouseDelta
	// pitch in local space, yaw around world up
	t.Rotation = t.Rotation.Mul(mgl32.QuatRotate(turn*float32(delta[1]), mgl32.Vec3{1, 0, 0}))
	t.Rotation = mgl32.QuatRotate(-turn*float32(delta[0]), mgl32.Vec3{0, 1, 0}).Mul(t.Rotation)
	if clock.KeyHeld(input.KeyQ) {
		t.Rotation = t.Rotation.Mul(mgl32.QuatRotate(speed*0.1, mgl32.Vec3{0, 0, 1}))
	}
	if clock.KeyHeld(input.KeyE) {
		t.Rotation = t.Rotation.Mul(mgl32.QuatRotate(-speed*0.1, mgl32.Vec3{0, 0, 1}))
	}
	t.Rotation = t.Rotation.Normalize()
	return nil
}
