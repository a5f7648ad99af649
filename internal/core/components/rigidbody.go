package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/physics"
	"github.com/zeusync/glengine/internal/core/transform"
)

// RigidBody owns the persistent state of one physics body. The physics
// world that steps it only lives for a single tick.
type RigidBody struct {
	body   physics.RigidBody
	pushed bool
}

func NewRigidBody(body physics.RigidBody) *RigidBody {
	return &RigidBody{body: body.Detached()}
}

func (c *RigidBody) TypeName() string { return "rigid_body" }

// Setup seeds the body from the owner's pose.
func (c *RigidBody) Setup(owner *models.GameObjectData) error {
	c.SetTransform(owner.Transform)
	return nil
}

// PushTransform moves the body to a pose set by game logic.
func (c *RigidBody) PushTransform(t transform.Transform) {
	c.SetTransform(t)
	c.body.WakeUp()
	c.pushed = true
}

// TakePushed reports whether PushTransform ran since the last call.
func (c *RigidBody) TakePushed() bool {
	pushed := c.pushed
	c.pushed = false
	return pushed
}

func (c *RigidBody) SetTransform(t transform.Transform) {
	c.body.SetTranslation(t.Position, false)
	c.body.SetRotation(t.Rotation, false)
}

// Body gives access to the stored body, e.g. to apply impulses before the
// next tick.
func (c *RigidBody) Body() *physics.RigidBody { return &c.body }

// SetBody stores the state produced by a physics step.
func (c *RigidBody) SetBody(body physics.RigidBody) { c.body = body.Detached() }

func (c *RigidBody) Position() mgl32.Vec3 { return c.body.Translation() }
func (c *RigidBody) Rotation() mgl32.Quat { return c.body.Rotation() }

var (
	_ models.Setup           = (*RigidBody)(nil)
	_ models.TransformPusher = (*RigidBody)(nil)
)
