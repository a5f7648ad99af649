package physics

import "github.com/go-gl/mathgl/mgl32"

// Collider attaches a shape to a body (or to the world when it has no
// parent). Its local pose is relative to the parent body.
type Collider struct {
	shape         Shape
	localPosition Vec3
	localRotation Quat
	density       float32
	friction      float32
	restitution   float32
	sensor        bool

	parent    BodyHandle
	hasParent bool

	position Vec3
	rotation Quat
	aabb     AABB
}

func (c *Collider) Shape() Shape               { return c.shape }
func (c *Collider) Density() float32           { return c.density }
func (c *Collider) Friction() float32          { return c.friction }
func (c *Collider) Restitution() float32       { return c.restitution }
func (c *Collider) IsSensor() bool             { return c.sensor }
func (c *Collider) Parent() (BodyHandle, bool) { return c.parent, c.hasParent }
func (c *Collider) Position() Vec3             { return c.position }
func (c *Collider) Rotation() Quat             { return c.rotation }
func (c *Collider) AABB() AABB                 { return c.aabb }
func (c *Collider) LocalPosition() Vec3        { return c.localPosition }
func (c *Collider) LocalRotation() Quat        { return c.localRotation }
func (c *Collider) SetFriction(f float32)      { c.friction = f }
func (c *Collider) SetRestitution(r float32)   { c.restitution = r }

// Detached returns a copy without parent information.
func (c *Collider) Detached() Collider {
	out := *c
	out.parent, out.hasParent = BodyHandle{}, false
	return out
}

// massProperties returns the collider's mass expressed around the parent
// body origin, inertia reduced to the body-frame diagonal.
func (c *Collider) massProperties() MassProperties {
	if c.sensor {
		return MassProperties{}
	}
	mp := c.shape.MassProperties(c.density)
	if mp.Mass == 0 {
		return mp
	}
	r := c.localRotation.Normalize().Mat4().Mat3()
	rotated := r.Mul3(mgl32.Diag3(mp.Inertia)).Mul3(r.Transpose())
	d := c.localPosition
	return MassProperties{
		Mass: mp.Mass,
		Inertia: Vec3{
			rotated.At(0, 0) + mp.Mass*(d[1]*d[1]+d[2]*d[2]),
			rotated.At(1, 1) + mp.Mass*(d[0]*d[0]+d[2]*d[2]),
			rotated.At(2, 2) + mp.Mass*(d[0]*d[0]+d[1]*d[1]),
		},
	}
}

func (c *Collider) updatePose(body *RigidBody) {
	if body == nil {
		c.position = c.localPosition
		c.rotation = c.localRotation
	} else {
		c.position = body.position.Add(body.rotation.Rotate(c.localPosition))
		c.rotation = body.rotation.Mul(c.localRotation).Normalize()
	}
	c.aabb = c.shape.LocalAABB().Transformed(c.position, c.rotation)
}

// toLocal maps a world point into the collider frame.
func (c *Collider) toLocal(p Vec3) Vec3 {
	return c.rotation.Conjugate().Rotate(p.Sub(c.position))
}

func (c *Collider) toWorld(p Vec3) Vec3 {
	return c.position.Add(c.rotation.Rotate(p))
}

// support returns the world-space support point of a convex collider.
func (c *Collider) support(shape SupportMap, dir Vec3) Vec3 {
	local := shape.LocalSupport(c.rotation.Conjugate().Rotate(dir))
	return c.toWorld(local)
}

type ColliderBuilder struct {
	collider Collider
}

func NewColliderBuilder(shape Shape) ColliderBuilder {
	return ColliderBuilder{collider: Collider{
		shape:         shape,
		localRotation: mgl32.QuatIdent(),
		rotation:      mgl32.QuatIdent(),
		density:       1,
		friction:      0.5,
	}}
}

func BallCollider(radius float32) ColliderBuilder {
	return NewColliderBuilder(&Ball{Radius: radius})
}

func CuboidCollider(hx, hy, hz float32) ColliderBuilder {
	return NewColliderBuilder(&Cuboid{HalfExtents: Vec3{hx, hy, hz}})
}

func ConvexHullCollider(points []Vec3) (ColliderBuilder, error) {
	hull, err := NewConvexHull(points)
	if err != nil {
		return ColliderBuilder{}, err
	}
	return NewColliderBuilder(hull), nil
}

func TriMeshCollider(vertices []Vec3, indices [][3]uint32) (ColliderBuilder, error) {
	mesh, err := NewTriMesh(vertices, indices)
	if err != nil {
		return ColliderBuilder{}, err
	}
	return NewColliderBuilder(mesh), nil
}

func TriangleCollider(a, b, c Vec3) ColliderBuilder {
	return NewColliderBuilder(&Triangle{A: a, B: b, C: c})
}

func (b ColliderBuilder) Translation(v Vec3) ColliderBuilder {
	b.collider.localPosition = v
	return b
}

func (b ColliderBuilder) Rotation(q Quat) ColliderBuilder {
	b.collider.localRotation = q.Normalize()
	return b
}

func (b ColliderBuilder) Density(d float32) ColliderBuilder     { b.collider.density = d; return b }
func (b ColliderBuilder) Friction(f float32) ColliderBuilder    { b.collider.friction = f; return b }
func (b ColliderBuilder) Restitution(r float32) ColliderBuilder { b.collider.restitution = r; return b }
func (b ColliderBuilder) Sensor(s bool) ColliderBuilder         { b.collider.sensor = s; return b }

func (b ColliderBuilder) Build() Collider {
	c := b.collider
	c.updatePose(nil)
	return c
}
