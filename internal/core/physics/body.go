package physics

import "github.com/go-gl/mathgl/mgl32"

type BodyType uint8

const (
	// BodyDynamic is moved by forces, gravity and contacts.
	BodyDynamic BodyType = iota
	// BodyFixed never moves during a step.
	BodyFixed
	// BodyKinematicPositionBased is moved by the user through
	// SetNextKinematicTranslation/Rotation; it pushes dynamic bodies.
	BodyKinematicPositionBased
)

func (t BodyType) String() string {
	switch t {
	case BodyDynamic:
		return "dynamic"
	case BodyFixed:
		return "fixed"
	case BodyKinematicPositionBased:
		return "kinematic"
	default:
		return "unknown"
	}
}

// RigidBody is a plain value. Copying a body detaches it from any set: the
// collider handles it lists are only meaningful inside the set it came from.
type RigidBody struct {
	bodyType BodyType

	position Vec3
	rotation Quat
	linvel   Vec3
	angvel   Vec3

	force  Vec3
	torque Vec3

	linearDamping  float32
	angularDamping float32
	gravityScale   float32
	lockRotations  bool
	additionalMass float32

	mass            float32
	invMass         float32
	invInertiaLocal Vec3

	nextPosition     Vec3
	nextRotation     Quat
	hasNextKinematic bool

	sleeping   bool
	sleepTimer float32

	userData  uint64
	colliders []ColliderHandle
}

func (b *RigidBody) BodyType() BodyType { return b.bodyType }
func (b *RigidBody) IsDynamic() bool    { return b.bodyType == BodyDynamic }
func (b *RigidBody) IsFixed() bool      { return b.bodyType == BodyFixed }
func (b *RigidBody) IsKinematic() bool  { return b.bodyType == BodyKinematicPositionBased }

func (b *RigidBody) Translation() Vec3 { return b.position }
func (b *RigidBody) Rotation() Quat    { return b.rotation }
func (b *RigidBody) Linvel() Vec3      { return b.linvel }
func (b *RigidBody) Angvel() Vec3      { return b.angvel }
func (b *RigidBody) Mass() float32     { return b.mass }
func (b *RigidBody) IsSleeping() bool  { return b.sleeping }
func (b *RigidBody) UserData() uint64  { return b.userData }

func (b *RigidBody) SetUserData(v uint64) { b.userData = v }

// Colliders lists the handles of the colliders attached while the body is
// in a set.
func (b *RigidBody) Colliders() []ColliderHandle { return b.colliders }

func (b *RigidBody) SetTranslation(position Vec3, wakeUp bool) {
	b.position = position
	b.nextPosition = position
	if wakeUp {
		b.WakeUp()
	}
}

func (b *RigidBody) SetRotation(rotation Quat, wakeUp bool) {
	b.rotation = rotation.Normalize()
	b.nextRotation = b.rotation
	if wakeUp {
		b.WakeUp()
	}
}

func (b *RigidBody) SetLinvel(v Vec3, wakeUp bool) {
	b.linvel = v
	if wakeUp {
		b.WakeUp()
	}
}

func (b *RigidBody) SetAngvel(w Vec3, wakeUp bool) {
	b.angvel = w
	if wakeUp {
		b.WakeUp()
	}
}

// SetNextKinematicTranslation schedules the pose a kinematic body reaches at
// the end of the next step. Ignored for other body types.
func (b *RigidBody) SetNextKinematicTranslation(position Vec3) {
	if !b.IsKinematic() {
		return
	}
	b.nextPosition = position
	b.hasNextKinematic = true
}

func (b *RigidBody) SetNextKinematicRotation(rotation Quat) {
	if !b.IsKinematic() {
		return
	}
	b.nextRotation = rotation.Normalize()
	b.hasNextKinematic = true
}

// ApplyImpulse changes the linear velocity of a dynamic body immediately.
func (b *RigidBody) ApplyImpulse(impulse Vec3, wakeUp bool) {
	if !b.IsDynamic() {
		return
	}
	b.linvel = b.linvel.Add(impulse.Mul(b.invMass))
	if wakeUp {
		b.WakeUp()
	}
}

// AddForce accumulates a force applied during the next step only.
func (b *RigidBody) AddForce(force Vec3, wakeUp bool) {
	if !b.IsDynamic() {
		return
	}
	b.force = b.force.Add(force)
	if wakeUp {
		b.WakeUp()
	}
}

func (b *RigidBody) AddTorque(torque Vec3, wakeUp bool) {
	if !b.IsDynamic() {
		return
	}
	b.torque = b.torque.Add(torque)
	if wakeUp {
		b.WakeUp()
	}
}

func (b *RigidBody) WakeUp() {
	b.sleeping = false
	b.sleepTimer = 0
}

func (b *RigidBody) Sleep() {
	if !b.IsDynamic() {
		return
	}
	b.sleeping = true
	b.linvel = Vec3{}
	b.angvel = Vec3{}
}

// Detached returns a copy of b that does not reference any collider handle.
func (b *RigidBody) Detached() RigidBody {
	out := *b
	out.colliders = nil
	return out
}

func (b *RigidBody) awakeDynamic() bool {
	return b.IsDynamic() && !b.sleeping
}

func (b *RigidBody) invInertiaWorld() mgl32.Mat3 {
	if b.invMass == 0 || b.lockRotations {
		return mgl32.Mat3{}
	}
	return worldInverseInertia(b.rotation, b.invInertiaLocal)
}

// setMassProperties folds the attached colliders' mass into the body.
func (b *RigidBody) setMassProperties(mp MassProperties) {
	if !b.IsDynamic() {
		b.mass, b.invMass, b.invInertiaLocal = 0, 0, Vec3{}
		return
	}
	mass := mp.Mass + b.additionalMass
	inertia := mp.Inertia
	if mass <= epsilon {
		mass = 1
	}
	if mp.Mass <= epsilon {
		inertia = Vec3{mass, mass, mass}.Mul(0.4)
	} else if b.additionalMass > 0 {
		inertia = inertia.Mul(mass / mp.Mass)
	}
	b.mass = mass
	b.invMass = 1 / mass
	for i := 0; i < 3; i++ {
		if inertia[i] > epsilon {
			b.invInertiaLocal[i] = 1 / inertia[i]
		} else {
			b.invInertiaLocal[i] = 0
		}
	}
}

// RigidBodyBuilder configures a RigidBody. The zero builder is not valid; use
// one of the constructors.
type RigidBodyBuilder struct {
	body RigidBody
}

func NewRigidBodyBuilder(t BodyType) RigidBodyBuilder {
	return RigidBodyBuilder{body: RigidBody{
		bodyType:     t,
		rotation:     mgl32.QuatIdent(),
		nextRotation: mgl32.QuatIdent(),
		gravityScale: 1,
	}}
}

func Dynamic() RigidBodyBuilder { return NewRigidBodyBuilder(BodyDynamic) }
func Fixed() RigidBodyBuilder   { return NewRigidBodyBuilder(BodyFixed) }
func KinematicPositionBased() RigidBodyBuilder {
	return NewRigidBodyBuilder(BodyKinematicPositionBased)
}

func (b RigidBodyBuilder) Translation(v Vec3) RigidBodyBuilder {
	b.body.position = v
	b.body.nextPosition = v
	return b
}

func (b RigidBodyBuilder) Rotation(q Quat) RigidBodyBuilder {
	b.body.rotation = q.Normalize()
	b.body.nextRotation = b.body.rotation
	return b
}

func (b RigidBodyBuilder) Linvel(v Vec3) RigidBodyBuilder { b.body.linvel = v; return b }
func (b RigidBodyBuilder) Angvel(w Vec3) RigidBodyBuilder { b.body.angvel = w; return b }
func (b RigidBodyBuilder) LinearDamping(d float32) RigidBodyBuilder {
	b.body.linearDamping = d
	return b
}
func (b RigidBodyBuilder) AngularDamping(d float32) RigidBodyBuilder {
	b.body.angularDamping = d
	return b
}
func (b RigidBodyBuilder) GravityScale(s float32) RigidBodyBuilder { b.body.gravityScale = s; return b }
func (b RigidBodyBuilder) LockRotations() RigidBodyBuilder         { b.body.lockRotations = true; return b }
func (b RigidBodyBuilder) AdditionalMass(m float32) RigidBodyBuilder {
	b.body.additionalMass = m
	return b
}
func (b RigidBodyBuilder) Sleeping(s bool) RigidBodyBuilder   { b.body.sleeping = s; return b }
func (b RigidBodyBuilder) UserData(v uint64) RigidBodyBuilder { b.body.userData = v; return b }

func (b RigidBodyBuilder) Build() RigidBody {
	body := b.body
	body.setMassProperties(MassProperties{})
	return body
}
