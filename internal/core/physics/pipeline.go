package physics

import "time"

// Counters describe the work done by the last step.
type Counters struct {
	Steps         uint64
	Pairs         int
	Manifolds     int
	ContactPoints int
	Islands       int
	ActiveBodies  int
	StepTime      time.Duration
}

// PhysicsPipeline advances a world made of a RigidBodySet, a ColliderSet
// and an optional ImpulseJointSet. It keeps only scratch buffers between
// steps; all persistent state lives in the sets.
type PhysicsPipeline struct {
	broad    *BroadPhase
	narrow   *NarrowPhase
	islands  *IslandManager
	solver   contactSolver
	counters Counters
}

func NewPhysicsPipeline() *PhysicsPipeline {
	return &PhysicsPipeline{
		broad:   NewBroadPhase(),
		narrow:  NewNarrowPhase(),
		islands: NewIslandManager(),
	}
}

func (p *PhysicsPipeline) Counters() Counters { return p.counters }

// Manifolds computed by the last step. Only valid until the next step.
func (p *PhysicsPipeline) Manifolds() []ContactManifold { return p.narrow.Manifolds() }

// Step advances the world by params.Dt. joints may be nil.
func (p *PhysicsPipeline) Step(gravity Vec3, params *IntegrationParameters, bodies *RigidBodySet, colliders *ColliderSet, joints *ImpulseJointSet) {
	dt := params.Dt
	if dt <= 0 {
		return
	}
	started := time.Now()

	colliders.updatePoses(bodies)
	computeKinematicVelocities(bodies, dt)

	pairs := p.broad.Update(colliders, bodies, params.PredictionDistance)
	manifolds := p.narrow.Update(pairs, colliders, params.PredictionDistance)
	p.islands.update(gravity, bodies, colliders, manifolds, joints)

	active := 0
	bodies.Each(func(_ BodyHandle, b *RigidBody) {
		if !b.awakeDynamic() {
			return
		}
		active++
		integrateVelocity(b, gravity, dt)
	})

	p.solver.reset()
	p.solver.prepareBodies(bodies)
	p.solver.buildContacts(manifolds, colliders, params)
	p.solver.buildJoints(joints, params)
	p.solver.solve(params.SolverIterations)

	bodies.Each(func(_ BodyHandle, b *RigidBody) {
		integratePosition(b, dt)
	})
	p.islands.updateSleep(bodies, params)
	colliders.updatePoses(bodies)

	points := 0
	for i := range manifolds {
		points += len(manifolds[i].Points)
	}

	p.counters = Counters{
		Steps:         p.counters.Steps + 1,
		Pairs:         len(pairs),
		Manifolds:     len(manifolds),
		ContactPoints: points,
		Islands:       p.islands.NumIslands(),
		ActiveBodies:  active,
		StepTime:      time.Since(started),
	}
}

func computeKinematicVelocities(bodies *RigidBodySet, dt float32) {
	bodies.Each(func(_ BodyHandle, b *RigidBody) {
		if !b.IsKinematic() {
			return
		}
		if !b.hasNextKinematic {
			b.linvel, b.angvel = Vec3{}, Vec3{}
			return
		}
		b.linvel = b.nextPosition.Sub(b.position).Mul(1 / dt)
		dq := b.nextRotation.Mul(b.rotation.Conjugate())
		if dq.W < 0 {
			dq = dq.Scale(-1)
		}
		b.angvel = dq.V.Mul(2 / dt)
	})
}

func integrateVelocity(b *RigidBody, gravity Vec3, dt float32) {
	accel := gravity.Mul(b.gravityScale).Add(b.force.Mul(b.invMass))
	b.linvel = b.linvel.Add(accel.Mul(dt))
	if !b.lockRotations {
		b.angvel = b.angvel.Add(b.invInertiaWorld().Mul3x1(b.torque).Mul(dt))
	} else {
		b.angvel = Vec3{}
	}
	if b.linearDamping > 0 {
		b.linvel = b.linvel.Mul(1 / (1 + dt*b.linearDamping))
	}
	if b.angularDamping > 0 {
		b.angvel = b.angvel.Mul(1 / (1 + dt*b.angularDamping))
	}
}

func integratePosition(b *RigidBody, dt float32) {
	switch {
	case b.IsKinematic():
		if b.hasNextKinematic {
			b.position, b.rotation = b.nextPosition, b.nextRotation
			b.hasNextKinematic = false
		}
	case b.awakeDynamic():
		b.position = b.position.Add(b.linvel.Mul(dt))
		if !b.lockRotations {
			b.rotation = integrateRotation(b.rotation, b.angvel, dt)
		}
		b.nextPosition, b.nextRotation = b.position, b.rotation
	}
	b.force, b.torque = Vec3{}, Vec3{}
}
