package physics

import "github.com/go-gl/mathgl/mgl32"

// solverBody caches per-step mass data. Non-dynamic and sleeping bodies get
// zero inverse mass so impulses never move them.
type solverBody struct {
	body       *RigidBody
	invMass    float32
	invInertia mgl32.Mat3
}

func (b *solverBody) velocityAt(r Vec3) Vec3 {
	if b == nil {
		return Vec3{}
	}
	return b.body.linvel.Add(b.body.angvel.Cross(r))
}

func (b *solverBody) applyImpulse(p, r Vec3) {
	if b == nil || b.invMass == 0 {
		return
	}
	b.body.linvel = b.body.linvel.Add(p.Mul(b.invMass))
	b.body.angvel = b.body.angvel.Add(b.invInertia.Mul3x1(r.Cross(p)))
}

// effectiveMass returns the inverse of the constraint mass along dir.
func effectiveMass(b1, b2 *solverBody, r1, r2, dir Vec3) float32 {
	k := float32(0)
	if b1 != nil {
		k += b1.invMass + b1.invInertia.Mul3x1(r1.Cross(dir)).Cross(r1).Dot(dir)
	}
	if b2 != nil {
		k += b2.invMass + b2.invInertia.Mul3x1(r2.Cross(dir)).Cross(r2).Dot(dir)
	}
	if k <= epsilon {
		return 0
	}
	return 1 / k
}

type constraintPoint struct {
	r1, r2      Vec3
	normalMass  float32
	tangentMass [2]float32
	target      float32
	normalImp   float32
	tangentImp  [2]float32
}

type contactConstraint struct {
	b1, b2   *solverBody
	normal   Vec3
	tangents [2]Vec3
	friction float32
	points   []constraintPoint
}

type jointConstraint struct {
	b1, b2 *solverBody
	r1, r2 Vec3
	bias   Vec3
}

type contactSolver struct {
	bodies      []solverBody
	index       map[BodyHandle]*solverBody
	contacts    []contactConstraint
	joints      []jointConstraint
	pointBuffer []constraintPoint
}

func (s *contactSolver) reset() {
	s.bodies = s.bodies[:0]
	s.contacts = s.contacts[:0]
	s.joints = s.joints[:0]
	s.pointBuffer = s.pointBuffer[:0]
	if s.index == nil {
		s.index = make(map[BodyHandle]*solverBody)
	}
	clear(s.index)
}

func (s *contactSolver) prepareBodies(bodies *RigidBodySet) {
	bodies.Each(func(_ BodyHandle, b *RigidBody) {
		s.bodies = append(s.bodies, solverBody{})
	})
	i := 0
	bodies.Each(func(h BodyHandle, b *RigidBody) {
		sb := &s.bodies[i]
		i++
		sb.body = b
		if b.awakeDynamic() {
			sb.invMass = b.invMass
			sb.invInertia = b.invInertiaWorld()
		}
		s.index[h] = sb
	})
}

func (s *contactSolver) bodyOf(c *Collider) *solverBody {
	if !c.hasParent {
		return nil
	}
	return s.index[c.parent]
}

func (s *contactSolver) buildContacts(manifolds []ContactManifold, colliders *ColliderSet, params *IntegrationParameters) {
	dt := params.Dt
	total := 0
	for i := range manifolds {
		total += len(manifolds[i].Points)
	}
	if cap(s.pointBuffer) < total {
		s.pointBuffer = make([]constraintPoint, 0, total)
	}
	for i := range manifolds {
		m := &manifolds[i]
		if m.Sensor {
			continue
		}
		c1, _ := colliders.Get(m.Collider1)
		c2, _ := colliders.Get(m.Collider2)
		b1, b2 := s.bodyOf(c1), s.bodyOf(c2)
		if (b1 == nil || b1.invMass == 0) && (b2 == nil || b2.invMass == 0) {
			continue
		}
		t1 := anyPerpendicular(m.Normal)
		cc := contactConstraint{
			b1: b1, b2: b2,
			normal:   m.Normal,
			tangents: [2]Vec3{t1, m.Normal.Cross(t1)},
			friction: m.Friction,
		}
		start := len(s.pointBuffer)
		for _, p := range m.Points {
			var cp constraintPoint
			if b1 != nil {
				cp.r1 = p.Point.Sub(b1.body.position)
			}
			if b2 != nil {
				cp.r2 = p.Point.Sub(b2.body.position)
			}
			cp.normalMass = effectiveMass(b1, b2, cp.r1, cp.r2, m.Normal)
			for k, t := range cc.tangents {
				cp.tangentMass[k] = effectiveMass(b1, b2, cp.r1, cp.r2, t)
			}
			vn := b2.velocityAt(cp.r2).Sub(b1.velocityAt(cp.r1)).Dot(m.Normal)
			if p.Dist > 0 {
				cp.target = -p.Dist / dt
			} else {
				cp.target = minf(params.Erp/dt*maxf(-p.Dist-params.AllowedLinearError, 0), params.MaxCorrectiveVelocity)
			}
			if m.Restitution > 0 && vn < -params.RestitutionThreshold && -vn*dt >= p.Dist {
				cp.target = maxf(cp.target, -m.Restitution*vn)
			}
			s.pointBuffer = append(s.pointBuffer, cp)
		}
		cc.points = s.pointBuffer[start:len(s.pointBuffer):len(s.pointBuffer)]
		s.contacts = append(s.contacts, cc)
	}
}

func (s *contactSolver) buildJoints(joints *ImpulseJointSet, params *IntegrationParameters) {
	joints.Each(func(_ JointHandle, j *SphericalJoint) {
		b1, b2 := s.index[j.Body1], s.index[j.Body2]
		if b1 == nil || b2 == nil || (b1.invMass == 0 && b2.invMass == 0) {
			return
		}
		r1 := b1.body.rotation.Rotate(j.LocalAnchor1)
		r2 := b2.body.rotation.Rotate(j.LocalAnchor2)
		err := b2.body.position.Add(r2).Sub(b1.body.position.Add(r1))
		s.joints = append(s.joints, jointConstraint{
			b1: b1, b2: b2, r1: r1, r2: r2,
			bias: err.Mul(-params.Erp / params.Dt),
		})
	})
}

func (s *contactSolver) solve(iterations int) {
	for it := 0; it < iterations; it++ {
		for i := range s.joints {
			solveJoint(&s.joints[i])
		}
		for i := range s.contacts {
			solveContact(&s.contacts[i])
		}
	}
}

func solveContact(c *contactConstraint) {
	for i := range c.points {
		p := &c.points[i]
		dv := c.b2.velocityAt(p.r2).Sub(c.b1.velocityAt(p.r1))
		lambda := (p.target - dv.Dot(c.normal)) * p.normalMass
		next := maxf(p.normalImp+lambda, 0)
		lambda = next - p.normalImp
		p.normalImp = next
		impulse := c.normal.Mul(lambda)
		c.b1.applyImpulse(impulse.Mul(-1), p.r1)
		c.b2.applyImpulse(impulse, p.r2)
	}
	for i := range c.points {
		p := &c.points[i]
		limit := c.friction * p.normalImp
		for k, t := range c.tangents {
			dv := c.b2.velocityAt(p.r2).Sub(c.b1.velocityAt(p.r1))
			lambda := -dv.Dot(t) * p.tangentMass[k]
			next := clampf(p.tangentImp[k]+lambda, -limit, limit)
			lambda = next - p.tangentImp[k]
			p.tangentImp[k] = next
			impulse := t.Mul(lambda)
			c.b1.applyImpulse(impulse.Mul(-1), p.r1)
			c.b2.applyImpulse(impulse, p.r2)
		}
	}
}

func solveJoint(j *jointConstraint) {
	for axis := 0; axis < 3; axis++ {
		var e Vec3
		e[axis] = 1
		m := effectiveMass(j.b1, j.b2, j.r1, j.r2, e)
		if m == 0 {
			continue
		}
		dv := j.b2.velocityAt(j.r2).Sub(j.b1.velocityAt(j.r1))
		lambda := (j.bias[axis] - dv[axis]) * m
		impulse := e.Mul(lambda)
		j.b1.applyImpulse(impulse.Mul(-1), j.r1)
		j.b2.applyImpulse(impulse, j.r2)
	}
}
