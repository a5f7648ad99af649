package physics

// IslandManager groups dynamic bodies connected by contacts or joints and
// puts whole islands to sleep once they come to rest.
type IslandManager struct {
	parent    map[BodyHandle]BodyHandle
	members   map[BodyHandle][]BodyHandle
	supported map[BodyHandle]bool
	count     int
}

func NewIslandManager() *IslandManager {
	return &IslandManager{
		parent:    make(map[BodyHandle]BodyHandle),
		members:   make(map[BodyHandle][]BodyHandle),
		supported: make(map[BodyHandle]bool),
	}
}

// NumIslands from the last step.
func (im *IslandManager) NumIslands() int { return im.count }

func (im *IslandManager) find(h BodyHandle) BodyHandle {
	for {
		p := im.parent[h]
		if p == h {
			return h
		}
		gp := im.parent[p]
		im.parent[h] = gp
		h = p
	}
}

func (im *IslandManager) union(a, b BodyHandle) {
	ra, rb := im.find(a), im.find(b)
	if ra != rb {
		im.parent[ra] = rb
	}
}

func dynamicParent(c *Collider, bodies *RigidBodySet) (BodyHandle, *RigidBody) {
	if c == nil || !c.hasParent {
		return BodyHandle{}, nil
	}
	b, ok := bodies.Get(c.parent)
	if !ok || !b.IsDynamic() {
		return BodyHandle{}, nil
	}
	return c.parent, b
}

// update wakes sleepers touched by an awake or moving body, and sleepers
// left without any contact or joint under gravity, then rebuilds the islands of awake
// dynamic bodies.
func (im *IslandManager) update(gravity Vec3, bodies *RigidBodySet, colliders *ColliderSet, manifolds []ContactManifold, joints *ImpulseJointSet) {
	clear(im.supported)
	for i := range manifolds {
		m := &manifolds[i]
		if m.Sensor || len(m.Points) == 0 {
			continue
		}
		c1, _ := colliders.Get(m.Collider1)
		c2, _ := colliders.Get(m.Collider2)
		h1, b1 := dynamicParent(c1, bodies)
		h2, b2 := dynamicParent(c2, bodies)
		if b1 != nil {
			im.supported[h1] = true
		}
		if b2 != nil {
			im.supported[h2] = true
		}
		if !m.Touching() {
			continue
		}
		switch {
		case b1 != nil && b2 != nil:
			if b1.sleeping != b2.sleeping {
				b1.WakeUp()
				b2.WakeUp()
			}
		case b1 != nil && b1.sleeping && movingKinematic(c2, bodies):
			b1.WakeUp()
		case b2 != nil && b2.sleeping && movingKinematic(c1, bodies):
			b2.WakeUp()
		}
	}
	joints.Each(func(_ JointHandle, j *SphericalJoint) {
		b1, ok1 := bodies.Get(j.Body1)
		b2, ok2 := bodies.Get(j.Body2)
		if ok1 && ok2 {
			im.supported[j.Body1] = true
			im.supported[j.Body2] = true
		}
		if ok1 && ok2 && b1.IsDynamic() && b2.IsDynamic() && b1.sleeping != b2.sleeping {
			b1.WakeUp()
			b2.WakeUp()
		}
	})
	bodies.Each(func(h BodyHandle, b *RigidBody) {
		if b.IsDynamic() && b.sleeping && !im.supported[h] && gravity.Mul(b.gravityScale) != (Vec3{}) {
			b.WakeUp()
		}
	})

	clear(im.parent)
	clear(im.members)
	bodies.Each(func(h BodyHandle, b *RigidBody) {
		if b.awakeDynamic() {
			im.parent[h] = h
		}
	})
	for i := range manifolds {
		m := &manifolds[i]
		if m.Sensor {
			continue
		}
		c1, _ := colliders.Get(m.Collider1)
		c2, _ := colliders.Get(m.Collider2)
		h1, b1 := dynamicParent(c1, bodies)
		h2, b2 := dynamicParent(c2, bodies)
		if b1 != nil && b2 != nil && b1.awakeDynamic() && b2.awakeDynamic() {
			im.union(h1, h2)
		}
	}
	joints.Each(func(_ JointHandle, j *SphericalJoint) {
		_, ok1 := im.parent[j.Body1]
		_, ok2 := im.parent[j.Body2]
		if ok1 && ok2 {
			im.union(j.Body1, j.Body2)
		}
	})
	for h := range im.parent {
		root := im.find(h)
		im.members[root] = append(im.members[root], h)
	}
	im.count = len(im.members)
}

func movingKinematic(c *Collider, bodies *RigidBodySet) bool {
	if c == nil || !c.hasParent {
		return false
	}
	b, ok := bodies.Get(c.parent)
	return ok && b.IsKinematic() && (b.linvel != Vec3{} || b.angvel != Vec3{})
}

// updateSleep advances the rest timers and sleeps islands whose every body
// stayed under the thresholds for TimeToSleep.
func (im *IslandManager) updateSleep(bodies *RigidBodySet, params *IntegrationParameters) {
	for _, members := range im.members {
		asleep := true
		for _, h := range members {
			b, _ := bodies.Get(h)
			if b.linvel.Len() < params.SleepLinearThreshold && b.angvel.Len() < params.SleepAngularThreshold {
				b.sleepTimer += params.Dt
			} else {
				b.sleepTimer = 0
			}
			if b.sleepTimer < params.TimeToSleep {
				asleep = false
			}
		}
		if !asleep {
			continue
		}
		for _, h := range members {
			b, _ := bodies.Get(h)
			b.Sleep()
		}
	}
}
