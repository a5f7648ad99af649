package physics

import (
	"errors"
	"fmt"
)

var ErrInvalidHandle = errors.New("physics: invalid handle")

// handle is a generational index into an arena.
type handle struct {
	index      uint32
	generation uint32
}

func (h handle) String() string { return fmt.Sprintf("%d/%d", h.index, h.generation) }

type BodyHandle struct{ handle }

type ColliderHandle struct{ handle }

// Index exposes the arena slot for callers that key their own tables.
func (h BodyHandle) Index() uint32     { return h.index }
func (h ColliderHandle) Index() uint32 { return h.index }

type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// arena stores values addressed by generational handles. Removed slots are
// reused with a bumped generation so stale handles never resolve.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

func (a *arena[T]) insert(v T) handle {
	a.count++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value, s.occupied = v, true
		return handle{index: idx, generation: s.generation}
	}
	a.slots = append(a.slots, slot[T]{value: v, occupied: true})
	return handle{index: uint32(len(a.slots) - 1)}
}

func (a *arena[T]) get(h handle) *T {
	if int(h.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return nil
	}
	return &s.value
}

func (a *arena[T]) remove(h handle) (T, bool) {
	var zero T
	if a.get(h) == nil {
		return zero, false
	}
	s := &a.slots[h.index]
	v := s.value
	s.value, s.occupied = zero, false
	s.generation++
	a.free = append(a.free, h.index)
	a.count--
	return v, true
}

func (a *arena[T]) each(fn func(handle, *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.occupied {
			fn(handle{index: uint32(i), generation: s.generation}, &s.value)
		}
	}
}

type RigidBodySet struct {
	bodies arena[RigidBody]
}

func NewRigidBodySet() *RigidBodySet { return &RigidBodySet{} }

func (s *RigidBodySet) Insert(body RigidBody) BodyHandle {
	body.colliders = nil
	return BodyHandle{s.bodies.insert(body)}
}

func (s *RigidBodySet) Get(h BodyHandle) (*RigidBody, bool) {
	b := s.bodies.get(h.handle)
	return b, b != nil
}

func (s *RigidBodySet) Contains(h BodyHandle) bool { return s.bodies.get(h.handle) != nil }

func (s *RigidBodySet) Len() int { return s.bodies.count }

func (s *RigidBodySet) Each(fn func(BodyHandle, *RigidBody)) {
	s.bodies.each(func(h handle, b *RigidBody) { fn(BodyHandle{h}, b) })
}

// Remove deletes the body and every collider attached to it.
func (s *RigidBodySet) Remove(h BodyHandle, colliders *ColliderSet) (RigidBody, bool) {
	body, ok := s.bodies.remove(h.handle)
	if !ok {
		return body, false
	}
	if colliders != nil {
		for _, ch := range body.colliders {
			colliders.colliders.remove(ch.handle)
		}
	}
	body.colliders = nil
	return body, true
}

type ColliderSet struct {
	colliders arena[Collider]
}

func NewColliderSet() *ColliderSet { return &ColliderSet{} }

// Insert adds a collider attached to the world.
func (s *ColliderSet) Insert(c Collider) ColliderHandle {
	c.hasParent = false
	c.updatePose(nil)
	return ColliderHandle{s.colliders.insert(c)}
}

// InsertWithParent attaches c to the body and folds the collider mass into it.
func (s *ColliderSet) InsertWithParent(c Collider, parent BodyHandle, bodies *RigidBodySet) (ColliderHandle, error) {
	body, ok := bodies.Get(parent)
	if !ok {
		return ColliderHandle{}, fmt.Errorf("%w: body %s", ErrInvalidHandle, parent)
	}
	if c.shape.Type() == ShapeTriMesh && body.IsDynamic() {
		return ColliderHandle{}, fmt.Errorf("%w: trimesh on a dynamic body", ErrInvalidShape)
	}
	c.parent, c.hasParent = parent, true
	c.updatePose(body)
	h := ColliderHandle{s.colliders.insert(c)}
	body.colliders = append(body.colliders, h)
	s.recomputeMass(body)
	return h, nil
}

func (s *ColliderSet) Get(h ColliderHandle) (*Collider, bool) {
	c := s.colliders.get(h.handle)
	return c, c != nil
}

func (s *ColliderSet) Len() int { return s.colliders.count }

func (s *ColliderSet) Each(fn func(ColliderHandle, *Collider)) {
	s.colliders.each(func(h handle, c *Collider) { fn(ColliderHandle{h}, c) })
}

func (s *ColliderSet) Remove(h ColliderHandle, bodies *RigidBodySet) (Collider, bool) {
	c, ok := s.colliders.remove(h.handle)
	if !ok {
		return c, false
	}
	if c.hasParent && bodies != nil {
		if body, ok := bodies.Get(c.parent); ok {
			for i, other := range body.colliders {
				if other == h {
					body.colliders = append(body.colliders[:i], body.colliders[i+1:]...)
					break
				}
			}
			s.recomputeMass(body)
			body.WakeUp()
		}
	}
	return c, true
}

func (s *ColliderSet) recomputeMass(body *RigidBody) {
	var total MassProperties
	for _, ch := range body.colliders {
		c, ok := s.Get(ch)
		if !ok {
			continue
		}
		mp := c.massProperties()
		total.Mass += mp.Mass
		total.Inertia = total.Inertia.Add(mp.Inertia)
	}
	body.setMassProperties(total)
}

// updatePoses refreshes world poses and bounds from the parent bodies.
func (s *ColliderSet) updatePoses(bodies *RigidBodySet) {
	s.Each(func(_ ColliderHandle, c *Collider) {
		if !c.hasParent {
			c.updatePose(nil)
			return
		}
		body, _ := bodies.Get(c.parent)
		c.updatePose(body)
	})
}
