package physics

type JointHandle struct{ handle }

// SphericalJoint pins an anchor of Body1 to an anchor of Body2, leaving the
// relative rotation free.
type SphericalJoint struct {
	Body1, Body2 BodyHandle
	LocalAnchor1 Vec3
	LocalAnchor2 Vec3
}

type ImpulseJointSet struct {
	joints arena[SphericalJoint]
}

func NewImpulseJointSet() *ImpulseJointSet { return &ImpulseJointSet{} }

func (s *ImpulseJointSet) Insert(j SphericalJoint, bodies *RigidBodySet) (JointHandle, error) {
	if !bodies.Contains(j.Body1) || !bodies.Contains(j.Body2) {
		return JointHandle{}, ErrInvalidHandle
	}
	if b, ok := bodies.Get(j.Body1); ok {
		b.WakeUp()
	}
	if b, ok := bodies.Get(j.Body2); ok {
		b.WakeUp()
	}
	return JointHandle{s.joints.insert(j)}, nil
}

func (s *ImpulseJointSet) Get(h JointHandle) (*SphericalJoint, bool) {
	j := s.joints.get(h.handle)
	return j, j != nil
}

func (s *ImpulseJointSet) Remove(h JointHandle) bool {
	_, ok := s.joints.remove(h.handle)
	return ok
}

func (s *ImpulseJointSet) Len() int { return s.joints.count }

func (s *ImpulseJointSet) Each(fn func(JointHandle, *SphericalJoint)) {
	if s == nil {
		return
	}
	s.joints.each(func(h handle, j *SphericalJoint) { fn(JointHandle{h}, j) })
}
