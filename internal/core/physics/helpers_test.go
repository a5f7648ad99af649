package physics

import "github.com/go-gl/mathgl/mgl32"

func quatAxis(axis Vec3, degrees float32) Quat {
	return mgl32.QuatRotate(mgl32.DegToRad(degrees), axis.Normalize())
}

func cubePoints(h float32) []Vec3 {
	out := make([]Vec3, 0, 8)
	for _, x := range []float32{-h, h} {
		for _, y := range []float32{-h, h} {
			for _, z := range []float32{-h, h} {
				out = append(out, Vec3{x, y, z})
			}
		}
	}
	return out
}

type world struct {
	bodies    *RigidBodySet
	colliders *ColliderSet
	joints    *ImpulseJointSet
	pipeline  *PhysicsPipeline
	params    IntegrationParameters
	gravity   Vec3
}

func newWorld() *world {
	return &world{
		bodies:    NewRigidBodySet(),
		colliders: NewColliderSet(),
		joints:    NewImpulseJointSet(),
		pipeline:  NewPhysicsPipeline(),
		params:    DefaultIntegrationParameters(),
		gravity:   Vec3{0, -9.81, 0},
	}
}

func (w *world) add(body RigidBody, colliders ...Collider) BodyHandle {
	h := w.bodies.Insert(body)
	for _, c := range colliders {
		if _, err := w.colliders.InsertWithParent(c, h, w.bodies); err != nil {
			panic(err)
		}
	}
	return h
}

// addFloor inserts a fixed slab whose top face is at y=0.
func (w *world) addFloor() BodyHandle {
	return w.add(Fixed().Translation(Vec3{0, -0.5, 0}).Build(), CuboidCollider(10, 0.5, 10).Build())
}

func (w *world) step(n int) {
	for i := 0; i < n; i++ {
		w.pipeline.Step(w.gravity, &w.params, w.bodies, w.colliders, w.joints)
	}
}

func (w *world) body(h BodyHandle) *RigidBody {
	b, ok := w.bodies.Get(h)
	if !ok {
		panic("missing body")
	}
	return b
}
