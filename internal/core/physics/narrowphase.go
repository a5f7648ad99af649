package physics

import "sort"

const (
	maxManifoldPoints = 4
	// touchTolerance is the gap below which two surfaces count as touching.
	touchTolerance = 1e-3
)

// ContactPoint is a world-space point halfway between the two surfaces.
// Dist is the signed separation, negative when penetrating.
type ContactPoint struct {
	Point Vec3
	Dist  float32
}

// ContactManifold groups the contacts between two colliders sharing a
// normal. Normal points from Collider1 towards Collider2.
type ContactManifold struct {
	Collider1, Collider2 ColliderHandle
	Normal               Vec3
	Points               []ContactPoint
	Friction             float32
	Restitution          float32
	Sensor               bool
}

// Touching reports whether any point is in contact rather than predicted.
func (m *ContactManifold) Touching() bool {
	for _, p := range m.Points {
		if p.Dist <= touchTolerance {
			return true
		}
	}
	return false
}

func (m *ContactManifold) flip() {
	m.Collider1, m.Collider2 = m.Collider2, m.Collider1
	m.Normal = m.Normal.Mul(-1)
}

type NarrowPhase struct {
	manifolds []ContactManifold
}

func NewNarrowPhase() *NarrowPhase { return &NarrowPhase{} }

// Manifolds from the last Update.
func (np *NarrowPhase) Manifolds() []ContactManifold { return np.manifolds }

// Update computes contact manifolds for the candidate pairs, keeping points
// closer than prediction.
func (np *NarrowPhase) Update(pairs []ColliderPair, colliders *ColliderSet, prediction float32) []ContactManifold {
	np.manifolds = np.manifolds[:0]
	for _, pair := range pairs {
		c1, ok1 := colliders.Get(pair.First)
		c2, ok2 := colliders.Get(pair.Second)
		if !ok1 || !ok2 {
			continue
		}
		start := len(np.manifolds)
		np.manifolds = collide(c1, c2, prediction, np.manifolds)
		for i := start; i < len(np.manifolds); i++ {
			m := &np.manifolds[i]
			m.Collider1, m.Collider2 = pair.First, pair.Second
			m.Friction = (c1.friction + c2.friction) / 2
			m.Restitution = maxf(c1.restitution, c2.restitution)
			m.Sensor = c1.sensor || c2.sensor
		}
	}
	return np.manifolds
}

// collide appends the manifolds between c1 and c2 to out.
func collide(c1, c2 *Collider, prediction float32, out []ContactManifold) []ContactManifold {
	t1, t2 := c1.shape.Type(), c2.shape.Type()
	switch {
	case t1 == ShapeTriMesh && t2 == ShapeTriMesh:
		return out
	case t1 == ShapeTriMesh:
		return collideTriMesh(c1, c2, prediction, out)
	case t2 == ShapeTriMesh:
		start := len(out)
		out = collideTriMesh(c2, c1, prediction, out)
		for i := start; i < len(out); i++ {
			out[i].flip()
		}
		return out
	case t1 == ShapeBall && t2 == ShapeBall:
		if m, ok := collideBallBall(c1, c2, prediction); ok {
			out = append(out, m)
		}
		return out
	case t1 == ShapeBall && t2 == ShapeCuboid:
		if m, ok := collideCuboidBall(c2, c1, prediction); ok {
			m.flip()
			out = append(out, m)
		}
		return out
	case t1 == ShapeCuboid && t2 == ShapeBall:
		if m, ok := collideCuboidBall(c1, c2, prediction); ok {
			out = append(out, m)
		}
		return out
	case t1 == ShapeCuboid && t2 == ShapeCuboid:
		if m, ok := collideCuboidCuboid(c1, c2, prediction); ok {
			out = append(out, m)
		}
		return out
	}
	s1, ok1 := c1.shape.(SupportMap)
	s2, ok2 := c2.shape.(SupportMap)
	if !ok1 || !ok2 {
		return out
	}
	half := prediction / 2
	a := colliderProxy{c: c1, shape: s1, margin: half}
	b := colliderProxy{c: c2, shape: s2, margin: half}
	if m, ok := collideConvex(a, b, prediction); ok {
		out = append(out, m)
	}
	return out
}

func collideBallBall(c1, c2 *Collider, prediction float32) (ContactManifold, bool) {
	r1 := c1.shape.(*Ball).Radius
	r2 := c2.shape.(*Ball).Radius
	delta := c2.position.Sub(c1.position)
	d := delta.Len()
	dist := d - r1 - r2
	if dist > prediction {
		return ContactManifold{}, false
	}
	n := Vec3{0, 1, 0}
	if d > epsilon {
		n = delta.Mul(1 / d)
	}
	p1 := c1.position.Add(n.Mul(r1))
	p2 := c2.position.Sub(n.Mul(r2))
	return ContactManifold{
		Normal: n,
		Points: []ContactPoint{{Point: p1.Add(p2).Mul(0.5), Dist: dist}},
	}, true
}

// collideCuboidBall returns a manifold with the normal pointing from the box
// to the ball.
func collideCuboidBall(box, ball *Collider, prediction float32) (ContactManifold, bool) {
	half := box.shape.(*Cuboid).HalfExtents
	r := ball.shape.(*Ball).Radius
	local := box.toLocal(ball.position)

	closest := Vec3{
		clampf(local[0], -half[0], half[0]),
		clampf(local[1], -half[1], half[1]),
		clampf(local[2], -half[2], half[2]),
	}
	var normalLocal Vec3
	var dist float32
	if closest != local {
		delta := local.Sub(closest)
		d := delta.Len()
		dist = d - r
		if dist > prediction {
			return ContactManifold{}, false
		}
		normalLocal = delta.Mul(1 / d)
	} else {
		// centre inside the box: push out through the nearest face
		axis := 0
		best := half[0] - absf(local[0])
		for i := 1; i < 3; i++ {
			if depth := half[i] - absf(local[i]); depth < best {
				axis, best = i, depth
			}
		}
		normalLocal[axis] = signf(local[axis])
		closest[axis] = half[axis] * normalLocal[axis]
		dist = -best - r
	}
	n := box.rotation.Rotate(normalLocal)
	surfaceBox := box.toWorld(closest)
	surfaceBall := ball.position.Sub(n.Mul(r))
	return ContactManifold{
		Normal: n,
		Points: []ContactPoint{{Point: surfaceBox.Add(surfaceBall).Mul(0.5), Dist: dist}},
	}, true
}

type satAxis struct {
	axis Vec3
	sep  float32
}

func projectBox(c *Collider, half Vec3, axis Vec3) (float32, float32) {
	center := c.position.Dot(axis)
	local := absVec(c.rotation.Conjugate().Rotate(axis))
	radius := local.Dot(half)
	return center - radius, center + radius
}

// collideCuboidCuboid runs a separating axis test over the 15 candidate axes
// and clips vertices against the opposing box.
func collideCuboidCuboid(c1, c2 *Collider, prediction float32) (ContactManifold, bool) {
	h1 := c1.shape.(*Cuboid).HalfExtents
	h2 := c2.shape.(*Cuboid).HalfExtents

	var axes [15]Vec3
	var a1, a2 [3]Vec3
	for i := 0; i < 3; i++ {
		var e Vec3
		e[i] = 1
		a1[i] = c1.rotation.Rotate(e)
		a2[i] = c2.rotation.Rotate(e)
		axes[i] = a1[i]
		axes[3+i] = a2[i]
	}
	k := 6
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axes[k] = a1[i].Cross(a2[j])
			k++
		}
	}

	centerDelta := c2.position.Sub(c1.position)
	best := satAxis{sep: -1e30}
	for i, axis := range axes {
		l := axis.Len()
		if l < 1e-4 {
			continue
		}
		axis = axis.Mul(1 / l)
		if axis.Dot(centerDelta) < 0 {
			axis = axis.Mul(-1)
		}
		_, max1 := projectBox(c1, h1, axis)
		min2, _ := projectBox(c2, h2, axis)
		sep := min2 - max1
		if sep > prediction {
			return ContactManifold{}, false
		}
		// prefer face axes when edge axes are only marginally better
		if i >= 6 && sep < best.sep+1e-3 {
			continue
		}
		if sep > best.sep {
			best = satAxis{axis: axis, sep: sep}
		}
	}
	n := best.axis
	_, max1 := projectBox(c1, h1, n)
	min2, _ := projectBox(c2, h2, n)

	var points []ContactPoint
	box2 := c2.shape.(*Cuboid)
	for _, v := range box2.vertices() {
		w := c2.toWorld(v)
		if insideBox(c1, h1, w, prediction) {
			dist := w.Dot(n) - max1
			points = append(points, ContactPoint{Point: w.Sub(n.Mul(dist / 2)), Dist: dist})
		}
	}
	box1 := c1.shape.(*Cuboid)
	for _, v := range box1.vertices() {
		w := c1.toWorld(v)
		if insideBox(c2, h2, w, prediction) {
			dist := min2 - w.Dot(n)
			points = append(points, ContactPoint{Point: w.Add(n.Mul(dist / 2)), Dist: dist})
		}
	}
	if len(points) == 0 {
		s1 := c1.support(box1, n)
		s2 := c2.support(box2, n.Mul(-1))
		points = append(points, ContactPoint{Point: s1.Add(s2).Mul(0.5), Dist: best.sep})
	}
	return ContactManifold{Normal: n, Points: reduceManifold(points)}, true
}

func insideBox(c *Collider, half Vec3, p Vec3, margin float32) bool {
	local := c.toLocal(p)
	for i := 0; i < 3; i++ {
		if absf(local[i]) > half[i]+margin {
			return false
		}
	}
	return true
}

// reduceManifold keeps the deepest points.
func reduceManifold(points []ContactPoint) []ContactPoint {
	if len(points) <= maxManifoldPoints {
		return points
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Dist < points[j].Dist })
	return points[:maxManifoldPoints]
}

func collideConvex(a, b convex, prediction float32) (ContactManifold, bool) {
	tetra, ok := gjkIntersect(a, b)
	if !ok {
		return ContactManifold{}, false
	}
	pen, ok := epa(a, b, tetra)
	if !ok {
		return ContactManifold{}, false
	}
	dist := prediction - pen.depth
	if dist > prediction {
		return ContactManifold{}, false
	}
	return ContactManifold{
		Normal: pen.normal,
		Points: []ContactPoint{{Point: pen.pointA.Add(pen.pointB).Mul(0.5), Dist: dist}},
	}, true
}

// collideTriMesh tests other against every mesh triangle whose bounds come
// within prediction. Normals point from the mesh to other.
func collideTriMesh(meshCollider, other *Collider, prediction float32, out []ContactManifold) []ContactManifold {
	mesh := meshCollider.shape.(*TriMesh)
	bounds := other.aabb.Loosened(prediction)
	otherSupport, convexOther := other.shape.(SupportMap)
	if !convexOther {
		return out
	}
	ball, isBall := other.shape.(*Ball)
	half := prediction / 2
	for i := 0; i < mesh.NumTriangles(); i++ {
		local := mesh.Triangle(i)
		tri := Triangle{
			A: meshCollider.toWorld(local.A),
			B: meshCollider.toWorld(local.B),
			C: meshCollider.toWorld(local.C),
		}
		if !tri.LocalAABB().Intersects(bounds) {
			continue
		}
		if isBall {
			if m, ok := collideTriangleBall(&tri, other.position, ball.Radius, prediction); ok {
				out = append(out, m)
			}
			continue
		}
		a := triangleProxy{tri: tri, margin: half}
		b := colliderProxy{c: other, shape: otherSupport, margin: half}
		if m, ok := collideConvex(a, b, prediction); ok {
			out = append(out, m)
		}
	}
	return out
}

func collideTriangleBall(tri *Triangle, center Vec3, radius, prediction float32) (ContactManifold, bool) {
	closest := closestPointOnTriangle(center, tri.A, tri.B, tri.C)
	delta := center.Sub(closest)
	d := delta.Len()
	dist := d - radius
	if dist > prediction {
		return ContactManifold{}, false
	}
	var n Vec3
	if d > epsilon {
		n = delta.Mul(1 / d)
	} else {
		n = tri.Normal()
		if lenSqr(n) == 0 {
			return ContactManifold{}, false
		}
	}
	surface := center.Sub(n.Mul(radius))
	return ContactManifold{
		Normal: n,
		Points: []ContactPoint{{Point: closest.Add(surface).Mul(0.5), Dist: dist}},
	}, true
}
