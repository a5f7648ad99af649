package physics

const (
	gjkMaxIterations = 64
	epaMaxIterations = 48
	epaTolerance     = 1e-4
)

// convex is anything with a world-space support function.
type convex interface {
	support(dir Vec3) Vec3
	center() Vec3
}

type colliderProxy struct {
	c      *Collider
	shape  SupportMap
	margin float32
}

func (p colliderProxy) support(dir Vec3) Vec3 {
	s := p.c.support(p.shape, dir)
	if p.margin > 0 {
		if l := dir.Len(); l > epsilon {
			s = s.Add(dir.Mul(p.margin / l))
		}
	}
	return s
}

func (p colliderProxy) center() Vec3 { return p.c.aabb.Center() }

type triangleProxy struct {
	tri    Triangle
	margin float32
}

func (p triangleProxy) support(dir Vec3) Vec3 {
	s := p.tri.LocalSupport(dir)
	if p.margin > 0 {
		if l := dir.Len(); l > epsilon {
			s = s.Add(dir.Mul(p.margin / l))
		}
	}
	return s
}

func (p triangleProxy) center() Vec3 {
	return p.tri.A.Add(p.tri.B).Add(p.tri.C).Mul(1.0 / 3.0)
}

// csoPoint is a point of the configuration space obstacle A-B together with
// the support points that produced it.
type csoPoint struct {
	v, a, b Vec3
}

func csoSupport(a, b convex, dir Vec3) csoPoint {
	pa := a.support(dir)
	pb := b.support(dir.Mul(-1))
	return csoPoint{v: pa.Sub(pb), a: pa, b: pb}
}

func tripleCross(a, b, c Vec3) Vec3 { return a.Cross(b).Cross(c) }

// gjkIntersect reports whether a and b overlap. On success it returns a
// tetrahedron of A-B enclosing the origin.
func gjkIntersect(a, b convex) ([4]csoPoint, bool) {
	var simplex [4]csoPoint

	dir := b.center().Sub(a.center())
	if lenSqr(dir) < epsilon {
		dir = Vec3{1, 0, 0}
	}
	pc := csoSupport(a, b, dir)
	dir = pc.v.Mul(-1)
	if lenSqr(dir) < epsilon*epsilon {
		dir = Vec3{0, 1, 0}
	}
	pb := csoSupport(a, b, dir)
	if pb.v.Dot(dir) < 0 {
		return simplex, false
	}
	cb := pc.v.Sub(pb.v)
	dir = tripleCross(cb, pb.v.Mul(-1), cb)
	if lenSqr(dir) < epsilon*epsilon {
		dir = cb.Cross(Vec3{1, 0, 0})
		if lenSqr(dir) < epsilon*epsilon {
			dir = cb.Cross(Vec3{0, 0, -1})
		}
	}

	pa, pd := csoPoint{}, csoPoint{}
	dim := 2
	for i := 0; i < gjkMaxIterations; i++ {
		pa = csoSupport(a, b, dir)
		if pa.v.Dot(dir) < 0 {
			return simplex, false
		}
		dim++
		if dim == 3 {
			dim, dir = gjkTriangle(&pa, &pb, &pc, &pd)
		} else {
			var enclosed bool
			enclosed, dim, dir = gjkTetrahedron(&pa, &pb, &pc, &pd)
			if enclosed {
				simplex = [4]csoPoint{pa, pb, pc, pd}
				return simplex, true
			}
		}
		if lenSqr(dir) < epsilon*epsilon {
			return simplex, false
		}
	}
	return simplex, false
}

// gjkTriangle reduces the triangle a,b,c (a newest) and returns the new
// simplex dimension and search direction.
func gjkTriangle(a, b, c, d *csoPoint) (int, Vec3) {
	ab := b.v.Sub(a.v)
	ac := c.v.Sub(a.v)
	n := ab.Cross(ac)
	ao := a.v.Mul(-1)

	if ab.Cross(n).Dot(ao) > 0 {
		*c = *a
		return 2, tripleCross(ab, ao, ab)
	}
	if n.Cross(ac).Dot(ao) > 0 {
		*b = *a
		return 2, tripleCross(ac, ao, ac)
	}
	if n.Dot(ao) > 0 {
		*d, *c, *b = *c, *b, *a
		return 3, n
	}
	*d, *b = *b, *a
	return 3, n.Mul(-1)
}

// gjkTetrahedron checks the three faces adjacent to the tip a. The base
// b,c,d is wound so the origin is known to be above it.
func gjkTetrahedron(a, b, c, d *csoPoint) (bool, int, Vec3) {
	ao := a.v.Mul(-1)
	abc := b.v.Sub(a.v).Cross(c.v.Sub(a.v))
	acd := c.v.Sub(a.v).Cross(d.v.Sub(a.v))
	adb := d.v.Sub(a.v).Cross(b.v.Sub(a.v))

	if abc.Dot(ao) > 0 {
		*d, *c, *b = *c, *b, *a
		return false, 3, abc
	}
	if acd.Dot(ao) > 0 {
		*b = *a
		return false, 3, acd
	}
	if adb.Dot(ao) > 0 {
		*c, *d, *b = *d, *b, *a
		return false, 3, adb
	}
	return true, 4, Vec3{}
}

type epaFace struct {
	p      [3]csoPoint
	normal Vec3
	dist   float32
}

type epaEdge struct {
	a, b csoPoint
}

func newEPAFace(p0, p1, p2 csoPoint) (epaFace, bool) {
	n := p1.v.Sub(p0.v).Cross(p2.v.Sub(p0.v))
	l := n.Len()
	if l < epsilon*epsilon {
		return epaFace{}, false
	}
	n = n.Mul(1 / l)
	f := epaFace{p: [3]csoPoint{p0, p1, p2}, normal: n, dist: n.Dot(p0.v)}
	if f.dist < 0 {
		f.p[1], f.p[2] = f.p[2], f.p[1]
		f.normal = f.normal.Mul(-1)
		f.dist = -f.dist
	}
	return f, true
}

type penetration struct {
	normal Vec3 // from A to B
	depth  float32
	pointA Vec3
	pointB Vec3
}

// epa expands the GJK tetrahedron to find the penetration of a into b.
func epa(a, b convex, tetra [4]csoPoint) (penetration, bool) {
	faces := make([]epaFace, 0, 32)
	for _, idx := range [4][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 1}, {1, 3, 2}} {
		if f, ok := newEPAFace(tetra[idx[0]], tetra[idx[1]], tetra[idx[2]]); ok {
			faces = append(faces, f)
		}
	}
	if len(faces) < 4 {
		return penetration{}, false
	}

	edges := make([]epaEdge, 0, 32)
	var closest epaFace
	for i := 0; i < epaMaxIterations; i++ {
		ci := 0
		for j := 1; j < len(faces); j++ {
			if faces[j].dist < faces[ci].dist {
				ci = j
			}
		}
		closest = faces[ci]

		p := csoSupport(a, b, closest.normal)
		if p.v.Dot(closest.normal)-closest.dist < epaTolerance {
			return epaResult(closest), true
		}

		edges = edges[:0]
		kept := faces[:0]
		for _, f := range faces {
			if f.normal.Dot(p.v.Sub(f.p[0].v)) > 0 {
				for k := 0; k < 3; k++ {
					edges = addLooseEdge(edges, f.p[k], f.p[(k+1)%3])
				}
				continue
			}
			kept = append(kept, f)
		}
		faces = kept
		for _, e := range edges {
			if f, ok := newEPAFace(e.a, e.b, p); ok {
				faces = append(faces, f)
			}
		}
		if len(faces) == 0 {
			return penetration{}, false
		}
	}
	return epaResult(closest), true
}

func addLooseEdge(edges []epaEdge, a, b csoPoint) []epaEdge {
	for i, e := range edges {
		if e.a.v == b.v && e.b.v == a.v {
			edges[i] = edges[len(edges)-1]
			return edges[:len(edges)-1]
		}
	}
	return append(edges, epaEdge{a: a, b: b})
}

func epaResult(f epaFace) penetration {
	p := f.normal.Mul(f.dist)
	u, v, w := barycentric(p, f.p[0].v, f.p[1].v, f.p[2].v)
	pa := f.p[0].a.Mul(u).Add(f.p[1].a.Mul(v)).Add(f.p[2].a.Mul(w))
	pb := f.p[0].b.Mul(u).Add(f.p[1].b.Mul(v)).Add(f.p[2].b.Mul(w))
	return penetration{normal: f.normal, depth: f.dist, pointA: pa, pointB: pb}
}

func barycentric(p, a, b, c Vec3) (float32, float32, float32) {
	v0, v1, v2 := b.Sub(a), c.Sub(a), p.Sub(a)
	d00, d01, d11 := v0.Dot(v0), v0.Dot(v1), v1.Dot(v1)
	d20, d21 := v2.Dot(v0), v2.Dot(v1)
	den := d00*d11 - d01*d01
	if absf(den) < epsilon*epsilon {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / den
	w := (d00*d21 - d01*d20) / den
	return 1 - v - w, v, w
}

// closestPointOnTriangle returns the point of triangle abc nearest to p.
func closestPointOnTriangle(p, a, b, c Vec3) Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	den := 1 / (va + vb + vc)
	v, w := vb*den, vc*den
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}
