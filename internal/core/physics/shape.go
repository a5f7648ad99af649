package physics

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidShape = errors.New("physics: invalid shape")

type ShapeType uint8

const (
	ShapeBall ShapeType = iota
	ShapeCuboid
	ShapeConvexHull
	ShapeTriangle
	ShapeTriMesh
)

func (t ShapeType) String() string {
	switch t {
	case ShapeBall:
		return "ball"
	case ShapeCuboid:
		return "cuboid"
	case ShapeConvexHull:
		return "convex_hull"
	case ShapeTriangle:
		return "triangle"
	case ShapeTriMesh:
		return "trimesh"
	default:
		return fmt.Sprintf("shape(%d)", uint8(t))
	}
}

// MassProperties of a shape expressed in the shape's local frame, with the
// inertia tensor reduced to its principal diagonal.
type MassProperties struct {
	Mass    float32
	Inertia Vec3
}

type Shape interface {
	Type() ShapeType
	LocalAABB() AABB
	MassProperties(density float32) MassProperties
}

// SupportMap is implemented by convex shapes. LocalSupport returns the point
// of the shape furthest along dir, in the shape's local frame.
type SupportMap interface {
	Shape
	LocalSupport(dir Vec3) Vec3
}

type Ball struct {
	Radius float32
}

func (b *Ball) Type() ShapeType { return ShapeBall }

func (b *Ball) LocalAABB() AABB {
	r := Vec3{b.Radius, b.Radius, b.Radius}
	return AABB{Min: r.Mul(-1), Max: r}
}

func (b *Ball) MassProperties(density float32) MassProperties {
	r := b.Radius
	mass := density * 4.0 / 3.0 * math.Pi * r * r * r
	i := 0.4 * mass * r * r
	return MassProperties{Mass: mass, Inertia: Vec3{i, i, i}}
}

func (b *Ball) LocalSupport(dir Vec3) Vec3 {
	l := dir.Len()
	if l < epsilon {
		return Vec3{b.Radius, 0, 0}
	}
	return dir.Mul(b.Radius / l)
}

type Cuboid struct {
	HalfExtents Vec3
}

func (c *Cuboid) Type() ShapeType { return ShapeCuboid }

func (c *Cuboid) LocalAABB() AABB {
	return AABB{Min: c.HalfExtents.Mul(-1), Max: c.HalfExtents}
}

func (c *Cuboid) MassProperties(density float32) MassProperties {
	return boxMassProperties(c.HalfExtents, density)
}

func (c *Cuboid) LocalSupport(dir Vec3) Vec3 {
	return Vec3{
		signf(dir[0]) * c.HalfExtents[0],
		signf(dir[1]) * c.HalfExtents[1],
		signf(dir[2]) * c.HalfExtents[2],
	}
}

// vertices returns the eight corners in local space.
func (c *Cuboid) vertices() [8]Vec3 {
	h := c.HalfExtents
	var out [8]Vec3
	for i := 0; i < 8; i++ {
		out[i] = Vec3{
			h[0] * float32(1-2*(i&1)),
			h[1] * float32(1-2*((i>>1)&1)),
			h[2] * float32(1-2*((i>>2)&1)),
		}
	}
	return out
}

func boxMassProperties(half Vec3, density float32) MassProperties {
	x, y, z := 2*half[0], 2*half[1], 2*half[2]
	mass := density * x * y * z
	k := mass / 12
	return MassProperties{
		Mass:    mass,
		Inertia: Vec3{k * (y*y + z*z), k * (x*x + z*z), k * (x*x + y*y)},
	}
}

// ConvexHull is the convex hull of a point cloud. Only the points are kept:
// the support function of a point cloud equals that of its hull.
type ConvexHull struct {
	points []Vec3
	aabb   AABB
}

// NewConvexHull fails when fewer than four points are given or when the
// points do not span a volume.
func NewConvexHull(points []Vec3) (*ConvexHull, error) {
	if len(points) < 4 {
		return nil, fmt.Errorf("%w: convex hull needs at least 4 points, got %d", ErrInvalidShape, len(points))
	}
	box := aabbOfPoints(points)
	ext := box.Max.Sub(box.Min)
	if ext[0] < epsilon || ext[1] < epsilon || ext[2] < epsilon {
		return nil, fmt.Errorf("%w: convex hull points are flat", ErrInvalidShape)
	}
	cp := make([]Vec3, len(points))
	copy(cp, points)
	return &ConvexHull{points: cp, aabb: box}, nil
}

func (h *ConvexHull) Type() ShapeType { return ShapeConvexHull }
func (h *ConvexHull) LocalAABB() AABB { return h.aabb }
func (h *ConvexHull) Points() []Vec3  { return h.points }

// MassProperties approximates the hull by its bounding box.
func (h *ConvexHull) MassProperties(density float32) MassProperties {
	return boxMassProperties(h.aabb.HalfExtents(), density)
}

func (h *ConvexHull) LocalSupport(dir Vec3) Vec3 {
	best := h.points[0]
	bestDot := best.Dot(dir)
	for _, p := range h.points[1:] {
		if d := p.Dot(dir); d > bestDot {
			best, bestDot = p, d
		}
	}
	return best
}

type Triangle struct {
	A, B, C Vec3
}

func (t *Triangle) Type() ShapeType { return ShapeTriangle }

func (t *Triangle) LocalAABB() AABB { return aabbOfPoints([]Vec3{t.A, t.B, t.C}) }

func (t *Triangle) MassProperties(float32) MassProperties { return MassProperties{} }

func (t *Triangle) LocalSupport(dir Vec3) Vec3 {
	best, bestDot := t.A, t.A.Dot(dir)
	if d := t.B.Dot(dir); d > bestDot {
		best, bestDot = t.B, d
	}
	if d := t.C.Dot(dir); d > bestDot {
		best = t.C
	}
	return best
}

func (t *Triangle) Normal() Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	if lenSqr(n) < epsilon*epsilon {
		return Vec3{}
	}
	return n.Normalize()
}

// TriMesh is a static triangle soup. It has no volume and therefore no mass;
// it is meant for fixed bodies.
type TriMesh struct {
	vertices []Vec3
	indices  [][3]uint32
	aabb     AABB
}

func NewTriMesh(vertices []Vec3, indices [][3]uint32) (*TriMesh, error) {
	if len(vertices) < 3 || len(indices) == 0 {
		return nil, fmt.Errorf("%w: trimesh needs vertices and at least one triangle", ErrInvalidShape)
	}
	for i, tri := range indices {
		for _, idx := range tri {
			if int(idx) >= len(vertices) {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrInvalidShape, i, idx, len(vertices))
			}
		}
	}
	vs := make([]Vec3, len(vertices))
	copy(vs, vertices)
	is := make([][3]uint32, len(indices))
	copy(is, indices)
	return &TriMesh{vertices: vs, indices: is, aabb: aabbOfPoints(vs)}, nil
}

func (m *TriMesh) Type() ShapeType                       { return ShapeTriMesh }
func (m *TriMesh) LocalAABB() AABB                       { return m.aabb }
func (m *TriMesh) MassProperties(float32) MassProperties { return MassProperties{} }
func (m *TriMesh) NumTriangles() int                     { return len(m.indices) }

func (m *TriMesh) Triangle(i int) Triangle {
	idx := m.indices[i]
	return Triangle{A: m.vertices[idx[0]], B: m.vertices[idx[1]], C: m.vertices[idx[2]]}
}
