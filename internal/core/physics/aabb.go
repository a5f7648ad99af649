package physics

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

func (a AABB) Intersects(b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

func (a AABB) Merge(b AABB) AABB {
	return AABB{
		Min: Vec3{minf(a.Min[0], b.Min[0]), minf(a.Min[1], b.Min[1]), minf(a.Min[2], b.Min[2])},
		Max: Vec3{maxf(a.Max[0], b.Max[0]), maxf(a.Max[1], b.Max[1]), maxf(a.Max[2], b.Max[2])},
	}
}

func (a AABB) Loosened(margin float32) AABB {
	m := Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

func (a AABB) Center() Vec3      { return a.Min.Add(a.Max).Mul(0.5) }
func (a AABB) HalfExtents() Vec3 { return a.Max.Sub(a.Min).Mul(0.5) }

// Transformed returns the AABB enclosing a after rotation then translation.
func (a AABB) Transformed(position Vec3, rotation Quat) AABB {
	r := rotation.Normalize().Mat4().Mat3()
	abs := mgl32.Mat3{}
	for i := range r {
		abs[i] = absf(r[i])
	}
	center := position.Add(rotation.Rotate(a.Center()))
	half := abs.Mul3x1(a.HalfExtents())
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func aabbOfPoints(points []Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box = box.Merge(AABB{Min: p, Max: p})
	}
	return box
}
