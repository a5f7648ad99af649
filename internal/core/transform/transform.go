// Package transform holds the spatial state of a game object: position,
// rotation and scale, with conversions to and from 4x4 affine matrices.
package transform

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	axisX = mgl32.Vec3{1, 0, 0}
	axisY = mgl32.Vec3{0, 1, 0}
	axisZ = mgl32.Vec3{0, 0, 1}
)

// Transform is a value type. Equality for change detection is bitwise over
// its ten scalars, see Hash and Equal.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// Identity is positioned at the origin, unrotated, with unit scale.
func Identity() Transform {
	return Transform{
		Position: mgl32.Vec3{},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func New(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) Transform {
	return Transform{Position: position, Rotation: rotation, Scale: scale}
}

// At returns an identity transform moved to position.
func At(position mgl32.Vec3) Transform {
	return Identity().WithPosition(position)
}

func (t Transform) WithPosition(position mgl32.Vec3) Transform {
	t.Position = position
	return t
}

func (t Transform) WithRotation(rotation mgl32.Quat) Transform {
	t.Rotation = rotation
	return t
}

func (t Transform) WithScale(scale mgl32.Vec3) Transform {
	t.Scale = scale
	return t
}

// Forward is -Z rotated by the transform's rotation.
func (t Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(axisZ.Mul(-1))
}

func (t Transform) Right() mgl32.Vec3 {
	return t.Rotation.Rotate(axisX)
}

func (t Transform) Up() mgl32.Vec3 {
	return t.Rotation.Rotate(axisY)
}

// Matrix composes translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	rotation := t.Rotation.Normalize().Mat4()
	scale := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	return translation.Mul4(rotation).Mul4(scale)
}

// FromMatrix decomposes an affine matrix without shear into a Transform.
// A negative determinant is folded into the X scale.
func FromMatrix(m mgl32.Mat4) Transform {
	position := m.Col(3).Vec3()

	c0 := m.Col(0).Vec3()
	c1 := m.Col(1).Vec3()
	c2 := m.Col(2).Vec3()

	sx, sy, sz := c0.Len(), c1.Len(), c2.Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}

	rotation := mgl32.QuatIdent()
	if sx != 0 && sy != 0 && sz != 0 {
		r := mgl32.Mat3FromCols(c0.Mul(1/sx), c1.Mul(1/sy), c2.Mul(1/sz))
		rotation = quatFromRotation(r)
	}

	return Transform{
		Position: position,
		Rotation: rotation,
		Scale:    mgl32.Vec3{sx, sy, sz},
	}
}

// quatFromRotation converts an orthonormal rotation matrix using the
// largest-diagonal branch for numerical stability.
func quatFromRotation(m mgl32.Mat3) mgl32.Quat {
	m00, m11, m22 := m.At(0, 0), m.At(1, 1), m.At(2, 2)
	trace := m00 + m11 + m22

	var q mgl32.Quat
	switch {
	case trace > 0:
		s := sqrt(trace+1) * 2
		q = mgl32.Quat{W: 0.25 * s, V: mgl32.Vec3{
			(m.At(2, 1) - m.At(1, 2)) / s,
			(m.At(0, 2) - m.At(2, 0)) / s,
			(m.At(1, 0) - m.At(0, 1)) / s,
		}}
	case m00 > m11 && m00 > m22:
		s := sqrt(1+m00-m11-m22) * 2
		q = mgl32.Quat{W: (m.At(2, 1) - m.At(1, 2)) / s, V: mgl32.Vec3{
			0.25 * s,
			(m.At(0, 1) + m.At(1, 0)) / s,
			(m.At(0, 2) + m.At(2, 0)) / s,
		}}
	case m11 > m22:
		s := sqrt(1+m11-m00-m22) * 2
		q = mgl32.Quat{W: (m.At(0, 2) - m.At(2, 0)) / s, V: mgl32.Vec3{
			(m.At(0, 1) + m.At(1, 0)) / s,
			0.25 * s,
			(m.At(1, 2) + m.At(2, 1)) / s,
		}}
	default:
		s := sqrt(1+m22-m00-m11) * 2
		q = mgl32.Quat{W: (m.At(1, 0) - m.At(0, 1)) / s, V: mgl32.Vec3{
			(m.At(0, 2) + m.At(2, 0)) / s,
			(m.At(1, 2) + m.At(2, 1)) / s,
			0.25 * s,
		}}
	}
	if q.W < 0 {
		q = q.Scale(-1)
	}
	return q.Normalize()
}

func sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// ApproxEqual compares positions and scales component-wise and rotations up
// to sign, each component within an absolute eps.
func (t Transform) ApproxEqual(other Transform, eps float32) bool {
	if !within(t.Position[:], other.Position[:], eps) || !within(t.Scale[:], other.Scale[:], eps) {
		return false
	}
	a, b := t.Rotation.Normalize(), other.Rotation.Normalize()
	qa := [4]float32{a.W, a.V[0], a.V[1], a.V[2]}
	qb := [4]float32{b.W, b.V[0], b.V[1], b.V[2]}
	if within(qa[:], qb[:], eps) {
		return true
	}
	for i := range qb {
		qb[i] = -qb[i]
	}
	return within(qa[:], qb[:], eps)
}

func within(a, b []float32, eps float32) bool {
	for i := range a {
		if d := a[i] - b[i]; d > eps || d < -eps {
			return false
		}
	}
	return true
}
