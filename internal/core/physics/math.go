package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type (
	Vec3 = mgl32.Vec3
	Quat = mgl32.Quat
)

const epsilon = 1e-6

func sqrtf(v float32) float32 { return float32(math.Sqrt(float64(v))) }

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clampf(v, lo, hi float32) float32 {
	return maxf(lo, minf(hi, v))
}

func signf(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func mulElem(a, b Vec3) Vec3 {
	return Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func absVec(v Vec3) Vec3 {
	return Vec3{absf(v[0]), absf(v[1]), absf(v[2])}
}

func lenSqr(v Vec3) float32 { return v.Dot(v) }

// worldInverseInertia returns R * diag(invLocal) * R^T.
func worldInverseInertia(rotation Quat, invLocal Vec3) mgl32.Mat3 {
	r := rotation.Normalize().Mat4().Mat3()
	return r.Mul3(mgl32.Diag3(invLocal)).Mul3(r.Transpose())
}

// anyPerpendicular returns a unit vector orthogonal to n.
func anyPerpendicular(n Vec3) Vec3 {
	if absf(n[0]) < 0.57735 {
		return n.Cross(Vec3{1, 0, 0}).Normalize()
	}
	return n.Cross(Vec3{0, 1, 0}).Normalize()
}

// integrateRotation advances q by angular velocity w over dt.
func integrateRotation(q Quat, w Vec3, dt float32) Quat {
	spin := mgl32.Quat{W: 0, V: w}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}
