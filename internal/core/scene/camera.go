package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/transform"
)

// Camera marks an object as a viewpoint. The view direction is the owner's
// Forward.
type Camera struct {
	Projection mgl32.Mat4
}

func (c *Camera) TypeName() string { return "camera" }

// NewCamera creates a free-flying camera object at eye looking at target.
func NewCamera(parent *models.GameObject, name string, eye, target, up mgl32.Vec3, projection mgl32.Mat4) (*models.GameObject, error) {
	pose := transform.FromMatrix(mgl32.LookAtV(eye, target, up).Inv())
	obj := models.NewWithTransform(parent, name, pose)
	if err := obj.AddComponent(&Camera{Projection: projection}); err != nil {
		return nil, err
	}
	if err := obj.AddComponent(components.NewFreeCam()); err != nil {
		return nil, err
	}
	return obj, nil
}

// View is the inverse of the object's global matrix.
func View(obj *models.GameObject) mgl32.Mat4 {
	return obj.GlobalMatrix().Inv()
}

// Frustum returns projection * view for a camera object.
func Frustum(obj *models.GameObject) (mgl32.Mat4, bool) {
	cam, ok := models.Get[*Camera](obj.Components())
	if !ok {
		return mgl32.Mat4{}, false
	}
	return cam.Projection.Mul4(View(obj)), true
}

// Plane indexes into the result of FrustumPlanes.
type Plane int

const (
	PlaneLeft Plane = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// FrustumPlanes extracts the six clip planes (a, b, c, d) from the camera's
// frustum matrix. A point p is inside a plane when a*x+b*y+c*z+d >= 0.
func FrustumPlanes(obj *models.GameObject) ([6]mgl32.Vec4, bool) {
	m, ok := Frustum(obj)
	if !ok {
		return [6]mgl32.Vec4{}, false
	}
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	return [6]mgl32.Vec4{
		PlaneLeft:   r3.Add(r0),
		PlaneRight:  r3.Sub(r0),
		PlaneBottom: r3.Add(r1),
		PlaneTop:    r3.Sub(r1),
		PlaneNear:   r3.Add(r2),
		PlaneFar:    r3.Sub(r2),
	}, true
}

// InFrustum reports whether p lies inside all six planes.
func InFrustum(planes [6]mgl32.Vec4, p mgl32.Vec3) bool {
	for _, pl := range planes {
		if pl.Vec3().Dot(p)+pl[3] < 0 {
			return false
		}
	}
	return true
}
