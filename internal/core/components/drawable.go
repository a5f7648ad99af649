package components

import "github.com/go-gl/mathgl/mgl32"

type LightKind uint8

const (
	LightDirectional LightKind = iota
	LightPoint
	LightSpot
)

// LightData is a light resolved to world space for one frame.
type LightData struct {
	Kind      LightKind
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	// Range bounds point and spot lights.
	Range float32
	// Cutoff is the cosine of the spot cone half-angle.
	Cutoff float32
}

// Drawer issues the draw calls for one model. It is provided by the
// rendering layer.
type Drawer interface {
	Draw(model, view mgl32.Mat4, lights []LightData)
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc func(model, view mgl32.Mat4, lights []LightData)

func (f DrawerFunc) Draw(model, view mgl32.Mat4, lights []LightData) { f(model, view, lights) }

// Drawable links an object to a Drawer.
type Drawable struct {
	Drawer Drawer
}

func NewDrawable(d Drawer) *Drawable { return &Drawable{Drawer: d} }

func (d *Drawable) TypeName() string { return "drawable" }

func (d *Drawable) Draw(model, view mgl32.Mat4, lights []LightData) {
	if d.Drawer != nil {
		d.Drawer.Draw(model, view, lights)
	}
}
