package scene

import (
	"errors"
	"math"
	"weak"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/models"
)

const (
	MaxPointLights = 5
	MaxSpotLights  = 5
)

var (
	ErrTooManyLights = errors.New("scene: light limit reached")
	ErrNotALight     = errors.New("scene: object has no matching light component")
)

// DirectionalLight shines along its owner's Forward.
type DirectionalLight struct {
	Color     mgl32.Vec3
	Intensity float32
}

func (l *DirectionalLight) TypeName() string { return "directional_light" }

type PointLight struct {
	Color     mgl32.Vec3
	Intensity float32
	Range     float32
}

func (l *PointLight) TypeName() string { return "point_light" }

// SpotLight shines along its owner's Forward within a cone.
type SpotLight struct {
	Color     mgl32.Vec3
	Intensity float32
	Range     float32
	// Angle is the cone half-angle in radians.
	Angle float32
}

func (l *SpotLight) TypeName() string { return "spot_light" }

// Lights references light objects weakly; objects removed from the scene
// simply stop lighting it.
type Lights struct {
	directional weak.Pointer[models.GameObject]
	point       []weak.Pointer[models.GameObject]
	spot        []weak.Pointer[models.GameObject]
}

func NewLights() *Lights { return &Lights{} }

func (l *Lights) SetDirectional(obj *models.GameObject) error {
	if obj == nil {
		l.directional = weak.Pointer[models.GameObject]{}
		return nil
	}
	if _, ok := models.Get[*DirectionalLight](obj.Components()); !ok {
		return ErrNotALight
	}
	l.directional = weak.Make(obj)
	return nil
}

func (l *Lights) AddPoint(obj *models.GameObject) error {
	if _, ok := models.Get[*PointLight](obj.Components()); !ok {
		return ErrNotALight
	}
	l.point = prune(l.point)
	if len(l.point) >= MaxPointLights {
		return ErrTooManyLights
	}
	l.point = append(l.point, weak.Make(obj))
	return nil
}

func (l *Lights) AddSpot(obj *models.GameObject) error {
	if _, ok := models.Get[*SpotLight](obj.Components()); !ok {
		return ErrNotALight
	}
	l.spot = prune(l.spot)
	if len(l.spot) >= MaxSpotLights {
		return ErrTooManyLights
	}
	l.spot = append(l.spot, weak.Make(obj))
	return nil
}

func prune(refs []weak.Pointer[models.GameObject]) []weak.Pointer[models.GameObject] {
	out := refs[:0]
	for _, r := range refs {
		if r.Value() != nil {
			out = append(out, r)
		}
	}
	clear(refs[len(out):])
	return out
}

// Data resolves every live light to world space. Dead references are
// dropped.
func (l *Lights) Data() []components.LightData {
	var out []components.LightData
	if obj := l.directional.Value(); obj != nil {
		if d, ok := models.Get[*DirectionalLight](obj.Components()); ok {
			out = append(out, components.LightData{
				Kind:      components.LightDirectional,
				Direction: obj.GlobalTransform().Forward(),
				Color:     d.Color,
				Intensity: d.Intensity,
			})
		}
	}

	l.point = prune(l.point)
	for _, ref := range l.point {
		obj := ref.Value()
		if obj == nil {
			continue
		}
		p, ok := models.Get[*PointLight](obj.Components())
		if !ok {
			continue
		}
		out = append(out, components.LightData{
			Kind:      components.LightPoint,
			Position:  obj.GlobalTransform().Position,
			Color:     p.Color,
			Intensity: p.Intensity,
			Range:     p.Range,
		})
	}

	l.spot = prune(l.spot)
	for _, ref := range l.spot {
		obj := ref.Value()
		if obj == nil {
			continue
		}
		s, ok := models.Get[*SpotLight](obj.Components())
		if !ok {
			continue
		}
		global := obj.GlobalTransform()
		out = append(out, components.LightData{
			Kind:      components.LightSpot,
			Position:  global.Position,
			Direction: global.Forward(),
			Color:     s.Color,
			Intensity: s.Intensity,
			Range:     s.Range,
			Cutoff:    float32(math.Cos(float64(s.Angle))),
		})
	}
	return out
}
