package scene

import (
	"errors"
	"weak"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/glengine/internal/core/components"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/observability/log"
)

var (
	ErrNotRoot    = errors.New("scene: object has a parent")
	ErrNotInScene = errors.New("scene: object is not part of the scene")
	ErrNoCamera   = errors.New("scene: object has no camera component")
)

// Scene owns the root objects. Everything below a root is owned by its
// parent. The active camera is referenced weakly.
type Scene struct {
	log    log.Log
	bridge *PhysicsBridge
	lights *Lights

	roots  []*models.GameObject
	camera weak.Pointer[models.GameObject]

	depth   int
	pending []func()
}

// New creates an empty scene. bridge may be nil for scenes without physics.
func New(logger log.Log, bridge *PhysicsBridge) *Scene {
	return &Scene{
		log:    log.OrNop(logger).With(log.String("component", "scene")),
		bridge: bridge,
		lights: NewLights(),
	}
}

func (s *Scene) Bridge() *PhysicsBridge { return s.bridge }
func (s *Scene) Lights() *Lights        { return s.lights }

// Roots returns a snapshot of the root list.
func (s *Scene) Roots() []*models.GameObject {
	out := make([]*models.GameObject, len(s.roots))
	copy(out, s.roots)
	return out
}

// Add makes obj a root of the scene. During a traversal the change is
// applied once the traversal returns.
func (s *Scene) Add(obj *models.GameObject) error {
	if obj == nil {
		return models.ErrNilObject
	}
	if obj.Parent() != nil {
		return ErrNotRoot
	}
	s.run(func() {
		for _, r := range s.roots {
			if r == obj {
				return
			}
		}
		s.roots = append(s.roots, obj)
	})
	return nil
}

// NewObject creates a root object and adds it to the scene.
func (s *Scene) NewObject(name string) *models.GameObject {
	obj := models.New(nil, name)
	_ = s.Add(obj)
	return obj
}

// Remove drops obj from the scene, detaching it from its parent if it is
// not a root.
func (s *Scene) Remove(obj *models.GameObject) error {
	if obj == nil {
		return models.ErrNilObject
	}
	if parent := obj.Parent(); parent != nil {
		return parent.RemoveChild(obj)
	}
	found := false
	for _, r := range s.roots {
		if r == obj {
			found = true
			break
		}
	}
	if !found {
		return ErrNotInScene
	}
	s.run(func() {
		for i, r := range s.roots {
			if r == obj {
				s.roots = append(s.roots[:i], s.roots[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *Scene) run(op func()) {
	if s.depth > 0 {
		s.pending = append(s.pending, op)
		return
	}
	op()
}

func (s *Scene) enter() { s.depth++ }

func (s *Scene) leave() {
	s.depth--
	if s.depth > 0 {
		return
	}
	for len(s.pending) > 0 {
		ops := s.pending
		s.pending = nil
		for _, op := range ops {
			op()
		}
	}
}

// Walk visits every object depth first, pre-order.
func (s *Scene) Walk(fn func(*models.GameObject) bool) {
	s.enter()
	defer s.leave()
	for _, r := range s.roots {
		r.Walk(fn)
	}
}

func (s *Scene) Find(id uuid.UUID) *models.GameObject {
	for _, r := range s.Roots() {
		if obj := r.Find(id); obj != nil {
			return obj
		}
	}
	return nil
}

// Len counts every object in the scene.
func (s *Scene) Len() int {
	n := 0
	s.Walk(func(*models.GameObject) bool { n++; return true })
	return n
}

// SetCamera selects the active camera. The object must carry a Camera
// component; nil clears the selection.
func (s *Scene) SetCamera(obj *models.GameObject) error {
	if obj == nil {
		s.camera = weak.Pointer[models.GameObject]{}
		return nil
	}
	if _, ok := models.Get[*Camera](obj.Components()); !ok {
		return ErrNoCamera
	}
	s.camera = weak.Make(obj)
	return nil
}

// Camera returns the active camera, or nil once it has been dropped.
func (s *Scene) Camera() *models.GameObject {
	return s.camera.Value()
}

// StepRecursive runs the frame hooks of every object.
func (s *Scene) StepRecursive(clock models.Clock) error {
	s.enter()
	defer s.leave()
	for _, r := range s.roots {
		if err := r.StepRecursive(clock); err != nil {
			return err
		}
	}
	return nil
}

// FixedStepRecursive runs the fixed hooks of every object, which pushes
// transforms edited by game logic into their bodies, then steps physics.
func (s *Scene) FixedStepRecursive(clock models.Clock) error {
	s.enter()
	defer s.leave()
	for _, r := range s.roots {
		if err := r.FixedStepRecursive(clock); err != nil {
			return err
		}
	}
	if s.bridge == nil {
		return nil
	}
	return s.bridge.Step(s.roots)
}

// Render draws every Drawable with its accumulated model matrix from the
// active camera's point of view and returns the number of draws. Nothing
// is drawn without a camera.
func (s *Scene) Render() int {
	cam := s.Camera()
	if cam == nil {
		return 0
	}
	view := View(cam)
	lights := s.lights.Data()

	s.enter()
	defer s.leave()
	draws := 0
	for _, r := range s.roots {
		draws += render(r, mgl32.Ident4(), view, lights)
	}
	return draws
}

func render(obj *models.GameObject, parent, view mgl32.Mat4, lights []components.LightData) int {
	model := parent.Mul4(obj.LocalMatrix())
	draws := 0
	if d, ok := models.Get[*components.Drawable](obj.Components()); ok {
		d.Draw(model, view, lights)
		draws++
	}
	for _, child := range obj.Children() {
		draws += render(child, model, view, lights)
	}
	return draws
}
