package models

import (
	"errors"
	"weak"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/zeusync/glengine/internal/core/transform"
)

var (
	ErrCycle     = errors.New("models: object cannot become its own ancestor")
	ErrNotAChild = errors.New("models: object is not a child")
	ErrNilObject = errors.New("models: nil object")
	ErrHasParent = errors.New("models: object already has a parent")
)

// GameObjectData is the part of an object that component hooks see.
type GameObjectData struct {
	ID         uuid.UUID
	Name       string
	Transform  transform.Transform
	Components *ComponentMap
}

// GameObject is a node of the scene tree. Children are owned; the parent
// link is weak and never keeps an ancestor alive.
type GameObject struct {
	data     GameObjectData
	parent   weak.Pointer[GameObject]
	children []*GameObject
	tree     *tree
}

// New creates an object with an identity transform, attached to parent when
// parent is not nil.
func New(parent *GameObject, name string) *GameObject {
	return NewWithTransform(parent, name, transform.Identity())
}

func NewWithTransform(parent *GameObject, name string, t transform.Transform) *GameObject {
	o := &GameObject{
		data: GameObjectData{
			ID:         uuid.New(),
			Name:       name,
			Transform:  t,
			Components: NewComponentMap(),
		},
	}
	if parent != nil {
		o.tree = parent.tree
		parent.tree.run(func() { parent.attach(o) })
	} else {
		o.tree = newTree()
	}
	return o
}

func (o *GameObject) ID() uuid.UUID         { return o.data.ID }
func (o *GameObject) Name() string          { return o.data.Name }
func (o *GameObject) Data() *GameObjectData { return &o.data }

func (o *GameObject) Transform() transform.Transform     { return o.data.Transform }
func (o *GameObject) SetTransform(t transform.Transform) { o.data.Transform = t }
func (o *GameObject) Components() *ComponentMap          { return o.data.Components }

// AddComponent attaches c, replacing any component of the same kind, and
// runs its setup hook with this object's data.
func (o *GameObject) AddComponent(c Component) error {
	return o.data.Components.Add(&o.data, c)
}

// Parent returns nil for roots and for objects whose parent was collected.
func (o *GameObject) Parent() *GameObject {
	return o.parent.Value()
}

// Children returns a snapshot of the child list.
func (o *GameObject) Children() []*GameObject {
	out := make([]*GameObject, len(o.children))
	copy(out, o.children)
	return out
}

func (o *GameObject) LocalMatrix() mgl32.Mat4 {
	return o.data.Transform.Matrix()
}

// GlobalMatrix composes the local matrices from the root down to o. It walks
// the parent chain on every call.
func (o *GameObject) GlobalMatrix() mgl32.Mat4 {
	m := o.LocalMatrix()
	for p := o.Parent(); p != nil; p = p.Parent() {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// GlobalTransform decomposes GlobalMatrix.
func (o *GameObject) GlobalTransform() transform.Transform {
	return transform.FromMatrix(o.GlobalMatrix())
}

// IsAncestorOf reports whether o is a strict ancestor of other.
func (o *GameObject) IsAncestorOf(other *GameObject) bool {
	if other == nil {
		return false
	}
	for p := other.Parent(); p != nil; p = p.Parent() {
		if p == o {
			return true
		}
	}
	return false
}

// Depth is the number of ancestors.
func (o *GameObject) Depth() int {
	d := 0
	for p := o.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}

// StepRecursive runs the frame hooks of o then of its children, depth first
// and pre-order. The first failure stops the traversal.
func (o *GameObject) StepRecursive(clock Clock) error {
	o.tree.enter()
	defer o.tree.leave()
	return o.stepRecursive(clock)
}

func (o *GameObject) stepRecursive(clock Clock) error {
	if err := o.data.Components.Step(&o.data, clock); err != nil {
		return err
	}
	for _, child := range o.children {
		if err := child.stepRecursive(clock); err != nil {
			return err
		}
	}
	return nil
}

// FixedStepRecursive is StepRecursive for fixed-tick hooks.
func (o *GameObject) FixedStepRecursive(clock Clock) error {
	o.tree.enter()
	defer o.tree.leave()
	return o.fixedStepRecursive(clock)
}

func (o *GameObject) fixedStepRecursive(clock Clock) error {
	if err := o.data.Components.FixedStep(&o.data, clock); err != nil {
		return err
	}
	for _, child := range o.children {
		if err := child.fixedStepRecursive(clock); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits o and its descendants depth first, pre-order. Returning false
// from fn skips the visited object's children.
func (o *GameObject) Walk(fn func(*GameObject) bool) {
	o.tree.enter()
	defer o.tree.leave()
	o.walk(fn)
}

func (o *GameObject) walk(fn func(*GameObject) bool) {
	if !fn(o) {
		return
	}
	for _, child := range o.children {
		child.walk(fn)
	}
}

// Find returns the descendant (or o itself) with the given id.
func (o *GameObject) Find(id uuid.UUID) *GameObject {
	var found *GameObject
	o.Walk(func(n *GameObject) bool {
		if found != nil {
			return false
		}
		if n.data.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
