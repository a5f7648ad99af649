package models

import (
	"errors"

	"github.com/zeusync/glengine/internal/core/transform"
)

var ErrNilComponent = errors.New("models: nil component")

// ComponentMap holds at most one component per kind. Dispatch order is the
// order kinds were first added, which is stable for the life of the map.
type ComponentMap struct {
	entries []Component
	index   map[Kind]int

	lastHash uint64
}

func NewComponentMap() *ComponentMap {
	return &ComponentMap{index: make(map[Kind]int)}
}

// Add stores c, replacing any component of the same kind, and runs its
// Setup hook against owner. When setup fails the component stays attached
// and the error is returned.
func (m *ComponentMap) Add(owner *GameObjectData, c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	k := KindOf(c)
	if i, ok := m.index[k]; ok {
		m.entries[i] = c
	} else {
		m.index[k] = len(m.entries)
		m.entries = append(m.entries, c)
	}

	if s, ok := c.(Setup); ok && owner != nil {
		if err := s.Setup(owner); err != nil {
			return &StepError{Phase: PhaseSetup, Object: owner.Name, Component: c.TypeName(), Err: err}
		}
	}
	if _, ok := c.(TransformPusher); ok && owner != nil {
		m.lastHash = owner.Transform.Hash()
	}
	return nil
}

// Remove detaches the component of kind k.
func (m *ComponentMap) Remove(k Kind) (Component, bool) {
	i, ok := m.index[k]
	if !ok {
		return nil, false
	}
	c := m.entries[i]
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, k)
	for kind, j := range m.index {
		if j > i {
			m.index[kind] = j - 1
		}
	}
	return c, true
}

// Lookup returns the component of kind k.
func (m *ComponentMap) Lookup(k Kind) (Component, bool) {
	i, ok := m.index[k]
	if !ok {
		return nil, false
	}
	return m.entries[i], true
}

func (m *ComponentMap) Has(k Kind) bool {
	_, ok := m.index[k]
	return ok
}

func (m *ComponentMap) Len() int { return len(m.entries) }

// Each visits components in dispatch order until fn returns false.
func (m *ComponentMap) Each(fn func(Component) bool) {
	for _, c := range m.entries {
		if !fn(c) {
			return
		}
	}
}

func (m *ComponentMap) Kinds() []Kind {
	out := make([]Kind, len(m.entries))
	for i, c := range m.entries {
		out[i] = KindOf(c)
	}
	return out
}

// Get returns the component of type T stored in m.
func Get[T Component](m *ComponentMap) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	c, ok := m.Lookup(KindFor[T]())
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}

// Find returns the first component implementing the capability T, which is
// usually an interface such as TransformPusher.
func Find[T any](m *ComponentMap) (T, bool) {
	var zero T
	if m == nil {
		return zero, false
	}
	for _, c := range m.entries {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	return zero, false
}

// Step runs the frame hook of every component. Components added by a hook
// are first stepped on the next pass.
func (m *ComponentMap) Step(owner *GameObjectData, clock Clock) error {
	n := len(m.entries)
	for i := 0; i < n && i < len(m.entries); i++ {
		c := m.entries[i]
		s, ok := c.(Stepper)
		if !ok {
			continue
		}
		if err := s.Step(owner, clock); err != nil {
			return &StepError{Phase: PhaseStep, Object: owner.Name, Component: c.TypeName(), Err: err}
		}
	}
	return nil
}

// FixedStep runs the fixed hook of every component, then pushes the owner's
// Transform into the rigid body when it changed since last observed.
func (m *ComponentMap) FixedStep(owner *GameObjectData, clock Clock) error {
	n := len(m.entries)
	for i := 0; i < n && i < len(m.entries); i++ {
		c := m.entries[i]
		s, ok := c.(FixedStepper)
		if !ok {
			continue
		}
		if err := s.FixedStep(owner, clock); err != nil {
			return &StepError{Phase: PhaseFixedStep, Object: owner.Name, Component: c.TypeName(), Err: err}
		}
	}
	m.syncTransform(owner.Transform)
	return nil
}

func (m *ComponentMap) syncTransform(t transform.Transform) {
	h := t.Hash()
	if h == m.lastHash {
		return
	}
	m.lastHash = h
	if p, ok := Find[TransformPusher](m); ok {
		p.PushTransform(t)
	}
}

// MarkSynced records t as the pose physics already knows about, so the next
// fixed step does not push it back.
func (m *ComponentMap) MarkSynced(t transform.Transform) {
	m.lastHash = t.Hash()
}
