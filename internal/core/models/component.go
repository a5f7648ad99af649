package models

import (
	"reflect"
	"sync"

	"github.com/zeusync/glengine/internal/core/transform"
)

// Component is a capability attached to a GameObject. Any type may be a
// component; the optional hooks below are discovered by type assertion and
// default to no-ops when absent.
type Component interface {
	// TypeName is a human readable kind name used in logs and errors.
	TypeName() string
}

// Setup is invoked once, synchronously, when the component is attached.
// The hook may modify the owner's Transform and read sibling components.
type Setup interface {
	Setup(owner *GameObjectData) error
}

// Stepper is invoked once per variable-length frame.
type Stepper interface {
	Step(owner *GameObjectData, clock Clock) error
}

// FixedStepper is invoked once per fixed-duration tick.
type FixedStepper interface {
	FixedStep(owner *GameObjectData, clock Clock) error
}

// TransformPusher receives the owner's Transform when game logic changed it
// outside of physics. Rigid body components implement it.
type TransformPusher interface {
	PushTransform(t transform.Transform)
}

// Kind identifies a component type. Kinds are assigned on first use and are
// stable for the life of the process.
type Kind uint32

var kinds = struct {
	sync.RWMutex
	byType map[reflect.Type]Kind
	names  []string
}{byType: make(map[reflect.Type]Kind)}

func kindOfType(t reflect.Type) Kind {
	kinds.RLock()
	k, ok := kinds.byType[t]
	kinds.RUnlock()
	if ok {
		return k
	}

	kinds.Lock()
	defer kinds.Unlock()
	if k, ok = kinds.byType[t]; ok {
		return k
	}
	k = Kind(len(kinds.names))
	kinds.byType[t] = k
	kinds.names = append(kinds.names, t.String())
	return k
}

// KindOf returns the kind of a component value.
func KindOf(c Component) Kind {
	return kindOfType(reflect.TypeOf(c))
}

// KindFor returns the kind of the component type T, e.g. KindFor[*Rotating]().
func KindFor[T Component]() Kind {
	return kindOfType(reflect.TypeFor[T]())
}

func (k Kind) String() string {
	kinds.RLock()
	defer kinds.RUnlock()
	if int(k) < len(kinds.names) {
		return kinds.names[k]
	}
	return "unknown"
}
