// Package input keeps the per-frame snapshot of keyboard and mouse state that
// components read through the step clock. Producing the events is the job of
// the windowing layer.
package input

type Key uint16

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeySpace
	KeyLeftShift
	KeyEscape
)

type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

type Action uint8

const (
	Press Action = iota
	Release
	Repeat
)

// KeyState tracks the edge-triggered sets of the last frame and the held set,
// which survives across frames until a release is seen.
type KeyState[K comparable] struct {
	Pressed  map[K]struct{}
	Released map[K]struct{}
	Repeated map[K]struct{}
	Held     map[K]struct{}
}

func NewKeyState[K comparable]() KeyState[K] {
	return KeyState[K]{
		Pressed:  make(map[K]struct{}),
		Released: make(map[K]struct{}),
		Repeated: make(map[K]struct{}),
		Held:     make(map[K]struct{}),
	}
}

func (s *KeyState[K]) Add(key K, action Action) {
	switch action {
	case Press:
		s.Pressed[key] = struct{}{}
	case Release:
		s.Released[key] = struct{}{}
	case Repeat:
		s.Repeated[key] = struct{}{}
	}
}

func (s *KeyState[K]) IsPressed(key K) bool {
	_, ok := s.Pressed[key]
	return ok
}

func (s *KeyState[K]) IsReleased(key K) bool {
	_, ok := s.Released[key]
	return ok
}

func (s *KeyState[K]) IsRepeated(key K) bool {
	_, ok := s.Repeated[key]
	return ok
}

func (s *KeyState[K]) IsHeld(key K) bool {
	_, ok := s.Held[key]
	return ok
}

// Merge replaces the edge sets with the ones gathered this frame and updates
// the held set: presses are added, releases removed.
func (s *KeyState[K]) Merge(changes KeyState[K]) {
	s.Pressed = changes.Pressed
	s.Released = changes.Released
	s.Repeated = changes.Repeated
	if s.Held == nil {
		s.Held = make(map[K]struct{})
	}
	for key := range s.Pressed {
		s.Held[key] = struct{}{}
	}
	for key := range s.Released {
		delete(s.Held, key)
	}
}

// State is the snapshot handed to components each frame.
type State struct {
	Keyboard   KeyState[Key]
	Mouse      KeyState[MouseButton]
	MousePos   [2]float64
	MouseDelta [2]float64
}

func NewState() *State {
	return &State{
		Keyboard: NewKeyState[Key](),
		Mouse:    NewKeyState[MouseButton](),
	}
}

// Merge folds one frame of gathered changes into the state. The vertical
// mouse delta is inverted so that moving the mouse up looks up.
func (s *State) Merge(changes *State) {
	s.Keyboard.Merge(changes.Keyboard)
	s.Mouse.Merge(changes.Mouse)
	s.MouseDelta = [2]float64{
		changes.MousePos[0] - s.MousePos[0],
		s.MousePos[1] - changes.MousePos[1],
	}
	s.MousePos = changes.MousePos
}

// Source is implemented by the windowing layer. Poll returns the changes
// gathered since the previous call and whether the window asked to close.
type Source interface {
	Poll() (changes *State, closeRequested bool)
}
