package models

import (
	"fmt"
	"time"

	"github.com/zeusync/glengine/internal/core/input"
)

// Clock is handed to every hook of a pass.
type Clock struct {
	// Delta is the time elapsed since the previous pass of the same kind.
	Delta time.Duration
	// Input is the input snapshot of the current frame. Never nil when
	// produced by the engine loop.
	Input *input.State
	// Frame counts passes of the same kind, starting at 1.
	Frame uint64
}

// Seconds returns Delta in seconds.
func (c Clock) Seconds() float32 { return float32(c.Delta.Seconds()) }

// KeyHeld is a nil-safe shortcut into the keyboard state.
func (c Clock) KeyHeld(k input.Key) bool {
	return c.Input != nil && c.Input.Keyboard.IsHeld(k)
}

type Phase uint8

const (
	PhaseSetup Phase = iota
	PhaseStep
	PhaseFixedStep
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseStep:
		return "step"
	case PhaseFixedStep:
		return "fixed_step"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// StepError is a recoverable tick-level failure reported by a component
// hook. Hooks that already ran in the same pass keep their effects.
type StepError struct {
	Phase     Phase
	Object    string
	Component string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s of %s on %q: %v", e.Phase, e.Component, e.Object, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
