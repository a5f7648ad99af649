package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNilScene       = errors.New("engine: nil scene")
	ErrInvalidOptions = errors.New("engine: invalid options")
	ErrRunning        = errors.New("engine: already running")
)

// Stage names the part of the loop an error came from.
type Stage uint8

const (
	StageStep Stage = iota
	StageFixedStep
	StageRender
)

func (s Stage) String() string {
	switch s {
	case StageStep:
		return "step"
	case StageFixedStep:
		return "fixed step"
	case StageRender:
		return "render"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// RunError is returned by the loop when a pass fails. The pass is left
// partially applied.
type RunError struct {
	Stage Stage
	Frame uint64
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("engine %s error at frame %d: %v", e.Stage, e.Frame, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
