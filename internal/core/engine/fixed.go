package engine

import "time"

// FixedStepAccumulator converts variable frame time into a whole number of
// fixed ticks. At most max ticks are released per call; anything beyond
// that is dropped so that a long stall cannot snowball into an ever-growing
// backlog.
type FixedStepAccumulator struct {
	step time.Duration
	max  int
	acc  time.Duration
}

// NewFixedStepAccumulator falls back to DefaultFixedStep for a
// non-positive step. max <= 0 removes the cap.
func NewFixedStepAccumulator(step time.Duration, max int) *FixedStepAccumulator {
	if step <= 0 {
		step = DefaultFixedStep
	}
	return &FixedStepAccumulator{step: step, max: max}
}

func (a *FixedStepAccumulator) Step() time.Duration { return a.step }

// Pending is the time carried over to the next Advance.
func (a *FixedStepAccumulator) Pending() time.Duration { return a.acc }

// Advance adds elapsed and returns the ticks to run now and the ticks
// dropped by the cap.
func (a *FixedStepAccumulator) Advance(elapsed time.Duration) (ticks, dropped int) {
	if elapsed > 0 {
		a.acc += elapsed
	}
	ticks = int(a.acc / a.step)
	a.acc -= time.Duration(ticks) * a.step
	if a.max > 0 && ticks > a.max {
		dropped = ticks - a.max
		ticks = a.max
	}
	return ticks, dropped
}

func (a *FixedStepAccumulator) Reset() { a.acc = 0 }
