package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeldSurvivesUntilRelease(t *testing.T) {
	s := NewState()

	frame := NewState()
	frame.Keyboard.Add(KeyW, Press)
	s.Merge(frame)
	assert.True(t, s.Keyboard.IsPressed(KeyW))
	assert.True(t, s.Keyboard.IsHeld(KeyW))

	s.Merge(NewState())
	assert.False(t, s.Keyboard.IsPressed(KeyW))
	assert.True(t, s.Keyboard.IsHeld(KeyW))

	frame = NewState()
	frame.Keyboard.Add(KeyW, Release)
	s.Merge(frame)
	assert.True(t, s.Keyboard.IsReleased(KeyW))
	assert.False(t, s.Keyboard.IsHeld(KeyW))
}

func TestMouseDelta(t *testing.T) {
	s := NewState()
	frame := NewState()
	frame.MousePos = [2]float64{10, 4}
	s.Merge(frame)
	assert.Equal(t, [2]float64{10, -4}, s.MouseDelta)

	frame = NewState()
	frame.MousePos = [2]float64{12, 1}
	frame.Mouse.Add(MouseLeft, Press)
	s.Merge(frame)
	assert.Equal(t, [2]float64{2, 3}, s.MouseDelta)
	assert.True(t, s.Mouse.IsHeld(MouseLeft))
}
