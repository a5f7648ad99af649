package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolGenerates(t *testing.T) {
	calls := 0
	p := NewHotPool(func() int { calls++; return 7 }, 2)
	assert.Equal(t, 7, p.Get())
	assert.GreaterOrEqual(t, calls, 2)
}

func TestSlicePoolReturnsEmptySlices(t *testing.T) {
	p := NewSlicePool[*int](4, 16)
	s := p.Get()
	assert.Empty(t, *s)
	v := 1
	*s = append(*s, &v, &v)
	p.Put(s)

	again := p.Get()
	assert.Empty(t, *again)
	for _, ptr := range (*again)[:cap(*again)] {
		assert.Nil(t, ptr)
	}
}

func TestSlicePoolDropsOversized(t *testing.T) {
	p := NewSlicePool[int](0, 2)
	s := p.Get()
	*s = append(*s, 1, 2, 3, 4)
	assert.NotPanics(t, func() { p.Put(s) })
	assert.NotPanics(t, func() { p.Put(nil) })
}
