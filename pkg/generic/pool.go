package generic

import "sync"

// Pool is a typed wrapper over sync.Pool.
type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

// NewHotPool pre-fills the pool with hotSize values.
func NewHotPool[T any](generate func() T, hotSize int) *Pool[T] {
	p := NewPool[T](generate)
	for i := 0; i < hotSize; i++ {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// SlicePool recycles slice backing arrays between per-tick passes. Get
// always returns an empty slice.
type SlicePool[T any] struct {
	pool    *Pool[*[]T]
	maxKeep int
}

// NewSlicePool creates a pool whose fresh slices have capacity capHint.
// Slices that grew beyond maxKeep elements are dropped on Put so that one
// large tick does not pin memory; maxKeep <= 0 keeps everything.
func NewSlicePool[T any](capHint, maxKeep int) *SlicePool[T] {
	return &SlicePool[T]{
		pool: NewPool(func() *[]T {
			s := make([]T, 0, capHint)
			return &s
		}),
		maxKeep: maxKeep,
	}
}

func (p *SlicePool[T]) Get() *[]T {
	s := p.pool.Get()
	*s = (*s)[:0]
	return s
}

// Put clears the slice so pooled values do not keep references alive.
func (p *SlicePool[T]) Put(s *[]T) {
	if s == nil {
		return
	}
	if p.maxKeep > 0 && cap(*s) > p.maxKeep {
		return
	}
	clear((*s)[:cap(*s)])
	*s = (*s)[:0]
	p.pool.Put(s)
}
