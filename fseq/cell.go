package fseq

import "sync/atomic"

// MapFunc transforms one sequence value.
// i is the zero-based index of the value within the lifetime of
// one iterator handle, shared across a composed chain of mappings.
type MapFunc func(v any, i int) any

// Cell holds the latest [MapFunc] for a driven sequence.
//
// The consumer that owns the sequence overwrites the cell whenever
// the caller supplies a fresh mapping closure, and the driver reads
// the cell once per pulled value, so the newest mapping logic always
// applies without restarting iteration.
type Cell struct {
	fn atomic.Pointer[MapFunc]
}

// NewCell returns a Cell holding fn, which may be nil.
func NewCell(fn MapFunc) *Cell {
	c := new(Cell)
	c.Store(fn)
	return c
}

// Store replaces the held mapping function.
func (c *Cell) Store(fn MapFunc) {
	if fn == nil {
		c.fn.Store(nil)
		return
	}
	c.fn.Store(&fn)
}

// Load returns the held mapping function, or nil.
func (c *Cell) Load() MapFunc {
	p := c.fn.Load()
	if p == nil {
		return nil
	}
	return *p
}
