package fseq

import "context"

// Map transforms source through fn.
//
// If source is not a [Seq], there is nothing asynchronous to do:
// Map applies fn immediately and returns fn(source, 0).
//
// Otherwise Map returns a new [Seq] whose iterators yield fn applied
// to each of source's values. Wrapping an already-mapped sequence
// does not stack iterators: the mapping functions are composed at
// construction time, outer over inner, and the composed chain shares
// a single per-handle value index, so iteration always pulls the
// innermost origin directly. [Resolve] reports that origin, which is
// how repeated wrapping around one base sequence keeps a single
// tracked identity.
//
// If the origin is a [Currenter], so is the returned sequence:
// its Current applies the composed mapping at index 0,
// lazily on every read, never cached.
func Map(source any, fn MapFunc) any {
	s, ok := source.(Seq)
	if !ok {
		return fn(source, 0)
	}

	origin, inner := Resolve(s)

	composed := fn
	if inner != nil {
		composed = compose(inner, fn)
	}

	m := mapped{origin: origin, fn: composed}
	if _, ok := origin.(Currenter); ok {
		return &mappedCurrent{mapped: m}
	}
	return &m
}

// Resolve unwraps any chain of [Map] wrappers, returning the
// innermost base sequence and the composed mapping function.
// fn is nil when s is not a wrapper.
func Resolve(s Seq) (origin Seq, fn MapFunc) {
	origin = s
	for {
		w, ok := origin.(wrapper)
		if !ok {
			return origin, fn
		}

		var wfn MapFunc
		origin, wfn = w.unwrap()

		if fn == nil {
			fn = wfn
		} else {
			fn = compose(wfn, fn)
		}
	}
}

// compose applies inner first, then outer, at the same index.
func compose(inner, outer MapFunc) MapFunc {
	return func(v any, i int) any {
		return outer(inner(v, i), i)
	}
}

// wrapper is the hidden metadata carried by mapped sequences.
// It exists for [Resolve]; nothing else inspects it.
type wrapper interface {
	unwrap() (origin Seq, fn MapFunc)
}

type mapped struct {
	origin Seq
	fn     MapFunc
}

func (m *mapped) Iter() Iterator {
	return &mapIter{it: m.origin.Iter(), fn: m.fn}
}

func (m *mapped) unwrap() (Seq, MapFunc) {
	return m.origin, m.fn
}

// mappedCurrent is the wrapper used when the origin is a [Currenter],
// so that the snapshot capability survives wrapping.
type mappedCurrent struct {
	mapped
}

func (m *mappedCurrent) Current() any {
	return m.fn(m.origin.(Currenter).Current(), 0)
}

type mapIter struct {
	it Iterator
	fn MapFunc
	i  int
}

func (it *mapIter) Next(ctx context.Context) (any, bool, error) {
	v, ok, err := it.it.Next(ctx)
	if !ok || err != nil {
		return nil, false, err
	}

	v = it.fn(v, it.i)
	it.i++

	return v, true, nil
}

// Cancel forwards to the underlying handle
// when it supports cancellation.
func (it *mapIter) Cancel() {
	if c, ok := it.it.(Canceler); ok {
		c.Cancel()
	}
}
