package fseqtest

import (
	"context"

	"github.com/flume-engine/flume/fseq"
)

// Fixed is a finite [fseq.Seq] over a fixed slice of values.
// Every iterator handle replays the values from the start and then
// ends normally.
type Fixed struct {
	vals []any
}

// NewFixed returns a Fixed yielding vals in order.
func NewFixed(vals ...any) *Fixed {
	return &Fixed{vals: vals}
}

func (f *Fixed) Iter() fseq.Iterator {
	return &fixedIter{vals: f.vals}
}

type fixedIter struct {
	vals []any
	i    int
}

func (it *fixedIter) Next(ctx context.Context) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if it.i >= len(it.vals) {
		return nil, false, nil
	}

	v := it.vals[it.i]
	it.i++
	return v, true, nil
}
