package fpubsub

import (
	"context"

	"github.com/flume-engine/flume/fseq"
)

// Seq returns the channel's [fseq.Seq] view.
//
// The same view object is returned on every call, so tracking the
// channel by identity keeps a single entry no matter how many times
// the view is re-obtained or re-wrapped with [fseq.Map].
//
// The view is also a [fseq.Currenter] reporting the live snapshot,
// and its iterators are [fseq.Canceler]s that cancel only their own
// backing cursor.
func (c *Channel[T]) Seq() fseq.Seq {
	return c.seq
}

type channelSeq[T any] struct {
	c *Channel[T]
}

func (s *channelSeq[T]) Iter() fseq.Iterator {
	return &cursorIter[T]{cu: s.c.Subscribe()}
}

func (s *channelSeq[T]) Current() any {
	return s.c.Current()
}

type cursorIter[T any] struct {
	cu *Cursor[T]
}

func (it *cursorIter[T]) Next(ctx context.Context) (any, bool, error) {
	v, ok, err := it.cu.Next(ctx)
	if !ok || err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (it *cursorIter[T]) Cancel() {
	it.cu.Cancel()
}
