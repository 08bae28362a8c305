package fpubsub

import (
	"context"
	"sync"

	"github.com/juju/collections/deque"
)

// Channel is a push-fed asynchronous sequence with a live current
// value, safe for concurrent use by producers and any number of
// independent consumers.
//
// Each consumer obtains its own [Cursor] and observes every value
// put after the cursor was created, in put order, regardless of how
// the consumers pace each other.
//
// If a cursor is never pulled, its private queue grows without
// bound, which is a memory leak.
type Channel[T any] struct {
	mu sync.Mutex

	current T
	closed  bool

	cursors map[*Cursor[T]]struct{}

	seq *channelSeq[T]
}

// NewChannel returns an open Channel whose current value is initial.
func NewChannel[T any](initial T) *Channel[T] {
	c := &Channel[T]{
		current: initial,
		cursors: make(map[*Cursor[T]]struct{}),
	}

	// One stable sequence view per channel, created up front,
	// so consumers tracking sequences by identity always see
	// the same object no matter how often the view is re-obtained.
	c.seq = &channelSeq[T]{c: c}

	return c
}

// Put updates the current value and delivers v to every live cursor.
//
// Put never blocks: a cursor with a pull outstanding is resolved
// immediately, every other cursor has v appended to its private
// queue for its next pull.
//
// Put on a closed channel is a no-op.
func (c *Channel[T]) Put(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.current = v

	for cu := range c.cursors {
		cu.deliver(v)
	}
}

// Close marks the channel closed.
//
// Every outstanding pull, on every cursor, resolves to done,
// as does any pull made afterward, including the first pull of a
// cursor created after closing. Values still queued on a cursor are
// dropped. The current value is retained as last written.
//
// Close is safe to call multiple times.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for cu := range c.cursors {
		cu.finish()
	}
}

// Current returns the live snapshot: the last value put,
// or the initial value if nothing has been put yet.
// It keeps reporting the last written value after Close.
func (c *Channel[T]) Current() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Subscribe registers a new consumer.
//
// The cursor observes every value put after this call.
// On an already closed channel the cursor's first pull
// immediately reports done.
func (c *Channel[T]) Subscribe() *Cursor[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	cu := &Cursor[T]{c: c, queue: deque.New()}
	if !c.closed {
		c.cursors[cu] = struct{}{}
	}

	return cu
}

// Cursor is one consumer's independent position into a [Channel].
//
// A Cursor must not be shared between goroutines pulling
// concurrently; each consumer subscribes for its own.
type Cursor[T any] struct {
	c *Channel[T]

	// All fields below are guarded by c.mu.

	queue *deque.Deque

	// The pending-waiter slot: non-nil exactly while a pull is
	// suspended with an empty queue. Buffered so resolution
	// never blocks the resolving goroutine.
	waiter chan pulled[T]

	done bool
}

type pulled[T any] struct {
	v  T
	ok bool
}

// Next blocks until a value is available, the channel is closed,
// the cursor is cancelled, or ctx is done.
//
// ok=false with a nil err means this cursor is finished and every
// subsequent call also reports ok=false. A non-nil err is only ever
// returned when the pull was abandoned because ctx was done first;
// the cursor itself is still live and a later pull with a fresh
// context can yield values again.
func (cu *Cursor[T]) Next(ctx context.Context) (v T, ok bool, err error) {
	cu.c.mu.Lock()

	if cu.done {
		cu.c.mu.Unlock()
		return v, false, nil
	}

	if e, qok := cu.queue.PopFront(); qok {
		cu.c.mu.Unlock()
		return e.(T), true, nil
	}

	if cu.c.closed {
		cu.finish()
		cu.c.mu.Unlock()
		return v, false, nil
	}

	w := make(chan pulled[T], 1)
	cu.waiter = w
	cu.c.mu.Unlock()

	select {
	case p := <-w:
		return p.v, p.ok, nil

	case <-ctx.Done():
		cu.c.mu.Lock()
		if cu.waiter == w {
			cu.waiter = nil
		}
		cu.c.mu.Unlock()

		// A resolution may have raced ctx; prefer it over the
		// context error so the value is not dropped.
		select {
		case p := <-w:
			return p.v, p.ok, nil
		default:
		}

		return v, false, ctx.Err()
	}
}

// Cancel resolves this cursor's outstanding and future pulls to
// done. Other cursors of the same channel are unaffected.
// Cancel is safe to call multiple times.
func (cu *Cursor[T]) Cancel() {
	cu.c.mu.Lock()
	defer cu.c.mu.Unlock()

	cu.finish()
}

// deliver hands v to a suspended pull, or queues it.
// Must be called with c.mu held.
func (cu *Cursor[T]) deliver(v T) {
	if cu.done {
		return
	}

	if cu.waiter != nil {
		cu.waiter <- pulled[T]{v: v, ok: true}
		cu.waiter = nil
		return
	}

	cu.queue.PushBack(v)
}

// finish retires the cursor, resolving any suspended pull to done.
// Must be called with c.mu held. Idempotent.
func (cu *Cursor[T]) finish() {
	if cu.done {
		return
	}
	cu.done = true

	delete(cu.c.cursors, cu)

	if cu.waiter != nil {
		cu.waiter <- pulled[T]{}
		cu.waiter = nil
	}
}
