package fseqtest

import (
	"context"
	"sync"

	"github.com/flume-engine/flume/fseq"
)

// Script is a [fseq.Seq] fed explicitly by the test.
//
// Values move through an unbuffered channel, so the Put, End, and
// Fail methods block until a pulling iterator accepts the event.
// That rendezvous is usually what a test wants: after Put returns,
// the value is known to have been pulled.
//
// A Script is meant to be consumed through one iterator handle at a
// time; concurrent handles would race for the same events.
type Script struct {
	events chan scriptEvent

	mu      sync.Mutex
	iters   int
	cancels int
}

type scriptEvent struct {
	v   any
	end bool
	err error
}

// NewScript returns a Script with no scripted events yet.
func NewScript() *Script {
	return &Script{events: make(chan scriptEvent)}
}

// Put delivers v, blocking until it is pulled.
func (s *Script) Put(v any) {
	s.events <- scriptEvent{v: v}
}

// End terminates the sequence normally,
// blocking until the termination is pulled.
func (s *Script) End() {
	s.events <- scriptEvent{end: true}
}

// Fail terminates the sequence with err,
// blocking until the termination is pulled.
func (s *Script) Fail(err error) {
	s.events <- scriptEvent{end: true, err: err}
}

// Iters reports how many iterator handles have been obtained.
func (s *Script) Iters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iters
}

// Cancels reports how many times a handle's Cancel ran.
func (s *Script) Cancels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

func (s *Script) Iter() fseq.Iterator {
	s.mu.Lock()
	s.iters++
	s.mu.Unlock()

	return &scriptIter{s: s, canceled: make(chan struct{})}
}

type scriptIter struct {
	s *Script

	cancelOnce sync.Once
	canceled   chan struct{}
}

func (it *scriptIter) Next(ctx context.Context) (any, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-it.canceled:
		return nil, false, nil
	case e := <-it.s.events:
		if e.end {
			return nil, false, e.err
		}
		return e.v, true, nil
	}
}

func (it *scriptIter) Cancel() {
	it.cancelOnce.Do(func() {
		it.s.mu.Lock()
		it.s.cancels++
		it.s.mu.Unlock()

		close(it.canceled)
	})
}
