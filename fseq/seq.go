package fseq

import "context"

// Seq is an asynchronous sequence of values.
//
// A Seq is a factory for iterator handles:
// every call to Iter obtains a fresh, independent handle,
// and consumers that want exactly one subscription
// must hold on to the one handle they obtained.
//
// Seq implementations must have a comparable dynamic type,
// pointer-shaped in practice,
// because consumers track sequences by reference identity.
type Seq interface {
	Iter() Iterator
}

// Iterator is one obtained handle over a [Seq].
type Iterator interface {
	// Next blocks until the next value is available,
	// the sequence ends, or ctx is done.
	//
	// ok=false means the handle is finished and no further call
	// will yield a value.
	// err, if non-nil, is the terminal error of the sequence,
	// and is only ever returned alongside ok=false.
	Next(ctx context.Context) (v any, ok bool, err error)
}

// Canceler is an optional capability of an [Iterator]:
// a handle that can release its underlying subscription early.
//
// Consumers discover the capability with a type assertion;
// its absence is not an error.
type Canceler interface {
	Cancel()
}

// Currenter is an optional capability of a [Seq]:
// a sequence that can synchronously report a ready current value,
// before any value has been pulled through an iterator.
type Currenter interface {
	Current() any
}
