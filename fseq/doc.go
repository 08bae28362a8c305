// Package fseq defines the asynchronous sequence contract shared by
// the flume packages: the [Seq] and [Iterator] interfaces, their
// optional [Canceler] and [Currenter] capabilities, the [Result]
// snapshot type, and the [Map] transform wrapper.
//
// Sequences are tracked throughout flume by reference identity,
// never by value. [Map] is written so that any chain of wrappers
// still resolves to the innermost base sequence, which is what lets
// the rest of the system treat a re-wrapped sequence as the same
// tracked entry.
package fseq
