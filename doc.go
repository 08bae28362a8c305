// Package flume binds live, push-based asynchronous sequences into
// stateful, observable results that update over time.
//
// The [Registry] is the entry point for callers holding a changing
// set of inputs: each reconcile round matches the inputs against the
// previously tracked sequences by base-sequence identity, starts and
// stops drivers as sequences appear and disappear, and returns the
// ordered results. [fseq.Map] wraps a sequence with a value
// transform without disturbing that identity, and a fpubsub.Channel
// is a multicast state container usable as an input by many
// independent observers at once.
//
// Rendering, batching, and any other reaction to updated results are
// the caller's concern: flume only invokes the caller's notify
// callback and leaves the latest results readable.
package flume
