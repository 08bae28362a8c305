package fseq

// Result is the observable state of one driven sequence.
//
// Results are replaced wholesale and never mutated in place,
// so a Result read by one consumer remains a valid snapshot
// even after the driver reporting it has moved on.
type Result struct {
	// The last accepted value.
	// While PendingFirst is true this holds the starting value
	// the driver was seeded with.
	// Once Done is true it retains the last accepted value forever.
	Value any

	// No value has been accepted yet; Value is only a seed.
	// PendingFirst is never true at the same time as Done.
	PendingFirst bool

	// Iteration has ended, normally or with Err.
	// A Done result is terminal.
	Done bool

	// The terminal error, if iteration failed.
	// Err is only ever non-nil when Done is true.
	Err error
}
