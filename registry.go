package flume

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/flume-engine/flume/fdrive"
	"github.com/flume-engine/flume/fseq"
)

// Registry binds a dynamic, ordered set of inputs --
// asynchronous sequences or plain values --
// into an ordered set of observable results,
// keeping one [fdrive.Driver] per distinct base sequence.
//
// Methods on Registry are intended for a single external caller and
// must not be called concurrently with each other.
// Driver updates arrive on the drivers' own goroutines and are
// synchronized internally.
type Registry struct {
	log *slog.Logger

	// Parent context for driver pull loops.
	ctx context.Context

	// Guards everything below.
	// Held across a whole reconcile round,
	// and briefly by driver callbacks writing results through.
	mu sync.Mutex

	// Two-valued generation tag, flipped each round.
	// Only the immediately preceding round's entries
	// are ever compared against it.
	gen bool

	// Tracked entries, keyed by base sequence identity.
	entries map[fseq.Seq]*entry

	// The last returned results, retained for position continuity
	// and replaced in place as drivers report.
	results []fseq.Result

	// Input positions that re-claimed an already tracked entry in
	// the current round. Its count bounds the destroy pass.
	preserved bitset.BitSet

	// The latest notify callback supplied to Reconcile.
	notify func()
}

// entry is the per-origin tracking record.
type entry struct {
	gen bool

	// Position in the retained results; follows the origin
	// around as rounds reorder the inputs.
	pos int

	// The latest mapping function, overwritten every round.
	fn *fseq.Cell

	drv *fdrive.Driver

	// The last result handed out for this origin.
	res fseq.Result

	// Set once the entry is being destroyed, so a write-back that
	// was already in flight does not touch a reassigned position.
	dead bool
}

// NewRegistry returns an empty registry.
//
// Drivers created by [*Registry.Reconcile] stop if ctx is canceled,
// but [*Registry.Teardown] remains the explicit shutdown path.
func NewRegistry(ctx context.Context, log *slog.Logger) *Registry {
	return &Registry{
		log:     log,
		ctx:     ctx,
		entries: make(map[fseq.Seq]*entry),
	}
}

// Options adjusts how [*Registry.Reconcile] seeds newly tracked
// sequences that have no ready snapshot of their own.
type Options struct {
	// Positional starting values, indexed like the inputs.
	Initial []any

	// Fallback when no positional value applies.
	DefaultInitial any
}

// Reconcile matches inputs against the currently tracked set and
// returns the ordered results, one per input.
//
// Plain (non-sequence) inputs become immediate, non-pending results.
// Sequence inputs are tracked by the identity of their base
// sequence: [fseq.Map] wrappers are resolved first, so re-wrapping
// the same base sequence between rounds neither restarts iteration
// nor loses accumulated state; only the stored mapping function is
// refreshed. A sequence that disappeared from the inputs is
// destroyed, exactly once, and only genuinely disappeared sequences
// are visited by the destroy pass.
//
// A newly tracked sequence is seeded from, in order of preference:
// its own ready snapshot (the result then starts non-pending),
// the value that occupied the same position in the previous round,
// opts.Initial at the same position, or opts.DefaultInitial.
//
// notify is retained, latest wins, and invoked with no arguments
// every time any tracked driver accepts a value; the caller is
// expected to re-read the current results in response. It runs on a
// driver goroutine. The returned slice is retained by the Registry
// and its elements are replaced in place as drivers report; callers
// wanting a stable snapshot must copy it.
func (r *Registry) Reconcile(inputs []any, opts Options, notify func()) []fseq.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevTracked := len(r.entries)
	r.gen = !r.gen
	r.preserved.ClearAll()
	r.notify = notify

	prev := r.results
	out := make([]fseq.Result, len(inputs))

	for i, in := range inputs {
		s, ok := in.(fseq.Seq)
		if !ok {
			out[i] = fseq.Result{Value: in}
			continue
		}

		origin, fn := fseq.Resolve(s)

		if e, tracked := r.entries[origin]; tracked {
			if e.gen != r.gen {
				e.gen = r.gen
				r.preserved.Set(uint(i))
			}
			e.fn.Store(fn)
			e.pos = i
			out[i] = e.res
			continue
		}

		start := fseq.Result{PendingFirst: true}
		if cur, ready := in.(fseq.Currenter); ready {
			start = fseq.Result{Value: cur.Current()}
		} else if i < len(prev) {
			start.Value = prev[i].Value
		} else if i < len(opts.Initial) {
			start.Value = opts.Initial[i]
		} else {
			start.Value = opts.DefaultInitial
		}

		e := &entry{
			gen: r.gen,
			pos: i,
			fn:  fseq.NewCell(fn),
			res: start,
		}
		e.drv = fdrive.New(r.ctx, r.log, fdrive.Config{
			Seq:      origin,
			Format:   e.fn,
			Start:    start,
			OnUpdate: r.writeBack(e),
		})

		r.entries[origin] = e
		out[i] = start
	}

	// Anything still carrying the previous round's tag disappeared.
	// The budget holds the pass to exactly the disappeared count,
	// so an origin that also reappeared this round under a
	// different position can never be swept by mistake.
	budget := prevTracked - int(r.preserved.Count())
	for origin, e := range r.entries {
		if budget == 0 {
			break
		}
		if e.gen == r.gen {
			continue
		}

		delete(r.entries, origin)
		e.dead = true
		e.drv.Destroy()
		budget--

		r.log.Debug("Destroyed driver for removed sequence", "pos", e.pos)
	}

	r.results = out
	return out
}

// writeBack returns the driver callback for e: replace the result at
// e's current position and fire the latest notify.
func (r *Registry) writeBack(e *entry) func(fseq.Result) {
	return func(res fseq.Result) {
		r.mu.Lock()

		if e.dead {
			r.mu.Unlock()
			return
		}

		e.res = res
		if e.pos < len(r.results) {
			r.results[e.pos] = res
		}
		notify := r.notify

		r.mu.Unlock()

		if notify != nil {
			notify()
		}
	}
}

// Teardown destroys every tracked driver unconditionally and waits
// for their pull loops to exit. The registry is empty afterwards and
// may be reused. Teardown is safe to call multiple times.
func (r *Registry) Teardown() {
	r.mu.Lock()

	entries := r.entries
	r.entries = make(map[fseq.Seq]*entry)
	r.results = nil
	r.notify = nil

	for _, e := range entries {
		e.dead = true
	}

	r.mu.Unlock()

	for _, e := range entries {
		e.drv.Destroy()
	}
	for _, e := range entries {
		e.drv.Wait()
	}
}
