package fdrive

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/flume-engine/flume/fseq"
)

// Driver pulls one base sequence and reports deduplicated results.
//
// A Driver obtains exactly one iterator handle for its entire
// lifetime; re-subscribing to a sequence always means a new Driver.
// The pull loop runs on its own goroutine and invokes the update
// callback synchronously there, so the callback must be safe to run
// off the caller's goroutine.
type Driver struct {
	log *slog.Logger

	it fseq.Iterator

	format *fseq.Cell

	onUpdate func(fseq.Result)

	cancel context.CancelFunc

	// Set by Destroy before the iterator is cancelled,
	// so a pull already in flight discards its value on return.
	closed atomic.Bool

	done chan struct{}

	mu  sync.Mutex
	res fseq.Result
}

// Config is the configuration for a [Driver].
type Config struct {
	// The sequence to drive. Required.
	//
	// A [fseq.Map] wrapper may be passed directly:
	// when Format is nil, New resolves the wrapper and drives
	// the base sequence with the wrapper's composed mapping.
	Seq fseq.Seq

	// The latest mapping function for the sequence's values,
	// read once per pulled value.
	// Nil means the values are driven untransformed
	// (unless Seq is a wrapper, per above).
	Format *fseq.Cell

	// The state to report until the first value is accepted.
	Start fseq.Result

	// Called synchronously on the driver's goroutine after every
	// accepted value, and once more on termination. Required.
	OnUpdate func(fseq.Result)
}

// New creates a Driver over cfg.Seq, seeded with cfg.Start,
// and starts its pull loop.
//
// The loop stops on its own when the sequence ends,
// when ctx is canceled, or when [*Driver.Destroy] is called.
func New(ctx context.Context, log *slog.Logger, cfg Config) *Driver {
	if log == nil {
		panic(errors.New("BUG: log must not be nil"))
	}
	if cfg.Seq == nil {
		panic(errors.New("BUG: cfg.Seq must not be nil"))
	}
	if cfg.OnUpdate == nil {
		panic(errors.New("BUG: cfg.OnUpdate must not be nil"))
	}

	seq := cfg.Seq
	format := cfg.Format
	if format == nil {
		if origin, fn := fseq.Resolve(seq); fn != nil {
			seq = origin
			format = fseq.NewCell(fn)
		}
	}

	ctx, cancel := context.WithCancel(ctx)

	d := &Driver{
		log:      log,
		it:       seq.Iter(),
		format:   format,
		onUpdate: cfg.OnUpdate,
		cancel:   cancel,
		done:     make(chan struct{}),
		res:      cfg.Start,
	}

	go d.pull(ctx)

	return d
}

// Result returns the current state snapshot.
// It may be called from any goroutine.
func (d *Driver) Result() fseq.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.res
}

// Destroy stops the pull loop.
//
// The internal closed flag is set before anything else,
// so a pull already in flight discards its value on return.
// If the iterator handle is a [fseq.Canceler] its Cancel method is
// invoked once; absence of the capability is not an error.
// Destroy is safe to call multiple times.
func (d *Driver) Destroy() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}

	d.cancel()

	if c, ok := d.it.(fseq.Canceler); ok {
		c.Cancel()
	}
}

// Wait blocks until the pull goroutine has exited.
func (d *Driver) Wait() {
	<-d.done
}

func (d *Driver) pull(ctx context.Context) {
	defer close(d.done)
	defer d.cancel()

	i := 0
	delivered := false
	var last any

	for {
		v, ok, err := d.it.Next(ctx)

		if d.closed.Load() || ctx.Err() != nil {
			// Destroyed while the pull was in flight.
			return
		}

		if err != nil || !ok {
			d.finish(err)
			return
		}

		if d.format != nil {
			if fn := d.format.Load(); fn != nil {
				v = fn(v, i)
			}
		}
		i++

		// Suppress consecutive duplicates of the last delivered value.
		// The seed value is not a baseline:
		// a first value equal to it is still delivered.
		if delivered && fseq.Same(v, last) {
			continue
		}
		delivered = true
		last = v

		d.mu.Lock()
		res := fseq.Result{Value: v}
		d.res = res
		d.mu.Unlock()

		d.onUpdate(res)
	}
}

func (d *Driver) finish(err error) {
	d.mu.Lock()
	res := fseq.Result{Value: d.res.Value, Done: true, Err: err}
	d.res = res
	d.mu.Unlock()

	if err != nil {
		d.log.Debug("Sequence ended with error", "err", err)
	}

	d.onUpdate(res)
}
