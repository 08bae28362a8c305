package flume_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/flume-engine/flume"
	"github.com/flume-engine/flume/fpubsub"
	"github.com/flume-engine/flume/fseq"
	"github.com/flume-engine/flume/fseq/fseqtest"
	"github.com/flume-engine/flume/internal/ftest"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *flume.Registry {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := flume.NewRegistry(ctx, slogt.New(t))
	t.Cleanup(r.Teardown)

	return r
}

// notifier returns a notify callback feeding the returned channel.
func notifier() (func(), chan struct{}) {
	ch := make(chan struct{}, 16)
	return func() { ch <- struct{}{} }, ch
}

func TestReconcile_plainValuesAreImmediate(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	res := r.Reconcile([]any{1, "a", nil}, flume.Options{}, func() {})

	require.Equal(t, []fseq.Result{
		{Value: 1},
		{Value: "a"},
		{Value: nil},
	}, res)
}

func TestReconcile_seedsNewSequences(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	s1 := fseqtest.NewScript()
	s2 := fseqtest.NewScript()
	ch := fpubsub.NewChannel(42)

	res := r.Reconcile(
		[]any{s1, s2, ch.Seq()},
		flume.Options{Initial: []any{"one"}, DefaultInitial: "dflt"},
		func() {},
	)

	// Positional initial value, then the default fallback.
	require.Equal(t, fseq.Result{Value: "one", PendingFirst: true}, res[0])
	require.Equal(t, fseq.Result{Value: "dflt", PendingFirst: true}, res[1])

	// A ready snapshot starts non-pending.
	require.Equal(t, fseq.Result{Value: 42}, res[2])
}

func TestReconcile_driverUpdatesWriteThrough(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	s := fseqtest.NewScript()
	notify, notified := notifier()

	res := r.Reconcile([]any{s}, flume.Options{DefaultInitial: 0}, notify)
	require.True(t, res[0].PendingFirst)

	s.Put(7)
	ftest.ReceiveSoon(t, notified)
	require.Equal(t, fseq.Result{Value: 7}, res[0])

	errBoom := errors.New("boom")
	s.Fail(errBoom)
	ftest.ReceiveSoon(t, notified)

	require.True(t, res[0].Done)
	require.ErrorIs(t, res[0].Err, errBoom)
	require.Equal(t, 7, res[0].Value)
}

func TestReconcile_rewrapKeepsDriverAndState(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	s := fseqtest.NewScript()
	notify, notified := notifier()

	f := func(v any, i int) any { return fmt.Sprintf("f(%v)", v) }
	res := r.Reconcile([]any{fseq.Map(s, f)}, flume.Options{}, notify)

	s.Put(1)
	ftest.ReceiveSoon(t, notified)
	require.Equal(t, "f(1)", res[0].Value)

	// A structurally different wrapper around the same base sequence
	// is the same tracked entry: no new handle, no cancellation,
	// accumulated state preserved.
	g := func(v any, i int) any { return fmt.Sprintf("g(%v)", v) }
	res2 := r.Reconcile([]any{fseq.Map(s, g)}, flume.Options{}, notify)

	require.Equal(t, 1, s.Iters())
	require.Zero(t, s.Cancels())
	require.Equal(t, "f(1)", res2[0].Value)

	// New values run through the freshest mapping.
	s.Put(2)
	ftest.ReceiveSoon(t, notified)
	require.Equal(t, "g(2)", res2[0].Value)
}

func TestReconcile_reorderFollowsIdentity(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	s1 := fseqtest.NewScript()
	s2 := fseqtest.NewScript()
	notify, notified := notifier()

	r.Reconcile([]any{s1, s2}, flume.Options{DefaultInitial: 0}, notify)

	s1.Put("a")
	ftest.ReceiveSoon(t, notified)
	s2.Put("b")
	ftest.ReceiveSoon(t, notified)

	res := r.Reconcile([]any{s2, s1}, flume.Options{}, notify)

	require.Equal(t, "b", res[0].Value)
	require.Equal(t, "a", res[1].Value)

	require.Zero(t, s1.Cancels())
	require.Zero(t, s2.Cancels())
	require.Equal(t, 1, s1.Iters())
	require.Equal(t, 1, s2.Iters())

	// Updates land at the entries' new positions.
	s1.Put("a2")
	ftest.ReceiveSoon(t, notified)
	require.Equal(t, "a2", res[1].Value)
}

func TestReconcile_removalDestroysExactlyOnce(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	s1 := fseqtest.NewScript()
	s2 := fseqtest.NewScript()
	notify, _ := notifier()

	r.Reconcile([]any{s1, s2}, flume.Options{DefaultInitial: 0}, notify)
	r.Reconcile([]any{s1}, flume.Options{}, notify)

	require.Zero(t, s1.Cancels())
	require.Equal(t, 1, s2.Cancels())

	// Still gone: nothing more to destroy.
	r.Reconcile([]any{s1}, flume.Options{}, notify)
	require.Equal(t, 1, s2.Cancels())

	// Reappearing later means a brand new driver and handle.
	r.Reconcile([]any{s1, s2}, flume.Options{DefaultInitial: 0}, notify)
	require.Equal(t, 2, s2.Iters())
	require.Equal(t, 1, s2.Cancels())
}

func TestReconcile_swapCarriesPositionValue(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	s1 := fseqtest.NewScript()
	notify, notified := notifier()

	r.Reconcile([]any{s1}, flume.Options{DefaultInitial: "init"}, notify)

	s1.Put("x")
	ftest.ReceiveSoon(t, notified)

	// Replacing the sequence at position 0 carries the position's
	// last value over as the new seed, pending again,
	// and cancels the replaced driver exactly once.
	s2 := fseqtest.NewScript()
	res := r.Reconcile([]any{s2}, flume.Options{DefaultInitial: "init"}, notify)

	require.Equal(t, fseq.Result{Value: "x", PendingFirst: true}, res[0])
	require.Equal(t, 1, s1.Cancels())

	// The carried value is a seed, not a dedup baseline:
	// a first value equal to it still updates.
	s2.Put("x")
	ftest.ReceiveSoon(t, notified)
	require.Equal(t, fseq.Result{Value: "x"}, res[0])
}

func TestReconcile_channelInputRoundTrip(t *testing.T) {
	t.Parallel()

	r := newRegistry(t)

	ch := fpubsub.NewChannel(1)
	notify, notified := notifier()

	res := r.Reconcile([]any{ch.Seq()}, flume.Options{}, notify)
	require.Equal(t, fseq.Result{Value: 1}, res[0])

	ch.Put(2)
	ftest.ReceiveSoon(t, notified)
	require.Equal(t, fseq.Result{Value: 2}, res[0])

	// Wrapping the channel's view keeps the same tracked entry
	// and re-routes new values through the mapping.
	double := func(v any, i int) any { return v.(int) * 2 }
	res2 := r.Reconcile([]any{fseq.Map(ch.Seq(), double)}, flume.Options{}, notify)
	require.Equal(t, fseq.Result{Value: 2}, res2[0])

	ch.Put(3)
	ftest.ReceiveSoon(t, notified)
	require.Equal(t, fseq.Result{Value: 6}, res2[0])
}

func TestTeardown_destroysEverything(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := flume.NewRegistry(ctx, slogt.New(t))

	s1 := fseqtest.NewScript()
	s2 := fseqtest.NewScript()

	r.Reconcile([]any{s1, s2}, flume.Options{DefaultInitial: 0}, func() {})

	r.Teardown()
	require.Equal(t, 1, s1.Cancels())
	require.Equal(t, 1, s2.Cancels())

	// Idempotent.
	r.Teardown()
	require.Equal(t, 1, s1.Cancels())

	// The registry is reusable after teardown.
	res := r.Reconcile([]any{s1}, flume.Options{DefaultInitial: 0}, func() {})
	require.True(t, res[0].PendingFirst)
	require.Equal(t, 2, s1.Iters())

	r.Teardown()
	require.Equal(t, 2, s1.Cancels())
}
