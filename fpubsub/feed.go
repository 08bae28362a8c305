package fpubsub

import "context"

// Feed starts a background goroutine that reads values from src and
// puts them on ch, so Go-channel-shaped producers can feed a
// [Channel] without hand-rolling the pump.
//
// The returned done channel is closed when the goroutine stops,
// which happens on context cancellation or when src is closed.
// Feed never closes ch; that stays the producer's decision.
func Feed[T any](ctx context.Context, ch *Channel[T], src <-chan T) (done <-chan struct{}) {
	doneCh := make(chan struct{})

	go feed(ctx, ch, src, doneCh)

	return doneCh
}

func feed[T any](
	ctx context.Context,
	ch *Channel[T],
	src <-chan T,
	done chan<- struct{},
) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return

		case v, ok := <-src:
			if !ok {
				return
			}
			ch.Put(v)
		}
	}
}
