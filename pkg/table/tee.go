package table

import (
	"errors"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// TEE - ONE PHYSICAL STREAM, SEVERAL CONSUMERS
// ============================================================================

// teeBuffer bounds how far ahead of the slowest consumer the broadcaster
// may run
const teeBuffer = 128

// Tee splits one stream into n identical streams. A broadcaster goroutine
// pulls the source once and fans every element out to each output. Outputs
// must be consumed roughly in step: a consumer more than teeBuffer elements
// behind the others blocks the broadcaster, so draining the outputs
// strictly one after another only works for streams that fit the buffer.
// A source error is reported on every output.
func Tee[T any](stream Stream[T], n int) []Stream[T] {
	if n <= 0 {
		return nil
	}

	channels := make([]chan T, n)
	for i := range channels {
		channels[i] = make(chan T, teeBuffer)
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		defer func() {
			for _, ch := range channels {
				close(ch)
			}
		}()
		for {
			item, err := stream()
			if err != nil {
				if errors.Is(err, EOS) {
					return nil
				}
				return err
			}
			for _, ch := range channels {
				ch <- item
			}
		}
	})

	outputs := make([]Stream[T], n)
	for i := range outputs {
		ch := channels[i]
		outputs[i] = func() (T, error) {
			item, ok := <-ch
			if !ok {
				var zero T
				if err := g.Wait(); err != nil {
					return zero, err
				}
				return zero, EOS
			}
			return item, nil
		}
	}
	return outputs
}
