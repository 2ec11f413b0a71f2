package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool is a fixed-size worker pool that processes independent work
// items and streams tagged outcomes. Items are pulled from a shared
// queue in no particular order; any interleaving of completions is
// valid.
//
// Type parameters:
//   - T: the work item type; its Key identifies the unit of work
//   - V: the result type produced for successful items
type Pool[T Keyer, V any] struct {
	cfg *config
}

// New creates a pool with the given options.
//
// Default configuration: workers = GOMAXPROCS, 3 attempts per item,
// 10s per attempt, 30s outer budget per item, linear 2s backoff, no
// rate limiting.
func New[T Keyer, V any](opts ...Option) *Pool[T, V] {
	return &Pool[T, V]{cfg: newConfig(opts...)}
}

// Run processes every item and returns a channel carrying exactly one
// Outcome per item that a worker picked up. The channel is closed when
// all workers have finished.
//
// Cancelling ctx stops the intake of new items and new retries;
// in-flight attempts finish and are reported with ErrRunCancelled.
// Items that were never started emit no outcome.
func (p *Pool[T, V]) Run(ctx context.Context, items []T, fn ComputeFunc[T, V]) <-chan Outcome[V] {
	// Buffered to item count so workers never block on a slow consumer.
	out := make(chan Outcome[V], len(items))

	if len(items) == 0 {
		close(out)
		return out
	}

	taskChan := make(chan T)
	r := &retrier[T, V]{cfg: p.cfg, fn: fn}

	var g errgroup.Group

	workers := min(p.cfg.workers, len(items))
	for range workers {
		g.Go(func() error {
			return p.worker(ctx, taskChan, out, r)
		})
	}

	go func() {
		defer close(taskChan)

		for _, item := range items {
			select {
			case taskChan <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = g.Wait()
		close(out)
	}()

	return out
}

// worker pulls items until the queue closes or the run is cancelled.
// Errors never propagate out of a worker; every item's fate is an
// Outcome on the result channel.
func (p *Pool[T, V]) worker(
	ctx context.Context,
	taskChan <-chan T,
	out chan<- Outcome[V],
	r *retrier[T, V],
) error {
	for item := range taskChan {
		if ctx.Err() != nil {
			return nil
		}

		if p.cfg.limiter != nil {
			if err := p.cfg.limiter.Wait(ctx); err != nil {
				// Shutting down; stop pulling new items.
				return nil
			}
		}

		out <- r.execute(ctx, item)
	}

	return nil
}
