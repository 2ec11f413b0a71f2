// Package pool provides a small, generic worker pool for resilient
// batch processing of independent work items.
//
// The primary type is Pool[T, V], a fixed-size pool of workers which
// process items of type T and stream one Outcome[V] per item. The pool
// is built for long scans against flaky external data sources: every
// item gets a per-attempt timeout, a bounded retry loop with backoff,
// and an outer wall-clock budget, and outbound calls can be spaced with
// a shared rate limiter. Item failures never abort the run; they are
// reported as tagged outcomes and the pool moves on.
//
// # Basic Usage
//
//	p := pool.New[Ticker, Score](
//	    pool.WithWorkers(8),
//	    pool.WithMaxAttempts(3),
//	    pool.WithAttemptTimeout(10*time.Second),
//	)
//	for out := range p.Run(ctx, tickers, computeScore) {
//	    // handle out.Status / out.Value / out.Err
//	}
//
// # Failure Classification
//
// The compute function decides what is retryable. Wrapping an error with
// Terminal marks the item as permanently failed; the retrier stops
// immediately without consuming the remaining attempts:
//
//	func computeScore(ctx context.Context, t Ticker) (Score, error) {
//	    stmts, err := client.Statements(ctx, t.Code)
//	    if errors.Is(err, dart.ErrNoData) {
//	        return Score{}, pool.Terminal(err)
//	    }
//	    ...
//	}
//
// Any other error, including an attempt timeout, is retried with the
// configured backoff until the attempt budget runs out.
//
// # Rate Limiting
//
// WithMinInterval enforces a minimum spacing between calls across all
// workers, which is the friendly way to hit a public data source:
//
//	p := pool.New[Ticker, Score](
//	    pool.WithWorkers(8),
//	    pool.WithMinInterval(200*time.Millisecond),
//	)
//
// # Cancellation
//
// Cancelling the context passed to Run stops the intake of new items.
// In-flight items finish their current attempt and are reported with
// ErrRunCancelled; items never started produce no outcome. Reducing the
// worker count to 1 yields a fully serial run with identical semantics.
package pool
