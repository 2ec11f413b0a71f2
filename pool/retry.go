package pool

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// retrier runs the full timed retry sequence for single items.
type retrier[T Keyer, V any] struct {
	cfg *config
	fn  ComputeFunc[T, V]
}

// execute produces exactly one Outcome for item. The sequence is
// bounded three ways: each attempt by cfg.attemptTimeout, the whole
// sequence by cfg.itemBudget, and everything by the run context.
func (r *retrier[T, V]) execute(ctx context.Context, item T) Outcome[V] {
	key := item.Key()

	itemCtx := ctx
	if r.cfg.itemBudget > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, r.cfg.itemBudget)
		defer cancel()
	}

	var lastErr error

	for attempt := 1; attempt <= r.cfg.maxAttempts; attempt++ {
		value, err := r.attempt(itemCtx, item)
		if err == nil {
			return Outcome[V]{
				Key:      key,
				Status:   StatusSuccess,
				Value:    value,
				Attempts: attempt,
				At:       time.Now(),
			}
		}

		if IsTerminal(err) {
			return Outcome[V]{
				Key:      key,
				Status:   StatusTerminal,
				Err:      err,
				Attempts: attempt,
				At:       time.Now(),
			}
		}

		// The outer budget is authoritative: once it expires the item is
		// abandoned even if attempts remain.
		if itemCtx.Err() != nil {
			return r.abandoned(key, attempt, ctx)
		}

		lastErr = err
		if attempt == r.cfg.maxAttempts {
			break
		}

		if r.cfg.onRetry != nil {
			r.cfg.onRetry(key, attempt, err)
		}

		select {
		case <-time.After(r.cfg.backoff.NextDelay(attempt)):
		case <-itemCtx.Done():
			return r.abandoned(key, attempt, ctx)
		}
	}

	return Outcome[V]{
		Key:      key,
		Status:   StatusRetryable,
		Err:      lastErr,
		Attempts: r.cfg.maxAttempts,
		At:       time.Now(),
	}
}

// attempt runs the compute function once under the per-attempt timeout.
// The call is made on its own goroutine so a compute function that
// ignores cancellation cannot block subsequent attempts; it is simply
// abandoned from the caller's perspective.
func (r *retrier[T, V]) attempt(itemCtx context.Context, item T) (V, error) {
	attemptCtx := itemCtx
	if r.cfg.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(itemCtx, r.cfg.attemptTimeout)
		defer cancel()
	}

	type result struct {
		value V
		err   error
	}

	done := make(chan result, 1)

	go func() {
		value, err := r.compute(attemptCtx, item)
		done <- result{value: value, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-attemptCtx.Done():
		var zero V
		if itemCtx.Err() != nil {
			// Budget or run cancellation, not the attempt's own clock.
			return zero, itemCtx.Err()
		}

		return zero, ErrAttemptTimeout
	}
}

// compute invokes the user's function with panic recovery so one bad
// item cannot crash its worker.
func (r *retrier[T, V]) compute(ctx context.Context, item T) (value V, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("compute panic: %v\nstack trace:\n%s", rec, buf[:n])
		}
	}()

	return r.fn(ctx, item)
}

// abandoned builds the outcome for an item whose retry sequence was cut
// short. Run cancellation wins over the item budget when both apply.
func (r *retrier[T, V]) abandoned(key string, attempt int, runCtx context.Context) Outcome[V] {
	err := ErrItemBudgetExceeded
	if runCtx.Err() != nil {
		err = ErrRunCancelled
	}

	return Outcome[V]{
		Key:      key,
		Status:   StatusRetryable,
		Err:      err,
		Attempts: attempt,
		At:       time.Now(),
	}
}
