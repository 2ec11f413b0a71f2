package pool

import "errors"

var (
	// ErrAttemptTimeout reports that a single attempt exceeded its
	// timeout. It is retryable.
	ErrAttemptTimeout = errors.New("attempt exceeded its timeout")

	// ErrItemBudgetExceeded reports that the whole retry sequence for
	// one item ran past its wall-clock budget. The item is abandoned
	// and the worker moves on; the pool itself is unaffected.
	ErrItemBudgetExceeded = errors.New("item exceeded its wall-clock budget")

	// ErrRunCancelled reports that the run's context was cancelled
	// while the item was in flight. The current attempt finishes but no
	// further retries are started.
	ErrRunCancelled = errors.New("run cancelled")
)

// terminalError marks an error as permanently non-retryable.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }

func (e *terminalError) Unwrap() error { return e.err }

// Terminal wraps err so the retrier stops immediately instead of
// consuming the remaining attempts. The classification is made by the
// collaborator that performs the actual I/O, not inferred by the pool.
// Terminal(nil) returns nil.
func Terminal(err error) error {
	if err == nil {
		return nil
	}

	return &terminalError{err: err}
}

// IsTerminal reports whether err (or any error it wraps) was marked
// with Terminal.
func IsTerminal(err error) bool {
	var te *terminalError
	return errors.As(err, &te)
}
