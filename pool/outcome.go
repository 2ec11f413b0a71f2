package pool

import (
	"context"
	"time"
)

// Keyer is implemented by work items. The key must be stable and unique
// within a run; two items with the same key are the same unit of work
// across runs.
type Keyer interface {
	Key() string
}

// ComputeFunc produces the result for one work item. It may perform
// network I/O and must honor ctx cancellation. Wrapping the returned
// error with Terminal marks the item as permanently failed; any other
// error is treated as transient and retried.
type ComputeFunc[T Keyer, V any] func(ctx context.Context, item T) (V, error)

// Status tags the outcome of processing one work item.
type Status int

const (
	// StatusSuccess means the compute function returned a value.
	StatusSuccess Status = iota
	// StatusRetryable means every attempt failed with a transient error,
	// or the item was abandoned (budget exceeded, run cancelled). The
	// item is eligible for reprocessing in a later run.
	StatusRetryable
	// StatusTerminal means the compute function reported a permanent
	// condition. The item is never retried, in this run or a later one.
	StatusTerminal
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusRetryable:
		return "retryable"
	case StatusTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of processing one work item. Exactly one
// Outcome is emitted per item that a worker picked up.
type Outcome[V any] struct {
	Key      string
	Status   Status
	Value    V // valid only when Status == StatusSuccess
	Err      error
	Attempts int
	At       time.Time
}
