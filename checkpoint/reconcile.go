package checkpoint

import "github.com/kscanlab/kscan/pool"

// Reconcile returns the items from universe with no completed record,
// preserving universe order. Keys already marked success or terminal
// are skipped; retryable failures never reach the checkpoint, so their
// items come back for another try.
func Reconcile[T pool.Keyer, V any](universe []T, prior map[string]Record[V]) []T {
	if len(prior) == 0 {
		return universe
	}

	remaining := make([]T, 0, len(universe))
	for _, item := range universe {
		if _, done := prior[item.Key()]; done {
			continue
		}
		remaining = append(remaining, item)
	}
	return remaining
}
