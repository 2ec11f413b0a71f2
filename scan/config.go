package scan

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/kscanlab/kscan/pool"
)

const (
	defaultCheckpointInterval = 20
	defaultMaxAttempts        = 3
	defaultAttemptTimeout     = 10 * time.Second
	defaultItemBudget         = 30 * time.Second
)

// Config tunes one scan run. Zero values fall back to sensible
// defaults; Kind and Dir are required.
type Config[V any] struct {
	// Kind names the run and prefixes its checkpoint and results
	// files, e.g. "fscore" or "timing".
	Kind string

	// Dir is where checkpoint and results files live.
	Dir string

	// Workers is the number of concurrent compute goroutines.
	// Defaults to GOMAXPROCS.
	Workers int

	// MaxAttempts bounds retries per item. Defaults to 3.
	MaxAttempts int

	// AttemptTimeout bounds a single compute call. Defaults to 10s.
	AttemptTimeout time.Duration

	// ItemBudget bounds one item's whole retry sequence, sleeps
	// included. Defaults to 30s.
	ItemBudget time.Duration

	// Backoff schedules the sleep between attempts. Defaults to
	// Linear(2s).
	Backoff pool.Backoff

	// MinInterval spaces compute starts across all workers. Zero
	// disables rate limiting.
	MinInterval time.Duration

	// CheckpointInterval flushes the checkpoint after every N
	// completions of any status. Defaults to 20.
	CheckpointInterval int

	// Resume loads today's checkpoint and skips completed keys.
	Resume bool

	// Progress renders a terminal progress bar during the run.
	Progress bool

	// Logger receives run lifecycle and retry events. Defaults to a
	// no-op logger.
	Logger *zap.Logger

	// OnFlush is called after each checkpoint flush with the number
	// of completions so far. Used by callers that mirror progress
	// elsewhere; may be nil.
	OnFlush func(completions int)

	// Rank orders the final results file best-first; rank reports
	// whether a should precede b. Nil leaves rows in key order.
	Rank func(a, b V) bool
}

func (c Config[V]) withDefaults() Config[V] {
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}
	if c.ItemBudget == 0 {
		c.ItemBudget = defaultItemBudget
	}
	if c.Backoff == nil {
		c.Backoff = pool.Linear(2 * time.Second)
	}
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = defaultCheckpointInterval
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}
