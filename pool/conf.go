package pool

import (
	"runtime"
	"time"

	"golang.org/x/time/rate"
)

// Defaults mirror what a scan of a couple thousand tickers against a
// public data source tolerates well.
const (
	defaultMaxAttempts    = 3
	defaultAttemptTimeout = 10 * time.Second
	defaultItemBudget     = 30 * time.Second
	defaultBackoffBase    = 2 * time.Second
)

// Option is a functional option for configuring the pool.
type Option func(*config)

type config struct {
	workers        int
	maxAttempts    int
	attemptTimeout time.Duration
	itemBudget     time.Duration
	backoff        Backoff
	limiter        *rate.Limiter
	onRetry        func(key string, attempt int, err error)
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		workers:        runtime.GOMAXPROCS(0),
		maxAttempts:    defaultMaxAttempts,
		attemptTimeout: defaultAttemptTimeout,
		itemBudget:     defaultItemBudget,
		backoff:        Linear(defaultBackoffBase),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithWorkers sets the number of concurrent workers.
// If not specified, defaults to runtime.GOMAXPROCS(0). A value of 1
// yields a fully serial run with identical output semantics.
func WithWorkers(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithMaxAttempts sets the maximum number of attempts per item
// (default 3). Terminal errors stop earlier regardless.
func WithMaxAttempts(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each individual attempt (default 10s).
// An attempt exceeding it is abandoned and counts as a transient
// failure. Zero disables the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d >= 0 {
			cfg.attemptTimeout = d
		}
	}
}

// WithItemBudget bounds the whole retry sequence for one item,
// including backoff sleeps (default 30s). When the budget expires the
// item is abandoned mid-sequence so one stuck item cannot stall its
// worker indefinitely. Zero disables the outer budget.
func WithItemBudget(d time.Duration) Option {
	return func(cfg *config) {
		if d >= 0 {
			cfg.itemBudget = d
		}
	}
}

// WithBackoff sets the delay strategy between attempts.
// Defaults to Linear(2s), i.e. sleeps of 2s, 4s, ... between attempts.
func WithBackoff(b Backoff) Option {
	return func(cfg *config) {
		if b != nil {
			cfg.backoff = b
		}
	}
}

// WithMinInterval enforces a minimum spacing between outbound calls,
// shared by all workers. This is the spacing form of rate limiting:
// at most one grant per interval, no bursts.
func WithMinInterval(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRateLimit sets a token-bucket rate limit for item starts.
// callsPerSecond is the sustained rate, burst the bucket size. Use
// WithMinInterval instead when strict spacing matters more than
// throughput.
func WithRateLimit(callsPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if callsPerSecond > 0 && burst > 0 {
			cfg.limiter = rate.NewLimiter(rate.Limit(callsPerSecond), burst)
		}
	}
}

// WithOnRetry registers a hook invoked after each failed attempt that
// will be retried. Useful for logging; must be safe for concurrent
// callers.
func WithOnRetry(fn func(key string, attempt int, err error)) Option {
	return func(cfg *config) {
		cfg.onRetry = fn
	}
}
