// Package scan runs a batch of keyed items through the retrying worker
// pool with periodic checkpointing, so interrupted runs resume where
// they stopped.
//
// A Driver owns one run kind. It reconciles the item universe against
// the prior checkpoint, feeds the remainder to the pool, collects
// outcomes on a single goroutine, and flushes the checkpoint after
// every CheckpointInterval completions and once more at the end.
package scan

import (
	"context"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/kscanlab/kscan/checkpoint"
	"github.com/kscanlab/kscan/pool"
)

// State is the driver's current phase.
type State int

const (
	StateIdle State = iota
	StateReconciling
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReconciling:
		return "reconciling"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Summary reports what a run did. Results holds every completed record
// including those carried over from the prior checkpoint.
type Summary[V any] struct {
	Results        map[string]checkpoint.Record[V]
	Succeeded      int
	TerminalFailed int
	Abandoned      int
	Resumed        int
	Cancelled      bool
	Elapsed        time.Duration
	ResultsPath    string
}

// Driver orchestrates one resumable scan run.
type Driver[T pool.Keyer, V any] struct {
	cfg   Config[V]
	store *checkpoint.Store[V]
	state State
}

// New builds a driver for cfg. The codec shapes the checkpoint and
// results rows for this run's value type.
func New[T pool.Keyer, V any](cfg Config[V], codec checkpoint.Codec[V]) *Driver[T, V] {
	cfg = cfg.withDefaults()
	return &Driver[T, V]{
		cfg:   cfg,
		store: checkpoint.NewStore[V](cfg.Dir, cfg.Kind, codec),
	}
}

// State returns the phase the driver last entered. It is meant for
// inspection after Run returns; it is not synchronized for concurrent
// reads during a run.
func (d *Driver[T, V]) State() State { return d.state }

// Run processes universe through fn. On return the checkpoint on disk
// reflects every completion, and successful values have been written to
// a timestamped results file ordered by cfg.Rank. Cancelling ctx stops
// new items; the summary still covers everything that finished.
func (d *Driver[T, V]) Run(ctx context.Context, universe []T, fn pool.ComputeFunc[T, V]) (*Summary[V], error) {
	start := time.Now()
	log := d.cfg.Logger

	d.state = StateReconciling
	prior := map[string]checkpoint.Record[V]{}
	if d.cfg.Resume {
		var err error
		prior, err = d.store.Load()
		if err != nil {
			return nil, err
		}
	}

	remaining := checkpoint.Reconcile(universe, prior)
	log.Info("scan starting",
		zap.String("kind", d.cfg.Kind),
		zap.Int("universe", len(universe)),
		zap.Int("resumed", len(prior)),
		zap.Int("remaining", len(remaining)),
		zap.Int("workers", d.cfg.Workers),
	)

	p := pool.New[T, V](
		pool.WithWorkers(d.cfg.Workers),
		pool.WithMaxAttempts(d.cfg.MaxAttempts),
		pool.WithAttemptTimeout(d.cfg.AttemptTimeout),
		pool.WithItemBudget(d.cfg.ItemBudget),
		pool.WithBackoff(d.cfg.Backoff),
		pool.WithMinInterval(d.cfg.MinInterval),
		pool.WithOnRetry(func(key string, attempt int, err error) {
			log.Warn("retrying item",
				zap.String("key", key),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}),
	)

	var bar *progressbar.ProgressBar
	if d.cfg.Progress && len(remaining) > 0 {
		bar = progressbar.NewOptions(len(remaining),
			progressbar.OptionSetDescription(d.cfg.Kind),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	d.state = StateRunning
	summary := &Summary[V]{Results: prior, Resumed: len(prior)}

	// Single collector goroutine semantics: this loop is the only
	// writer to summary.Results and the only caller of Flush.
	completions := 0
	for out := range p.Run(ctx, remaining, fn) {
		completions++
		if bar != nil {
			_ = bar.Add(1)
		}

		rec := checkpoint.Record[V]{
			Key:      out.Key,
			Status:   out.Status,
			Attempts: out.Attempts,
			At:       out.At,
		}
		switch out.Status {
		case pool.StatusSuccess:
			rec.Value = out.Value
			summary.Results[out.Key] = rec
			summary.Succeeded++
		case pool.StatusTerminal:
			rec.Reason = out.Err.Error()
			summary.Results[out.Key] = rec
			summary.TerminalFailed++
			log.Info("item failed terminally",
				zap.String("key", out.Key),
				zap.String("reason", rec.Reason),
			)
		case pool.StatusRetryable:
			summary.Abandoned++
			log.Warn("item abandoned",
				zap.String("key", out.Key),
				zap.Int("attempts", out.Attempts),
				zap.Error(out.Err),
			)
		}

		if completions%d.cfg.CheckpointInterval == 0 {
			if err := d.flush(summary.Results, completions); err != nil {
				return nil, err
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	if err := d.flush(summary.Results, completions); err != nil {
		return nil, err
	}

	path, err := d.store.WriteResults(summary.Results, d.cfg.Rank)
	if err != nil {
		return nil, err
	}
	summary.ResultsPath = path

	summary.Cancelled = ctx.Err() != nil
	summary.Elapsed = time.Since(start)
	if summary.Cancelled {
		d.state = StateCancelled
	} else {
		d.state = StateCompleted
	}

	log.Info("scan finished",
		zap.String("kind", d.cfg.Kind),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("terminal", summary.TerminalFailed),
		zap.Int("abandoned", summary.Abandoned),
		zap.Bool("cancelled", summary.Cancelled),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (d *Driver[T, V]) flush(records map[string]checkpoint.Record[V], completions int) error {
	if err := d.store.Flush(records); err != nil {
		d.cfg.Logger.Error("checkpoint flush failed", zap.Error(err))
		return err
	}
	d.cfg.Logger.Debug("checkpoint flushed",
		zap.Int("completions", completions),
		zap.Int("records", len(records)),
	)
	if d.cfg.OnFlush != nil {
		d.cfg.OnFlush(completions)
	}
	return nil
}
