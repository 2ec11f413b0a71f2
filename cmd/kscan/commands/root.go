// Package commands wires the scan pipeline into CLI subcommands.
package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kscanlab/kscan/history"
	"github.com/kscanlab/kscan/pool"
	"github.com/kscanlab/kscan/scan"
)

// NewRootCommand builds the kscan command tree. Every flag is also
// readable from the environment with a KSCAN_ prefix, and a .env file
// in the working directory is loaded first.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "kscan",
		Short: "Korean stock scanner - resumable F-Score and timing analysis",
		Long: `kscan screens KRX listings and scores them in parallel.

Commands:
  fscore   Score fundamentals from OpenDART annual filings
  timing   Score entry timing from daily price action
  hybrid   Combine both scores for companies passing the F-Score gate
  rank     Show the top results from today's checkpoint
  history  List past runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Missing .env is fine; the environment may carry the key.
			_ = godotenv.Load()
			return viper.BindPFlags(cmd.Root().PersistentFlags())
		},
	}

	pf := root.PersistentFlags()
	pf.String("dir", "data", "directory for checkpoints, results and the run database")
	pf.Int("workers", runtime.GOMAXPROCS(0), "concurrent items")
	pf.Int("max-attempts", 3, "attempts per item before giving up")
	pf.Duration("attempt-timeout", 10*time.Second, "time limit for one attempt")
	pf.Duration("item-budget", 30*time.Second, "total time limit per item, sleeps included")
	pf.Duration("min-interval", 100*time.Millisecond, "minimum spacing between upstream calls (0 disables)")
	pf.Int("checkpoint-interval", 20, "flush the checkpoint every N completions")
	pf.String("backoff", "linear", "retry backoff: linear, exponential or jittered")
	pf.Duration("backoff-base", 2*time.Second, "base delay for the backoff schedule")
	pf.Bool("resume", false, "skip keys completed in today's checkpoint")
	pf.Bool("progress", true, "render a progress bar")
	pf.Bool("verbose", false, "debug logging")
	pf.Int("top", 20, "rows to show in the results table")
	pf.String("dart-api-key", "", "OpenDART API key")
	pf.String("year", "", "business year to score (default: last year)")

	viper.SetEnvPrefix("KSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(
		newFScoreCommand(),
		newTimingCommand(),
		newHybridCommand(),
		newRankCommand(),
		newHistoryCommand(),
	)
	return root
}

// buildLogger returns a console logger at info level, or debug with
// --verbose.
func buildLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !viper.GetBool("verbose") {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// runContext cancels on SIGINT or SIGTERM so an interrupted scan still
// flushes its checkpoint.
func runContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// scanConfig assembles the driver configuration for one run kind from
// the shared flags. rank orders the final results file best-first.
func scanConfig[V any](kind string, log *zap.Logger, rank func(a, b V) bool) scan.Config[V] {
	return scan.Config[V]{
		Kind:               kind,
		Dir:                viper.GetString("dir"),
		Workers:            viper.GetInt("workers"),
		MaxAttempts:        viper.GetInt("max-attempts"),
		AttemptTimeout:     viper.GetDuration("attempt-timeout"),
		ItemBudget:         viper.GetDuration("item-budget"),
		Backoff:            backoffFromFlags(),
		MinInterval:        viper.GetDuration("min-interval"),
		CheckpointInterval: viper.GetInt("checkpoint-interval"),
		Resume:             viper.GetBool("resume"),
		Progress:           viper.GetBool("progress"),
		Logger:             log,
		Rank:               rank,
	}
}

func backoffFromFlags() pool.Backoff {
	base := viper.GetDuration("backoff-base")
	switch viper.GetString("backoff") {
	case "exponential":
		return pool.Exponential(base, 10*base)
	case "jittered":
		return pool.Jittered(base, 10*base, 0.2)
	default:
		return pool.Linear(base)
	}
}

// scoreYear defaults to the last full business year, whose annual
// filings are the latest ones available.
func scoreYear() string {
	if y := viper.GetString("year"); y != "" {
		return y
	}
	return strconv.Itoa(time.Now().Year() - 1)
}

// recordRun logs the finished run to the run database. Failures here
// never fail the scan itself. Cancelled runs are recorded too, so the
// insert must outlive the signal context.
func recordRun(ctx context.Context, log *zap.Logger, kind string, universe int, sum runSummary, startedAt time.Time, resultsPath string) {
	ctx = context.WithoutCancel(ctx)
	store, err := history.Open(filepath.Join(viper.GetString("dir"), "runs.db"))
	if err != nil {
		log.Warn("run database unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	_, err = store.Record(ctx, history.Run{
		Kind:        kind,
		Universe:    universe,
		Succeeded:   sum.succeeded(),
		Terminal:    sum.terminal(),
		Abandoned:   sum.abandoned(),
		Resumed:     sum.resumed(),
		Cancelled:   sum.cancelled(),
		Elapsed:     sum.elapsed(),
		ResultsPath: resultsPath,
		StartedAt:   startedAt,
	})
	if err != nil {
		log.Warn("run not recorded", zap.Error(err))
	}
}

// runSummary lets recordRun accept the generic summary regardless of
// its value type.
type runSummary interface {
	succeeded() int
	terminal() int
	abandoned() int
	resumed() int
	cancelled() bool
	elapsed() time.Duration
}

type summaryFacts[V any] struct{ s *scan.Summary[V] }

func facts[V any](s *scan.Summary[V]) summaryFacts[V] { return summaryFacts[V]{s} }

func (f summaryFacts[V]) succeeded() int         { return f.s.Succeeded }
func (f summaryFacts[V]) terminal() int          { return f.s.TerminalFailed }
func (f summaryFacts[V]) abandoned() int         { return f.s.Abandoned }
func (f summaryFacts[V]) resumed() int           { return f.s.Resumed }
func (f summaryFacts[V]) cancelled() bool        { return f.s.Cancelled }
func (f summaryFacts[V]) elapsed() time.Duration { return f.s.Elapsed }
