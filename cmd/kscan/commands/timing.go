package commands

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kscanlab/kscan/krx"
	"github.com/kscanlab/kscan/pool"
	"github.com/kscanlab/kscan/scan"
	"github.com/kscanlab/kscan/technical"
)

func newTimingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timing",
		Short: "Score entry timing from daily price action",
		Long: `Screens all KRX listings, downloads each stock's daily bars and
scores entry timing from moving averages, RSI, MACD, Bollinger bands
and volume. Stocks without enough trading history are skipped for
good.`,
		RunE: runTiming,
	}
	cmd.Flags().Int("lookback-days", 120, "calendar days of price history to fetch")
	return cmd
}

func runTiming(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := runContext(cmd.Context())
	defer stop()

	lookback, err := cmd.Flags().GetInt("lookback-days")
	if err != nil {
		return err
	}

	screener := krx.NewScreener(krx.WithLogger(log))
	universe, err := screener.Universe(ctx)
	if err != nil {
		return err
	}

	chart := krx.NewChartClient(krx.WithChartLogger(log))
	started := time.Now()

	better := func(a, b technical.Result) bool { return a.Score > b.Score }

	d := scan.New[krx.Stock, technical.Result](scanConfig("timing", log, better), technical.Codec{})
	sum, err := d.Run(ctx, universe, timingCompute(chart, lookback))
	if err != nil {
		return err
	}

	if err := scan.RenderSummary(os.Stdout, "timing", sum); err != nil {
		return err
	}
	err = scan.RenderTop(os.Stdout, sum, technical.Codec{}, better, viper.GetInt("top"))
	if err != nil {
		return err
	}

	recordRun(ctx, log, "timing", len(universe), facts(sum), started, sum.ResultsPath)
	return nil
}

// timingCompute builds the per-stock compute function shared by the
// timing and hybrid scans.
func timingCompute(chart *krx.ChartClient, lookbackDays int) pool.ComputeFunc[krx.Stock, technical.Result] {
	return func(ctx context.Context, st krx.Stock) (technical.Result, error) {
		end := time.Now()
		start := end.AddDate(0, 0, -lookbackDays)

		bars, err := chart.Daily(ctx, st.Code, start, end)
		if err != nil {
			return technical.Result{}, err
		}

		ind, err := technical.Compute(bars)
		if err != nil {
			if errors.Is(err, technical.ErrInsufficientHistory) {
				return technical.Result{}, pool.Terminal(err)
			}
			return technical.Result{}, err
		}

		return technical.Result{
			Code:        st.Code,
			Name:        st.Name,
			TimingScore: technical.ScoreTiming(bars, ind),
		}, nil
	}
}
