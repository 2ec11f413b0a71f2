package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kscanlab/kscan/checkpoint"
	"github.com/kscanlab/kscan/fscore"
	"github.com/kscanlab/kscan/hybrid"
	"github.com/kscanlab/kscan/krx"
	"github.com/kscanlab/kscan/pool"
	"github.com/kscanlab/kscan/scan"
)

func newHybridCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hybrid",
		Short: "Combine F-Score and timing for companies passing the gate",
		Long: `Reads today's F-Score checkpoint, keeps companies at or above the
gate, then scores their entry timing and ranks by the combined score.
Run the fscore command first.`,
		RunE: runHybrid,
	}
	cmd.Flags().Int("min-fscore", hybrid.DefaultMinFScore, "minimum F-Score to analyze timing for")
	cmd.Flags().Int("lookback-days", 120, "calendar days of price history to fetch")
	return cmd
}

func runHybrid(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := runContext(cmd.Context())
	defer stop()

	minFScore, err := cmd.Flags().GetInt("min-fscore")
	if err != nil {
		return err
	}
	lookback, err := cmd.Flags().GetInt("lookback-days")
	if err != nil {
		return err
	}

	// The gate runs off today's fundamental results, not a new scan.
	fstore := checkpoint.NewStore[fscore.Score](viper.GetString("dir"), "fscore", fscore.Codec{})
	prior, err := fstore.Load()
	if err != nil {
		return err
	}
	if len(prior) == 0 {
		return fmt.Errorf("no F-Score checkpoint for today at %s; run kscan fscore first", fstore.Path())
	}

	var universe []krx.Stock
	gated := make(map[string]fscore.Score)
	for key, rec := range prior {
		if rec.Status != pool.StatusSuccess || rec.Value.Total < minFScore {
			continue
		}
		gated[key] = rec.Value
		universe = append(universe, krx.Stock{Code: key, Name: rec.Value.Name})
	}
	log.Info("fscore gate applied",
		zap.Int("scored", len(prior)),
		zap.Int("passing", len(universe)),
		zap.Int("min_fscore", minFScore),
	)

	chart := krx.NewChartClient(krx.WithChartLogger(log))
	timingFn := timingCompute(chart, lookback)
	better := func(a, b hybrid.Score) bool { return a.Combined > b.Combined }
	started := time.Now()

	d := scan.New[krx.Stock, hybrid.Score](scanConfig("hybrid", log, better), hybrid.Codec{})
	sum, err := d.Run(ctx, universe, func(ctx context.Context, st krx.Stock) (hybrid.Score, error) {
		res, err := timingFn(ctx, st)
		if err != nil {
			return hybrid.Score{}, err
		}
		return hybrid.Combine(gated[st.Code], res.TimingScore), nil
	})
	if err != nil {
		return err
	}

	if err := scan.RenderSummary(os.Stdout, "hybrid", sum); err != nil {
		return err
	}
	err = scan.RenderTop(os.Stdout, sum, hybrid.Codec{}, better, viper.GetInt("top"))
	if err != nil {
		return err
	}

	recordRun(ctx, log, "hybrid", len(universe), facts(sum), started, sum.ResultsPath)
	return nil
}
