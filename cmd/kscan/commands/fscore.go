package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kscanlab/kscan/dart"
	"github.com/kscanlab/kscan/fscore"
	"github.com/kscanlab/kscan/krx"
	"github.com/kscanlab/kscan/pool"
	"github.com/kscanlab/kscan/scan"
)

func newFScoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fscore",
		Short: "Score fundamentals from OpenDART annual filings",
		Long: `Screens all KRX listings, pulls each company's latest annual
filing from OpenDART and computes a six-signal F-Score. With --full
the cash flow statement adds three more signals for a nine-signal
score. Progress is checkpointed; rerun with --resume to continue an
interrupted scan.`,
		RunE: runFScore,
	}
	cmd.Flags().Bool("full", false, "score all nine signals including cash flow")
	return cmd
}

func runFScore(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := runContext(cmd.Context())
	defer stop()

	apiKey := viper.GetString("dart-api-key")
	if apiKey == "" {
		return errors.New("OpenDART API key required (--dart-api-key or KSCAN_DART_API_KEY)")
	}

	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return err
	}
	kind := "fscore"
	calc := fscore.Calculate
	if full {
		kind = "full_fscore"
		calc = fscore.CalculateFull
	}
	codec := fscore.Codec{Full: full}

	screener := krx.NewScreener(krx.WithLogger(log))
	universe, err := screener.Universe(ctx)
	if err != nil {
		return err
	}

	client := dart.NewClient(apiKey, dart.WithLogger(log))
	codes, err := client.CachedCorpCodes(ctx, viper.GetString("dir"))
	if err != nil {
		return err
	}

	year := scoreYear()
	better := func(a, b fscore.Score) bool { return a.Total > b.Total }
	started := time.Now()

	d := scan.New[krx.Stock, fscore.Score](scanConfig(kind, log, better), codec)
	sum, err := d.Run(ctx, universe, func(ctx context.Context, st krx.Stock) (fscore.Score, error) {
		corp, ok := codes.Lookup(st.Code)
		if !ok {
			return fscore.Score{}, pool.Terminal(fmt.Errorf("no corp code for %s", st.Code))
		}
		fin, err := client.Financials(ctx, st.Code, corp, year)
		if err != nil {
			if errors.Is(err, dart.ErrNoData) {
				return fscore.Score{}, pool.Terminal(err)
			}
			return fscore.Score{}, err
		}
		return calc(st.Name, fin), nil
	})
	if err != nil {
		return err
	}

	if err := scan.RenderSummary(os.Stdout, kind, sum); err != nil {
		return err
	}
	err = scan.RenderTop(os.Stdout, sum, codec, better, viper.GetInt("top"))
	if err != nil {
		return err
	}

	recordRun(ctx, log, kind, len(universe), facts(sum), started, sum.ResultsPath)
	log.Info("fscore scan complete", zap.String("year", year), zap.Bool("full", full))
	return nil
}
