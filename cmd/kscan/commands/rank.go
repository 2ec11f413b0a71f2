package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kscanlab/kscan/checkpoint"
	"github.com/kscanlab/kscan/fscore"
	"github.com/kscanlab/kscan/hybrid"
	"github.com/kscanlab/kscan/scan"
	"github.com/kscanlab/kscan/technical"
)

func newRankCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "rank [fscore|full_fscore|timing|hybrid]",
		Short:     "Rank today's checkpointed results without rescanning",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"fscore", "full_fscore", "timing", "hybrid"},
		RunE:      runRank,
	}
}

func runRank(cmd *cobra.Command, args []string) error {
	dir := viper.GetString("dir")
	top := viper.GetInt("top")

	switch args[0] {
	case "fscore":
		return renderRank(dir, "fscore", fscore.Codec{}, top, func(a, b fscore.Score) bool {
			return a.Total > b.Total
		})
	case "full_fscore":
		return renderRank(dir, "full_fscore", fscore.Codec{Full: true}, top, func(a, b fscore.Score) bool {
			return a.Total > b.Total
		})
	case "timing":
		return renderRank(dir, "timing", technical.Codec{}, top, func(a, b technical.Result) bool {
			return a.Score > b.Score
		})
	case "hybrid":
		return renderRank(dir, "hybrid", hybrid.Codec{}, top, func(a, b hybrid.Score) bool {
			return a.Combined > b.Combined
		})
	default:
		return fmt.Errorf("unknown scan kind %q", args[0])
	}
}

func renderRank[V any](dir, kind string, codec checkpoint.Codec[V], top int, better func(a, b V) bool) error {
	store := checkpoint.NewStore[V](dir, kind, codec)
	results, err := store.Load()
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("no %s checkpoint for today at %s; run kscan %s first", kind, store.Path(), kind)
	}
	return scan.RenderTop(os.Stdout, &scan.Summary[V]{Results: results}, codec, better, top)
}
