package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kscanlab/kscan/history"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scan runs",
		RunE:  runHistory,
	}
	cmd.Flags().String("kind", "", "filter by scan kind (fscore, timing, hybrid)")
	cmd.Flags().Int("limit", 20, "maximum runs to show")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	kind, err := cmd.Flags().GetString("kind")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	store, err := history.Open(filepath.Join(viper.GetString("dir"), "runs.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), kind, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "no recorded runs")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Started", "Kind", "Universe", "Succeeded", "Terminal", "Abandoned", "Resumed", "Elapsed", "Results")
	for _, r := range runs {
		status := r.ResultsPath
		if r.Cancelled {
			status += " (cancelled)"
		}
		err := table.Append(
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Kind,
			strconv.Itoa(r.Universe),
			strconv.Itoa(r.Succeeded),
			strconv.Itoa(r.Terminal),
			strconv.Itoa(r.Abandoned),
			strconv.Itoa(r.Resumed),
			r.Elapsed.Round(time.Second).String(),
			status,
		)
		if err != nil {
			return err
		}
	}
	return table.Render()
}
