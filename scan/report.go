package scan

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/kscanlab/kscan/checkpoint"
	"github.com/kscanlab/kscan/pool"
)

// RenderSummary prints the run's tallies as a small table.
func RenderSummary[V any](w io.Writer, kind string, s *Summary[V]) error {
	status := color.GreenString("completed")
	if s.Cancelled {
		status = color.YellowString("cancelled")
	}

	table := tablewriter.NewWriter(w)
	table.Header("Run", "Status", "Succeeded", "Terminal", "Abandoned", "Resumed", "Elapsed")
	err := table.Append(
		kind,
		status,
		strconv.Itoa(s.Succeeded),
		strconv.Itoa(s.TerminalFailed),
		strconv.Itoa(s.Abandoned),
		strconv.Itoa(s.Resumed),
		s.Elapsed.Round(10*time.Millisecond).String(),
	)
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	if s.ResultsPath != "" {
		fmt.Fprintf(w, "results written to %s\n", s.ResultsPath)
	}
	return nil
}

// RenderTop prints the n best successful results, ordered by less
// (descending, best first). The codec supplies the value columns.
func RenderTop[V any](w io.Writer, s *Summary[V], codec checkpoint.Codec[V], better func(a, b V) bool, n int) error {
	var recs []checkpoint.Record[V]
	for _, rec := range s.Results {
		if rec.Status == pool.StatusSuccess {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if better(recs[i].Value, recs[j].Value) {
			return true
		}
		if better(recs[j].Value, recs[i].Value) {
			return false
		}
		return recs[i].Key < recs[j].Key
	})
	if n > 0 && len(recs) > n {
		recs = recs[:n]
	}

	table := tablewriter.NewWriter(w)
	header := append([]string{"Rank", "Key"}, codec.Header()...)
	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	table.Header(headerCells...)
	for i, rec := range recs {
		row := append([]string{strconv.Itoa(i + 1), rec.Key}, codec.Encode(rec.Value)...)
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		if err := table.Append(cells...); err != nil {
			return fmt.Errorf("render top: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render top: %w", err)
	}
	return nil
}
