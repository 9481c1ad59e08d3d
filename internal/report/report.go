// Package report formats pipeline run statistics and quarantine audit
// entries as terminal tables using tablewriter, following the same
// section-header-plus-table convention used throughout this codebase's
// other reporting surfaces.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/hltv-harvester/internal/model"
	"github.com/pable/hltv-harvester/internal/stage"
)

// Verbose controls whether a one-line legend is printed before each table.
var Verbose = true

func printSection(w io.Writer, title, desc string) {
	fmt.Fprintf(w, "\n--- %s ---\n", title)
	if Verbose {
		fmt.Fprintf(w, "%s\n", desc)
	}
}

// PrintStageStats prints a one-stage run's counters to stdout.
func PrintStageStats(label string, s stage.Stats) {
	PrintStageStatsTo(os.Stdout, label, s)
}

// PrintStageStatsTo writes a one-stage run's counters to w, coloring the
// failure/fetch-error counts to draw the eye when they're non-zero.
func PrintStageStatsTo(w io.Writer, label string, s stage.Stats) {
	failed := fmt.Sprintf("%d", s.Failed)
	if s.Failed > 0 {
		failed = color.YellowString(failed)
	}
	fetchErrors := fmt.Sprintf("%d", s.FetchErrors)
	if s.FetchErrors > 0 {
		fetchErrors = color.RedString(fetchErrors)
	}
	fmt.Fprintf(w, "%-14s fetched=%-4d parsed=%-4d failed=%-4s fetch_errors=%s\n",
		label, s.Fetched, s.Parsed, failed, fetchErrors)
}

// PrintRunAllSummary prints the four stage tallies from one RunAll pass.
func PrintRunAllSummary(w io.Writer, all stage.AllStats) {
	printSection(w, "Pipeline Run", fmt.Sprintf("%d round(s) until no stage made further progress", all.Rounds))
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("STAGE", "FETCHED", "PARSED", "FAILED", "FETCH_ERRORS")
	rows := []struct {
		label string
		s     stage.Stats
	}{
		{"discovery", all.Discovery},
		{"overview", all.Overview},
		{"map-stats", all.MapStats},
		{"perf-economy", all.PerfEconomy},
	}
	for _, r := range rows {
		table.Append(r.label, fmtInt(r.s.Fetched), fmtInt(r.s.Parsed), fmtInt(r.s.Failed), fmtInt(r.s.FetchErrors))
	}
	table.Render()
}

func fmtInt(n int) string { return fmt.Sprintf("%d", n) }

// PrintQuarantineTable prints quarantined records for audit.
func PrintQuarantineTable(w io.Writer, entries []model.QuarantineEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no quarantined records")
		return
	}
	printSection(w, "Quarantine Audit",
		"Records a validation gate hard-rejected. REASON is the verbatim validation error.")
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("CREATED", "ENTITY", "MATCH_ID", "MAP#", "REASON")
	for _, e := range entries {
		matchID := "—"
		if e.MatchID != nil {
			matchID = fmt.Sprintf("%d", *e.MatchID)
		}
		mapNumber := "—"
		if e.MapNumber != nil {
			mapNumber = fmt.Sprintf("%d", *e.MapNumber)
		}
		table.Append(
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.EntityType,
			matchID,
			mapNumber,
			truncate(e.ValidationError, 80),
		)
	}
	table.Render()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
