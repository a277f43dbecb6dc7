package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aluiziolira/go-scrape-play/models"
)

func printCrawlSummary(w io.Writer, result *models.CrawlResult, storeName, exportPath string) {
	if result == nil {
		return
	}
	if exportPath == "" {
		exportPath = "-"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Crawl complete")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Query", result.Query},
		{"Store", storeName},
		{"Discovered", result.Discovered},
		{"Entries", result.TotalCount},
		{"Done", result.DoneCount},
		{"Enriched this run", result.EnrichedNow},
		{"Skipped", result.SkippedCount},
		{"Pending", result.PendingCount},
		{"Detail requests", result.FetchCount},
		{"Errors", result.ErrorCount},
	})
	for _, label := range slices.Sorted(maps.Keys(result.ErrorsByType)) {
		t.AppendRow(table.Row{"  " + label, result.ErrorsByType[label]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Duration", result.EndTime.Sub(result.StartTime).Round(time.Millisecond)})
	t.AppendRow(table.Row{"Export", exportPath})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func printSuggestSummary(w io.Writer, query string, suggestions, probes int, duration time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Suggestions for %q", query))
	t.AppendRows([]table.Row{
		{"Suggestions", suggestions},
		{"Requests", probes},
		{"Duration", duration.Round(time.Millisecond)},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}
