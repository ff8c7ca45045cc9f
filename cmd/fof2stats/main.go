// Command fof2stats computes the configured ionospheric reductions and
// prints their summary statistics as a table, without rendering charts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bearwave/internal/config"
	"bearwave/internal/exporter"
	"bearwave/internal/infrastructure"
	"bearwave/internal/pipeline"
	"bearwave/internal/reduce"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults to bearwave.yaml, then built-in defaults)")
	dataDir := flag.String("data", "", "input directory for measurement workbooks (overrides config)")
	csvPath := flag.String("csv", "", "also write the table to this CSV path (relative paths land in the tables directory)")
	station := flag.String("station", "", "limit to one ionosonde station")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(2)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
		os.Exit(2)
	}

	analyses := ionosphericEntries(pipeline.FromConfig(cfg.Analyses, paths), *station)
	if len(analyses) == 0 {
		logger.Error("No ionospheric analyses configured", slog.String("station", *station))
		fmt.Fprintln(os.Stderr, "no ionospheric analyses matched; check the config and -station flag")
		os.Exit(2)
	}

	ctx := infrastructure.EnsureRunID(context.Background())
	logger = infrastructure.LoggerWithContext(ctx)

	pipe := pipeline.New(pipeline.Options{Charts: cfg.Charts, Logger: logger})

	var rows []exporter.SummaryRow
	failed := 0
	for _, a := range analyses {
		row, err := pipe.Summarize(ctx, a)
		if err != nil {
			logger.Error("Summary failed",
				slog.String("analysis", a.Name),
				slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "failed %s: %v\n", a.Name, err)
			failed++
			continue
		}
		rows = append(rows, *row)
	}

	printSummaryTable(rows)

	if *csvPath != "" && len(rows) > 0 {
		writer := exporter.NewWriter(paths.TablesDir, logger)
		if err := writer.WriteSummaryCSV(*csvPath, rows); err != nil {
			logger.Error("Failed to write summary CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}
		resolved := *csvPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(paths.TablesDir, resolved)
		}
		fmt.Printf("\nSummary CSV written to %s\n", resolved)
	}

	switch {
	case failed == 0:
	case len(rows) == 0:
		os.Exit(2)
	default:
		os.Exit(1)
	}
}

func ionosphericEntries(analyses []pipeline.Analysis, station string) []pipeline.Analysis {
	var out []pipeline.Analysis
	for _, a := range analyses {
		if a.Kind != "fof2" {
			continue
		}
		if station != "" && !strings.EqualFold(a.Station, station) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func printSummaryTable(rows []exporter.SummaryRow) {
	if len(rows) == 0 {
		fmt.Println("No summaries produced")
		return
	}

	fmt.Println("\n=== FOF2 SUMMARY STATISTICS ===")
	fmt.Println("Station | Period       | Samples | Mean   | Std    | Min    | Max    | Peak  | Trough | MUF    | OWF    | PRI | SEC")
	fmt.Println("--------|--------------|---------|--------|--------|--------|--------|-------|--------|--------|--------|-----|----")
	for _, r := range rows {
		fmt.Printf("%-7s | %-12s | %7d | %6.3f | %6.3f | %6.3f | %6.3f | %02d:00 | %02d:00  | %6.3f | %6.3f | %-3s | %-3s\n",
			r.Station, r.Period, r.Samples, r.Mean, r.StdDev, r.Min, r.Max,
			r.PeakHour, r.TroughHour, r.MUF, r.OWF, usable(r.Primary), usable(r.Secondary))
	}

	fmt.Println("\n=== PLANNING INTERPRETATION ===")
	fmt.Printf("MUF:  mean foF2 x %.1f, the ceiling the layer reflects at vertical incidence\n", reduce.MUFFactor)
	fmt.Printf("OWF:  MUF x %.2f, the recommended working frequency ceiling\n", reduce.OWFFactor)
	fmt.Printf("PRI:  %.3f MHz channel at or below the OWF\n", reduce.PrimaryFreqMHz)
	fmt.Printf("SEC:  %.3f MHz channel at or below the OWF\n", reduce.SecondaryFreqMHz)
}

func usable(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
