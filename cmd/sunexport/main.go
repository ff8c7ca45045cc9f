// Command sunexport copies a measurement workbook and adds sunrise,
// sunset and day-length columns computed for the recording site.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bearwave/internal/config"
	"bearwave/internal/dataset"
	"bearwave/internal/exporter"
	"bearwave/internal/infrastructure"
	"bearwave/internal/solar"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults to bearwave.yaml, then built-in defaults)")
	in := flag.String("in", "", "input workbook or CSV path (defaults to the first configured snr analysis)")
	sheet := flag.String("sheet", "", "sheet to read (defaults to the first sheet)")
	station := flag.String("station", "", "site the measurements were recorded at (defaults to DGFC)")
	out := flag.String("out", "", "output workbook path (defaults to the input name with a _with_sun suffix)")
	unit := flag.String("unit", "dB", "unit label for the value column header")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		logger.Error("Failed to resolve paths", slog.String("error", err.Error()))
		os.Exit(1)
	}

	source, sheetName, siteName := *in, *sheet, *station
	if source == "" {
		entry, ok := firstSignalEntry(cfg.Analyses)
		if !ok {
			fmt.Fprintln(os.Stderr, "sunexport: -in is required when no snr analysis is configured")
			flag.Usage()
			os.Exit(2)
		}
		source = entry.Input
		if sheetName == "" {
			sheetName = entry.Sheet
		}
		if siteName == "" {
			siteName = entry.Station
		}
	}
	if siteName == "" {
		siteName = "DGFC"
	}

	site, ok := dataset.SiteFor(siteName)
	if !ok {
		logger.Error("Unknown site", slog.String("station", siteName))
		fmt.Fprintf(os.Stderr, "unknown site %q; known sites are DGFC, Guam and Darwin\n", siteName)
		os.Exit(1)
	}

	input := paths.Input(source)
	target := *out
	if target == "" {
		target = exporter.SunWorkbookName(input)
	}

	logger.Info("Starting sun export",
		slog.String("input", input),
		slog.String("output", target),
		slog.String("site", site.Name))

	loader := dataset.NewLoader(logger)
	var ds *dataset.Dataset
	if strings.EqualFold(filepath.Ext(input), ".csv") {
		ds, err = loader.LoadSNRCSV(input, site, "")
	} else {
		ds, err = loader.LoadSNRSheet(input, sheetName, site, "")
	}
	if err != nil {
		logger.Error("Failed to load measurements", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "sunexport: %v\n", err)
		os.Exit(1)
	}

	loc := site.Location()
	sun := solar.ForDays(ds.Days(), site.Latitude, site.Longitude, loc)
	rows := exporter.BuildSunRows(ds, sun)

	outSheet := sheetName
	if outSheet == "" {
		outSheet = "Data"
	}

	writer := exporter.NewWriter(filepath.Dir(target), logger)
	if err := writer.WriteSunWorkbook(target, outSheet, *unit, rows); err != nil {
		logger.Error("Failed to write sun workbook", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "sunexport: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Sun export complete",
		slog.String("output", target),
		slog.Int("rows", len(rows)),
		slog.Int("days", len(sun)))
	fmt.Printf("Wrote %d rows to %s\n", len(rows), target)
}

func firstSignalEntry(entries []config.AnalysisConfig) (config.AnalysisConfig, bool) {
	for _, e := range entries {
		if e.Kind == "snr" {
			return e, true
		}
	}
	return config.AnalysisConfig{}, false
}
