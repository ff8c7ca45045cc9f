// Command chartgen runs the configured batch of ionospheric, SNR and
// thermal analyses and renders one chart figure per entry.
//
// Exit status: 0 when every analysis succeeded, 1 when some failed,
// 2 when none succeeded.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"bearwave/internal/config"
	"bearwave/internal/exporter"
	"bearwave/internal/infrastructure"
	"bearwave/internal/pipeline"
	"bearwave/internal/render"
	"bearwave/internal/spaceweather"
)

const summaryFileName = "fof2_summary.csv"

func main() {
	configPath := flag.String("config", "", "config file path (defaults to bearwave.yaml, then built-in defaults)")
	dataDir := flag.String("data", "", "input directory for measurement workbooks (overrides config)")
	outDir := flag.String("out", "", "output directory for charts and tables (overrides config)")
	only := flag.String("only", "", "run only the named analysis entry")
	list := flag.Bool("list", false, "list configured analysis entries and exit")
	noNetwork := flag.Bool("no-network", false, "skip the space weather fetch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(2)
	}

	// Flag overrides beat both the config file and the environment.
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
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

	analyses := pipeline.FromConfig(cfg.Analyses, paths)

	if *list {
		printEntries(analyses)
		return
	}

	if *only != "" {
		analyses = filterByName(analyses, *only)
		if len(analyses) == 0 {
			slog.Error("No analysis entry with that name", "name", *only)
			fmt.Fprintf(os.Stderr, "no analysis named %q; use -list to see the configured entries\n", *only)
			os.Exit(2)
		}
	}

	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create output directories", slog.String("error", err.Error()))
		os.Exit(2)
	}
	paths.LogResolution(logger)

	ctx := infrastructure.EnsureRunID(context.Background())
	logger = infrastructure.LoggerWithContext(ctx)

	logger.Info("Starting chart generation",
		slog.String("data_dir", paths.DataDir),
		slog.String("output_dir", paths.OutputDir),
		slog.Int("analyses", len(analyses)))

	annotation, degraded := fetchSpaceWeather(ctx, cfg.SpaceWeather, *noNetwork, logger)

	renderer := render.New(logger, nil, paths.ChartsDir)
	pipe := pipeline.New(pipeline.Options{
		Charts:     cfg.Charts,
		Renderer:   renderer,
		Logger:     logger,
		Annotation: annotation,
	})

	runner := pipeline.NewRunner(pipe, logger, nil)
	report := runner.RunAll(ctx, analyses)
	report.Degraded = append(report.Degraded, degraded...)

	for _, out := range report.Outcomes {
		fmt.Printf("rendered %s: %s\n", out.Analysis, out.ChartPath)
	}
	for _, f := range report.Failures {
		fmt.Printf("failed %s: %v\n", f.Analysis, f)
	}

	writer := exporter.NewWriter(paths.TablesDir, logger)
	if rows := report.SummaryRows(); len(rows) > 0 {
		if err := writer.WriteSummaryCSV(summaryFileName, rows); err != nil {
			logger.Error("Failed to write summary table", slog.String("error", err.Error()))
			report.Failures = append(report.Failures,
				pipeline.Classify(pipeline.StageExport, "summary", err))
		} else {
			fmt.Printf("summary table: %s\n", filepath.Join(paths.TablesDir, summaryFileName))
		}
	}
	for _, out := range report.Outcomes {
		if len(out.Daily) == 0 {
			continue
		}
		name := strings.ReplaceAll(out.Analysis, " ", "_") + "_daily.csv"
		if err := writer.WriteDailyCSV(name, out.Daily); err != nil {
			logger.Error("Failed to write daily table",
				slog.String("analysis", out.Analysis),
				slog.String("error", err.Error()))
			report.Failures = append(report.Failures,
				pipeline.Classify(pipeline.StageExport, out.Analysis, err))
		}
	}

	logger.Info("Chart generation finished",
		slog.Int("succeeded", report.Succeeded()),
		slog.Int("failed", report.Failed()),
		slog.Duration("duration", report.Duration))

	fmt.Printf("Completed %d of %d analyses\n", report.Succeeded(), len(analyses))
	for _, note := range report.Degraded {
		fmt.Printf("degraded: %s\n", note)
	}

	os.Exit(report.ExitCode())
}

// fetchSpaceWeather performs the one optional outbound call of the
// batch. A failure never aborts the run: the annotation stays empty
// and the condition is surfaced as a degraded note.
func fetchSpaceWeather(ctx context.Context, cfg config.SpaceWeatherConfig, noNetwork bool, logger *slog.Logger) (string, []string) {
	if !cfg.Enabled || noNetwork {
		logger.Info("Space weather fetch disabled")
		return "", nil
	}

	client := spaceweather.NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}, logger, nil)
	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	indices, err := client.Fetch(fetchCtx)
	if err != nil {
		logger.Warn("Space weather unavailable, continuing without annotation",
			slog.String("error", err.Error()))
		return "", []string{fmt.Sprintf("space weather unavailable: %v", err)}
	}
	return indices.Annotation(), nil
}

func filterByName(analyses []pipeline.Analysis, name string) []pipeline.Analysis {
	var out []pipeline.Analysis
	for _, a := range analyses {
		if strings.EqualFold(a.Name, name) {
			out = append(out, a)
		}
	}
	return out
}

func printEntries(analyses []pipeline.Analysis) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tSTATION\tPERIOD\tINPUT")
	for _, a := range analyses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.Name, a.Kind, a.Station, a.Period.Label, a.Input)
	}
	w.Flush()
}
