// Package pipeline orchestrates the analysis batch: each entry is
// loaded, reduced, composed, and rendered in sequence, and the runner
// carries the batch past individual failures.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"bearwave/internal/config"
	"bearwave/internal/dataset"
	"bearwave/internal/exporter"
	"bearwave/internal/infrastructure"
	"bearwave/internal/layout"
	"bearwave/internal/reduce"
	"bearwave/internal/render"
	"bearwave/internal/solar"
	"bearwave/internal/thermal"
)

// Analysis is one resolved batch entry. Input is the absolute workbook
// path; the period filters ionospheric data and labels the rest.
type Analysis struct {
	Name    string
	Kind    string
	Input   string
	Sheet   string
	Station string
	Period  dataset.Period
}

// FromConfig resolves the configured batch entries against the data
// directory.
func FromConfig(entries []config.AnalysisConfig, paths *config.Paths) []Analysis {
	out := make([]Analysis, 0, len(entries))
	for _, e := range entries {
		out = append(out, Analysis{
			Name:    e.Name,
			Kind:    e.Kind,
			Input:   paths.Input(e.Input),
			Sheet:   e.Sheet,
			Station: e.Station,
			Period:  e.Period.Period(),
		})
	}
	return out
}

// Outcome reports one finished analysis.
type Outcome struct {
	Analysis  string
	Kind      string
	ChartPath string
	// Summary is filled for ionospheric analyses and feeds the batch
	// summary table.
	Summary *exporter.SummaryRow
	// Daily feeds the per-day mean table written next to the charts.
	Daily    []exporter.DayRow
	Duration time.Duration
}

// Options configures a pipeline.
type Options struct {
	Charts   config.ChartsConfig
	Renderer *render.Renderer
	Logger   *slog.Logger
	// Annotation is the space weather line carried onto every figure,
	// empty when the fetch was disabled or unavailable.
	Annotation string
}

// Pipeline runs a single analysis end to end.
type Pipeline struct {
	loader     *dataset.Loader
	analyzer   *thermal.Analyzer
	renderer   *render.Renderer
	charts     config.ChartsConfig
	logger     *slog.Logger
	annotation string
}

// New creates a pipeline. A nil logger falls back to slog.Default.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:     dataset.NewLoader(logger),
		analyzer:   thermal.NewAnalyzer(logger),
		renderer:   opts.Renderer,
		charts:     opts.Charts,
		logger:     logger,
		annotation: opts.Annotation,
	}
}

// Run executes one analysis. The returned error is always a
// *StageError carrying the failure kind.
func (p *Pipeline) Run(ctx context.Context, a Analysis) (*Outcome, error) {
	logger := infrastructure.LoggerWithContext(ctx).With(slog.String("analysis", a.Name))
	logger.Info("analysis started",
		slog.String("kind", a.Kind),
		slog.String("input", a.Input),
		slog.String("station", a.Station))
	start := time.Now()

	var (
		out *Outcome
		err error
	)
	switch a.Kind {
	case "fof2":
		out, err = p.runFoF2(ctx, a)
	case "snr":
		out, err = p.runSNR(ctx, a)
	case "thermal":
		out, err = p.runThermal(ctx, a)
	default:
		err = &StageError{
			Kind:     KindExecution,
			Stage:    StageLoad,
			Analysis: a.Name,
			Message:  fmt.Sprintf("unknown analysis kind %q", a.Kind),
		}
	}
	if err != nil {
		return nil, err
	}

	out.Duration = time.Since(start)
	logger.Info("analysis complete",
		slog.String("chart", out.ChartPath),
		slog.Duration("duration", out.Duration))
	return out, nil
}

// fof2Stages carries the intermediate products of an ionospheric
// analysis between loading and figure composition.
type fof2Stages struct {
	profile dataset.StationProfile
	ds      *dataset.Dataset
	res     *reduce.Result
	plan    reduce.PlanningValues
}

func (p *Pipeline) loadAndReduceFoF2(ctx context.Context, a Analysis) (*fof2Stages, error) {
	profile, ok := dataset.ProfileFor(a.Station)
	if !ok {
		return nil, &StageError{
			Kind:     KindExecution,
			Stage:    StageLoad,
			Analysis: a.Name,
			Message:  fmt.Sprintf("unknown ionosonde station %q", a.Station),
		}
	}
	if err := checkCtx(ctx, StageLoad, a.Name); err != nil {
		return nil, err
	}

	ds, err := p.loader.LoadFoF2Sheet(a.Input, profile, a.Period)
	if err != nil {
		return nil, Classify(StageLoad, a.Name, err)
	}

	reducer := reduce.New(p.logger, reduce.Config{
		SmoothingWindow: p.charts.SmoothingWindow,
		Threshold:       reduce.UsableFoF2Threshold,
	})
	res, err := reducer.Reduce(ds)
	if err != nil {
		return nil, Classify(StageReduce, a.Name, err)
	}

	return &fof2Stages{
		profile: profile,
		ds:      ds,
		res:     res,
		plan:    reduce.Plan(res),
	}, nil
}

func dayRows(stats []reduce.DayStat) []exporter.DayRow {
	rows := make([]exporter.DayRow, len(stats))
	for i, d := range stats {
		rows[i] = exporter.DayRow{Day: d.Day, Samples: d.Count, Mean: d.Mean}
	}
	return rows
}

func summaryRow(st *fof2Stages, period dataset.Period) *exporter.SummaryRow {
	return &exporter.SummaryRow{
		Station:    st.profile.Name,
		Period:     period.Label,
		Samples:    st.res.Count,
		Mean:       st.res.Mean,
		StdDev:     st.res.StdDev,
		Min:        st.res.Min,
		Max:        st.res.Max,
		PeakHour:   st.res.PeakHour,
		TroughHour: st.res.TroughHour,
		MUF:        st.plan.MUF,
		OWF:        st.plan.OWF,
		Primary:    st.plan.PrimaryUsable,
		Secondary:  st.plan.SecondaryUsable,
	}
}

// Summarize runs the ionospheric stages without rendering a figure.
// fof2stats builds its tables from this.
func (p *Pipeline) Summarize(ctx context.Context, a Analysis) (*exporter.SummaryRow, error) {
	st, err := p.loadAndReduceFoF2(ctx, a)
	if err != nil {
		return nil, err
	}
	return summaryRow(st, a.Period), nil
}

func (p *Pipeline) runFoF2(ctx context.Context, a Analysis) (*Outcome, error) {
	st, err := p.loadAndReduceFoF2(ctx, a)
	if err != nil {
		return nil, err
	}

	if err := checkCtx(ctx, StageRender, a.Name); err != nil {
		return nil, err
	}
	fig := layout.StationReport(layout.StationInputs{
		Profile:    st.profile,
		Period:     a.Period,
		Dataset:    st.ds,
		Result:     st.res,
		Plan:       st.plan,
		Sun:        p.sunTimes(st.ds, st.profile.Site),
		Annotation: p.annotation,
	})
	path, err := p.renderer.Render(fig)
	if err != nil {
		return nil, Classify(StageRender, a.Name, err)
	}

	return &Outcome{
		Analysis:  a.Name,
		Kind:      a.Kind,
		ChartPath: path,
		Summary:   summaryRow(st, a.Period),
		Daily:     dayRows(st.res.Daily),
	}, nil
}

func (p *Pipeline) runSNR(ctx context.Context, a Analysis) (*Outcome, error) {
	if err := checkCtx(ctx, StageLoad, a.Name); err != nil {
		return nil, err
	}
	site := siteFor(a.Station)

	var (
		ds  *dataset.Dataset
		err error
	)
	if strings.EqualFold(filepath.Ext(a.Input), ".csv") {
		ds, err = p.loader.LoadSNRCSV(a.Input, site, "")
	} else {
		ds, err = p.loader.LoadSNRSheet(a.Input, a.Sheet, site, "")
	}
	if err != nil {
		return nil, Classify(StageLoad, a.Name, err)
	}

	reducer := reduce.New(p.logger, reduce.Config{
		SmoothingWindow: p.charts.SmoothingWindow,
		Threshold:       p.charts.SNRThreshold,
	})
	res, err := reducer.Reduce(ds)
	if err != nil {
		return nil, Classify(StageReduce, a.Name, err)
	}
	windows := reduce.TopWindows(ds, p.charts.SNRThreshold, false, p.charts.TopWindows)

	if err := checkCtx(ctx, StageRender, a.Name); err != nil {
		return nil, err
	}
	fig := layout.SNRReport(layout.SNRInputs{
		Site:       site,
		Period:     a.Period.Label,
		Dataset:    ds,
		Result:     res,
		Windows:    windows,
		Sun:        p.sunTimes(ds, site),
		Threshold:  p.charts.SNRThreshold,
		Smoothing:  p.charts.SmoothingWindow,
		Annotation: p.annotation,
	})
	path, err := p.renderer.Render(fig)
	if err != nil {
		return nil, Classify(StageRender, a.Name, err)
	}

	return &Outcome{
		Analysis:  a.Name,
		Kind:      a.Kind,
		ChartPath: path,
		Daily:     dayRows(res.Daily),
	}, nil
}

func (p *Pipeline) runThermal(ctx context.Context, a Analysis) (*Outcome, error) {
	if err := checkCtx(ctx, StageLoad, a.Name); err != nil {
		return nil, err
	}

	temps, clocks, err := p.loader.LoadThermalSheet(a.Input, a.Sheet, a.Station)
	if err != nil {
		return nil, Classify(StageLoad, a.Name, err)
	}
	assessment, err := p.analyzer.Assess(temps)
	if err != nil {
		return nil, Classify(StageReduce, a.Name, err)
	}

	if err := checkCtx(ctx, StageRender, a.Name); err != nil {
		return nil, err
	}
	site := siteFor(a.Station)
	fig := layout.ThermalReport(layout.ThermalInputs{
		Station:    a.Station,
		Period:     a.Period.Label,
		Temps:      temps,
		Clocks:     clocks,
		Assessment: assessment,
		Location:   site.Location(),
		Annotation: p.annotation,
	})
	path, err := p.renderer.Render(fig)
	if err != nil {
		return nil, Classify(StageRender, a.Name, err)
	}

	return &Outcome{
		Analysis:  a.Name,
		Kind:      a.Kind,
		ChartPath: path,
		Daily:     dayRows(assessment.Result.Daily),
	}, nil
}

// sunTimes computes per-day solar events over the dataset's span for
// the night shading and the sun export.
func (p *Pipeline) sunTimes(ds *dataset.Dataset, site dataset.Site) []solar.Times {
	return solar.ForDays(ds.Days(), site.Latitude, site.Longitude, site.Location())
}

// siteFor resolves the station context: a known ionosonde profile's
// site, the DGFC receive site, or a named UTC placeholder.
func siteFor(name string) dataset.Site {
	if site, ok := dataset.SiteFor(name); ok {
		return site
	}
	return dataset.Site{Name: name, Timezone: "UTC"}
}

func checkCtx(ctx context.Context, stage, analysis string) *StageError {
	if err := ctx.Err(); err != nil {
		return &StageError{
			Kind:     KindExecution,
			Stage:    stage,
			Analysis: analysis,
			Message:  "cancelled",
			Cause:    err,
		}
	}
	return nil
}
