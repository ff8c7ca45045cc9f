// Package reduce computes the summary statistics behind every figure:
// per-dataset aggregates, hourly and daily group means, peak timing and
// threshold window detection.
package reduce

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bearwave/internal/dataset"
)

// Config bounds the reducer's smoothing and window detection.
type Config struct {
	// SmoothingWindow is the moving-average width in samples.
	SmoothingWindow int
	// Threshold is the window-detection level; zero disables detection
	// unless a caller passes an explicit level.
	Threshold float64
	// Below scans for runs under the threshold instead of over it.
	Below bool
}

// DefaultConfig matches the published figure settings.
func DefaultConfig() Config {
	return Config{SmoothingWindow: 10}
}

// Reducer computes reductions over loaded datasets.
type Reducer struct {
	logger *slog.Logger
	cfg    Config
}

// New creates a reducer. A nil logger falls back to slog.Default.
func New(logger *slog.Logger, cfg Config) *Reducer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SmoothingWindow <= 0 {
		cfg.SmoothingWindow = DefaultConfig().SmoothingWindow
	}
	return &Reducer{logger: logger, cfg: cfg}
}

// HourStat is the group mean for one hour of day.
type HourStat struct {
	Hour  int
	Mean  float64
	Count int
}

// DayStat is the group mean for one calendar day.
type DayStat struct {
	Day   time.Time
	Mean  float64
	Count int
}

// Result carries every aggregate computed for one dataset.
type Result struct {
	Station string
	Kind    dataset.Kind
	Count   int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64

	// Hourly holds one entry per observed hour of day, ascending.
	// Hours with no samples are absent, never zero-filled.
	Hourly     []HourStat
	PeakHour   int
	TroughHour int

	// Daily holds one entry per observed calendar day, ascending.
	Daily []DayStat

	// BySeries groups values by their series label for distribution
	// panels; nil when the dataset has a single unnamed series.
	BySeries map[string][]float64

	// BestWindow is the longest threshold run, nil when detection was
	// disabled or no sample satisfied the predicate.
	BestWindow *Window
}

// Reduce computes the full result for a dataset. An empty dataset is an
// error, never a zero-valued result.
func (r *Reducer) Reduce(ds *dataset.Dataset) (*Result, error) {
	if ds == nil || ds.Empty() {
		return nil, fmt.Errorf("reduce: %w", dataset.ErrNoRows)
	}

	values := ds.Values()
	res := &Result{
		Station: ds.Station,
		Kind:    ds.Kind,
		Count:   len(values),
		Mean:    stat.Mean(values, nil),
		StdDev:  stat.PopStdDev(values, nil),
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		Hourly:  hourlyMeans(ds),
		Daily:   dailyMeans(ds),
	}
	res.PeakHour, _ = PeakHour(res.Hourly)
	res.TroughHour, _ = TroughHour(res.Hourly)

	if labels := ds.SeriesLabels(); len(labels) > 1 || (len(labels) == 1 && labels[0] != "") {
		res.BySeries = ds.BySeries()
	}

	if r.cfg.Threshold != 0 {
		res.BestWindow = BestWindow(ds, r.cfg.Threshold, r.cfg.Below)
	}

	r.logger.Debug("dataset reduced",
		slog.String("station", ds.Station),
		slog.String("kind", string(ds.Kind)),
		slog.Int("count", res.Count),
		slog.Float64("mean", res.Mean),
		slog.Float64("std_dev", res.StdDev))

	return res, nil
}

// hourlyMeans groups values by hour of day.
func hourlyMeans(ds *dataset.Dataset) []HourStat {
	var sums [24]float64
	var counts [24]int
	for _, rec := range ds.Records {
		h := rec.Timestamp.Hour()
		sums[h] += rec.Value
		counts[h]++
	}
	var out []HourStat
	for h := 0; h < 24; h++ {
		if counts[h] == 0 {
			continue
		}
		out = append(out, HourStat{Hour: h, Mean: sums[h] / float64(counts[h]), Count: counts[h]})
	}
	return out
}

// dailyMeans groups values by calendar day.
func dailyMeans(ds *dataset.Dataset) []DayStat {
	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*bucket)
	for _, rec := range ds.Records {
		y, m, d := rec.Timestamp.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, rec.Timestamp.Location())
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += rec.Value
		b.count++
	}
	out := make([]DayStat, 0, len(buckets))
	for day, b := range buckets {
		out = append(out, DayStat{Day: day, Mean: b.sum / float64(b.count), Count: b.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// PeakHour returns the hour with the maximum group mean. Ties resolve to
// the earliest hour. The bool is false when no hours were observed.
func PeakHour(hours []HourStat) (int, bool) {
	best := -1
	bestMean := 0.0
	for _, h := range hours {
		if best == -1 || h.Mean > bestMean {
			best = h.Hour
			bestMean = h.Mean
		}
	}
	return best, best >= 0
}

// TroughHour returns the hour with the minimum group mean, earliest on
// ties.
func TroughHour(hours []HourStat) (int, bool) {
	best := -1
	bestMean := 0.0
	for _, h := range hours {
		if best == -1 || h.Mean < bestMean {
			best = h.Hour
			bestMean = h.Mean
		}
	}
	return best, best >= 0
}

// Trend fits a least-squares line through the dataset, returning the
// intercept at the first sample and the slope per hour.
func Trend(ds *dataset.Dataset) (intercept, slopePerHour float64) {
	if ds == nil || ds.Len() < 2 {
		return 0, 0
	}
	xs := make([]float64, ds.Len())
	ys := make([]float64, ds.Len())
	for i, rec := range ds.Records {
		xs[i] = rec.Timestamp.Sub(ds.Start).Hours()
		ys[i] = rec.Value
	}
	return stat.LinearRegression(xs, ys, nil, false)
}
