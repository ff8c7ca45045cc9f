package reduce

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"bearwave/internal/dataset"
)

// Window is a continuous run of samples satisfying a threshold
// predicate.
type Window struct {
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	StartIndex int
	Records    int
	// Quality is the mean of the run's values, used to rank runs of
	// equal length.
	Quality float64
}

// BestWindow scans the time-ordered dataset for the longest run of
// samples strictly above the threshold (strictly below when below is
// set). Runs of equal length rank by higher quality, then by earlier
// start. Returns nil when no sample satisfies the predicate.
func BestWindow(ds *dataset.Dataset, threshold float64, below bool) *Window {
	if ds == nil || ds.Empty() {
		return nil
	}
	pred := func(v float64) bool { return v > threshold }
	if below {
		pred = func(v float64) bool { return v < threshold }
	}

	var best *Window
	runStart := -1
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		w := windowOf(ds, runStart, end)
		if better(w, best) {
			best = w
		}
		runStart = -1
	}
	for i, rec := range ds.Records {
		if pred(rec.Value) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		flush(i)
	}
	flush(ds.Len())
	return best
}

// windowOf builds the window covering records [start, end).
func windowOf(ds *dataset.Dataset, start, end int) *Window {
	values := make([]float64, 0, end-start)
	for _, rec := range ds.Records[start:end] {
		values = append(values, rec.Value)
	}
	first := ds.Records[start].Timestamp
	last := ds.Records[end-1].Timestamp
	return &Window{
		Start:      first,
		End:        last,
		Duration:   last.Sub(first),
		StartIndex: start,
		Records:    end - start,
		Quality:    stat.Mean(values, nil),
	}
}

// better reports whether candidate w outranks current.
func better(w, current *Window) bool {
	if current == nil {
		return true
	}
	if w.Records != current.Records {
		return w.Records > current.Records
	}
	return w.Quality > current.Quality
}

// TopWindows returns up to n threshold runs in rank order, using the
// same ordering as BestWindow.
func TopWindows(ds *dataset.Dataset, threshold float64, below bool, n int) []*Window {
	if ds == nil || ds.Empty() || n <= 0 {
		return nil
	}
	pred := func(v float64) bool { return v > threshold }
	if below {
		pred = func(v float64) bool { return v < threshold }
	}

	var runs []*Window
	runStart := -1
	for i, rec := range ds.Records {
		if pred(rec.Value) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			runs = append(runs, windowOf(ds, runStart, i))
			runStart = -1
		}
	}
	if runStart >= 0 {
		runs = append(runs, windowOf(ds, runStart, ds.Len()))
	}

	// Stable sort keeps earlier runs ahead on full ties.
	sort.SliceStable(runs, func(i, j int) bool { return better(runs[i], runs[j]) })
	if len(runs) > n {
		runs = runs[:n]
	}
	return runs
}

// MovingAverage smooths values with a trailing window. The leading
// samples average over the shorter available prefix so the output keeps
// the input length.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
			out[i] = sum / float64(window)
			continue
		}
		out[i] = sum / float64(i+1)
	}
	return out
}

// Crossing summarizes time spent beyond one threshold.
type Crossing struct {
	Threshold float64
	Samples   int
	Percent   float64
	Time      time.Duration
}

// Crossings computes occupancy above each threshold. Time is the share
// of the dataset's span proportional to the sample fraction.
func Crossings(ds *dataset.Dataset, thresholds []float64) []Crossing {
	if ds == nil || ds.Empty() {
		return nil
	}
	out := make([]Crossing, 0, len(thresholds))
	span := ds.Span()
	for _, th := range thresholds {
		n := 0
		for _, rec := range ds.Records {
			if rec.Value > th {
				n++
			}
		}
		pct := float64(n) / float64(ds.Len()) * 100
		out = append(out, Crossing{
			Threshold: th,
			Samples:   n,
			Percent:   pct,
			Time:      time.Duration(pct / 100 * float64(span)),
		})
	}
	return out
}
