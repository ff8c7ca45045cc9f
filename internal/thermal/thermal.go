// Package thermal assesses single-board-computer temperature logs
// against the SoC throttling thresholds.
package thermal

import (
	"log/slog"

	"bearwave/internal/dataset"
	"bearwave/internal/reduce"
)

// Threshold constants for the Raspberry Pi 4 SoC. The firmware begins
// frequency capping at the throttling level and hard-limits at the
// critical level; ambient is the rainforest reference temperature.
const (
	AmbientC    = 30.0
	WarningC    = 70.0
	ThrottlingC = 80.0
	CriticalC   = 85.0
)

// Rating classifies the worst temperature seen in a log.
type Rating string

const (
	RatingExcellent Rating = "EXCELLENT"
	RatingGood      Rating = "GOOD"
	RatingCaution   Rating = "CAUTION"
	RatingCritical  Rating = "CRITICAL"
)

// Zone is one occupancy bucket of the temperature range.
type Zone struct {
	Label   string
	Low     float64
	High    float64
	Samples int
	Percent float64
}

// Assessment summarizes the thermal behavior of one telemetry log.
type Assessment struct {
	Result    *reduce.Result
	Zones     []Zone
	Crossings []reduce.Crossing
	// ThrottleRun is the longest continuous run above the throttling
	// threshold, nil when the SoC never throttled.
	ThrottleRun *reduce.Window
	Rating      Rating
}

// Analyzer applies the thresholds to temperature datasets.
type Analyzer struct {
	logger  *slog.Logger
	reducer *reduce.Reducer
}

// NewAnalyzer creates an analyzer. A nil logger falls back to
// slog.Default.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		logger:  logger,
		reducer: reduce.New(logger, reduce.Config{Threshold: ThrottlingC}),
	}
}

// Assess reduces the dataset and classifies it against the thresholds.
func (a *Analyzer) Assess(ds *dataset.Dataset) (*Assessment, error) {
	res, err := a.reducer.Reduce(ds)
	if err != nil {
		return nil, err
	}

	zones := occupancy(ds)
	rating := rate(res.Max)

	a.logger.Info("thermal log assessed",
		slog.String("station", ds.Station),
		slog.Float64("max_c", res.Max),
		slog.Float64("mean_c", res.Mean),
		slog.String("rating", string(rating)))

	return &Assessment{
		Result:      res,
		Zones:       zones,
		Crossings:   reduce.Crossings(ds, []float64{WarningC, ThrottlingC, CriticalC}),
		ThrottleRun: res.BestWindow,
		Rating:      rating,
	}, nil
}

// occupancy buckets samples into the four thermal zones.
func occupancy(ds *dataset.Dataset) []Zone {
	zones := []Zone{
		{Label: "Nominal", Low: 0, High: WarningC},
		{Label: "Warning", Low: WarningC, High: ThrottlingC},
		{Label: "Throttling", Low: ThrottlingC, High: CriticalC},
		{Label: "Critical", Low: CriticalC, High: 200},
	}
	for _, rec := range ds.Records {
		switch v := rec.Value; {
		case v < WarningC:
			zones[0].Samples++
		case v < ThrottlingC:
			zones[1].Samples++
		case v < CriticalC:
			zones[2].Samples++
		default:
			zones[3].Samples++
		}
	}
	total := float64(ds.Len())
	for i := range zones {
		zones[i].Percent = float64(zones[i].Samples) / total * 100
	}
	return zones
}

// rate maps the maximum observed temperature to a health rating.
func rate(maxC float64) Rating {
	switch {
	case maxC < WarningC:
		return RatingExcellent
	case maxC < ThrottlingC:
		return RatingGood
	case maxC < CriticalC:
		return RatingCaution
	default:
		return RatingCritical
	}
}
