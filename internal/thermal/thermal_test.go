package thermal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bearwave/internal/dataset"
)

// tempLog builds a temperature dataset sampled at ten-second intervals.
func tempLog(values []float64) *dataset.Dataset {
	start := time.Date(2023, time.April, 15, 12, 0, 0, 0, time.UTC)
	records := make([]dataset.Measurement, len(values))
	for i, v := range values {
		records[i] = dataset.Measurement{
			Timestamp: start.Add(time.Duration(i) * 10 * time.Second),
			Station:   "DGFC",
			Value:     v,
		}
	}
	ds := &dataset.Dataset{
		Station: "DGFC",
		Kind:    dataset.KindTemperature,
		Unit:    dataset.KindTemperature.Unit(),
		Records: records,
	}
	if len(records) > 0 {
		ds.Start = records[0].Timestamp
		ds.End = records[len(records)-1].Timestamp
	}
	return ds
}

func TestAssess(t *testing.T) {
	a := NewAnalyzer(nil)

	ds := tempLog([]float64{65, 75, 82, 86, 83, 76, 66})
	got, err := a.Assess(ds)
	require.NoError(t, err)

	assert.Equal(t, RatingCritical, got.Rating)
	assert.InDelta(t, 86.0, got.Result.Max, 1e-12)

	require.NotNil(t, got.ThrottleRun)
	assert.Equal(t, 2, got.ThrottleRun.StartIndex)
	assert.Equal(t, 3, got.ThrottleRun.Records)

	require.Len(t, got.Crossings, 3)
	assert.Equal(t, 5, got.Crossings[0].Samples)
	assert.Equal(t, 3, got.Crossings[1].Samples)
	assert.Equal(t, 1, got.Crossings[2].Samples)
}

func TestAssessCoolLog(t *testing.T) {
	a := NewAnalyzer(nil)

	got, err := a.Assess(tempLog([]float64{55, 58, 62, 60}))
	require.NoError(t, err)

	assert.Equal(t, RatingExcellent, got.Rating)
	assert.Nil(t, got.ThrottleRun)

	require.Len(t, got.Zones, 4)
	assert.Equal(t, 4, got.Zones[0].Samples)
	assert.InDelta(t, 100.0, got.Zones[0].Percent, 1e-12)
	for _, z := range got.Zones[1:] {
		assert.Zero(t, z.Samples)
	}
}

func TestAssessEmpty(t *testing.T) {
	a := NewAnalyzer(nil)
	_, err := a.Assess(&dataset.Dataset{Kind: dataset.KindTemperature})
	assert.ErrorIs(t, err, dataset.ErrNoRows)
}

func TestOccupancy(t *testing.T) {
	ds := tempLog([]float64{65, 72, 81, 90})
	zones := occupancy(ds)

	require.Len(t, zones, 4)
	labels := []string{"Nominal", "Warning", "Throttling", "Critical"}
	for i, z := range zones {
		assert.Equal(t, labels[i], z.Label)
		assert.Equal(t, 1, z.Samples)
		assert.InDelta(t, 25.0, z.Percent, 1e-12)
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		maxC float64
		want Rating
	}{
		{55, RatingExcellent},
		{69.9, RatingExcellent},
		{70, RatingGood},
		{79.9, RatingGood},
		{80, RatingCaution},
		{84.9, RatingCaution},
		{85, RatingCritical},
		{92, RatingCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rate(tt.maxC), "maxC=%v", tt.maxC)
	}
}
