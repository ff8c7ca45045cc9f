package exporter

import (
	"strconv"
	"time"
)

// DayRow is one line of a per-day mean table.
type DayRow struct {
	Day     time.Time
	Samples int
	Mean    float64
}

var dailyHeaders = []string{"day", "samples", "mean"}

// WriteDailyCSV writes the per-day means of one analysis. The chart
// generator drops one of these next to the batch summary for every
// analysis that produced a reduction.
func (w *Writer) WriteDailyCSV(path string, rows []DayRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Day.Format("2006-01-02"),
			strconv.Itoa(r.Samples),
			formatMean(r.Mean),
		})
	}
	return w.WriteCSV(path, dailyHeaders, records)
}
