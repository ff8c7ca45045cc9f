// Package dataset loads measurement tables from spreadsheet workbooks and
// delimited text files into immutable in-memory series.
package dataset

import (
	"sort"
	"time"
)

// Kind identifies the physical quantity a dataset carries.
type Kind string

const (
	KindFoF2        Kind = "fof2"
	KindSNR         Kind = "snr"
	KindTemperature Kind = "temperature"
	KindClockSpeed  Kind = "clock_speed"
)

// Unit returns the axis label unit for the kind.
func (k Kind) Unit() string {
	switch k {
	case KindFoF2:
		return "MHz"
	case KindSNR:
		return "dB"
	case KindTemperature:
		return "°C"
	case KindClockSpeed:
		return "MHz"
	default:
		return ""
	}
}

// Measurement is a single sample recorded at a monitoring station.
// Series carries the sub-grouping label for the sample: the observation
// year for ionosonde sheets, the transmit frequency for SNR logs, or the
// sensor name for telemetry.
type Measurement struct {
	Timestamp time.Time
	Station   string
	Series    string
	Value     float64
}

// Dataset is an ordered sequence of measurements sharing a station and
// variable kind. It is read-only after loading.
type Dataset struct {
	Station string
	Kind    Kind
	Unit    string
	Records []Measurement
	Start   time.Time
	End     time.Time
}

// newDataset sorts records by timestamp and stamps the covered range.
func newDataset(station string, kind Kind, records []Measurement) *Dataset {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	ds := &Dataset{
		Station: station,
		Kind:    kind,
		Unit:    kind.Unit(),
		Records: records,
	}
	if len(records) > 0 {
		ds.Start = records[0].Timestamp
		ds.End = records[len(records)-1].Timestamp
	}
	return ds
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// Empty reports whether the dataset holds no records.
func (d *Dataset) Empty() bool { return len(d.Records) == 0 }

// Values returns the measurement values in timestamp order.
func (d *Dataset) Values() []float64 {
	out := make([]float64, len(d.Records))
	for i, rec := range d.Records {
		out[i] = rec.Value
	}
	return out
}

// Span returns the covered time range.
func (d *Dataset) Span() time.Duration {
	if d.Empty() {
		return 0
	}
	return d.End.Sub(d.Start)
}

// SeriesLabels returns the distinct series labels in ascending order.
func (d *Dataset) SeriesLabels() []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, rec := range d.Records {
		if _, ok := seen[rec.Series]; !ok {
			seen[rec.Series] = struct{}{}
			labels = append(labels, rec.Series)
		}
	}
	sort.Strings(labels)
	return labels
}

// BySeries groups the values by series label, preserving timestamp order
// within each group.
func (d *Dataset) BySeries() map[string][]float64 {
	groups := make(map[string][]float64)
	for _, rec := range d.Records {
		groups[rec.Series] = append(groups[rec.Series], rec.Value)
	}
	return groups
}

// Days returns the distinct calendar dates covered by the dataset, in
// ascending order, expressed at midnight in each record's location.
func (d *Dataset) Days() []time.Time {
	seen := make(map[string]time.Time)
	for _, rec := range d.Records {
		y, m, day := rec.Timestamp.Date()
		midnight := time.Date(y, m, day, 0, 0, 0, 0, rec.Timestamp.Location())
		seen[midnight.Format("2006-01-02")] = midnight
	}
	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Period selects rows by calendar day within one month, applied across
// every observation year present in the source sheet.
type Period struct {
	Label   string
	Month   time.Month
	FromDay int
	ToDay   int
}

// WholeMonth builds a period covering every day of the month.
func WholeMonth(label string, month time.Month) Period {
	return Period{Label: label, Month: month}
}

// DayRange builds a period covering from..to inclusive within the month.
func DayRange(label string, month time.Month, from, to int) Period {
	return Period{Label: label, Month: month, FromDay: from, ToDay: to}
}

// Contains reports whether the timestamp falls inside the period,
// ignoring the year.
func (p Period) Contains(t time.Time) bool {
	if t.Month() != p.Month {
		return false
	}
	if p.FromDay == 0 && p.ToDay == 0 {
		return true
	}
	return t.Day() >= p.FromDay && t.Day() <= p.ToDay
}

// SingleDay reports whether the period covers exactly one calendar day.
func (p Period) SingleDay() bool {
	return p.FromDay != 0 && p.FromDay == p.ToDay
}

// Progress returns the 0..1 position of the timestamp within the period,
// used to interpolate the seasonal model coefficients.
func (p Period) Progress(t time.Time) float64 {
	from := p.FromDay
	to := p.ToDay
	if from == 0 {
		from = 1
	}
	if to == 0 {
		to = daysInMonth(p.Month)
	}
	if to <= from {
		return 0
	}
	pos := float64(t.Day()-from) / float64(to-from)
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}

func daysInMonth(m time.Month) int {
	// Year 2023 matches the observation campaign; February precision is
	// irrelevant here because campaigns run in April.
	return time.Date(2023, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
