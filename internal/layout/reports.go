package layout

import (
	"fmt"
	"image/color"
	"sort"
	"time"

	"bearwave/internal/dataset"
	"bearwave/internal/reduce"
	"bearwave/internal/solar"
	"bearwave/internal/thermal"
)

// Fill colors for shaded regions and the extra threshold markers.
var (
	nightFill = color.RGBA{R: 0x2c, G: 0x2c, B: 0x54, A: 0x28}
	nightBand = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0x33}
	dayBand   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x33}
	darkRed   = color.RGBA{R: 0x8b, A: 0xff}
	slate     = color.RGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xff}
)

// StationInputs collects the pieces of one ionospheric report.
type StationInputs struct {
	Profile    dataset.StationProfile
	Period     dataset.Period
	Dataset    *dataset.Dataset
	Result     *reduce.Result
	Plan       reduce.PlanningValues
	Sun        []solar.Times
	Annotation string
}

// StationReport composes the ionospheric figure: diurnal variation,
// year-to-year distribution, temporal evolution, and the NVIS frequency
// plan.
func StationReport(in StationInputs) *Figure {
	rise, set := meanRiseSet(in.Sun)

	fig := &Figure{
		Title:    fmt.Sprintf("%s Ionospheric Analysis: %s", in.Profile.Name, in.Period.Label),
		Subtitle: in.Annotation,
		Station:  in.Profile.Name,
		Period:   in.Period.Label,
		Analysis: "Ionospheric",
	}
	fig.Panels[0] = diurnalPanel(in, rise, set)
	fig.Panels[1] = yearlyBoxPanel(in.Result)
	fig.Panels[2] = temporalPanel(in.Dataset, in.Profile.Location())
	fig.Panels[3] = frequencyPlanPanel(in.Result, rise, set)
	return fig
}

func diurnalPanel(in StationInputs, rise, set float64) Panel {
	p := Panel{
		Kind:   XYPanel,
		Title:  "Diurnal Variation",
		XLabel: "Hour of day (local)",
		YLabel: "foF2 (MHz)",
		XRange: &Range{Min: 0, Max: 24},
		YRange: &Range{Min: in.Profile.ClampMin, Max: in.Profile.ClampMax},
		Legend: true,
		Shades: hourNightShades(rise, set, in.Profile.ClampMin, in.Profile.ClampMax),
	}

	labels, hours := hourlyBySeries(in.Dataset)
	for i, label := range labels {
		buckets := hours[label]
		pts := make([]XY, 0, 24)
		for h := 0; h < 24; h++ {
			if buckets[h].count == 0 {
				continue
			}
			pts = append(pts, XY{X: float64(h), Y: buckets[h].mean()})
		}
		p.Series = append(p.Series, Series{
			Label:  label,
			Kind:   LineSeries,
			Color:  PaletteColor(i),
			Width:  1,
			Points: pts,
		})
	}

	mean := make([]XY, 0, len(in.Result.Hourly))
	for _, h := range in.Result.Hourly {
		mean = append(mean, XY{X: float64(h.Hour), Y: h.Mean})
	}
	p.Series = append(p.Series, Series{
		Label:  "All years",
		Kind:   LineScatterSeries,
		Color:  color.RGBA{A: 0xff},
		Width:  2.5,
		Points: mean,
	})

	p.RefLines = []RefLine{{
		Label:      fmt.Sprintf("%.3f MHz usable", reduce.PrimaryFreqMHz),
		Value:      reduce.UsableFoF2Threshold,
		Horizontal: true,
		Color:      PaletteColor(3),
		Dashed:     true,
	}}
	return p
}

func yearlyBoxPanel(res *reduce.Result) Panel {
	if len(res.BySeries) == 0 {
		return Panel{
			Kind:    MessagePanel,
			Title:   "Year-to-Year Distribution",
			Message: "no series breakdown available",
		}
	}
	labels := make([]string, 0, len(res.BySeries))
	for label := range res.BySeries {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	spec := &BoxSpec{}
	for _, label := range labels {
		spec.Categories = append(spec.Categories, label)
		spec.Groups = append(spec.Groups, res.BySeries[label])
	}
	return Panel{
		Kind:   BoxPanel,
		Title:  "Year-to-Year Distribution",
		XLabel: "Year",
		YLabel: "foF2 (MHz)",
		Boxes:  spec,
	}
}

func temporalPanel(ds *dataset.Dataset, loc *time.Location) Panel {
	p := Panel{
		Kind:       TimePanel,
		Title:      "Temporal Evolution",
		XLabel:     "Date",
		YLabel:     "foF2 (MHz)",
		TimeFormat: "2006-01-02",
		Location:   loc,
		Legend:     true,
	}
	for i, label := range ds.SeriesLabels() {
		var pts []XY
		for _, rec := range ds.Records {
			if rec.Series != label {
				continue
			}
			pts = append(pts, XY{X: unixF(rec.Timestamp), Y: rec.Value})
		}
		p.Series = append(p.Series, Series{
			Label:  label,
			Kind:   LineScatterSeries,
			Color:  PaletteColor(i),
			Width:  1,
			Points: pts,
		})
	}
	return p
}

func frequencyPlanPanel(res *reduce.Result, rise, set float64) Panel {
	p := Panel{
		Kind:   XYPanel,
		Title:  "NVIS Frequency Plan",
		XLabel: "Hour of day (local)",
		YLabel: "Frequency (MHz)",
		XRange: &Range{Min: 0, Max: 24},
		YRange: &Range{Min: 0, Max: 20},
		Legend: true,
		Shades: []Shade{
			{Label: "Night band", X0: 0, X1: 24, Y0: reduce.NightBandLowMHz, Y1: reduce.NightBandHighMHz, Color: nightBand},
			{Label: "Day band", X0: 0, X1: 24, Y0: reduce.DayBandLowMHz, Y1: reduce.DayBandHighMHz, Color: dayBand},
		},
	}

	muf := make([]XY, 0, len(res.Hourly))
	owf := make([]XY, 0, len(res.Hourly))
	for _, h := range res.Hourly {
		muf = append(muf, XY{X: float64(h.Hour), Y: h.Mean * reduce.MUFFactor})
		owf = append(owf, XY{X: float64(h.Hour), Y: h.Mean * reduce.MUFFactor * reduce.OWFFactor})
	}
	p.Series = append(p.Series,
		Series{Label: "MUF", Kind: LineSeries, Color: PaletteColor(3), Width: 2, Points: muf},
		Series{Label: "OWF", Kind: LineSeries, Color: PaletteColor(2), Width: 2, Points: owf},
	)
	p.RefLines = []RefLine{
		{Label: "7.078 MHz", Value: reduce.PrimaryFreqMHz, Horizontal: true, Color: PaletteColor(0), Dashed: true},
		{Label: "10.130 MHz", Value: reduce.SecondaryFreqMHz, Horizontal: true, Color: PaletteColor(4), Dashed: true},
		{Label: "sunrise", Value: rise, Color: PaletteColor(1), Dashed: true},
		{Label: "sunset", Value: set, Color: PaletteColor(5), Dashed: true},
	}
	return p
}

// SNRInputs collects the pieces of one signal-quality report.
type SNRInputs struct {
	Site       dataset.Site
	Period     string
	Dataset    *dataset.Dataset
	Result     *reduce.Result
	Windows    []*reduce.Window
	Sun        []solar.Times
	Threshold  float64
	Smoothing  int
	Annotation string
}

// SNRReport composes the signal-quality figure: raw timeline with night
// shading, value distribution, smoothed trend, and the ranked operating
// windows.
func SNRReport(in SNRInputs) *Figure {
	loc := in.Site.Location()
	fig := &Figure{
		Title:    fmt.Sprintf("%s Signal Quality: %s", in.Site.Name, in.Period),
		Subtitle: in.Annotation,
		Station:  in.Site.Name,
		Period:   in.Period,
		Analysis: "SNR",
	}
	fig.Panels[0] = snrTimelinePanel(in, loc)
	fig.Panels[1] = snrHistogramPanel(in.Dataset, in.Result)
	fig.Panels[2] = snrTrendPanel(in, loc)
	fig.Panels[3] = windowsPanel(in.Windows, in.Threshold, loc)
	return fig
}

func snrTimelinePanel(in SNRInputs, loc *time.Location) Panel {
	lo, hi := in.Result.Min-3, in.Result.Max+3
	p := Panel{
		Kind:       TimePanel,
		Title:      "Signal-to-Noise Timeline",
		XLabel:     "Local time",
		YLabel:     "SNR (dB)",
		TimeFormat: "Jan 02 15:04",
		Location:   loc,
		Legend:     true,
		YRange:     &Range{Min: lo, Max: hi},
		Shades:     timeNightShades(in.Sun, lo, hi),
	}
	p.Series = []Series{{
		Label:  "SNR",
		Kind:   LineSeries,
		Color:  PaletteColor(0),
		Width:  1,
		Points: timePoints(in.Dataset),
	}}
	if in.Threshold != 0 {
		p.RefLines = []RefLine{{
			Label:      fmt.Sprintf("%.0f dB threshold", in.Threshold),
			Value:      in.Threshold,
			Horizontal: true,
			Color:      PaletteColor(3),
			Dashed:     true,
		}}
	}
	return p
}

func snrHistogramPanel(ds *dataset.Dataset, res *reduce.Result) Panel {
	return Panel{
		Kind:   HistogramPanel,
		Title:  "SNR Distribution",
		XLabel: "SNR (dB)",
		YLabel: "Samples",
		Hist:   &HistSpec{Values: ds.Values(), Bins: 30, Color: PaletteColor(0)},
		RefLines: []RefLine{{
			Label:  fmt.Sprintf("mean %.1f dB", res.Mean),
			Value:  res.Mean,
			Color:  PaletteColor(3),
			Dashed: true,
		}},
		Legend: true,
	}
}

func snrTrendPanel(in SNRInputs, loc *time.Location) Panel {
	title := "Smoothed Trend"
	if in.Smoothing > 1 {
		title = fmt.Sprintf("Smoothed Trend (%d-sample window)", in.Smoothing)
	}
	p := Panel{
		Kind:       TimePanel,
		Title:      title,
		XLabel:     "Local time",
		YLabel:     "SNR (dB)",
		TimeFormat: "Jan 02 15:04",
		Location:   loc,
		Legend:     true,
	}

	raw := timePoints(in.Dataset)
	faint := PaletteColor(0)
	faint.A = 0x50
	p.Series = append(p.Series, Series{
		Label:  "raw",
		Kind:   LineSeries,
		Color:  faint,
		Width:  0.5,
		Points: raw,
	})

	smooth := reduce.MovingAverage(in.Dataset.Values(), in.Smoothing)
	pts := make([]XY, len(smooth))
	for i, v := range smooth {
		pts[i] = XY{X: raw[i].X, Y: v}
	}
	p.Series = append(p.Series, Series{
		Label:  "moving average",
		Kind:   LineSeries,
		Color:  PaletteColor(1),
		Width:  2,
		Points: pts,
	})

	if len(raw) >= 2 {
		intercept, slope := reduce.Trend(in.Dataset)
		hours := in.Dataset.Span().Hours()
		p.Series = append(p.Series, Series{
			Label:  fmt.Sprintf("trend %+.2f dB/h", slope),
			Kind:   LineSeries,
			Color:  PaletteColor(3),
			Width:  1.5,
			Dashed: true,
			Points: []XY{
				{X: raw[0].X, Y: intercept},
				{X: raw[len(raw)-1].X, Y: intercept + slope*hours},
			},
		})
	}
	return p
}

// windowsPanel ranks the detected operating windows as a bar chart,
// best window first and highlighted.
func windowsPanel(windows []*reduce.Window, threshold float64, loc *time.Location) Panel {
	if len(windows) == 0 {
		return Panel{
			Kind:    MessagePanel,
			Title:   "Best Operating Windows",
			Message: fmt.Sprintf("no samples above %.0f dB", threshold),
		}
	}
	spec := &BarSpec{}
	for i, w := range windows {
		spec.Categories = append(spec.Categories, w.Start.In(loc).Format("Jan 02 15:04"))
		spec.Values = append(spec.Values, w.Duration.Minutes())
		c := PaletteColor(2)
		if i > 0 {
			c = PaletteColor(0)
		}
		spec.Colors = append(spec.Colors, c)
	}
	return Panel{
		Kind:   BarPanel,
		Title:  "Best Operating Windows",
		XLabel: "Window start",
		YLabel: "Duration (min)",
		Bars:   spec,
	}
}

// ThermalInputs collects the pieces of one thermal report.
type ThermalInputs struct {
	Station    string
	Period     string
	Temps      *dataset.Dataset
	Clocks     *dataset.Dataset
	Assessment *thermal.Assessment
	Location   *time.Location
	Annotation string
}

// ThermalReport composes the telemetry figure: temperature timeline
// against the SoC thresholds, zone occupancy, temperature distribution,
// and the clock speed record.
func ThermalReport(in ThermalInputs) *Figure {
	if in.Location == nil {
		in.Location = time.UTC
	}
	fig := &Figure{
		Title:    fmt.Sprintf("%s Thermal Analysis: %s [%s]", in.Station, in.Period, in.Assessment.Rating),
		Subtitle: in.Annotation,
		Station:  in.Station,
		Period:   in.Period,
		Analysis: "Thermal",
	}
	fig.Panels[0] = tempTimelinePanel(in)
	fig.Panels[1] = zonePanel(in.Assessment)
	fig.Panels[2] = tempHistogramPanel(in)
	fig.Panels[3] = clockPanel(in)
	return fig
}

func tempTimelinePanel(in ThermalInputs) Panel {
	return Panel{
		Kind:       TimePanel,
		Title:      "CPU Temperature",
		XLabel:     "Local time",
		YLabel:     "Temperature (°C)",
		TimeFormat: "Jan 02 15:04",
		Location:   in.Location,
		Legend:     true,
		YRange:     &Range{Min: thermal.AmbientC - 10, Max: thermal.CriticalC + 10},
		Series: []Series{{
			Label:  "SoC temperature",
			Kind:   LineSeries,
			Color:  PaletteColor(1),
			Width:  1,
			Points: timePoints(in.Temps),
		}},
		RefLines: thresholdLines(),
	}
}

func zonePanel(a *thermal.Assessment) Panel {
	zoneColors := []color.RGBA{PaletteColor(2), PaletteColor(1), PaletteColor(3), darkRed}
	spec := &BarSpec{}
	for i, z := range a.Zones {
		spec.Categories = append(spec.Categories, z.Label)
		spec.Values = append(spec.Values, z.Percent)
		spec.Colors = append(spec.Colors, zoneColors[i%len(zoneColors)])
	}
	return Panel{
		Kind:   BarPanel,
		Title:  "Thermal Zone Occupancy",
		XLabel: "Zone",
		YLabel: "Share of samples (%)",
		YRange: &Range{Min: 0, Max: 100},
		Bars:   spec,
	}
}

func tempHistogramPanel(in ThermalInputs) Panel {
	refs := thresholdLines()
	for i := range refs {
		refs[i].Horizontal = false
	}
	return Panel{
		Kind:     HistogramPanel,
		Title:    "Temperature Distribution",
		XLabel:   "Temperature (°C)",
		YLabel:   "Samples",
		Hist:     &HistSpec{Values: in.Temps.Values(), Bins: 40, Color: PaletteColor(1)},
		RefLines: refs,
	}
}

func clockPanel(in ThermalInputs) Panel {
	if in.Clocks == nil || in.Clocks.Empty() {
		return Panel{
			Kind:    MessagePanel,
			Title:   "CPU Clock Speed",
			Message: "clock speed not recorded",
		}
	}
	return Panel{
		Kind:       TimePanel,
		Title:      "CPU Clock Speed",
		XLabel:     "Local time",
		YLabel:     "Clock (MHz)",
		TimeFormat: "Jan 02 15:04",
		Location:   in.Location,
		Series: []Series{{
			Label:  "ARM clock",
			Kind:   LineSeries,
			Color:  PaletteColor(4),
			Width:  1,
			Points: timePoints(in.Clocks),
		}},
	}
}

// thresholdLines returns the horizontal SoC threshold markers shared by
// the thermal panels.
func thresholdLines() []RefLine {
	return []RefLine{
		{Label: "ambient 30°C", Value: thermal.AmbientC, Horizontal: true, Color: slate, Dashed: true},
		{Label: "warning 70°C", Value: thermal.WarningC, Horizontal: true, Color: PaletteColor(1), Dashed: true},
		{Label: "throttling 80°C", Value: thermal.ThrottlingC, Horizontal: true, Color: PaletteColor(3), Dashed: true},
		{Label: "critical 85°C", Value: thermal.CriticalC, Horizontal: true, Color: darkRed, Dashed: true},
	}
}

type hourBucket struct {
	sum   float64
	count int
}

func (b hourBucket) mean() float64 { return b.sum / float64(b.count) }

// hourlyBySeries groups hourly means per series label, labels sorted.
func hourlyBySeries(ds *dataset.Dataset) ([]string, map[string]*[24]hourBucket) {
	out := make(map[string]*[24]hourBucket)
	for _, rec := range ds.Records {
		b, ok := out[rec.Series]
		if !ok {
			b = new([24]hourBucket)
			out[rec.Series] = b
		}
		h := rec.Timestamp.Hour()
		b[h].sum += rec.Value
		b[h].count++
	}
	labels := make([]string, 0, len(out))
	for label := range out {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, out
}

// meanRiseSet averages sunrise and sunset local clock hours across the
// period, defaulting to 06:00 and 18:00 near the equator when no solar
// data is supplied.
func meanRiseSet(sun []solar.Times) (rise, set float64) {
	if len(sun) == 0 {
		return 6, 18
	}
	for _, t := range sun {
		rise += clockHours(t.Sunrise)
		set += clockHours(t.Sunset)
	}
	n := float64(len(sun))
	return rise / n, set / n
}

func clockHours(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// hourNightShades shades the hours outside daylight on a 0..24 axis.
func hourNightShades(rise, set, y0, y1 float64) []Shade {
	return []Shade{
		{Label: "Night", X0: 0, X1: rise, Y0: y0, Y1: y1, Color: nightFill},
		{X0: set, X1: 24, Y0: y0, Y1: y1, Color: nightFill},
	}
}

// timeNightShades shades the hours outside daylight on a clock axis,
// two rectangles per solar day.
func timeNightShades(sun []solar.Times, y0, y1 float64) []Shade {
	out := make([]Shade, 0, 2*len(sun))
	for _, t := range sun {
		loc := t.Sunrise.Location()
		dayStart := time.Date(t.Date.Year(), t.Date.Month(), t.Date.Day(), 0, 0, 0, 0, loc)
		dayEnd := dayStart.Add(24 * time.Hour)
		out = append(out,
			Shade{X0: unixF(dayStart), X1: unixF(t.Sunrise), Y0: y0, Y1: y1, Color: nightFill},
			Shade{X0: unixF(t.Sunset), X1: unixF(dayEnd), Y0: y0, Y1: y1, Color: nightFill},
		)
	}
	return out
}

// timePoints converts the dataset records to Unix-second points.
func timePoints(ds *dataset.Dataset) []XY {
	pts := make([]XY, ds.Len())
	for i, rec := range ds.Records {
		pts[i] = XY{X: unixF(rec.Timestamp), Y: rec.Value}
	}
	return pts
}

func unixF(t time.Time) float64 { return float64(t.Unix()) }
