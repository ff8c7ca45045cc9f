// Package layout composes report figures as plain data.
//
// A Figure is a fully resolved description of one 2x2 report: panel
// order, series, colors, reference lines, and shaded regions. The
// builders in this package are pure, so identical inputs always yield
// an identical Figure and tests can compare compositions without
// rendering a pixel. The render package turns Figures into PNG files.
package layout

import (
	"fmt"
	"image/color"
	"strings"
	"time"
)

// Canvas geometry shared by every report figure.
const (
	WidthInch  = 16.0
	HeightInch = 12.0
	DPI        = 160

	GridRows = 2
	GridCols = 2
)

// Palette is the fixed series color cycle used across all reports.
var Palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
}

// PaletteColor returns the cycle color for index i.
func PaletteColor(i int) color.RGBA {
	return Palette[i%len(Palette)]
}

// GridColor draws panel grids at 30% opacity.
var GridColor = color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0x4d}

// SeriesKind selects how a data series is drawn.
type SeriesKind int

const (
	LineSeries SeriesKind = iota
	ScatterSeries
	LineScatterSeries
)

// XY is one data point. Time-series panels carry Unix seconds in X.
type XY struct {
	X float64
	Y float64
}

// Series is one plotted data sequence within a panel.
type Series struct {
	Label  string
	Kind   SeriesKind
	Color  color.RGBA
	Width  float64 // line width in points, zero means default
	Dashed bool
	Points []XY
}

// RefLine is a threshold marker spanning the panel. Horizontal lines
// sit at Y=Value, vertical lines at X=Value.
type RefLine struct {
	Label      string
	Value      float64
	Horizontal bool
	Color      color.RGBA
	Dashed     bool
}

// Shade is a filled rectangle in data coordinates, drawn behind the
// series.
type Shade struct {
	Label          string
	X0, X1, Y0, Y1 float64
	Color          color.RGBA
}

// HistSpec describes a value histogram.
type HistSpec struct {
	Values []float64
	Bins   int
	Color  color.RGBA
}

// BarSpec describes a categorical bar chart. Colors pairs with
// Categories; nil cycles the palette.
type BarSpec struct {
	Categories []string
	Values     []float64
	Colors     []color.RGBA
}

// BoxSpec describes side-by-side box plots, one per category.
type BoxSpec struct {
	Categories []string
	Groups     [][]float64
}

// Range fixes an axis span instead of autoscaling.
type Range struct {
	Min float64
	Max float64
}

// PanelKind selects the renderer path for a panel.
type PanelKind int

const (
	// XYPanel plots series on a numeric X axis.
	XYPanel PanelKind = iota
	// TimePanel plots series on a clock axis; X values are Unix
	// seconds interpreted in Location.
	TimePanel
	// HistogramPanel draws Hist.
	HistogramPanel
	// BarPanel draws Bars.
	BarPanel
	// BoxPanel draws Boxes.
	BoxPanel
	// MessagePanel prints Message centered, used when a source column
	// is absent from the input file.
	MessagePanel
)

// Panel is one cell of the 2x2 grid.
type Panel struct {
	Kind   PanelKind
	Title  string
	XLabel string
	YLabel string

	Series   []Series
	RefLines []RefLine
	Shades   []Shade

	Hist  *HistSpec
	Bars  *BarSpec
	Boxes *BoxSpec

	// TimeFormat and Location configure tick labels on TimePanel.
	TimeFormat string
	Location   *time.Location

	XRange *Range
	YRange *Range

	Legend  bool
	Message string
}

// Figure is a complete report composition. Panels are row-major: 0 is
// top-left, 1 top-right, 2 bottom-left, 3 bottom-right.
type Figure struct {
	Title    string
	Subtitle string
	Station  string
	Period   string
	Analysis string
	Panels   [4]Panel
}

// FileName derives the output file name for the figure,
// {Station}_{Period}_{Analysis}_{YYYYMMDD_HHMMSS}.png, with every
// component reduced to filesystem-safe characters.
func (f *Figure) FileName(ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s.png",
		sanitize(f.Station), sanitize(f.Period), sanitize(f.Analysis),
		ts.Format("20060102_150405"))
}

// sanitize maps spaces and path separators to underscores and drops
// any remaining character outside [A-Za-z0-9_-].
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '/' || r == '\\':
			b.WriteRune('_')
		case r == '-' || r == '_',
			r >= '0' && r <= '9',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}
