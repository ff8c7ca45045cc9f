// Package render turns layout figures into raster PNG files.
//
// Rendering is the only drawing stage of the report pipeline. Everything
// upstream hands over a fully composed layout.Figure, so this package is
// a mechanical translation to gonum/plot primitives plus the file write.
package render

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"bearwave/internal/layout"
)

var dashPattern = []vg.Length{vg.Points(6), vg.Points(4)}

var messageGray = color.RGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xff}

// Renderer writes report figures into an output directory. The clock
// stamps file names, so tests can inject a fixed one.
type Renderer struct {
	logger *slog.Logger
	clock  clockwork.Clock
	outDir string
}

// New creates a renderer. A nil logger falls back to slog.Default and a
// nil clock to the wall clock.
func New(logger *slog.Logger, clock clockwork.Clock, outDir string) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Renderer{logger: logger, clock: clock, outDir: outDir}
}

// Render draws the figure onto a fixed 16x12 inch canvas at 160 DPI and
// writes it as {Station}_{Period}_{Analysis}_{timestamp}.png in the
// output directory, returning the written path.
func (r *Renderer) Render(fig *layout.Figure) (string, error) {
	plots := make([][]*plot.Plot, layout.GridRows)
	for row := 0; row < layout.GridRows; row++ {
		plots[row] = make([]*plot.Plot, layout.GridCols)
		for col := 0; col < layout.GridCols; col++ {
			panel := fig.Panels[row*layout.GridCols+col]
			p, err := buildPanel(panel)
			if err != nil {
				return "", fmt.Errorf("compose panel %q: %w", panel.Title, err)
			}
			plots[row][col] = p
		}
	}

	img := vgimg.NewWith(
		vgimg.UseWH(layout.WidthInch*vg.Inch, layout.HeightInch*vg.Inch),
		vgimg.UseDPI(layout.DPI),
	)
	dc := draw.New(img)
	drawHeader(dc, fig)

	tiles := draw.Tiles{
		Rows:      layout.GridRows,
		Cols:      layout.GridCols,
		PadX:      vg.Points(14),
		PadY:      vg.Points(14),
		PadTop:    vg.Points(58),
		PadBottom: vg.Points(10),
		PadLeft:   vg.Points(10),
		PadRight:  vg.Points(10),
	}
	canvases := plot.Align(plots, tiles, dc)
	for row := 0; row < layout.GridRows; row++ {
		for col := 0; col < layout.GridCols; col++ {
			plots[row][col].Draw(canvases[row][col])
			panel := fig.Panels[row*layout.GridCols+col]
			if panel.Kind == layout.MessagePanel {
				fillMessage(canvases[row][col], panel.Message)
			}
		}
	}

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", r.outDir, err)
	}
	path := filepath.Join(r.outDir, fig.FileName(r.clock.Now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("encode chart %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("flush chart %s: %w", path, err)
	}

	r.logger.Info("chart written",
		slog.String("path", path),
		slog.String("station", fig.Station),
		slog.String("analysis", fig.Analysis))
	return path, nil
}

// buildPanel translates one panel description into a plot.
func buildPanel(panel layout.Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = panel.XLabel
	p.Y.Label.Text = panel.YLabel
	p.Legend.Top = true

	grid := plotter.NewGrid()
	grid.Vertical.Color = layout.GridColor
	grid.Horizontal.Color = layout.GridColor
	p.Add(grid)

	if panel.Kind == layout.TimePanel {
		loc := panel.Location
		if loc == nil {
			loc = time.UTC
		}
		p.X.Tick.Marker = plot.TimeTicks{Format: panel.TimeFormat, Time: plot.UnixTimeIn(loc)}
	}

	for _, s := range panel.Shades {
		poly, err := shadePolygon(s)
		if err != nil {
			return nil, err
		}
		p.Add(poly)
		if s.Label != "" {
			p.Legend.Add(s.Label, poly)
		}
	}

	switch panel.Kind {
	case layout.HistogramPanel:
		h, err := plotter.NewHist(plotter.Values(panel.Hist.Values), panel.Hist.Bins)
		if err != nil {
			return nil, err
		}
		h.FillColor = panel.Hist.Color
		h.LineStyle.Width = vg.Points(0.5)
		p.Add(h)

	case layout.BarPanel:
		// One chart per bar so each category keeps its own color.
		for i, v := range panel.Bars.Values {
			bc, err := plotter.NewBarChart(plotter.Values{v}, vg.Points(28))
			if err != nil {
				return nil, err
			}
			bc.XMin = float64(i)
			bc.Color = barColor(panel.Bars, i)
			bc.LineStyle.Width = 0
			p.Add(bc)
		}
		p.NominalX(panel.Bars.Categories...)

	case layout.BoxPanel:
		for i, group := range panel.Boxes.Groups {
			b, err := plotter.NewBoxPlot(vg.Points(24), float64(i), plotter.Values(group))
			if err != nil {
				return nil, err
			}
			p.Add(b)
		}
		p.NominalX(panel.Boxes.Categories...)

	case layout.MessagePanel:
		p.HideAxes()
	}

	for _, s := range panel.Series {
		if err := addSeries(p, s); err != nil {
			return nil, err
		}
	}

	xmin, xmax, ymin, ymax := dataExtent(panel)
	for _, rl := range panel.RefLines {
		if err := addRefLine(p, rl, xmin, xmax, ymin, ymax); err != nil {
			return nil, err
		}
	}

	if panel.XRange != nil {
		p.X.Min, p.X.Max = panel.XRange.Min, panel.XRange.Max
	}
	if panel.YRange != nil {
		p.Y.Min, p.Y.Max = panel.YRange.Min, panel.YRange.Max
	}
	return p, nil
}

func addSeries(p *plot.Plot, s layout.Series) error {
	xys := toXYs(s.Points)
	switch s.Kind {
	case layout.ScatterSeries:
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		styleScatter(sc, s)
		p.Add(sc)
		if s.Label != "" {
			p.Legend.Add(s.Label, sc)
		}
	case layout.LineScatterSeries:
		ln, sc, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		styleLine(ln, s)
		styleScatter(sc, s)
		p.Add(ln, sc)
		if s.Label != "" {
			p.Legend.Add(s.Label, ln, sc)
		}
	default:
		ln, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		styleLine(ln, s)
		p.Add(ln)
		if s.Label != "" {
			p.Legend.Add(s.Label, ln)
		}
	}
	return nil
}

func styleLine(ln *plotter.Line, s layout.Series) {
	ln.LineStyle.Color = s.Color
	if s.Width > 0 {
		ln.LineStyle.Width = vg.Points(s.Width)
	}
	if s.Dashed {
		ln.LineStyle.Dashes = dashPattern
	}
}

func styleScatter(sc *plotter.Scatter, s layout.Series) {
	sc.GlyphStyle.Color = s.Color
	sc.GlyphStyle.Radius = vg.Points(1.5)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
}

func shadePolygon(s layout.Shade) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{
		{X: s.X0, Y: s.Y0},
		{X: s.X1, Y: s.Y0},
		{X: s.X1, Y: s.Y1},
		{X: s.X0, Y: s.Y1},
	})
	if err != nil {
		return nil, err
	}
	poly.Color = s.Color
	poly.LineStyle.Width = 0
	return poly, nil
}

// addRefLine draws a threshold as a two-point line spanning the panel's
// data extent.
func addRefLine(p *plot.Plot, rl layout.RefLine, xmin, xmax, ymin, ymax float64) error {
	var xys plotter.XYs
	if rl.Horizontal {
		xys = plotter.XYs{{X: xmin, Y: rl.Value}, {X: xmax, Y: rl.Value}}
	} else {
		xys = plotter.XYs{{X: rl.Value, Y: ymin}, {X: rl.Value, Y: ymax}}
	}
	ln, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	ln.LineStyle.Color = rl.Color
	ln.LineStyle.Width = vg.Points(1.25)
	if rl.Dashed {
		ln.LineStyle.Dashes = dashPattern
	}
	p.Add(ln)
	if rl.Label != "" {
		p.Legend.Add(rl.Label, ln)
	}
	return nil
}

func barColor(spec *layout.BarSpec, i int) color.RGBA {
	if i < len(spec.Colors) {
		return spec.Colors[i]
	}
	return layout.PaletteColor(i)
}

// dataExtent computes the panel's data bounds for anchoring reference
// lines. Explicit axis ranges win over scanned data.
func dataExtent(panel layout.Panel) (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)

	for _, s := range panel.Series {
		for _, pt := range s.Points {
			xmin = math.Min(xmin, pt.X)
			xmax = math.Max(xmax, pt.X)
			ymin = math.Min(ymin, pt.Y)
			ymax = math.Max(ymax, pt.Y)
		}
	}
	if panel.Hist != nil {
		for _, v := range panel.Hist.Values {
			xmin = math.Min(xmin, v)
			xmax = math.Max(xmax, v)
		}
		ymin = 0
		ymax = histMaxCount(panel.Hist.Values, panel.Hist.Bins)
	}
	if panel.Bars != nil {
		xmin, xmax = -0.5, float64(len(panel.Bars.Values))-0.5
		ymin = 0
		for _, v := range panel.Bars.Values {
			ymax = math.Max(ymax, v)
		}
	}
	if panel.Boxes != nil {
		xmin, xmax = -0.5, float64(len(panel.Boxes.Groups))-0.5
		for _, group := range panel.Boxes.Groups {
			for _, v := range group {
				ymin = math.Min(ymin, v)
				ymax = math.Max(ymax, v)
			}
		}
	}

	if panel.XRange != nil {
		xmin, xmax = panel.XRange.Min, panel.XRange.Max
	}
	if panel.YRange != nil {
		ymin, ymax = panel.YRange.Min, panel.YRange.Max
	}
	if math.IsInf(xmin, 1) {
		xmin, xmax = 0, 1
	}
	if math.IsInf(ymin, 1) {
		ymin, ymax = 0, 1
	}
	return xmin, xmax, ymin, ymax
}

// histMaxCount estimates the tallest uniform-width bin, matching the
// default histogram binning.
func histMaxCount(values []float64, bins int) float64 {
	if len(values) == 0 || bins <= 0 {
		return 1
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		return float64(len(values))
	}
	w := (hi - lo) / float64(bins)
	counts := make([]int, bins)
	for _, v := range values {
		i := int((v - lo) / w)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return float64(max)
}

// drawHeader prints the figure title and the optional subtitle across
// the top band reserved by the tile padding.
func drawHeader(dc draw.Canvas, fig *layout.Figure) {
	f := plot.DefaultFont
	f.Size = vg.Points(21)
	sty := text.Style{
		Color:   color.Black,
		Font:    f,
		Handler: text.Plain{Fonts: font.DefaultCache},
		XAlign:  text.XCenter,
		YAlign:  text.YTop,
	}
	x := (dc.Min.X + dc.Max.X) / 2
	y := dc.Max.Y - vg.Points(4)
	dc.FillText(sty, vg.Point{X: x, Y: y}, fig.Title)

	if fig.Subtitle != "" {
		sub := sty
		sub.Font.Size = vg.Points(12)
		sub.Color = messageGray
		dc.FillText(sub, vg.Point{X: x, Y: y - vg.Points(28)}, fig.Subtitle)
	}
}

// fillMessage centers a note inside an otherwise empty panel.
func fillMessage(c draw.Canvas, msg string) {
	f := plot.DefaultFont
	f.Size = vg.Points(14)
	sty := text.Style{
		Color:   messageGray,
		Font:    f,
		Handler: text.Plain{Fonts: font.DefaultCache},
		XAlign:  text.XCenter,
		YAlign:  text.YCenter,
	}
	c.FillText(sty, vg.Point{
		X: (c.Min.X + c.Max.X) / 2,
		Y: (c.Min.Y + c.Max.Y) / 2,
	}, msg)
}

func toXYs(points []layout.XY) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}
