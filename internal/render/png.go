package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/planbiir/gprofile/internal/report"
)

var shadowColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// WritePNG draws the report as a filled elevation profile and writes it as PNG.
func WritePNG(w io.Writer, r *report.Report, opts Options) error {
	p, err := newProfilePlot(r, opts)
	if err != nil {
		return err
	}

	width, height := opts.PNGWidth, opts.PNGHeight
	if width <= 0 || height <= 0 {
		def := DefaultOptions()
		width, height = def.PNGWidth, def.PNGHeight
	}
	c := vgimg.PngCanvas{Canvas: vgimg.New(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch)}
	p.Draw(draw.New(c))
	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

func newProfilePlot(r *report.Report, opts Options) (*plot.Plot, error) {
	if len(r.Samples) == 0 {
		return nil, fmt.Errorf("no samples to plot")
	}

	p := plot.New()
	p.Title.Text = opts.title(r)
	p.X.Label.Text = "Distance (km)"
	p.Y.Label.Text = "Elevation (m)"
	p.Legend.Top = true
	p.Legend.Left = true

	km := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		km[i] = s.DistanceKm
	}

	if opts.Shadow {
		shadow := make(plotter.XYs, len(r.Smoothed))
		for i, ele := range r.Smoothed {
			shadow[i] = plotter.XY{X: km[i] + opts.ShadowOffsetKm, Y: ele + opts.ShadowElevationOffsetM}
		}
		line, err := plotter.NewLine(shadow)
		if err != nil {
			return nil, fmt.Errorf("failed to build shadow line: %w", err)
		}
		line.FillColor = shadowColor
		line.LineStyle.Width = 0
		p.Add(line)
	}

	fills := make([]color.Color, len(r.Bands))
	for i, b := range r.Bands {
		c, err := parseColor(b.Color)
		if err != nil {
			return nil, fmt.Errorf("band %q: %w", b.Label, err)
		}
		fills[i] = c
	}

	for _, run := range bandRuns(r.SampleBands) {
		xys := make(plotter.XYs, 0, run.End-run.Start+1)
		for i := run.Start; i <= run.End; i++ {
			xys = append(xys, plotter.XY{X: km[i], Y: r.Smoothed[i]})
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("failed to build band fill: %w", err)
		}
		line.FillColor = fills[run.Band]
		line.LineStyle.Width = 0
		p.Add(line)
	}

	outline := make(plotter.XYs, len(r.Smoothed))
	for i, ele := range r.Smoothed {
		outline[i] = plotter.XY{X: km[i], Y: ele}
	}
	profileLine, err := plotter.NewLine(outline)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile line: %w", err)
	}
	profileLine.Color = color.Black
	profileLine.Width = vg.Points(0.8)
	p.Add(profileLine)

	for i, b := range r.Bands {
		thumb := &plotter.Line{FillColor: fills[i]}
		p.Legend.Add(b.Label, thumb)
	}

	maxEle := floats.Max(r.Smoothed)
	minEle := floats.Min(r.Smoothed)
	if err := addPlaceLabels(p, r, opts, maxEle); err != nil {
		return nil, err
	}

	// fills run down to Y.Min, keep some ground under the lowest point
	p.Y.Min = math.Min(p.Y.Min, minEle-0.05*(maxEle-minEle)-1)
	return p, nil
}

func addPlaceLabels(p *plot.Plot, r *report.Report, opts Options, maxEle float64) error {
	visible := VisibleLabels(r.Places, opts.LabelSpacingKm)
	if len(visible) == 0 {
		return nil
	}

	top := maxEle + math.Abs(maxEle)*0.1
	if top <= maxEle {
		top = maxEle + 10
	}
	xys := make(plotter.XYs, len(visible))
	names := make([]string, len(visible))
	for i, l := range visible {
		xys[i] = plotter.XY{X: l.Km, Y: top}
		names[i] = l.Name

		tick, err := plotter.NewLine(plotter.XYs{{X: l.Km, Y: l.Elevation}, {X: l.Km, Y: top}})
		if err != nil {
			return fmt.Errorf("failed to build label marker: %w", err)
		}
		tick.Color = color.Gray{Y: 160}
		tick.Width = vg.Points(0.5)
		tick.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(tick)
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
	if err != nil {
		return fmt.Errorf("failed to build place labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Rotation = math.Pi / 2
		labels.TextStyle[i].XAlign = draw.XLeft
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)
	return nil
}
