package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/planbiir/gprofile/internal/report"
)

const elevationSeries = "Elevation"

// WriteHTML renders the report as a self-contained go-echarts page: the
// smoothed profile, one filled area per slope band and a mark line per
// visible place label.
func WriteHTML(w io.Writer, r *report.Report, o Options) error {
	if len(r.Samples) == 0 {
		return fmt.Errorf("no samples to plot")
	}
	def := DefaultOptions()
	width, height := o.HTMLWidth, o.HTMLHeight
	if width == "" {
		width = def.HTMLWidth
	}
	if height == "" {
		height = def.HTMLHeight
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.title(r), Width: width, Height: height, AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{
			Title:    o.title(r),
			Subtitle: fmt.Sprintf("%.2f km, +%.0f m / -%.0f m", r.Summary.TotalDistanceKm, r.Summary.TotalAscentM, r.Summary.TotalDescentM),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "km", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "m", Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: 0, End: 100}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	if o.Shadow {
		shadow := make([]opts.LineData, len(r.Smoothed))
		for i, ele := range r.Smoothed {
			shadow[i] = opts.LineData{Value: []interface{}{r.Samples[i].DistanceKm + o.ShadowOffsetKm, ele + o.ShadowElevationOffsetM}}
		}
		line.AddSeries("Shadow", shadow,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: "gray", Opacity: opts.Float(0.35)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "gray"}),
		)
	}

	for i, series := range bandSeries(r) {
		b := r.Bands[i]
		line.AddSeries(b.Label, series,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), ConnectNulls: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: b.Color, Opacity: opts.Float(1)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: b.Color}),
		)
	}

	profile := make([]opts.LineData, len(r.Smoothed))
	for i, ele := range r.Smoothed {
		profile[i] = opts.LineData{Value: []interface{}{r.Samples[i].DistanceKm, ele}}
	}
	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "black", Width: 1}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "black"}),
	}
	if marks := placeMarks(r, o.LabelSpacingKm); len(marks) > 0 {
		seriesOpts = append(seriesOpts,
			charts.WithMarkLineNameXAxisItemOpts(marks...),
			charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
				Symbol:    []string{"none", "none"},
				Label:     &opts.Label{Show: opts.Bool(true), Formatter: "{b}", Position: "end"},
				LineStyle: &opts.LineStyle{Color: "gray", Type: "dashed", Width: 1},
			}),
		)
	}
	line.AddSeries(elevationSeries, profile, seriesOpts...)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// bandSeries returns one data series per band. Samples outside a band are
// "-" so echarts leaves a gap; each run repeats the next run's first sample
// so neighbouring fills meet.
func bandSeries(r *report.Report) [][]opts.LineData {
	in := make([][]bool, len(r.Bands))
	for i := range in {
		in[i] = make([]bool, len(r.Samples))
	}
	for _, run := range bandRuns(r.SampleBands) {
		for i := run.Start; i <= run.End; i++ {
			in[run.Band][i] = true
		}
	}

	out := make([][]opts.LineData, len(r.Bands))
	for b := range r.Bands {
		data := make([]opts.LineData, len(r.Samples))
		for i, s := range r.Samples {
			if in[b][i] {
				data[i] = opts.LineData{Value: []interface{}{s.DistanceKm, r.Smoothed[i]}}
			} else {
				data[i] = opts.LineData{Value: []interface{}{s.DistanceKm, "-"}}
			}
		}
		out[b] = data
	}
	return out
}

func placeMarks(r *report.Report, spacingKm float64) []opts.MarkLineNameXAxisItem {
	visible := VisibleLabels(r.Places, spacingKm)
	marks := make([]opts.MarkLineNameXAxisItem, 0, len(visible))
	for _, l := range visible {
		marks = append(marks, opts.MarkLineNameXAxisItem{Name: l.Name, XAxis: l.Km})
	}
	return marks
}
