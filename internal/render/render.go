// Package render draws a finished report as an interactive HTML chart, a
// static PNG image or a plain-text band table. Renderers only read the report.
package render

import (
	"fmt"
	"image/color"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/image/colornames"

	"github.com/planbiir/gprofile/internal/places"
	"github.com/planbiir/gprofile/internal/report"
)

// Options holds presentation settings shared by the renderers.
type Options struct {
	Title string

	Shadow                 bool    // draw the offset shadow profile behind the bands
	ShadowOffsetKm         float64 // horizontal shift of the shadow
	ShadowElevationOffsetM float64 // vertical shift of the shadow
	LabelSpacingKm         float64 // minimum gap between two drawn place labels

	HTMLWidth  string // CSS size, e.g. "1200px"
	HTMLHeight string
	PNGWidth   float64 // inches
	PNGHeight  float64 // inches

	AssetsHost string // go-echarts assets host, empty for the library default
}

// DefaultOptions returns the settings used by the original dashboard plot.
func DefaultOptions() Options {
	return Options{
		Title:                  "Elevation profile",
		Shadow:                 true,
		ShadowOffsetKm:         0.5,
		ShadowElevationOffsetM: 15,
		LabelSpacingKm:         5,
		HTMLWidth:              "1200px",
		HTMLHeight:             "420px",
		PNGWidth:               12,
		PNGHeight:              4,
	}
}

func (o Options) title(r *report.Report) string {
	if r.Name != "" {
		return r.Name
	}
	if o.Title != "" {
		return o.Title
	}
	return "Elevation profile"
}

// VisibleLabels thins labels for display: a label is drawn when it lies at
// least spacingKm past the previously drawn label, whatever its name.
func VisibleLabels(labels []places.Label, spacingKm float64) []places.Label {
	visible := make([]places.Label, 0, len(labels))
	last := -spacingKm
	for _, l := range labels {
		if l.Km-last >= spacingKm {
			visible = append(visible, l)
			last = l.Km
		}
	}
	return visible
}

// WriteBandTable prints the per-band length table followed by the total.
func WriteBandTable(w io.Writer, r *report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Slope\tLength (km)\t")
	for _, b := range r.BandLengths {
		fmt.Fprintf(tw, "%s\t%.2f\t\n", b.Label, b.LengthKm)
	}
	fmt.Fprintf(tw, "Total\t%.2f\t\n", r.TotalBandLength())
	return tw.Flush()
}

// bandRun is a maximal run of consecutive samples sharing a band. End is
// inclusive and overlaps the first sample of the next run so fills touch.
type bandRun struct {
	Band       int
	Start, End int
}

func bandRuns(sampleBands []int) []bandRun {
	var runs []bandRun
	for i := 0; i < len(sampleBands); {
		j := i
		for j+1 < len(sampleBands) && sampleBands[j+1] == sampleBands[i] {
			j++
		}
		end := j
		if end+1 < len(sampleBands) {
			end++
		}
		runs = append(runs, bandRun{Band: sampleBands[i], Start: i, End: end})
		i = j + 1
	}
	return runs
}

// parseColor accepts CSS/SVG color names and #rgb or #rrggbb values.
func parseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return nil, fmt.Errorf("unknown color %q", s)
	}
	var r, g, b uint8
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", s, err)
		}
	case 4:
		if _, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", s, err)
		}
		r, g, b = r*17, g*17, b*17
	default:
		return nil, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
