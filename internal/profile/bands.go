package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Band is a half-open slope interval [Low, High).
// The first band starts at -Inf and the last one ends at +Inf.
type Band struct {
	Label string  `json:"label"`
	Color string  `json:"color"`
	Low   float64 `json:"-"`
	High  float64 `json:"-"`
}

var defaultPalette = []string{"palegreen", "yellow", "orange", "orangered", "maroon"}

// Contains reports whether slope falls into the band.
func (b Band) Contains(slope float64) bool {
	if math.IsInf(b.High, 1) {
		return slope >= b.Low
	}
	return slope >= b.Low && slope < b.High
}

// NewBands builds len(thresholds)+1 bands. Empty labels are derived from the
// thresholds and empty colors cycle through the default palette.
func NewBands(thresholds []float64, labels, colors []string) ([]Band, error) {
	if err := validateThresholds(thresholds); err != nil {
		return nil, err
	}
	n := len(thresholds) + 1
	if len(labels) == 0 {
		labels = DefaultLabels(thresholds)
	}
	if len(labels) != n {
		return nil, &ConfigError{Field: "band_labels", Reason: fmt.Sprintf("expected %d labels, got %d", n, len(labels))}
	}
	if len(colors) != 0 && len(colors) != n {
		return nil, &ConfigError{Field: "band_colors", Reason: fmt.Sprintf("expected %d colors, got %d", n, len(colors))}
	}

	bands := make([]Band, n)
	for i := range bands {
		low, high := math.Inf(-1), math.Inf(1)
		if i > 0 {
			low = thresholds[i-1]
		}
		if i < len(thresholds) {
			high = thresholds[i]
		}
		color := defaultPalette[i%len(defaultPalette)]
		if len(colors) != 0 {
			color = colors[i]
		}
		bands[i] = Band{Label: labels[i], Color: color, Low: low, High: high}
	}
	return bands, nil
}

// DefaultLabels renders "< 2%", "2 ~ 4%", ..., ">= 8%" style labels.
func DefaultLabels(thresholds []float64) []string {
	if len(thresholds) == 0 {
		return []string{"all"}
	}
	labels := make([]string, 0, len(thresholds)+1)
	labels = append(labels, "< "+formatPercent(thresholds[0]))
	for i := 1; i < len(thresholds); i++ {
		labels = append(labels, trimNumber(thresholds[i-1])+" ~ "+formatPercent(thresholds[i]))
	}
	labels = append(labels, ">= "+formatPercent(thresholds[len(thresholds)-1]))
	return labels
}

func formatPercent(v float64) string {
	return trimNumber(v) + "%"
}

func trimNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BandIndex returns the index of the band slope falls into.
// Bands must come from NewBands so they are ordered and gap-free.
func BandIndex(bands []Band, slope float64) int {
	if len(bands) == 0 {
		return -1
	}
	if math.IsNaN(slope) {
		return 0
	}
	// Number of band lower bounds (past the first) that are <= slope.
	idx := sort.Search(len(bands)-1, func(i int) bool {
		return bands[i+1].Low > slope
	})
	return idx
}
