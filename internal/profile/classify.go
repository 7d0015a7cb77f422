package profile

import "math"

// Span is anything with a route length and a slope: a segment or an interval.
type Span interface {
	Length() float64
	Slope() float64
}

// BandLength is the total route length experienced within one band.
type BandLength struct {
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	LengthKm float64 `json:"length_km"` // rounded to 2 decimals
}

// Classify sums span lengths per band. Every band is present in the output,
// in band order, with 0 when nothing matched.
func Classify[S Span](spans []S, bands []Band) []BandLength {
	totals := make([]float64, len(bands))
	for _, s := range spans {
		idx := BandIndex(bands, s.Slope())
		if idx < 0 {
			continue
		}
		totals[idx] += s.Length()
	}

	out := make([]BandLength, len(bands))
	for i, b := range bands {
		out[i] = BandLength{Label: b.Label, Color: b.Color, LengthKm: Round2(totals[i])}
	}
	return out
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
