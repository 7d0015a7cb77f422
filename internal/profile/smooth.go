package profile

import "gonum.org/v1/gonum/floats"

// Smooth applies a centered rolling mean of the given width. Near the edges the
// window shrinks to the samples that exist instead of padding, so the output
// always has the input length. For index i the window covers
// [i - window/2, i - window/2 + window - 1]. A window of 0 or 1 is the identity.
func Smooth(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}

	for i := range values {
		start := max(0, i-window/2)
		end := min(len(values), i-window/2+window)
		w := values[start:end]
		out[i] = floats.Sum(w) / float64(len(w))
	}
	return out
}

// Ascent sums the positive first differences of values.
func Ascent(values []float64) float64 {
	total := 0.0
	for i := 1; i < len(values); i++ {
		if d := values[i] - values[i-1]; d > 0 {
			total += d
		}
	}
	return total
}

// Descent sums the magnitude of the negative first differences of values.
func Descent(values []float64) float64 {
	total := 0.0
	for i := 1; i < len(values); i++ {
		if d := values[i] - values[i-1]; d < 0 {
			total -= d
		}
	}
	return total
}
