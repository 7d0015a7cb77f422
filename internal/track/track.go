// Package track turns an ordered sequence of raw GPS points into samples
// enriched with cumulative route distance.
package track

import (
	"errors"

	"github.com/planbiir/gprofile/internal/geo"
)

// ErrEmptyTrack is returned when there are no points to build a profile from.
var ErrEmptyTrack = errors.New("track has no points")

// Point is a raw track point in route traversal order.
// Elevation is nil when the source recorded no elevation for the point.
type Point struct {
	Lat       float64
	Lon       float64
	Elevation *float64
}

// Sample is a Point enriched with cumulative distance from the start of the route.
type Sample struct {
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Elevation      float64 `json:"elevation"`
	ElevationKnown bool    `json:"elevation_known"` // false when Elevation was filled from neighbours
	DistanceKm     float64 `json:"km"`
}

// Ele is a convenience for building points with a known elevation.
func Ele(v float64) *float64 {
	return &v
}

// Load walks points once and accumulates haversine distance into DistanceKm.
// The input slice is not modified. Missing elevations are filled, see fillElevation.
func Load(points []Point) ([]Sample, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTrack
	}

	samples := make([]Sample, len(points))
	var prev *geo.Coordinate
	total := 0.0

	for i, p := range points {
		cur := geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
		total += geo.DistanceKm(prev, cur)
		prev = &cur

		samples[i] = Sample{
			Lat:        p.Lat,
			Lon:        p.Lon,
			DistanceKm: total,
		}
		if p.Elevation != nil {
			samples[i].Elevation = *p.Elevation
			samples[i].ElevationKnown = true
		}
	}

	fillElevation(samples)
	return samples, nil
}

// fillElevation interpolates unknown elevations linearly over distance between
// the nearest known neighbours. Leading and trailing gaps copy the nearest known
// value. With no known elevation at all every sample stays at 0.
func fillElevation(samples []Sample) {
	prevKnown := -1
	for i := range samples {
		if !samples[i].ElevationKnown {
			continue
		}
		if prevKnown == -1 {
			for j := 0; j < i; j++ {
				samples[j].Elevation = samples[i].Elevation
			}
		} else if i-prevKnown > 1 {
			interpolate(samples, prevKnown, i)
		}
		prevKnown = i
	}

	if prevKnown == -1 {
		return
	}
	for j := prevKnown + 1; j < len(samples); j++ {
		samples[j].Elevation = samples[prevKnown].Elevation
	}
}

func interpolate(samples []Sample, from, to int) {
	a, b := samples[from], samples[to]
	span := b.DistanceKm - a.DistanceKm

	for j := from + 1; j < to; j++ {
		if span <= 0 {
			// Coincident anchors, fall back to index position.
			ratio := float64(j-from) / float64(to-from)
			samples[j].Elevation = a.Elevation + ratio*(b.Elevation-a.Elevation)
			continue
		}
		ratio := (samples[j].DistanceKm - a.DistanceKm) / span
		samples[j].Elevation = a.Elevation + ratio*(b.Elevation-a.Elevation)
	}
}

// TotalDistanceKm returns the cumulative distance of the last sample.
func TotalDistanceKm(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return samples[len(samples)-1].DistanceKm
}

// Elevations returns the elevation column.
func Elevations(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Elevation
	}
	return out
}
