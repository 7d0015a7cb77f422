package profile

import (
	"fmt"
	"math"

	"github.com/planbiir/gprofile/internal/track"
)

// Segment is the contiguous run of samples sharing one segment id.
type Segment struct {
	ID      int
	Samples []track.Sample
}

// SegmentSlope is the endpoint-to-endpoint slope of one segment.
type SegmentSlope struct {
	SegmentID      int     `json:"segment_id"`
	StartKm        float64 `json:"start_km"`
	EndKm          float64 `json:"end_km"`
	StartElevation float64 `json:"start_elevation"`
	EndElevation   float64 `json:"end_elevation"`
	SlopePercent   float64 `json:"slope_percent"`
	// LengthKm is the route distance attributed to the segment: from its first
	// sample to the first sample of the next segment, so that the lengths of
	// all segments add up to the route distance.
	LengthKm float64 `json:"length_km"`
}

func (s SegmentSlope) Length() float64 { return s.LengthKm }
func (s SegmentSlope) Slope() float64  { return s.SlopePercent }

// Interval is the slope between two consecutive (smoothed) samples.
type Interval struct {
	StartKm        float64 `json:"start_km"`
	EndKm          float64 `json:"end_km"`
	StartElevation float64 `json:"start_elevation"`
	EndElevation   float64 `json:"end_elevation"`
	SlopePercent   float64 `json:"slope_percent"`
}

func (iv Interval) Length() float64 { return iv.EndKm - iv.StartKm }
func (iv Interval) Slope() float64  { return iv.SlopePercent }

// SlopePercent is rise over run in percent, 0 for a zero-length run.
func SlopePercent(startKm, endKm, startEle, endEle float64) float64 {
	run := endKm - startKm
	if run == 0 {
		return 0
	}
	return (endEle - startEle) / (run * 1000) * 100
}

// SegmentID maps a cumulative distance onto its fixed-width bucket.
func SegmentID(distanceKm, widthKm float64) int {
	return int(math.Floor(distanceKm / widthKm))
}

// AssignSegments groups samples into fixed-width segments in route order.
// Ids follow floor(km / width), so a single step longer than the width skips ids.
func AssignSegments(samples []track.Sample, widthKm float64) ([]Segment, error) {
	if math.IsNaN(widthKm) || math.IsInf(widthKm, 0) || widthKm <= 0 {
		return nil, &ConfigError{Field: "segment_width_km", Reason: fmt.Sprintf("must be a positive number, got %v", widthKm)}
	}
	if len(samples) == 0 {
		return nil, track.ErrEmptyTrack
	}

	var segments []Segment
	start := 0
	current := SegmentID(samples[0].DistanceKm, widthKm)

	for i := 1; i <= len(samples); i++ {
		if i < len(samples) {
			id := SegmentID(samples[i].DistanceKm, widthKm)
			if id == current {
				continue
			}
			segments = append(segments, Segment{ID: current, Samples: samples[start:i]})
			start = i
			current = id
			continue
		}
		segments = append(segments, Segment{ID: current, Samples: samples[start:]})
	}

	return segments, nil
}

// ComputeSlopes derives one SegmentSlope per segment. Start values come from the
// sample with the smallest distance, end values from the one with the largest.
func ComputeSlopes(segments []Segment) []SegmentSlope {
	slopes := make([]SegmentSlope, 0, len(segments))

	for _, seg := range segments {
		if len(seg.Samples) == 0 {
			continue
		}
		first, last := seg.Samples[0], seg.Samples[0]
		for _, s := range seg.Samples[1:] {
			if s.DistanceKm < first.DistanceKm {
				first = s
			}
			if s.DistanceKm > last.DistanceKm {
				last = s
			}
		}

		slopes = append(slopes, SegmentSlope{
			SegmentID:      seg.ID,
			StartKm:        first.DistanceKm,
			EndKm:          last.DistanceKm,
			StartElevation: first.Elevation,
			EndElevation:   last.Elevation,
			SlopePercent:   SlopePercent(first.DistanceKm, last.DistanceKm, first.Elevation, last.Elevation),
		})
	}

	for i := range slopes {
		if i+1 < len(slopes) {
			slopes[i].LengthKm = slopes[i+1].StartKm - slopes[i].StartKm
		} else {
			slopes[i].LengthKm = slopes[i].EndKm - slopes[i].StartKm
		}
	}

	return slopes
}

// ComputeIntervals builds one Interval per consecutive pair of samples using
// elevations (typically the smoothed series; nil means the sample elevations).
// Pairs that do not advance along the route are skipped.
func ComputeIntervals(samples []track.Sample, elevations []float64) []Interval {
	if elevations == nil {
		elevations = track.Elevations(samples)
	}
	n := min(len(samples), len(elevations))
	if n < 2 {
		return nil
	}

	intervals := make([]Interval, 0, n-1)
	for i := 1; i < n; i++ {
		startKm, endKm := samples[i-1].DistanceKm, samples[i].DistanceKm
		if endKm-startKm <= 0 {
			continue
		}
		intervals = append(intervals, Interval{
			StartKm:        startKm,
			EndKm:          endKm,
			StartElevation: elevations[i-1],
			EndElevation:   elevations[i],
			SlopePercent:   SlopePercent(startKm, endKm, elevations[i-1], elevations[i]),
		})
	}
	return intervals
}

// SegmentBands returns the band index of every sample, taken from the slope of
// the segment it belongs to. Used to color profiles per segment.
func SegmentBands(segments []Segment, slopes []SegmentSlope, bands []Band) []int {
	var out []int
	for i, seg := range segments {
		idx := 0
		if i < len(slopes) {
			idx = BandIndex(bands, slopes[i].SlopePercent)
		}
		for range seg.Samples {
			out = append(out, idx)
		}
	}
	return out
}
