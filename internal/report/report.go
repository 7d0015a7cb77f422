// Package report composes segmentation, smoothing, classification and place
// annotation into the read-only views consumed by renderers and exporters.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/planbiir/gprofile/internal/places"
	"github.com/planbiir/gprofile/internal/profile"
	"github.com/planbiir/gprofile/internal/track"
)

// Options controls a single report build.
type Options struct {
	Profile   profile.Config
	Annotator *places.Annotator // nil disables place labels
	Logger    *slog.Logger
}

// Summary holds the route-level scalars.
type Summary struct {
	TotalDistanceKm float64 `json:"total_distance_km"`
	MaxElevation    float64 `json:"max_elevation"`
	MinElevation    float64 `json:"min_elevation"`
	TotalAscentM    float64 `json:"total_ascent_m"`  // from the smoothed series
	TotalDescentM   float64 `json:"total_descent_m"` // from the smoothed series

	PointCount       int `json:"point_count"`
	MissingElevation int `json:"missing_elevation_points"`
	SegmentCount     int `json:"segment_count"`
	LabelsSkipped    int `json:"labels_skipped"`

	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// Report is the complete output of one build. Nothing in it is mutated after
// Build returns.
type Report struct {
	Name       string            `json:"name,omitempty"`
	SlopeMode  profile.SlopeMode `json:"slope_mode"`
	Thresholds []float64         `json:"slope_thresholds"`
	Bands      []profile.Band    `json:"bands"`

	Samples   []track.Sample         `json:"samples"`
	Smoothed  []float64              `json:"smoothed_elevation"`
	Segments  []profile.SegmentSlope `json:"segments"`
	Intervals []profile.Interval     `json:"-"`

	// SampleBands is the band index of each sample from its segment slope.
	SampleBands []int `json:"-"`

	BandLengths  []profile.BandLength `json:"band_lengths"`
	Places       []places.Label       `json:"places"`
	PlaceLookups []places.Lookup      `json:"place_lookups,omitempty"`
	Summary      Summary              `json:"summary"`
}

// FromPoints loads raw points and builds the report.
func FromPoints(ctx context.Context, points []track.Point, opts Options) (*Report, error) {
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}
	samples, err := track.Load(points)
	if err != nil {
		return nil, err
	}
	return Build(ctx, samples, opts)
}

// Build validates the configuration and runs the whole pipeline over samples.
func Build(ctx context.Context, samples []track.Sample, opts Options) (*Report, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(discardHandler)
	}
	logger = logger.With("component", "report")

	cfg := opts.Profile
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, track.ErrEmptyTrack
	}

	bands, err := cfg.Bands()
	if err != nil {
		return nil, err
	}

	segments, err := profile.AssignSegments(samples, cfg.SegmentWidthKm)
	if err != nil {
		return nil, fmt.Errorf("failed to assign segments: %w", err)
	}
	slopes := profile.ComputeSlopes(segments)

	elevations := track.Elevations(samples)
	smoothed := profile.Smooth(elevations, cfg.SmoothingWindow)
	intervals := profile.ComputeIntervals(samples, smoothed)

	var lengths []profile.BandLength
	switch cfg.SlopeMode {
	case profile.SlopeModeSegment:
		lengths = profile.Classify(slopes, bands)
	default:
		lengths = profile.Classify(intervals, bands)
	}

	r := &Report{
		SlopeMode:   cfg.SlopeMode,
		Thresholds:  cfg.SlopeThresholds,
		Bands:       bands,
		Samples:     samples,
		Smoothed:    smoothed,
		Segments:    slopes,
		Intervals:   intervals,
		SampleBands: profile.SegmentBands(segments, slopes, bands),
		BandLengths: lengths,
		Places:      []places.Label{},
		Summary: Summary{
			TotalDistanceKm: track.TotalDistanceKm(samples),
			MaxElevation:    floats.Max(elevations),
			MinElevation:    floats.Min(elevations),
			TotalAscentM:    profile.Ascent(smoothed),
			TotalDescentM:   profile.Descent(smoothed),
			PointCount:      len(samples),
			SegmentCount:    len(slopes),
		},
	}
	for _, s := range samples {
		if !s.ElevationKnown {
			r.Summary.MissingElevation++
		}
	}

	if opts.Annotator != nil {
		result := opts.Annotator.Annotate(ctx, Anchors(segments))
		// Spacing follows this build's config, not the shared annotator's.
		if labels := places.Retain(result.Lookups, cfg.MinLabelDistanceKm); labels != nil {
			r.Places = labels
		}
		r.PlaceLookups = result.Lookups
		r.Summary.LabelsSkipped = result.Skipped
	}

	r.Summary.ProcessingTime = time.Since(start)
	logger.Debug("profile built",
		"points", len(samples),
		"segments", len(slopes),
		"intervals", len(intervals),
		"mode", cfg.SlopeMode,
		"duration", r.Summary.ProcessingTime,
	)
	return r, nil
}

// Anchors returns the representative point of each segment: the sample with
// the smallest cumulative distance.
func Anchors(segments []profile.Segment) []places.Anchor {
	anchors := make([]places.Anchor, 0, len(segments))
	for _, seg := range segments {
		if len(seg.Samples) == 0 {
			continue
		}
		first := seg.Samples[0]
		for _, s := range seg.Samples[1:] {
			if s.DistanceKm < first.DistanceKm {
				first = s
			}
		}
		anchors = append(anchors, places.Anchor{
			SegmentID: seg.ID,
			Lat:       first.Lat,
			Lon:       first.Lon,
			Elevation: first.Elevation,
			Km:        first.DistanceKm,
		})
	}
	return anchors
}

// TotalBandLength sums the band table.
func (r *Report) TotalBandLength() float64 {
	total := 0.0
	for _, b := range r.BandLengths {
		total += b.LengthKm
	}
	return total
}
