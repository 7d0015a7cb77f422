// Package profile implements segmentation, slope computation, smoothing and
// slope-band classification over a distance-enriched track.
package profile

import (
	"errors"
	"fmt"
	"math"
)

// SlopeMode selects which spans feed the band-length aggregation.
type SlopeMode string

const (
	// SlopeModeInterval aggregates every consecutive pair of smoothed samples.
	SlopeModeInterval SlopeMode = "interval"
	// SlopeModeSegment aggregates fixed-width segments.
	SlopeModeSegment SlopeMode = "segment"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("invalid profile configuration")

// ConfigError names the offending configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Config holds profile computation parameters
type Config struct {
	SegmentWidthKm  float64   // km - fixed segment width, must be > 0
	SlopeThresholds []float64 // % - strictly increasing band boundaries
	BandLabels      []string  // one per band, derived from thresholds when empty
	BandColors      []string  // one per band, default palette when empty

	SmoothingWindow int       // samples - centered rolling mean width, 0 disables
	SlopeMode       SlopeMode // interval or segment aggregation

	MinLabelDistanceKm float64 // km - same-name place label spacing
}

// DefaultConfig returns the configuration used for event course profiles
func DefaultConfig() Config {
	return Config{
		SegmentWidthKm:     0.5,
		SlopeThresholds:    []float64{2, 4, 5, 8},
		BandLabels:         []string{"< 2%", "2 ~ 4%", "4 ~ 5%", "5 ~ 8%", ">= 8%"},
		BandColors:         []string{"palegreen", "yellow", "orange", "orangered", "maroon"},
		SmoothingWindow:    5,
		SlopeMode:          SlopeModeInterval,
		MinLabelDistanceKm: 5,
	}
}

// Validate fails fast on values no computation can run with.
func (c Config) Validate() error {
	if math.IsNaN(c.SegmentWidthKm) || math.IsInf(c.SegmentWidthKm, 0) || c.SegmentWidthKm <= 0 {
		return &ConfigError{Field: "segment_width_km", Reason: fmt.Sprintf("must be a positive number, got %v", c.SegmentWidthKm)}
	}
	if err := validateThresholds(c.SlopeThresholds); err != nil {
		return err
	}

	bands := len(c.SlopeThresholds) + 1
	if len(c.BandLabels) != 0 && len(c.BandLabels) != bands {
		return &ConfigError{Field: "band_labels", Reason: fmt.Sprintf("expected %d labels, got %d", bands, len(c.BandLabels))}
	}
	if len(c.BandColors) != 0 && len(c.BandColors) != bands {
		return &ConfigError{Field: "band_colors", Reason: fmt.Sprintf("expected %d colors, got %d", bands, len(c.BandColors))}
	}

	if c.SmoothingWindow < 0 {
		return &ConfigError{Field: "smoothing_window", Reason: fmt.Sprintf("must be >= 0, got %d", c.SmoothingWindow)}
	}

	switch c.SlopeMode {
	case SlopeModeInterval, SlopeModeSegment:
	default:
		return &ConfigError{Field: "slope_mode", Reason: fmt.Sprintf("unknown mode %q", c.SlopeMode)}
	}

	if math.IsNaN(c.MinLabelDistanceKm) || c.MinLabelDistanceKm < 0 {
		return &ConfigError{Field: "min_label_distance_km", Reason: fmt.Sprintf("must be >= 0, got %v", c.MinLabelDistanceKm)}
	}

	return nil
}

func validateThresholds(thresholds []float64) error {
	for i, t := range thresholds {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return &ConfigError{Field: "slope_thresholds", Reason: fmt.Sprintf("threshold %d is not finite", i)}
		}
		if i > 0 && t <= thresholds[i-1] {
			return &ConfigError{Field: "slope_thresholds", Reason: fmt.Sprintf("not strictly increasing at %d (%v <= %v)", i, t, thresholds[i-1])}
		}
	}
	return nil
}

// Bands expands the configured thresholds into the ordered band set.
func (c Config) Bands() ([]Band, error) {
	return NewBands(c.SlopeThresholds, c.BandLabels, c.BandColors)
}
