package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/gprofile/internal/track"
)

const kmPerDegreeLat = 111.19492664455873

// climb builds n evenly spaced samples heading north over spanKm with a linear
// elevation change from eleStart to eleEnd.
func climb(t *testing.T, n int, spanKm, eleStart, eleEnd float64) []track.Sample {
	t.Helper()
	points := make([]track.Point, n)
	step := spanKm / kmPerDegreeLat / float64(n-1)
	for i := range points {
		ratio := float64(i) / float64(n-1)
		points[i] = track.Point{
			Lat:       45.0 + step*float64(i),
			Lon:       7.0,
			Elevation: track.Ele(eleStart + ratio*(eleEnd-eleStart)),
		}
	}
	samples, err := track.Load(points)
	require.NoError(t, err)
	return samples
}

func samplesAt(kms ...float64) []track.Sample {
	out := make([]track.Sample, len(kms))
	for i, km := range kms {
		out[i] = track.Sample{DistanceKm: km, Elevation: 100, ElevationKnown: true}
	}
	return out
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(c *Config)
		field string
	}{
		{"zero width", func(c *Config) { c.SegmentWidthKm = 0 }, "segment_width_km"},
		{"negative width", func(c *Config) { c.SegmentWidthKm = -1 }, "segment_width_km"},
		{"nan width", func(c *Config) { c.SegmentWidthKm = math.NaN() }, "segment_width_km"},
		{"equal thresholds", func(c *Config) { c.SlopeThresholds = []float64{2, 2, 5}; c.BandLabels = nil; c.BandColors = nil }, "slope_thresholds"},
		{"decreasing thresholds", func(c *Config) { c.SlopeThresholds = []float64{4, 2}; c.BandLabels = nil; c.BandColors = nil }, "slope_thresholds"},
		{"label count", func(c *Config) { c.BandLabels = []string{"a"} }, "band_labels"},
		{"color count", func(c *Config) { c.BandColors = []string{"red"} }, "band_colors"},
		{"negative window", func(c *Config) { c.SmoothingWindow = -1 }, "smoothing_window"},
		{"unknown mode", func(c *Config) { c.SlopeMode = "median" }, "slope_mode"},
		{"negative label distance", func(c *Config) { c.MinLabelDistanceKm = -0.1 }, "min_label_distance_km"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestAssignSegmentsRejectsWidth(t *testing.T) {
	for _, w := range []float64{0, -0.5, math.Inf(1)} {
		_, err := AssignSegments(samplesAt(0, 1), w)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig for width %v, got %v", w, err)
		}
	}
}

func TestAssignSegmentsEmpty(t *testing.T) {
	_, err := AssignSegments(nil, 0.5)
	assert.ErrorIs(t, err, track.ErrEmptyTrack)
}

func TestAssignSegmentsPartition(t *testing.T) {
	samples := samplesAt(0, 0.2, 0.49, 0.5, 0.51, 0.99, 1.0, 1.7)
	segments, err := AssignSegments(samples, 0.5)
	require.NoError(t, err)

	var ids []int
	var sizes []int
	total := 0
	for _, seg := range segments {
		ids = append(ids, seg.ID)
		sizes = append(sizes, len(seg.Samples))
		total += len(seg.Samples)
	}

	assert.Equal(t, []int{0, 1, 2, 3}, ids)
	assert.Equal(t, []int{3, 3, 1, 1}, sizes)
	assert.Equal(t, len(samples), total)
}

func TestAssignSegmentsSkipsIdsOnLongStep(t *testing.T) {
	segments, err := AssignSegments(samplesAt(0, 0.1, 2.2), 0.5)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, 0, segments[0].ID)
	assert.Equal(t, 4, segments[1].ID)
}

func TestComputeSlopesDegenerate(t *testing.T) {
	samples := []track.Sample{
		{DistanceKm: 0, Elevation: 100},
		{DistanceKm: 0.6, Elevation: 130},
	}
	segments, err := AssignSegments(samples, 0.5)
	require.NoError(t, err)

	slopes := ComputeSlopes(segments)
	require.Len(t, slopes, 2)
	for _, s := range slopes {
		if s.SlopePercent != 0 {
			t.Errorf("Expected slope 0 for single-sample segment %d, got %f", s.SegmentID, s.SlopePercent)
		}
	}
	// Attributed lengths still cover the route.
	assert.InDelta(t, 0.6, slopes[0].LengthKm+slopes[1].LengthKm, 1e-12)
}

func TestComputeSlopesValues(t *testing.T) {
	samples := []track.Sample{
		{DistanceKm: 0.0, Elevation: 100},
		{DistanceKm: 0.2, Elevation: 104},
		{DistanceKm: 0.4, Elevation: 110},
		{DistanceKm: 0.6, Elevation: 110},
		{DistanceKm: 0.9, Elevation: 101},
	}
	segments, err := AssignSegments(samples, 0.5)
	require.NoError(t, err)

	got := ComputeSlopes(segments)
	want := []SegmentSlope{
		{SegmentID: 0, StartKm: 0, EndKm: 0.4, StartElevation: 100, EndElevation: 110, SlopePercent: 2.5, LengthKm: 0.6},
		{SegmentID: 1, StartKm: 0.6, EndKm: 0.9, StartElevation: 110, EndElevation: 101, SlopePercent: -3, LengthKm: 0.3},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("ComputeSlopes mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeIntervalsSkipsStationaryPairs(t *testing.T) {
	samples := samplesAt(0, 0.1, 0.1, 0.3)
	elevations := []float64{100, 101, 150, 103}

	intervals := ComputeIntervals(samples, elevations)
	require.Len(t, intervals, 2)
	assert.InDelta(t, 1.0, intervals[0].SlopePercent, 1e-9)
	// 150 -> 103 over 0.2 km
	assert.InDelta(t, -23.5, intervals[1].SlopePercent, 1e-9)
	assert.InDelta(t, 0.3, intervals[0].Length()+intervals[1].Length(), 1e-12)
}

func TestComputeIntervalsDefaultsToSampleElevation(t *testing.T) {
	samples := []track.Sample{{DistanceKm: 0, Elevation: 0}, {DistanceKm: 1, Elevation: 50}}
	intervals := ComputeIntervals(samples, nil)
	require.Len(t, intervals, 1)
	assert.InDelta(t, 5.0, intervals[0].SlopePercent, 1e-9)
}

func TestBandsDefault(t *testing.T) {
	bands, err := DefaultConfig().Bands()
	require.NoError(t, err)
	require.Len(t, bands, 5)

	assert.True(t, math.IsInf(bands[0].Low, -1))
	assert.True(t, math.IsInf(bands[4].High, 1))
	assert.Equal(t, ">= 8%", bands[4].Label)
	assert.Equal(t, "maroon", bands[4].Color)
}

func TestDefaultLabels(t *testing.T) {
	got := DefaultLabels([]float64{2, 4, 5, 8})
	assert.Equal(t, []string{"< 2%", "2 ~ 4%", "4 ~ 5%", "5 ~ 8%", ">= 8%"}, got)
	assert.Equal(t, []string{"< 2.5%", ">= 2.5%"}, DefaultLabels([]float64{2.5}))
}

func TestBandIndexBoundaries(t *testing.T) {
	bands, err := NewBands([]float64{2, 4, 5, 8}, nil, nil)
	require.NoError(t, err)

	cases := map[float64]int{
		math.Inf(-1): 0,
		-12:          0,
		1.999:        0,
		2:            1,
		3.9:          1,
		4:            2,
		5:            3,
		7.99:         3,
		8:            4,
		40:           4,
		math.Inf(1):  4,
	}
	for slope, want := range cases {
		if got := BandIndex(bands, slope); got != want {
			t.Errorf("BandIndex(%v) = %d, expected %d", slope, got, want)
		}
	}
}

func TestBandClassificationTotalAndExclusive(t *testing.T) {
	thresholdSets := [][]float64{{2, 4, 5, 8}, {0}, {}, {-3, 0.5, 12}}
	for _, th := range thresholdSets {
		bands, err := NewBands(th, nil, nil)
		require.NoError(t, err)
		for slope := -30.0; slope <= 30; slope += 0.25 {
			matches := 0
			for _, b := range bands {
				if b.Contains(slope) {
					matches++
				}
			}
			if matches != 1 {
				t.Fatalf("thresholds %v slope %v: expected exactly 1 band, got %d", th, slope, matches)
			}
			if !bands[BandIndex(bands, slope)].Contains(slope) {
				t.Fatalf("thresholds %v slope %v: BandIndex disagrees with Contains", th, slope)
			}
		}
	}
}

func TestClassifyKeepsEmptyBands(t *testing.T) {
	bands, err := NewBands([]float64{2, 4, 5, 8}, nil, nil)
	require.NoError(t, err)

	spans := []Interval{
		{StartKm: 0, EndKm: 0.333, SlopePercent: 1},
		{StartKm: 0.333, EndKm: 0.5, SlopePercent: 9},
	}
	got := Classify(spans, bands)
	require.Len(t, got, 5)
	assert.Equal(t, 0.33, got[0].LengthKm)
	assert.Equal(t, 0.0, got[1].LengthKm)
	assert.Equal(t, 0.0, got[2].LengthKm)
	assert.Equal(t, 0.0, got[3].LengthKm)
	assert.Equal(t, 0.17, got[4].LengthKm)
}

func TestSmoothIdentity(t *testing.T) {
	values := []float64{1, 5, 2, 8}
	for _, w := range []int{0, 1} {
		assert.Equal(t, values, Smooth(values, w))
	}
	assert.Empty(t, Smooth(nil, 5))
}

func TestSmoothCenteredRollingMean(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}

	// Odd window: shrinks to 3 samples at the edges.
	got := Smooth(values, 5)
	want := []float64{2, 2.5, 3, 4, 4.5, 5}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Smooth(5) mismatch (-want +got):\n%s", diff)
	}

	// Even window covers [i-2, i+1].
	got = Smooth(values, 4)
	want = []float64{1.5, 2, 2.5, 3.5, 4.5, 5}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Smooth(4) mismatch (-want +got):\n%s", diff)
	}
}

func TestSmoothPreservesLength(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	for w := 0; w < 20; w++ {
		if got := Smooth(values, w); len(got) != len(values) {
			t.Errorf("window %d: expected length %d, got %d", w, len(values), len(got))
		}
	}
}

func TestAscentDescent(t *testing.T) {
	values := []float64{100, 110, 105, 120, 120, 90}
	assert.InDelta(t, 25.0, Ascent(values), 1e-12)
	assert.InDelta(t, 35.0, Descent(values), 1e-12)
	assert.Equal(t, 0.0, Ascent([]float64{42}))
}

func TestStraightClimbEndToEnd(t *testing.T) {
	// 10 points over a 100 m climb; the span stops just short of 1 km so the
	// last sample stays inside the second segment.
	samples := climb(t, 10, 0.9999, 0, 100)
	bands, err := NewBands([]float64{2, 4, 5, 8}, nil, nil)
	require.NoError(t, err)

	segments, err := AssignSegments(samples, 0.5)
	require.NoError(t, err)
	slopes := ComputeSlopes(segments)
	require.Len(t, slopes, 2)
	for _, s := range slopes {
		assert.InEpsilon(t, 10.0, s.SlopePercent, 1e-3)
	}

	bySegment := Classify(slopes, bands)
	assert.Equal(t, 1.00, bySegment[4].LengthKm)
	for _, b := range bySegment[:4] {
		assert.Equal(t, 0.0, b.LengthKm, b.Label)
	}

	byInterval := Classify(ComputeIntervals(samples, nil), bands)
	assert.Equal(t, 1.00, byInterval[4].LengthKm)
	for _, b := range byInterval[:4] {
		assert.Equal(t, 0.0, b.LengthKm, b.Label)
	}
}

func TestSteepClimbSlope(t *testing.T) {
	samples := climb(t, 10, 0.9999, 0, 200)
	segments, err := AssignSegments(samples, 0.5)
	require.NoError(t, err)
	for _, s := range ComputeSlopes(segments) {
		assert.InEpsilon(t, 20.0, s.SlopePercent, 1e-3)
	}
}

func TestExactKilometreEndsInOwnSegment(t *testing.T) {
	// A sample exactly on a segment boundary opens a new segment, so a 1 km
	// track at 0.5 km width ends with a one-sample segment 2.
	samples := make([]track.Sample, 10)
	for i := range samples {
		km := float64(i) / 9
		samples[i] = track.Sample{DistanceKm: km, Elevation: 100 * km, ElevationKnown: true}
	}
	samples[9].DistanceKm = 1.0

	segments, err := AssignSegments(samples, 0.5)
	require.NoError(t, err)
	slopes := ComputeSlopes(segments)
	require.Len(t, slopes, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{slopes[0].SegmentID, slopes[1].SegmentID, slopes[2].SegmentID})
	assert.Len(t, segments[2].Samples, 1)
	assert.Equal(t, 0.0, slopes[2].LengthKm)
	assert.Equal(t, 0.0, slopes[2].SlopePercent)
	for _, s := range slopes[:2] {
		assert.InEpsilon(t, 10.0, s.SlopePercent, 1e-9)
	}

	bands, err := NewBands([]float64{2, 4, 5, 8}, nil, nil)
	require.NoError(t, err)
	byBand := Classify(slopes, bands)
	assert.Equal(t, 1.00, byBand[4].LengthKm)
	for _, b := range byBand[:4] {
		assert.Equal(t, 0.0, b.LengthKm, b.Label)
	}
}

func TestFlatTrack(t *testing.T) {
	samples := climb(t, 25, 3.2, 250, 250)
	bands, err := NewBands([]float64{2, 4, 5, 8}, nil, nil)
	require.NoError(t, err)

	segments, err := AssignSegments(samples, 0.5)
	require.NoError(t, err)
	slopes := ComputeSlopes(segments)
	for _, s := range slopes {
		assert.Equal(t, 0.0, s.SlopePercent)
	}

	total := track.TotalDistanceKm(samples)
	for _, result := range [][]BandLength{
		Classify(slopes, bands),
		Classify(ComputeIntervals(samples, Smooth(track.Elevations(samples), 5)), bands),
	} {
		assert.InDelta(t, Round2(total), result[0].LengthKm, 1e-9)
		sum := 0.0
		for _, b := range result {
			sum += b.LengthKm
		}
		assert.InDelta(t, total, sum, 0.01)
	}
}
