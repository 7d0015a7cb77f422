package track

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kmPerDegreeLat is the length of one degree of latitude on a 6371 km sphere.
const kmPerDegreeLat = 111.19492664455873

func straightNorth(n int, spanKm float64, ele func(i int) *float64) []Point {
	points := make([]Point, n)
	step := spanKm / kmPerDegreeLat / float64(n-1)
	for i := range points {
		points[i] = Point{Lat: 45.0 + step*float64(i), Lon: 7.0, Elevation: ele(i)}
	}
	return points
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(nil)
	if !errors.Is(err, ErrEmptyTrack) {
		t.Fatalf("Expected ErrEmptyTrack, got %v", err)
	}
}

func TestLoadSinglePoint(t *testing.T) {
	samples, err := Load([]Point{{Lat: 50, Lon: 19, Elevation: Ele(210)}})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 0.0, samples[0].DistanceKm)
	assert.Equal(t, 210.0, samples[0].Elevation)
	assert.True(t, samples[0].ElevationKnown)
}

func TestLoadCumulativeDistance(t *testing.T) {
	points := straightNorth(11, 1.0, func(i int) *float64 { return Ele(float64(i)) })
	samples, err := Load(points)
	require.NoError(t, err)
	require.Len(t, samples, len(points))

	assert.Equal(t, 0.0, samples[0].DistanceKm)
	for i := 1; i < len(samples); i++ {
		if samples[i].DistanceKm < samples[i-1].DistanceKm {
			t.Errorf("Expected non-decreasing distance at %d: %f < %f", i, samples[i].DistanceKm, samples[i-1].DistanceKm)
		}
	}
	assert.InDelta(t, 1.0, TotalDistanceKm(samples), 1e-6)
}

func TestLoadCoincidentPoints(t *testing.T) {
	points := []Point{
		{Lat: 50, Lon: 19, Elevation: Ele(100)},
		{Lat: 50, Lon: 19, Elevation: Ele(100)},
		{Lat: 50.001, Lon: 19, Elevation: Ele(101)},
	}
	samples, err := Load(points)
	require.NoError(t, err)
	assert.Equal(t, 0.0, samples[1].DistanceKm)
	assert.Greater(t, samples[2].DistanceKm, 0.0)
}

func TestLoadDoesNotMutateInput(t *testing.T) {
	points := []Point{
		{Lat: 50, Lon: 19, Elevation: Ele(100)},
		{Lat: 50.01, Lon: 19},
		{Lat: 50.02, Lon: 19, Elevation: Ele(120)},
	}
	_, err := Load(points)
	require.NoError(t, err)
	assert.Nil(t, points[1].Elevation)
}

func TestLoadFillsMissingElevation(t *testing.T) {
	points := straightNorth(5, 0.4, func(i int) *float64 {
		switch i {
		case 1, 3:
			return Ele(float64(100 + 10*i))
		}
		return nil
	})
	samples, err := Load(points)
	require.NoError(t, err)

	// Leading and trailing gaps copy the nearest known value.
	assert.InDelta(t, 110.0, samples[0].Elevation, 1e-9)
	assert.InDelta(t, 130.0, samples[4].Elevation, 1e-9)
	// Interior gap is linear over distance.
	assert.InDelta(t, 120.0, samples[2].Elevation, 1e-6)

	assert.False(t, samples[0].ElevationKnown)
	assert.True(t, samples[1].ElevationKnown)
	assert.False(t, samples[2].ElevationKnown)
}

func TestLoadWithoutAnyElevation(t *testing.T) {
	points := straightNorth(3, 0.2, func(int) *float64 { return nil })
	samples, err := Load(points)
	require.NoError(t, err)
	for i, s := range samples {
		if s.Elevation != 0 {
			t.Errorf("Expected elevation 0 at %d, got %f", i, s.Elevation)
		}
	}
}

func TestElevations(t *testing.T) {
	samples := []Sample{{Elevation: 1}, {Elevation: 2.5}}
	got := Elevations(samples)
	if len(got) != 2 || got[0] != 1 || math.Abs(got[1]-2.5) > 1e-12 {
		t.Errorf("Expected [1 2.5], got %v", got)
	}
}
