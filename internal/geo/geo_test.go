package geo

import (
	"math"
	"testing"
)

func TestHaversineKmZero(t *testing.T) {
	if d := HaversineKm(50.0, 19.0, 50.0, 19.0); d != 0 {
		t.Errorf("Expected 0 for identical points, got %f", d)
	}
}

func TestHaversineKmOneDegreeLatitude(t *testing.T) {
	d := HaversineKm(0, 0, 1, 0)
	if math.Abs(d-111.195) > 0.01 {
		t.Errorf("Expected ~111.195 km, got %f", d)
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	a := HaversineKm(50.06, 19.94, 52.23, 21.01)
	b := HaversineKm(52.23, 21.01, 50.06, 19.94)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("Expected symmetric distance, got %f and %f", a, b)
	}
	// Kraków to Warsaw is roughly 252 km.
	if a < 245 || a > 260 {
		t.Errorf("Expected ~252 km, got %f", a)
	}
}

func TestDistanceKmWithoutPrevious(t *testing.T) {
	if d := DistanceKm(nil, Coordinate{Lat: 10, Lon: 10}); d != 0 {
		t.Errorf("Expected 0 without previous point, got %f", d)
	}
}

func TestDistanceKmWithPrevious(t *testing.T) {
	prev := &Coordinate{Lat: 0, Lon: 0}
	d := DistanceKm(prev, Coordinate{Lat: 0, Lon: 1})
	if math.Abs(d-111.195) > 0.01 {
		t.Errorf("Expected ~111.195 km along the equator, got %f", d)
	}
}
