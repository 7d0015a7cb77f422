// Package geo holds great-circle distance helpers shared by the track loader
// and the place annotator.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for every distance in the module.
const EarthRadiusKm = 6371.0

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// HaversineKm returns the great-circle distance between two positions in km.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm returns the distance from prev to cur. A nil prev means cur is
// the first point of a track and the distance is 0.
func DistanceKm(prev *Coordinate, cur Coordinate) float64 {
	if prev == nil {
		return 0
	}
	return HaversineKm(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
}
