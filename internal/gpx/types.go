package gpx

import (
	"time"

	gpxgo "github.com/tkrajina/gpxgo/gpx"
)

// File wraps a parsed GPX document.
type File struct {
	Name    string
	Creator string
	Version string

	doc *gpxgo.GPX
}

// Stats summarises a parsed file before any profile computation.
type Stats struct {
	PointCount   int           `json:"point_count"`
	TrackCount   int           `json:"track_count"`
	SegmentCount int           `json:"segment_count"`
	RouteCount   int           `json:"route_count"`
	Duration     time.Duration `json:"duration_ns"`
	DistanceKm   float64       `json:"distance_km"`
	MissingEle   int           `json:"missing_elevation"` // points without <ele>
}

func newFile(doc *gpxgo.GPX) *File {
	name := doc.Name
	if name == "" && len(doc.Tracks) > 0 {
		name = doc.Tracks[0].Name
	}
	if name == "" && len(doc.Routes) > 0 {
		name = doc.Routes[0].Name
	}
	return &File{
		Name:    name,
		Creator: doc.Creator,
		Version: doc.Version,
		doc:     doc,
	}
}
