// Package gpx is the track source: it parses GPX documents and hands the core
// an ordered sequence of raw points.
package gpx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/planbiir/gprofile/internal/geo"
	"github.com/planbiir/gprofile/internal/track"
)

// ErrInvalidGPX wraps every document that cannot be parsed.
var ErrInvalidGPX = errors.New("failed to parse GPX")

// Parse reads and parses a GPX file
func Parse(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return ParseBytes(data)
}

// ParseReader parses GPX from an io.Reader
func ParseReader(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GPX: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses an in-memory GPX document
func ParseBytes(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidGPX)
	}

	doc, err := gpxgo.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGPX, err)
	}

	return newFile(doc), nil
}

// FlattenPoints returns all points from all tracks and segments in order.
// Files without track points fall back to their route points.
func (f *File) FlattenPoints() []track.Point {
	var points []track.Point

	for _, trk := range f.doc.Tracks {
		for _, segment := range trk.Segments {
			for _, p := range segment.Points {
				points = append(points, toPoint(p))
			}
		}
	}

	if len(points) > 0 {
		return points
	}

	for _, route := range f.doc.Routes {
		for _, p := range route.Points {
			points = append(points, toPoint(p))
		}
	}

	return points
}

func toPoint(p gpxgo.GPXPoint) track.Point {
	point := track.Point{Lat: p.Latitude, Lon: p.Longitude}
	if p.Elevation.NotNull() {
		point.Elevation = track.Ele(p.Elevation.Value())
	}
	return point
}

// Stats returns basic statistics about the GPX data
func (f *File) Stats() Stats {
	var stats Stats
	stats.TrackCount = len(f.doc.Tracks)
	stats.RouteCount = len(f.doc.Routes)

	var first, last time.Time
	for _, trk := range f.doc.Tracks {
		stats.SegmentCount += len(trk.Segments)
		for _, segment := range trk.Segments {
			for _, p := range segment.Points {
				if p.Timestamp.IsZero() {
					continue
				}
				if first.IsZero() {
					first = p.Timestamp
				}
				last = p.Timestamp
			}
		}
	}
	if !first.IsZero() && last.After(first) {
		stats.Duration = last.Sub(first)
	}

	points := f.FlattenPoints()
	stats.PointCount = len(points)
	for i, p := range points {
		if p.Elevation == nil {
			stats.MissingEle++
		}
		if i > 0 {
			stats.DistanceKm += geo.HaversineKm(points[i-1].Lat, points[i-1].Lon, p.Lat, p.Lon)
		}
	}

	return stats
}
