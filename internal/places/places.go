// Package places reverse-geocodes representative points along a route and keeps
// the resulting labels spaced out per place name.
package places

import (
	"errors"
	"fmt"
)

var (
	// ErrGeocodeLookup is wrapped by every LookupError.
	ErrGeocodeLookup = errors.New("geocode lookup failed")
	// ErrNoResult means the geocoder had no address for the coordinate.
	ErrNoResult = errors.New("no geocoding result")
	// ErrTimeout means the lookup exceeded its deadline.
	ErrTimeout = errors.New("geocode lookup timed out")
	// ErrCacheIO is wrapped by every CacheIOError.
	ErrCacheIO = errors.New("place cache i/o failed")
)

// LookupError records why a single coordinate could not be resolved.
type LookupError struct {
	Key string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s for %s: %v", ErrGeocodeLookup, e.Key, e.Err)
}

func (e *LookupError) Unwrap() []error {
	return []error{ErrGeocodeLookup, e.Err}
}

// CacheIOError is returned when a cache backend cannot be read or written.
type CacheIOError struct {
	Op   string // open, load, flush
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrCacheIO, e.Op, e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() []error {
	return []error{ErrCacheIO, e.Err}
}

// Address is the subset of a reverse-geocoding answer used for naming.
type Address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
}

// PlaceName returns the city, town or village name, in that priority order.
func PlaceName(addr Address) string {
	if addr.City != "" {
		return addr.City
	}
	if addr.Town != "" {
		return addr.Town
	}
	if addr.Village != "" {
		return addr.Village
	}
	return ""
}

// Key quantizes a coordinate into the cache key format "lat,lon" with 5 decimals.
func Key(lat, lon float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lon)
}

// Anchor is the representative point of one segment.
type Anchor struct {
	SegmentID int     `json:"segment_id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"`
	Km        float64 `json:"km"`
}

// Label is a retained place name placed on the profile.
type Label struct {
	SegmentID int     `json:"segment_id"`
	Name      string  `json:"place"`
	Elevation float64 `json:"elevation"`
	Km        float64 `json:"km"`
	Group     int     `json:"group"`
}

// Status is the outcome of resolving one anchor.
type Status string

const (
	StatusCached   Status = "cached"
	StatusResolved Status = "resolved"
	StatusNoName   Status = "no_name"
	StatusFailed   Status = "failed"
)

// Lookup is the per-anchor result of an annotation run.
type Lookup struct {
	SegmentID int     `json:"segment_id"`
	Km        float64 `json:"km"`
	Elevation float64 `json:"elevation"`
	Key       string  `json:"key"`
	Name      string  `json:"place,omitempty"`
	Status    Status  `json:"status"`
	Error     string  `json:"error,omitempty"`

	Err error `json:"-"`
}

// Result collects labels together with the outcome of every lookup.
type Result struct {
	RunID    string   `json:"run_id"`
	Labels   []Label  `json:"labels"`
	Lookups  []Lookup `json:"lookups"`
	Skipped  int      `json:"skipped"` // lookups that failed and produced no label
	FlushErr error    `json:"-"`
}

// Retain applies same-name spacing to resolved names in route order. The first
// occurrence of a name is always kept; a later one only when it lies at least
// minDistanceKm past the last kept occurrence of that name.
func Retain(lookups []Lookup, minDistanceKm float64) []Label {
	lastKm := make(map[string]float64)
	var labels []Label
	group := 0

	for _, l := range lookups {
		if l.Name == "" {
			continue
		}
		if last, seen := lastKm[l.Name]; seen && l.Km-last < minDistanceKm {
			continue
		}
		group++
		lastKm[l.Name] = l.Km
		labels = append(labels, Label{
			SegmentID: l.SegmentID,
			Name:      l.Name,
			Elevation: l.Elevation,
			Km:        l.Km,
			Group:     group,
		})
	}
	return labels
}
