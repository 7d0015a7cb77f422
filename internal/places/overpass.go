package places

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/serjvanilla/go-overpass"

	"github.com/planbiir/gprofile/internal/geo"
)

// DefaultOverpassEndpoint is the main public Overpass API instance.
const DefaultOverpassEndpoint = "https://overpass-api.de/api/interpreter"

// OverpassGeocoder resolves coordinates to the nearest place=city|town|village
// node within a radius.
type OverpassGeocoder struct {
	client  *overpass.Client
	radiusM int
}

// NewOverpassGeocoder returns a geocoder searching radiusM meters around each
// point. The HTTP client carries the transport timeout; per call deadlines come
// from ctx.
func NewOverpassGeocoder(endpoint string, radiusM int, httpClient *http.Client) *OverpassGeocoder {
	if endpoint == "" {
		endpoint = DefaultOverpassEndpoint
	}
	if radiusM <= 0 {
		radiusM = 3000
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassGeocoder{client: &client, radiusM: radiusM}
}

func placeQuery(lat, lon float64, radiusM int) string {
	return fmt.Sprintf(`
		[out:json];
		node(around:%d,%.6f,%.6f)["place"~"^(city|town|village)$"]["name"];
		out body;
	`, radiusM, lat, lon)
}

func (g *OverpassGeocoder) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	type answer struct {
		result overpass.Result
		err    error
	}

	// The client has no context support, so the deadline is enforced here.
	done := make(chan answer, 1)
	go func() {
		result, err := g.client.Query(placeQuery(lat, lon, g.radiusM))
		done <- answer{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return Address{}, contextError(ctx, ctx.Err())
	case a := <-done:
		if a.err != nil {
			return Address{}, fmt.Errorf("overpass query failed: %w", a.err)
		}
		addr := nearestPlaces(a.result, lat, lon)
		if PlaceName(addr) == "" {
			return Address{}, ErrNoResult
		}
		return addr, nil
	}
}

// nearestPlaces fills each address field with the closest node of that place type.
func nearestPlaces(result overpass.Result, lat, lon float64) Address {
	best := map[string]float64{
		"city":    math.Inf(1),
		"town":    math.Inf(1),
		"village": math.Inf(1),
	}
	var addr Address

	for _, node := range result.Nodes {
		if node == nil {
			continue
		}
		kind, name := node.Tags["place"], node.Tags["name"]
		limit, ok := best[kind]
		if !ok || name == "" {
			continue
		}
		d := geo.HaversineKm(lat, lon, node.Lat, node.Lon)
		if d >= limit {
			continue
		}
		best[kind] = d
		switch kind {
		case "city":
			addr.City = name
		case "town":
			addr.Town = name
		case "village":
			addr.Village = name
		}
	}
	return addr
}
