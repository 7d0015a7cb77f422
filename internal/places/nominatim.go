package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultNominatimEndpoint is the public OpenStreetMap instance.
const DefaultNominatimEndpoint = "https://nominatim.openstreetmap.org"

// Geocoder resolves a coordinate into an address. Implementations must honour
// ctx cancellation and deadlines and report ErrNoResult / ErrTimeout
// distinguishably.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (Address, error)
}

// Pacer is implemented by geocoders with a request budget. Wait blocks until
// the next call may be made. The Annotator waits on the run context before
// the per-lookup deadline starts, so queueing never eats into the timeout.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NominatimGeocoder calls the Nominatim reverse endpoint.
type NominatimGeocoder struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client

	limiter *rate.Limiter
}

// NominatimResponse represents the Nominatim reverse geocode response
type NominatimResponse struct {
	Address *Address `json:"address"`
	Error   string   `json:"error"`
}

// NewNominatimGeocoder returns a geocoder limited to rps requests per second
// (Nominatim usage policy allows 1). rps <= 0 disables the limit.
func NewNominatimGeocoder(endpoint, userAgent string, rps float64) *NominatimGeocoder {
	if endpoint == "" {
		endpoint = DefaultNominatimEndpoint
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &NominatimGeocoder{
		Endpoint:  strings.TrimRight(endpoint, "/"),
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Wait takes one request from the rate limit budget.
func (g *NominatimGeocoder) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Reverse performs a single request. It does not pace itself; callers issuing
// many lookups go through Wait first.
func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lon float64) (Address, error) {
	url := fmt.Sprintf("%s/reverse?lat=%.6f&lon=%.6f&format=jsonv2&zoom=14", g.Endpoint, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Address{}, fmt.Errorf("failed to create request: %w", err)
	}

	// Required by Nominatim usage policy
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return Address{}, contextError(ctx, fmt.Errorf("nominatim request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Address{}, fmt.Errorf("nominatim returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var nominatimResp NominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&nominatimResp); err != nil {
		return Address{}, contextError(ctx, fmt.Errorf("failed to decode nominatim response: %w", err))
	}
	if nominatimResp.Error != "" || nominatimResp.Address == nil {
		return Address{}, fmt.Errorf("%w: %s", ErrNoResult, nominatimResp.Error)
	}

	return *nominatimResp.Address, nil
}

// contextError tags err with ErrTimeout when the call ran out of time.
func contextError(ctx context.Context, err error) error {
	if errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
