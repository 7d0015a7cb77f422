package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbiir/gprofile/internal/config"
	"github.com/planbiir/gprofile/internal/places"
)

const kmPerDegreeLat = 111.19492664455873

// climbGPX is a 2 km straight climb from 100 m to 300 m.
func climbGPX() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<trk><name>Climb</name><trkseg>
`)
	const n = 41
	step := 2.0 / kmPerDegreeLat / float64(n-1)
	for i := 0; i < n; i++ {
		ele := 100 + 200*float64(i)/float64(n-1)
		fmt.Fprintf(&b, `<trkpt lat="%.7f" lon="19.9"><ele>%.2f</ele></trkpt>`+"\n", 50.0+step*float64(i), ele)
	}
	b.WriteString("</trkseg></trk></gpx>")
	return b.String()
}

const emptyGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
<trk><name>Nothing</name><trkseg></trkseg></trk></gpx>`

type townGeocoder struct{}

func (townGeocoder) Reverse(_ context.Context, lat, _ float64) (places.Address, error) {
	if lat < 50.009 {
		return places.Address{Village: "Dolne"}, nil
	}
	return places.Address{Town: "Górne"}, nil
}

func newTestServer(t *testing.T, annotator *places.Annotator) *Server {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return NewServer(cfg, annotator, nil)
}

func post(t *testing.T, s *Server, target, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/gpx+xml")
	resp, err := s.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

type profileResponse struct {
	Name        string `json:"name"`
	SlopeMode   string `json:"slope_mode"`
	BandLengths []struct {
		Label    string  `json:"label"`
		LengthKm float64 `json:"length_km"`
	} `json:"band_lengths"`
	Places []struct {
		Name string  `json:"place"`
		Km   float64 `json:"km"`
	} `json:"places"`
	Summary struct {
		TotalDistanceKm float64 `json:"total_distance_km"`
		TotalAscentM    float64 `json:"total_ascent_m"`
	} `json:"summary"`
}

func decode(t *testing.T, resp *http.Response) profileResponse {
	t.Helper()
	var out profileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestProfileRoute(t *testing.T) {
	s := newTestServer(t, nil)

	resp := post(t, s, "/profile", climbGPX())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	assert.Equal(t, "Climb", out.Name)
	assert.Equal(t, "interval", out.SlopeMode)
	assert.InDelta(t, 2.0, out.Summary.TotalDistanceKm, 1e-3)
	assert.Greater(t, out.Summary.TotalAscentM, 150.0)
	require.Len(t, out.BandLengths, 5)
	assert.InDelta(t, 2.0, out.BandLengths[4].LengthKm, 0.3) // 10% climb
	assert.Empty(t, out.Places)
}

func TestProfileRouteOverrides(t *testing.T) {
	s := newTestServer(t, nil)

	resp := post(t, s, "/profile?mode=segment&segment_km=1&window=0", climbGPX())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	assert.Equal(t, "segment", out.SlopeMode)
}

func TestProfileRouteErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"empty track", "/profile", emptyGPX, http.StatusUnprocessableEntity},
		{"bad gpx", "/profile", "definitely not gpx", http.StatusBadRequest},
		{"empty body", "/profile", "", http.StatusBadRequest},
		{"zero width", "/profile?segment_km=0", climbGPX(), http.StatusBadRequest},
		{"bad width", "/profile?segment_km=wide", climbGPX(), http.StatusBadRequest},
		{"bad mode", "/profile?mode=median", climbGPX(), http.StatusBadRequest},
		{"bad places flag", "/profile?places=maybe", climbGPX(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, s, tt.target, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestProfileRouteWithPlaces(t *testing.T) {
	annotator := places.NewAnnotator(townGeocoder{}, places.NewMemoryStore(), 5, nil)
	s := newTestServer(t, annotator)

	out := decode(t, post(t, s, "/profile", climbGPX()))
	require.Len(t, out.Places, 2)
	assert.Equal(t, "Dolne", out.Places[0].Name)
	assert.Equal(t, "Górne", out.Places[1].Name)

	out = decode(t, post(t, s, "/profile?places=false", climbGPX()))
	assert.Empty(t, out.Places)
}

func TestChartRoute(t *testing.T) {
	s := newTestServer(t, nil)

	resp := post(t, s, "/profile/chart", climbGPX())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "echarts")
}

func TestImageRoute(t *testing.T) {
	s := newTestServer(t, nil)

	resp := post(t, s, "/profile/image", climbGPX())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "\x89PNG"))
}

func TestBandsRoute(t *testing.T) {
	s := newTestServer(t, nil)

	resp := post(t, s, "/profile/bands", climbGPX())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		TotalKm float64 `json:"total_km"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.InDelta(t, 2.0, out.TotalKm, 0.02)
}
