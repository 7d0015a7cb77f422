// Package config loads gprofile settings from defaults, an optional config
// file and GPROFILE_* environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/planbiir/gprofile/internal/places"
	"github.com/planbiir/gprofile/internal/profile"
	"github.com/planbiir/gprofile/internal/render"
)

// EnvPrefix is prepended to every environment override, e.g.
// GPROFILE_PROFILE_SEGMENT_WIDTH_KM.
const EnvPrefix = "GPROFILE"

type Config struct {
	Profile ProfileConfig `mapstructure:"profile"`
	Places  PlacesConfig  `mapstructure:"places"`
	Render  RenderConfig  `mapstructure:"render"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
}

type ProfileConfig struct {
	SegmentWidthKm  float64   `mapstructure:"segment_width_km"`
	SlopeThresholds []float64 `mapstructure:"slope_thresholds"`
	BandLabels      []string  `mapstructure:"band_labels"`
	BandColors      []string  `mapstructure:"band_colors"`
	SmoothingWindow int       `mapstructure:"smoothing_window"`
	SlopeMode       string    `mapstructure:"slope_mode"`
}

type PlacesConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MinLabelDistanceKm float64       `mapstructure:"min_label_distance_km"`
	Geocoder           string        `mapstructure:"geocoder"` // nominatim, overpass or none
	Endpoint           string        `mapstructure:"endpoint"`
	UserAgent          string        `mapstructure:"user_agent"`
	Timeout            time.Duration `mapstructure:"timeout"`
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`
	Workers            int           `mapstructure:"workers"`
	OverpassRadiusM    int           `mapstructure:"overpass_radius_m"`
	Cache              string        `mapstructure:"cache"` // store DSN
}

type RenderConfig struct {
	Shadow                 bool    `mapstructure:"shadow"`
	ShadowOffsetKm         float64 `mapstructure:"shadow_offset_km"`
	ShadowElevationOffsetM float64 `mapstructure:"shadow_elevation_offset_m"`
	LabelSpacingKm         float64 `mapstructure:"label_spacing_km"`
	HTMLWidth              string  `mapstructure:"html_width"`
	HTMLHeight             string  `mapstructure:"html_height"`
	PNGWidth               float64 `mapstructure:"png_width"`
	PNGHeight              float64 `mapstructure:"png_height"`
	AssetsHost             string  `mapstructure:"assets_host"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	BodyLimitMB int    `mapstructure:"body_limit_mb"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

func setDefaults(v *viper.Viper) {
	p := profile.DefaultConfig()
	v.SetDefault("profile.segment_width_km", p.SegmentWidthKm)
	v.SetDefault("profile.slope_thresholds", p.SlopeThresholds)
	// empty labels and colors are derived from the thresholds
	v.SetDefault("profile.band_labels", []string{})
	v.SetDefault("profile.band_colors", []string{})
	v.SetDefault("profile.smoothing_window", p.SmoothingWindow)
	v.SetDefault("profile.slope_mode", string(p.SlopeMode))

	v.SetDefault("places.enabled", false)
	v.SetDefault("places.min_label_distance_km", p.MinLabelDistanceKm)
	v.SetDefault("places.geocoder", "nominatim")
	v.SetDefault("places.endpoint", "")
	v.SetDefault("places.user_agent", "gprofile/1.0")
	v.SetDefault("places.timeout", 10*time.Second)
	v.SetDefault("places.requests_per_second", 1.0)
	v.SetDefault("places.workers", 1)
	v.SetDefault("places.overpass_radius_m", 3000)
	v.SetDefault("places.cache", "places_cache.json")

	r := render.DefaultOptions()
	v.SetDefault("render.shadow", r.Shadow)
	v.SetDefault("render.shadow_offset_km", r.ShadowOffsetKm)
	v.SetDefault("render.shadow_elevation_offset_m", r.ShadowElevationOffsetM)
	v.SetDefault("render.label_spacing_km", r.LabelSpacingKm)
	v.SetDefault("render.html_width", r.HTMLWidth)
	v.SetDefault("render.html_height", r.HTMLHeight)
	v.SetDefault("render.png_width", r.PNGWidth)
	v.SetDefault("render.png_height", r.PNGHeight)
	v.SetDefault("render.assets_host", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.body_limit_mb", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. path may be empty; otherwise the file must
// exist and its extension selects the format (yaml, json, toml).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// ProfileConfig converts the loaded values into the pipeline configuration.
// It does not validate; report.Build does.
func (c Config) ProfileConfig() profile.Config {
	return profile.Config{
		SegmentWidthKm:     c.Profile.SegmentWidthKm,
		SlopeThresholds:    c.Profile.SlopeThresholds,
		BandLabels:         c.Profile.BandLabels,
		BandColors:         c.Profile.BandColors,
		SmoothingWindow:    c.Profile.SmoothingWindow,
		SlopeMode:          profile.SlopeMode(c.Profile.SlopeMode),
		MinLabelDistanceKm: c.Places.MinLabelDistanceKm,
	}
}

// RenderOptions converts the render section.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		Title:                  "Elevation profile",
		Shadow:                 c.Render.Shadow,
		ShadowOffsetKm:         c.Render.ShadowOffsetKm,
		ShadowElevationOffsetM: c.Render.ShadowElevationOffsetM,
		LabelSpacingKm:         c.Render.LabelSpacingKm,
		HTMLWidth:              c.Render.HTMLWidth,
		HTMLHeight:             c.Render.HTMLHeight,
		PNGWidth:               c.Render.PNGWidth,
		PNGHeight:              c.Render.PNGHeight,
		AssetsHost:             c.Render.AssetsHost,
	}
}

// NewGeocoder builds the configured reverse geocoder. It returns nil for
// "none".
func (p PlacesConfig) NewGeocoder() (places.Geocoder, error) {
	switch strings.ToLower(p.Geocoder) {
	case "", "nominatim":
		g := places.NewNominatimGeocoder(p.Endpoint, p.UserAgent, p.RequestsPerSecond)
		return g, nil
	case "overpass":
		client := &http.Client{Timeout: p.Timeout + 5*time.Second}
		return places.NewOverpassGeocoder(p.Endpoint, p.OverpassRadiusM, client), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown geocoder %q", p.Geocoder)
	}
}

// NewAnnotator wires geocoder and cache store. It returns a nil annotator
// when places are disabled. The caller closes the returned store.
func (p PlacesConfig) NewAnnotator(ctx context.Context, logger *slog.Logger) (*places.Annotator, places.Store, error) {
	if !p.Enabled {
		return nil, nil, nil
	}
	geocoder, err := p.NewGeocoder()
	if err != nil {
		return nil, nil, err
	}
	if geocoder == nil {
		return nil, nil, nil
	}

	store := places.OpenStoreOrMemory(ctx, p.Cache, logger)
	a := places.NewAnnotator(geocoder, store, p.MinLabelDistanceKm, logger)
	if p.Timeout > 0 {
		a.Timeout = p.Timeout
	}
	if p.Workers > 0 {
		a.Workers = p.Workers
	}
	return a, store, nil
}
