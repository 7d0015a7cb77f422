package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/planbiir/gprofile/internal/config"
	"github.com/planbiir/gprofile/internal/gpx"
	"github.com/planbiir/gprofile/internal/logging"
	"github.com/planbiir/gprofile/internal/profile"
	"github.com/planbiir/gprofile/internal/render"
	"github.com/planbiir/gprofile/internal/report"
	"github.com/planbiir/gprofile/internal/track"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		inputFile  = flag.String("i", "", "Input GPX file")
		configFile = flag.String("config", "", "Config file (yaml, json or toml)")
		segmentKm  = flag.Float64("segment-km", 0, "Segment width in km")
		thresholds = flag.String("thresholds", "", "Comma separated slope thresholds in %, e.g. 2,4,5,8")
		window     = flag.Int("window", 0, "Smoothing window in samples (0 disables)")
		mode       = flag.String("mode", "", "Slope mode: interval or segment")
		withPlaces = flag.Bool("places", false, "Annotate the profile with place names")
		geocoder   = flag.String("geocoder", "", "Geocoder: nominatim, overpass or none")
		cacheDSN   = flag.String("cache", "", "Place cache: path, sqlite://, postgres://, redis:// or memory:")
		minLabelKm = flag.Float64("min-label-km", 0, "Minimum distance between two labels with the same name")
		workers    = flag.Int("workers", 0, "Concurrent place lookups")
		htmlFile   = flag.String("html", "", "Output HTML chart (default: <input>_profile.html)")
		pngFile    = flag.String("png", "", "Output PNG chart")
		jsonFile   = flag.String("json", "", "Output JSON report")
		dryRun     = flag.Bool("dry-run", false, "Show statistics without writing output files")
		showStats  = flag.Bool("stats", true, "Show route statistics")
		statsJSON  = flag.Bool("stats-json", false, "Output statistics as JSON")
		verbose    = flag.Bool("v", false, "Debug logging")
		version    = flag.Bool("version", false, "Show version information")
	)

	flag.Usage = func() {
		fmt.Printf("gprofile - Elevation profile and slope breakdown for GPX tracks\n\n")
		fmt.Printf("usage: gprofile -i /path/to/file.gpx\n\n")
		fmt.Printf("examples:\n")
		fmt.Printf("  gprofile -i course.gpx\n")
		fmt.Printf("  gprofile -i course.gpx -png course.png -thresholds 3,6,9\n")
		fmt.Printf("  gprofile -i course.gpx -places -cache sqlite://places.db\n")
		fmt.Printf("  GPROFILE_PROFILE_SLOPE_MODE=segment gprofile -i course.gpx -json course.json\n\n")
		fmt.Printf("options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Println("gprofile v1.0.0 - GPX elevation profiles")
		fmt.Println("https://github.com/planbiir/gprofile")
		return 0
	}

	if *inputFile == "" {
		flag.Usage()
		return 2
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Only flags given on the command line override the config
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "segment-km":
			cfg.Profile.SegmentWidthKm = *segmentKm
		case "thresholds":
			values, err := parseThresholds(*thresholds)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Profile.SlopeThresholds = values
			cfg.Profile.BandLabels = nil
			cfg.Profile.BandColors = nil
		case "window":
			cfg.Profile.SmoothingWindow = *window
		case "mode":
			cfg.Profile.SlopeMode = *mode
		case "places":
			cfg.Places.Enabled = *withPlaces
		case "geocoder":
			cfg.Places.Geocoder = *geocoder
		case "cache":
			cfg.Places.Cache = *cacheDSN
		case "min-label-km":
			cfg.Places.MinLabelDistanceKm = *minLabelKm
		case "workers":
			cfg.Places.Workers = *workers
		}
	})
	if flagErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", flagErr)
		return 2
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if *htmlFile == "" && *pngFile == "" && *jsonFile == "" {
		ext := filepath.Ext(*inputFile)
		*htmlFile = strings.TrimSuffix(*inputFile, ext) + "_profile.html"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Parse GPX file
	fmt.Printf("📖 Reading GPX file: %s\n", *inputFile)
	gpxData, err := gpx.Parse(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading GPX file: %v\n", err)
		return 1
	}

	points := gpxData.FlattenPoints()
	if len(points) == 0 {
		fmt.Printf("❌ No GPS points found in file\n")
		return 1
	}
	fileStats := gpxData.Stats()
	fmt.Printf("📊 Track: %d points across %d tracks (%d without elevation)\n",
		fileStats.PointCount, fileStats.TrackCount, fileStats.MissingEle)

	annotator, store, err := cfg.Places.NewAnnotator(ctx, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring places: %v\n", err)
		return 2
	}
	if store != nil {
		defer store.Close()
	}
	if annotator != nil {
		fmt.Printf("🗺️  Resolving place names (%s, cache %d entries)\n", cfg.Places.Geocoder, store.Len())
	}

	rep, err := report.FromPoints(ctx, points, report.Options{
		Profile:   cfg.ProfileConfig(),
		Annotator: annotator,
		Logger:    logger,
	})
	switch {
	case errors.Is(err, profile.ErrInvalidConfig):
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 2
	case errors.Is(err, track.ErrEmptyTrack):
		fmt.Printf("❌ No GPS points found in file\n")
		return 1
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error building profile: %v\n", err)
		return 1
	}
	rep.Name = gpxData.Name

	if *statsJSON {
		jsonData, err := json.MarshalIndent(rep.Summary, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error marshaling stats: %v\n", err)
			return 1
		}
		fmt.Println(string(jsonData))
	} else if *showStats {
		printStats(rep)
	}

	if *dryRun {
		fmt.Printf("🔍 Dry run completed - no files written\n")
		return 0
	}

	opts := cfg.RenderOptions()
	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{*htmlFile, func(w io.Writer) error { return render.WriteHTML(w, rep, opts) }},
		{*pngFile, func(w io.Writer) error { return render.WritePNG(w, rep, opts) }},
		{*jsonFile, func(w io.Writer) error { return writeJSON(w, rep) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		fmt.Printf("💾 Writing %s\n", out.path)
		if err := writeFile(out.path, out.write); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", out.path, err)
			return 1
		}
	}

	fmt.Printf("✅ Profile built successfully!\n")
	fmt.Printf("   %.2f km, +%.0f m / -%.0f m\n",
		rep.Summary.TotalDistanceKm, rep.Summary.TotalAscentM, rep.Summary.TotalDescentM)
	return 0
}

func parseThresholds(s string) ([]float64, error) {
	var values []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q", part)
		}
		values = append(values, v)
	}
	return values, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, rep *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func printStats(rep *report.Report) {
	s := rep.Summary
	fmt.Printf("\n📊 Profile Statistics:\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📏 Distance: %.2f km in %d segments\n", s.TotalDistanceKm, s.SegmentCount)
	fmt.Printf("⛰️  Elevation: %.0f – %.0f m\n", s.MinElevation, s.MaxElevation)
	fmt.Printf("📈 Ascent: %.0f m, 📉 Descent: %.0f m\n", s.TotalAscentM, s.TotalDescentM)
	fmt.Printf("📍 Points: %d (%d interpolated)\n", s.PointCount, s.MissingElevation)
	fmt.Printf("🔄 Slope bands (%s):\n", rep.SlopeMode)
	if err := render.WriteBandTable(os.Stdout, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error printing bands: %v\n", err)
	}
	if len(rep.Places) > 0 {
		fmt.Printf("🏘️  Places:\n")
		for _, l := range rep.Places {
			fmt.Printf("   • %s at %.1f km (%.0f m)\n", l.Name, l.Km, l.Elevation)
		}
	}
	if s.LabelsSkipped > 0 {
		fmt.Printf("⚠️  %d labels skipped due to lookup failure\n", s.LabelsSkipped)
	}
	fmt.Printf("⏱️  Processing Time: %v\n", s.ProcessingTime)
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
}
