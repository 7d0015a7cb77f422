package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/planbiir/gprofile/internal/config"
	"github.com/planbiir/gprofile/internal/logging"
	"github.com/planbiir/gprofile/internal/places"
)

func main() {
	cfg, err := config.Load(os.Getenv("GPROFILE_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cacheFlag := flag.String("cache", cfg.Places.Cache, "Place cache DSN (path, sqlite://, postgres://, redis://)")
	statsFlag := flag.Bool("stats", false, "Print cache statistics")
	listFlag := flag.Bool("list", false, "Print every cached entry")
	copyFlag := flag.String("copy-to", "", "Copy every entry into another cache DSN")
	lookupFlag := flag.String("lookup", "", "Resolve lat,lon through the cache and the configured geocoder")
	geocoderFlag := flag.String("geocoder", cfg.Places.Geocoder, "Geocoder for -lookup: nominatim or overpass")
	flag.Parse()

	if !*statsFlag && !*listFlag && *copyFlag == "" && *lookupFlag == "" {
		log.Fatalf("usage: %s [-cache DSN] -stats | -list | -copy-to DSN | -lookup lat,lon", os.Args[0])
	}

	ctx := context.Background()
	store, err := places.OpenStore(ctx, *cacheFlag)
	if err != nil {
		log.Fatalf("open cache: %v", err)
	}
	defer store.Close()

	fmt.Printf("Cache: %s\n", *cacheFlag)

	if *statsFlag {
		printCacheStats(store.All())
	}

	if *listFlag {
		entries := store.All()
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name := entries[k]
			if name == "" {
				name = "(no place)"
			}
			fmt.Printf("  %s  %s\n", k, name)
		}
	}

	if *copyFlag != "" {
		n, err := copyEntries(ctx, store, *copyFlag)
		if err != nil {
			log.Fatalf("copy cache: %v", err)
		}
		fmt.Printf("\nCopied %d entries to %s\n", n, *copyFlag)
	}

	if *lookupFlag != "" {
		lat, lon, err := parseLatLon(*lookupFlag)
		if err != nil {
			log.Fatalf("lookup: %v", err)
		}
		placesCfg := cfg.Places
		placesCfg.Geocoder = *geocoderFlag
		geocoder, err := placesCfg.NewGeocoder()
		if err != nil {
			log.Fatalf("geocoder: %v", err)
		}

		logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
		annotator := places.NewAnnotator(geocoder, store, 0, logger)
		if placesCfg.Timeout > 0 {
			annotator.Timeout = placesCfg.Timeout
		}
		start := time.Now()
		result := annotator.Annotate(ctx, []places.Anchor{{Lat: lat, Lon: lon}})
		l := result.Lookups[0]
		fmt.Printf("\nLookup %s: status=%s name=%q (%v)\n", l.Key, l.Status, l.Name, time.Since(start).Round(time.Millisecond))
		if l.Err != nil {
			fmt.Printf("  ✗ %v\n", l.Err)
		}
		if result.FlushErr != nil {
			log.Fatalf("flush cache: %v", result.FlushErr)
		}
	}
}

type cacheStats struct {
	Entries  int
	Resolved int
	Empty    int
	Names    int
	TopNames []nameCount
}

type nameCount struct {
	Name  string
	Count int
}

func summarize(entries map[string]string) cacheStats {
	stats := cacheStats{Entries: len(entries)}
	counts := make(map[string]int)
	for _, name := range entries {
		if name == "" {
			stats.Empty++
			continue
		}
		stats.Resolved++
		counts[name]++
	}
	stats.Names = len(counts)
	for name, n := range counts {
		stats.TopNames = append(stats.TopNames, nameCount{Name: name, Count: n})
	}
	sort.Slice(stats.TopNames, func(i, j int) bool {
		if stats.TopNames[i].Count != stats.TopNames[j].Count {
			return stats.TopNames[i].Count > stats.TopNames[j].Count
		}
		return stats.TopNames[i].Name < stats.TopNames[j].Name
	})
	if len(stats.TopNames) > 10 {
		stats.TopNames = stats.TopNames[:10]
	}
	return stats
}

func printCacheStats(entries map[string]string) {
	stats := summarize(entries)
	fmt.Printf("\nCache stats: entries=%d resolved=%d empty=%d distinct_names=%d\n",
		stats.Entries, stats.Resolved, stats.Empty, stats.Names)
	if len(stats.TopNames) > 0 {
		fmt.Printf("Most frequent names:\n")
		for _, nc := range stats.TopNames {
			fmt.Printf("  %-30s %d\n", nc.Name, nc.Count)
		}
	}
}

// copyEntries writes every entry of src into the store behind dsn and
// flushes it.
func copyEntries(ctx context.Context, src places.Store, dsn string) (int, error) {
	dst, err := places.OpenStore(ctx, dsn)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	entries := src.All()
	for k, name := range entries {
		dst.Put(k, name)
	}
	if err := dst.Flush(ctx); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func parseLatLon(s string) (float64, float64, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("expected lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("invalid longitude %q", lonStr)
	}
	return lat, lon, nil
}
