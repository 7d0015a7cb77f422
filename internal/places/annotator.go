package places

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Annotator resolves segment anchors into place labels.
type Annotator struct {
	Geocoder      Geocoder
	Store         Store
	MinDistanceKm float64       // same-name label spacing along the route
	Timeout       time.Duration // per lookup, 0 means no deadline
	Workers       int           // concurrent lookups, <= 1 is sequential
	Logger        *slog.Logger

	flight singleflight.Group
}

// NewAnnotator returns an annotator with sequential lookups and a 10 s timeout.
func NewAnnotator(geocoder Geocoder, store Store, minDistanceKm float64, logger *slog.Logger) *Annotator {
	return &Annotator{
		Geocoder:      geocoder,
		Store:         store,
		MinDistanceKm: minDistanceKm,
		Timeout:       10 * time.Second,
		Workers:       1,
		Logger:        logger,
	}
}

// Annotate looks up every anchor, applies the retention rule in route order and
// flushes the store. A failed lookup only costs that anchor its label; the run
// itself never fails. Flush problems are reported in Result.FlushErr.
func (a *Annotator) Annotate(ctx context.Context, anchors []Anchor) Result {
	logger := a.logger()
	store := a.Store
	if store == nil {
		store = NewMemoryStore()
	}

	result := Result{RunID: uuid.NewString()}
	logger = logger.With("component", "places", "run_id", result.RunID)

	ordered := make([]Anchor, len(anchors))
	copy(ordered, anchors)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Km < ordered[j].Km })

	lookups := make([]Lookup, len(ordered))
	var g errgroup.Group
	g.SetLimit(max(1, a.Workers))
	for i, anchor := range ordered {
		i, anchor := i, anchor
		g.Go(func() error {
			// Never return an error: one failed lookup must not cancel the others.
			lookups[i] = a.resolve(ctx, store, anchor)
			return nil
		})
	}
	_ = g.Wait()

	for _, l := range lookups {
		if l.Status == StatusFailed {
			result.Skipped++
			logger.Warn("place lookup failed",
				"segment", l.SegmentID,
				"key", l.Key,
				"error", l.Err,
			)
		}
	}

	result.Lookups = lookups
	result.Labels = Retain(lookups, a.MinDistanceKm)

	if err := store.Flush(ctx); err != nil {
		result.FlushErr = err
		logger.Warn("place cache not persisted", "error", err)
	}

	logger.Info("place annotation finished",
		"anchors", len(anchors),
		"labels", len(result.Labels),
		"skipped", result.Skipped,
		"cache_entries", store.Len(),
	)
	return result
}

func (a *Annotator) resolve(ctx context.Context, store Store, anchor Anchor) Lookup {
	key := Key(anchor.Lat, anchor.Lon)
	l := Lookup{
		SegmentID: anchor.SegmentID,
		Km:        anchor.Km,
		Elevation: anchor.Elevation,
		Key:       key,
	}

	if name, ok := store.Get(key); ok {
		l.Name = name
		l.Status = StatusCached
		return l
	}

	if a.Geocoder == nil {
		return a.fail(l, errors.New("no geocoder configured"))
	}

	// Concurrent anchors quantized to the same key share one lookup.
	v, err, _ := a.flight.Do(key, func() (any, error) {
		if name, ok := store.Get(key); ok {
			return name, nil
		}
		name, err := a.lookup(ctx, anchor)
		if err != nil {
			return "", err
		}
		store.Put(key, name)
		return name, nil
	})
	if err != nil {
		return a.fail(l, err)
	}

	l.Name = v.(string)
	l.Status = StatusResolved
	if l.Name == "" {
		l.Status = StatusNoName
	}
	return l
}

// lookup returns "" without error for coordinates that resolve to nothing.
func (a *Annotator) lookup(ctx context.Context, anchor Anchor) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p, ok := a.Geocoder.(Pacer); ok {
		if err := p.Wait(ctx); err != nil {
			return "", err
		}
	}
	callCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	addr, err := a.Geocoder.Reverse(callCtx, anchor.Lat, anchor.Lon)
	if errors.Is(err, ErrNoResult) {
		return "", nil
	}
	if err != nil {
		return "", contextError(callCtx, err)
	}
	return PlaceName(addr), nil
}

func (a *Annotator) fail(l Lookup, err error) Lookup {
	l.Status = StatusFailed
	l.Err = &LookupError{Key: l.Key, Err: err}
	l.Error = err.Error()
	return l
}

func (a *Annotator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(discardHandler)
	}
	return a.Logger
}
