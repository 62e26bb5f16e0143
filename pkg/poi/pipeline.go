package poi

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"geotale/pkg/cache"
	"geotale/pkg/geo"
	"geotale/pkg/model"
	"geotale/pkg/store"
	"geotale/pkg/tracker"
)

// Source is a POI provider adapter. Implementations must be safe for
// concurrent use.
type Source interface {
	Name() string
	Fetch(ctx context.Context, lat, lng float64, radiusM int, lang string) ([]model.POI, error)
}

// Pipeline fans a location query out to the primary sources, normalizes
// the union, and caches the result per geo bucket. The fallback source is
// held back until the primaries come up empty, so a commercial endpoint
// only ever fires as a last resort.
type Pipeline struct {
	sources  []Source
	fallback Source
	cache    cache.Cacher
	durable  store.POICacheStore
	tracker  *tracker.Tracker
	ttl      time.Duration
}

// NewPipeline creates a pipeline. fallback and durable may be nil.
func NewPipeline(sources []Source, fallback Source, c cache.Cacher, durable store.POICacheStore, tr *tracker.Tracker, ttl time.Duration) *Pipeline {
	return &Pipeline{
		sources:  sources,
		fallback: fallback,
		cache:    c,
		durable:  durable,
		tracker:  tr,
		ttl:      ttl,
	}
}

// Candidates returns the normalized POI union for one bucket. A source
// failure degrades to an empty contribution from that source; the
// pipeline itself only fails when the context dies.
func (p *Pipeline) Candidates(ctx context.Context, lat, lng float64, radiusM int, lang string) ([]model.POI, error) {
	bucket := geo.BucketKey(lat, lng, radiusM)

	if cached, ok := p.cache.Get(bucket); ok {
		p.tracker.TrackCacheHit("poi")
		return cached.([]model.POI), nil
	}
	p.tracker.TrackCacheMiss("poi")

	if pois, ok := p.loadDurable(ctx, bucket); ok {
		p.cache.Set(bucket, pois, p.ttl)
		return pois, nil
	}

	results := make([][]model.POI, len(p.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range p.sources {
		g.Go(func() error {
			pois, err := src.Fetch(gctx, lat, lng, radiusM, lang)
			if err != nil {
				// Settle-all: a provider failure must not sink the union.
				slog.Warn("poi source failed", "source", src.Name(), "error", err)
				return nil
			}
			results[i] = pois
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge in registration order so dedup is deterministic.
	var merged []model.POI
	for _, pois := range results {
		merged = append(merged, pois...)
	}
	merged = Normalize(merged)

	if len(merged) == 0 && p.fallback != nil {
		pois, err := p.fallback.Fetch(ctx, lat, lng, radiusM, lang)
		if err != nil {
			slog.Warn("poi fallback source failed", "source", p.fallback.Name(), "error", err)
		} else {
			merged = Normalize(pois)
		}
	}

	p.cache.Set(bucket, merged, p.ttl)
	p.storeDurable(ctx, bucket, merged)
	return merged, nil
}

func (p *Pipeline) loadDurable(ctx context.Context, bucket string) ([]model.POI, bool) {
	if p.durable == nil {
		return nil, false
	}
	raw, ok := p.durable.GetPOICache(ctx, bucket)
	if !ok {
		return nil, false
	}
	var pois []model.POI
	if err := json.Unmarshal(raw, &pois); err != nil {
		slog.Warn("dropping corrupt poi cache row", "bucket", bucket, "error", err)
		return nil, false
	}
	return pois, true
}

func (p *Pipeline) storeDurable(ctx context.Context, bucket string, pois []model.POI) {
	if p.durable == nil {
		return
	}
	raw, err := json.Marshal(pois)
	if err != nil {
		return
	}
	if err := p.durable.SetPOICache(ctx, bucket, raw); err != nil {
		slog.Warn("poi cache write failed", "bucket", bucket, "error", err)
	}
}

// Normalize dedups POIs. The first occurrence wins, both for exact key
// collisions and for same-entity collisions across sources (same
// case-folded label at the same rounded coordinates).
func Normalize(pois []model.POI) []model.POI {
	seenKey := make(map[string]bool, len(pois))
	seenEntity := make(map[entityKey]bool, len(pois))

	out := make([]model.POI, 0, len(pois))
	for _, p := range pois {
		if seenKey[p.Key] {
			continue
		}
		ek := entityKeyFor(p)
		if ek.label != "" && seenEntity[ek] {
			continue
		}
		seenKey[p.Key] = true
		if ek.label != "" {
			seenEntity[ek] = true
		}
		out = append(out, p)
	}
	return out
}
