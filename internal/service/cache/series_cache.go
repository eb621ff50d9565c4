package cache

import (
	"context"
	"errors"
	"time"

	"MoneyPulse/internal/domain/models"
	pcache "MoneyPulse/pkg/cache"
)

const keyPrefix = "series"

// SeriesCache stores live-fetched series keyed by (provider, identifier, start, end).
// Only live results are written; fallbacks never enter the cache.
type SeriesCache struct {
	svc pcache.Service
	ttl time.Duration
}

type cachedSeries struct {
	Name       string         `json:"name"`
	Provider   string         `json:"provider"`
	Identifier string         `json:"identifier"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Points     []models.Point `json:"points"`
}

func NewSeriesCache(svc pcache.Service, ttl time.Duration) *SeriesCache {
	return &SeriesCache{svc: svc, ttl: ttl}
}

// Key builds the cache key of a series request.
func Key(provider, identifier string, start, end time.Time) string {
	return pcache.JoinKey(keyPrefix, provider, identifier, start.UTC().Format("20060102"), end.UTC().Format("20060102"))
}

// Get returns a cached live result. ok is false on miss or when the cache is disabled.
func (c *SeriesCache) Get(ctx context.Context, name, provider, identifier string, start, end time.Time) (models.FetchResult, bool, error) {
	if c == nil || c.svc == nil {
		return models.FetchResult{}, false, nil
	}
	var cs cachedSeries
	if err := c.svc.Get(ctx, Key(provider, identifier, start, end), &cs); err != nil {
		if errors.Is(err, pcache.ErrCacheMiss) {
			return models.FetchResult{}, false, nil
		}
		return models.FetchResult{}, false, err
	}
	ts := models.NewTimeSeries(name, cs.Points)
	if ts.Empty() {
		return models.FetchResult{}, false, nil
	}
	return models.LiveResult(ts, cs.Provider, cs.Identifier, true, cs.FetchedAt), true, nil
}

// Put stores a live result. Other kinds are ignored.
func (c *SeriesCache) Put(ctx context.Context, res models.FetchResult, start, end time.Time) error {
	if c == nil || c.svc == nil || res.Kind != models.FetchLive || res.Cached {
		return nil
	}
	cs := cachedSeries{
		Name:       res.Series.Name,
		Provider:   res.Provider,
		Identifier: res.Identifier,
		FetchedAt:  res.FetchedAt,
		Points:     res.Series.Points,
	}
	return c.svc.Set(ctx, Key(res.Provider, res.Identifier, start, end), cs, c.ttl)
}

// Invalidate drops every cached series of provider.
func (c *SeriesCache) Invalidate(ctx context.Context, provider string) error {
	if c == nil || c.svc == nil {
		return nil
	}
	return c.svc.DeleteByPattern(ctx, pcache.PrefixPattern(keyPrefix, provider))
}
