package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"MoneyPulse/internal/domain/models"
	drepo "MoneyPulse/internal/domain/repository"
	scache "MoneyPulse/internal/service/cache"
	"MoneyPulse/internal/service/fallback"
	smetrics "MoneyPulse/internal/service/metrics"
	"MoneyPulse/internal/service/ratelimit"
	"MoneyPulse/pkg/logger"
	"MoneyPulse/pkg/util"

	"github.com/sony/gobreaker"
)

// Acquirer fetches named series from their providers and assembles a Dataset.
// Each series is tried against the cache, then live (twice, with backoff), then the
// synthetic generator. A failing series never aborts the others.
type Acquirer struct {
	adapters map[string]drepo.SourceAdapter
	breakers map[string]*gobreaker.CircuitBreaker
	route    Router
	limiter  *ratelimit.Limiter
	cache    *scache.SeriesCache
	fallback *fallback.Generator
	metrics  drepo.Metrics
	log      *logger.Logger
	now      func() time.Time

	attempts     int
	backoff      time.Duration
	fetchTimeout time.Duration
	tripAfter    uint32
	openTimeout  time.Duration
}

type AcquirerOption func(*Acquirer)

func WithRouter(r Router) AcquirerOption { return func(a *Acquirer) { a.route = r } }

func WithLimiter(l *ratelimit.Limiter) AcquirerOption { return func(a *Acquirer) { a.limiter = l } }

func WithSeriesCache(c *scache.SeriesCache) AcquirerOption { return func(a *Acquirer) { a.cache = c } }

// WithFallback sets the synthetic generator. A nil generator disables fallbacks.
func WithFallback(g *fallback.Generator) AcquirerOption { return func(a *Acquirer) { a.fallback = g } }

func WithAcquirerMetrics(m drepo.Metrics) AcquirerOption {
	return func(a *Acquirer) {
		if m != nil {
			a.metrics = m
		}
	}
}

func WithAcquirerLogger(l *logger.Logger) AcquirerOption {
	return func(a *Acquirer) {
		if l != nil {
			a.log = l
		}
	}
}

func WithRetryBackoff(d time.Duration) AcquirerOption { return func(a *Acquirer) { a.backoff = d } }

func WithFetchTimeout(d time.Duration) AcquirerOption {
	return func(a *Acquirer) {
		if d > 0 {
			a.fetchTimeout = d
		}
	}
}

// WithBreaker opens a provider's circuit after n consecutive failures for the given duration.
func WithBreaker(n uint32, open time.Duration) AcquirerOption {
	return func(a *Acquirer) {
		a.tripAfter = n
		a.openTimeout = open
	}
}

func WithClock(now func() time.Time) AcquirerOption { return func(a *Acquirer) { a.now = now } }

func NewAcquirer(adapters []drepo.SourceAdapter, opts ...AcquirerOption) *Acquirer {
	a := &Acquirer{
		adapters:     make(map[string]drepo.SourceAdapter, len(adapters)),
		breakers:     make(map[string]*gobreaker.CircuitBreaker, len(adapters)),
		route:        DefaultRoute,
		limiter:      ratelimit.New(0),
		fallback:     fallback.NewGenerator(),
		metrics:      nopMetrics{},
		log:          logger.Nop(),
		now:          time.Now,
		attempts:     2,
		backoff:      time.Second,
		fetchTimeout: 15 * time.Second,
		tripAfter:    5,
		openTimeout:  time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, ad := range adapters {
		if ad == nil {
			continue
		}
		a.adapters[ad.Name()] = ad
		a.breakers[ad.Name()] = gobreaker.NewCircuitBreaker(a.breakerSettings(ad.Name()))
	}
	return a
}

func (a *Acquirer) breakerSettings(name string) gobreaker.Settings {
	trip := a.tripAfter
	return gobreaker.Settings{
		Name:    name,
		Timeout: a.openTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return trip > 0 && c.ConsecutiveFailures >= trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.log.Warn("provider circuit state changed",
				logger.String("provider", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	}
}

// Providers returns the names of the registered adapters.
func (a *Acquirer) Providers() []string {
	out := make([]string, 0, len(a.adapters))
	for n := range a.adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Fetch acquires names over [start, end]. It only fails on an invalid range; series that
// cannot be obtained are recorded as unavailable in the Dataset.
func (a *Acquirer) Fetch(ctx context.Context, names []string, start, end time.Time) (*models.Dataset, error) {
	if !start.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("fetch %v..%v: %w", start, end, models.ErrInvalidRange)
	}
	begin := time.Now()
	names = util.Dedupe(names)

	type outcome struct {
		name string
		res  models.FetchResult
	}
	results := make(chan outcome, len(names))
	var wg sync.WaitGroup
	for _, n := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			results <- outcome{name: name, res: a.FetchOne(ctx, name, start, end)}
		}(n)
	}
	wg.Wait()
	close(results)

	ds := models.NewDataset()
	for o := range results {
		switch o.res.Kind {
		case models.FetchLive, models.FetchFallback:
			ds.Put(o.res.Series.Rename(o.name), o.res.Entry(start, end))
		default:
			reason := "unavailable"
			if o.res.Reason != nil {
				reason = o.res.Reason.Error()
			}
			ds.MarkUnavailable(o.name, reason)
		}
	}
	a.metrics.RecordLatency("acquire", time.Since(begin).Seconds())
	return ds, nil
}

// FetchOne resolves a single series.
func (a *Acquirer) FetchOne(ctx context.Context, name string, start, end time.Time) models.FetchResult {
	r := a.route(name)
	if res, ok := a.fromCache(ctx, name, r, start, end); ok {
		return res
	}

	var lastErr error
	if ad, ok := a.adapters[r.Provider]; ok {
		res, err := a.fetchLive(ctx, ad, name, r, start, end)
		if err == nil {
			if perr := a.cache.Put(ctx, res, start, end); perr != nil {
				a.log.Warn("series cache write failed", logger.String("series", name), logger.Error(perr))
			}
			a.metrics.RecordFetch(r.Provider, res.Kind.String())
			a.log.Info("series fetched",
				logger.String("series", name),
				logger.String("provider", r.Provider),
				logger.Int("points", res.Series.Len()))
			return res
		}
		lastErr = err
		a.metrics.RecordError("provider_" + r.Provider)
	} else {
		lastErr = fmt.Errorf("no adapter for provider %q: %w", r.Provider, models.ErrProviderUnavailable)
	}

	return a.fallbackFor(name, r, start, end, lastErr)
}

func (a *Acquirer) fromCache(ctx context.Context, name string, r Route, start, end time.Time) (models.FetchResult, bool) {
	if a.cache == nil {
		return models.FetchResult{}, false
	}
	res, ok, err := a.cache.Get(ctx, name, r.Provider, r.Identifier, start, end)
	if err != nil {
		a.metrics.RecordCache("error")
		a.log.Warn("series cache read failed", logger.String("series", name), logger.Error(err))
		return models.FetchResult{}, false
	}
	if !ok {
		a.metrics.RecordCache("miss")
		return models.FetchResult{}, false
	}
	a.metrics.RecordCache("hit")
	a.metrics.RecordFetch(r.Provider, "cached")
	return res, true
}

func (a *Acquirer) fetchLive(ctx context.Context, ad drepo.SourceAdapter, name string, r Route, start, end time.Time) (models.FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < a.attempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, a.backoff*time.Duration(attempt)); err != nil {
				return models.FetchResult{}, errors.Join(lastErr, err)
			}
		}
		began := time.Now()
		rows, err := a.call(ctx, ad, r, start, end)
		a.metrics.RecordLatency("fetch_"+r.Provider, time.Since(began).Seconds())
		if err == nil {
			ts := models.SeriesFromRows(name, rows)
			if !ts.Empty() {
				return models.LiveResult(ts, r.Provider, r.Identifier, false, a.now()), nil
			}
			err = fmt.Errorf("%s %s: %w: %w", r.Provider, r.Identifier, models.ErrProviderUnavailable, models.ErrEmptyPayload)
		}
		lastErr = err
		a.log.Warn("live fetch failed",
			logger.String("series", name),
			logger.String("provider", r.Provider),
			logger.Int("attempt", attempt+1),
			logger.Error(err))
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || ctx.Err() != nil {
			break
		}
	}
	return models.FetchResult{}, lastErr
}

// call runs one rate-limited, breaker-guarded, time-bounded adapter request.
func (a *Acquirer) call(ctx context.Context, ad drepo.SourceAdapter, r Route, start, end time.Time) ([]models.RawRow, error) {
	if err := a.limiter.Wait(ctx, r.Provider); err != nil {
		return nil, fmt.Errorf("%s rate limit wait: %w: %w", r.Provider, models.ErrProviderUnavailable, err)
	}
	out, err := a.breakers[r.Provider].Execute(func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
		return ad.FetchSeries(cctx, r.Identifier, start, end)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w: %w", r.Provider, models.ErrProviderUnavailable, err)
		}
		return nil, err
	}
	rows, _ := out.([]models.RawRow)
	return rows, nil
}

func (a *Acquirer) fallbackFor(name string, r Route, start, end time.Time, reason error) models.FetchResult {
	if a.fallback == nil || !a.fallback.Supports(name) {
		// without a synthetic model an unknown or misspelled ticker must surface as a gap
		a.metrics.RecordFetch(r.Provider, models.FetchUnavailable.String())
		a.log.Warn("series unavailable", logger.String("series", name), logger.Error(reason))
		return models.UnavailableResult(reason)
	}
	ts, err := a.fallback.Series(name, start, end)
	if err != nil || ts.Empty() {
		a.metrics.RecordFetch(r.Provider, models.FetchUnavailable.String())
		a.log.Warn("series unavailable", logger.String("series", name), logger.Error(errors.Join(reason, err)))
		return models.UnavailableResult(errors.Join(reason, err))
	}
	a.metrics.RecordFetch(r.Provider, models.FetchFallback.String())
	a.log.Warn("using synthetic series",
		logger.String("series", name),
		logger.String("provider", r.Provider),
		logger.Error(reason))
	return models.FallbackResult(ts, reason, a.now())
}

// Probe pings every provider and returns the failures by provider name.
func (a *Acquirer) Probe(ctx context.Context) map[string]error {
	type probe struct {
		name string
		err  error
	}
	ch := make(chan probe, len(a.adapters))
	var wg sync.WaitGroup
	for name, ad := range a.adapters {
		wg.Add(1)
		go func(name string, ad drepo.SourceAdapter) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, a.fetchTimeout)
			defer cancel()
			ch <- probe{name: name, err: ad.Ping(pctx)}
		}(name, ad)
	}
	wg.Wait()
	close(ch)

	out := make(map[string]error, len(a.adapters))
	for p := range ch {
		smetrics.SetProviderUp(p.name, p.err == nil)
		out[p.name] = p.err
	}
	return out
}

// InvalidateCache drops every cached series of provider.
func (a *Acquirer) InvalidateCache(ctx context.Context, provider string) error {
	return a.cache.Invalidate(ctx, provider)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string)    {}
func (nopMetrics) RecordCache(string)            {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}
func (nopMetrics) RecordSignal(string, float64)  {}
