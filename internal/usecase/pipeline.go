package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MoneyPulse/internal/domain/models"
	drepo "MoneyPulse/internal/domain/repository"
	domsvc "MoneyPulse/internal/domain/service"
	"MoneyPulse/internal/service/fallback"
	smetrics "MoneyPulse/internal/service/metrics"
	"MoneyPulse/internal/services/analytics"
	"MoneyPulse/pkg/logger"
	"MoneyPulse/pkg/util"
)

// PipelineConfig holds the query defaults of the analytics pipeline.
type PipelineConfig struct {
	TopN          int
	HedgeAsset    string
	DefaultAssets []string
	// DefaultPeriod applies when a returns query names no period.
	DefaultPeriod models.Period
	// SignalHistory is the default range of a signal query.
	SignalHistory time.Duration
	// SignalMargin is fetched before a signal range so trailing baselines are warm.
	SignalMargin time.Duration
	// IndexMargin is fetched before a returns window so the price index has a value at its start.
	IndexMargin time.Duration
	// AllHistory bounds the ALL period.
	AllHistory time.Duration
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		TopN:          5,
		HedgeAsset:    "BTC-USD",
		DefaultAssets: fallback.DefaultSymbols(),
		DefaultPeriod: models.Period5Y,
		SignalHistory: 5 * 365 * 24 * time.Hour,
		SignalMargin:  2 * 365 * 24 * time.Hour,
		IndexMargin:   120 * 24 * time.Hour,
		AllHistory:    30 * 365 * 24 * time.Hour,
	}
}

// Pipeline composes acquisition and the analytics engines into the inbound operations.
type Pipeline struct {
	fetcher   domsvc.DatasetFetcher
	engine    domsvc.PriceLevelEngine
	returns   domsvc.ReturnsAnalyzer
	detector  domsvc.SignalDetector
	publisher drepo.AlertPublisher
	metrics   drepo.Metrics
	log       *logger.Logger
	cfg       PipelineConfig
	now       func() time.Time
}

type PipelineOption func(*Pipeline)

func WithPublisher(p drepo.AlertPublisher) PipelineOption { return func(pl *Pipeline) { pl.publisher = p } }

func WithPipelineMetrics(m drepo.Metrics) PipelineOption {
	return func(pl *Pipeline) {
		if m != nil {
			pl.metrics = m
		}
	}
}

func WithPipelineLogger(l *logger.Logger) PipelineOption {
	return func(pl *Pipeline) {
		if l != nil {
			pl.log = l
		}
	}
}

func WithPipelineConfig(c PipelineConfig) PipelineOption { return func(pl *Pipeline) { pl.cfg = c } }

func WithPipelineClock(now func() time.Time) PipelineOption { return func(pl *Pipeline) { pl.now = now } }

func NewPipeline(fetcher domsvc.DatasetFetcher, engine domsvc.PriceLevelEngine, returns domsvc.ReturnsAnalyzer, detector domsvc.SignalDetector, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		engine:   engine,
		returns:  returns,
		detector: detector,
		metrics:  nopMetrics{},
		log:      logger.Nop(),
		cfg:      DefaultPipelineConfig(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// GetDataset fetches the named series over [start, end].
func (p *Pipeline) GetDataset(ctx context.Context, names []string, start, end time.Time) (ds *models.Dataset, err error) {
	defer observe("dataset", time.Now(), &err)
	names = util.Dedupe(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no series requested: %w", models.ErrInvalidRange)
	}
	end = p.endOrToday(end)
	if start.IsZero() {
		start = end.AddDate(-1, 0, 0)
	}
	return p.fetcher.Fetch(ctx, names, util.StartOfDay(start), end)
}

// GetRealReturns analyses assets over period ending at end. CPI is required; the
// quantity-theory measures are left undefined when its inputs are missing.
func (p *Pipeline) GetRealReturns(ctx context.Context, assets []string, period models.Period, end time.Time) (rep *models.ReturnsReport, err error) {
	defer observe("returns", time.Now(), &err)
	if period == "" {
		period = p.cfg.DefaultPeriod
	}
	if !period.IsValid() {
		return nil, fmt.Errorf("period %q: %w", period, models.ErrInvalidRange)
	}
	assets = util.Dedupe(assets)
	if len(assets) == 0 {
		assets = p.cfg.DefaultAssets
	}
	end = p.endOrToday(end)
	start := period.Start(end)
	if start.IsZero() {
		start = end.Add(-p.cfg.AllHistory)
	}

	names := append(append([]string{}, MacroSeries...), assets...)
	ds, err := p.fetcher.Fetch(ctx, names, start.Add(-p.cfg.IndexMargin), end)
	if err != nil {
		return nil, err
	}
	if err := ds.Require(SeriesCPI); err != nil {
		return nil, err
	}

	rep = &models.ReturnsReport{
		Period:       period,
		End:          end,
		RiskFreeRate: p.returns.RiskFree(),
		Catalog:      ds.Catalog(),
	}
	cpi, _ := ds.Series(SeriesCPI)
	qt, warn := p.priceLevel(ds)
	if warn != "" {
		rep.Warnings = append(rep.Warnings, warn)
	}

	prices := make(map[string]models.TimeSeries, len(assets))
	for _, a := range assets {
		s, ok := ds.Series(a)
		if !ok {
			rep.Missing = append(rep.Missing, a)
			continue
		}
		prices[a] = s
	}

	records := p.returns.Analyze(prices, cpi, qt, period, end)
	for name, r := range records {
		r.DisplayName = fallback.DisplayName(name)
		if r.ScopedToOwnHistory {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: history shorter than %s, window starts at %s", name, period, util.FormatDate(r.Start)))
		}
		records[name] = r
	}
	rep.Records = records
	rep.RankByCPIReal = analytics.Rank(records, models.RankCPIReal)
	rep.RankByQTReal = analytics.Rank(records, models.RankQTReal)
	rep.TopPerformers = analytics.TopPerformers(records, models.RankCPIReal, p.cfg.TopN)
	rep.Correlations = analytics.RealReturnCorrelations(prices, cpi, period, end)
	return rep, nil
}

// GetSignalRange classifies every timestamp in [start, end].
func (p *Pipeline) GetSignalRange(ctx context.Context, start, end time.Time) (rep *models.SignalReport, err error) {
	defer observe("signal", time.Now(), &err)
	end = p.endOrToday(end)
	if start.IsZero() {
		start = end.Add(-p.cfg.SignalHistory)
	}
	start = util.StartOfDay(start)
	if end.Before(start) {
		return nil, fmt.Errorf("signal %s..%s: %w", util.FormatDate(start), util.FormatDate(end), models.ErrInvalidRange)
	}

	names := append(append([]string{}, MacroSeries...), p.cfg.HedgeAsset)
	ds, err := p.fetcher.Fetch(ctx, names, start.Add(-p.cfg.SignalMargin), end)
	if err != nil {
		return nil, err
	}

	cpi, _ := ds.Series(SeriesCPI)
	money, _ := ds.Series(SeriesM2)
	hedge, _ := ds.Series(p.cfg.HedgeAsset)
	qt, warn := p.priceLevel(ds)
	if warn != "" {
		p.log.Warn("signal without quantity-theory inflation", logger.String("reason", warn))
	}

	readings := p.detector.Detect(p.engine.ImpliedInflation(cpi), p.engine.ImpliedInflation(qt), hedge, money, start, end)
	rep = &models.SignalReport{
		Start:    start,
		End:      end,
		Readings: readings,
		Catalog:  ds.Catalog(),
		Missing:  ds.Missing(names...),
	}
	if len(readings) > 0 {
		last := readings[len(readings)-1]
		rep.Latest = &last
	}
	return rep, nil
}

// GetSignal returns the reading in effect at asOf: the last one at or before it.
// A NoData reading is returned when no indicator is available.
func (p *Pipeline) GetSignal(ctx context.Context, asOf time.Time) (*models.SignalReport, error) {
	asOf = p.endOrToday(asOf)
	rep, err := p.GetSignalRange(ctx, asOf.Add(-p.cfg.SignalHistory), asOf)
	if err != nil {
		return nil, err
	}
	if rep.Latest == nil {
		r := p.detector.Reading(asOf, nil)
		rep.Latest = &r
	}
	rep.Readings = nil

	latest := *rep.Latest
	p.metrics.RecordSignal(latest.Level.String(), latest.Composite)
	p.publish(ctx, latest)
	return rep, nil
}

func (p *Pipeline) publish(ctx context.Context, r models.SignalReading) {
	if p.publisher == nil || r.NoData || r.Level < models.AlertWatch {
		return
	}
	if err := p.publisher.PublishReading(ctx, r); err != nil {
		p.metrics.RecordError("alert_publish")
		p.log.Error("publish signal reading", logger.Error(err), logger.String("level", r.Level.String()))
		return
	}
	p.log.Info("signal reading published",
		logger.String("level", r.Level.String()),
		logger.Float64("composite", r.Composite),
		logger.Time("at", r.Time))
}

// priceLevel computes P from the dataset. A non-empty warning explains why P is empty.
func (p *Pipeline) priceLevel(ds *models.Dataset) (models.TimeSeries, string) {
	if missing := ds.Missing(SeriesM2, SeriesVelocity, SeriesGDP); len(missing) > 0 {
		return models.TimeSeries{Name: analytics.PriceLevelSeries}, fmt.Sprintf("quantity-theory inputs unavailable: %v", missing)
	}
	m, _ := ds.Series(SeriesM2)
	v, _ := ds.Series(SeriesVelocity)
	q, _ := ds.Series(SeriesGDP)
	pl, err := p.engine.ComputePriceLevel(m, v, q)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientAlignment) {
			return pl, "quantity-theory inputs do not overlap"
		}
		return models.TimeSeries{Name: analytics.PriceLevelSeries}, err.Error()
	}
	return pl, ""
}

func (p *Pipeline) endOrToday(t time.Time) time.Time {
	if t.IsZero() {
		t = p.now()
	}
	return util.StartOfDay(t)
}

func observe(op string, start time.Time, err *error) {
	smetrics.Observe(op, start, *err)
}
