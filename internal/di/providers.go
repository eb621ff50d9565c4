package di

import (
	"fmt"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/domain/repository"
	"MoneyPulse/internal/handler/api"
	internalrepo "MoneyPulse/internal/repository"
	scache "MoneyPulse/internal/service/cache"
	"MoneyPulse/internal/service/coingecko"
	"MoneyPulse/internal/service/fallback"
	"MoneyPulse/internal/service/fred"
	smetrics "MoneyPulse/internal/service/metrics"
	"MoneyPulse/internal/service/ratelimit"
	"MoneyPulse/internal/service/yahoo"
	"MoneyPulse/internal/services/analytics"
	"MoneyPulse/internal/usecase"
	pcache "MoneyPulse/pkg/cache"
	"MoneyPulse/pkg/config"
	xhttp "MoneyPulse/pkg/http"
	pkgkafka "MoneyPulse/pkg/kafka"
	applogger "MoneyPulse/pkg/logger"
	"MoneyPulse/pkg/metrics"
	"MoneyPulse/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(cfg.Environment != "production"),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger. Errors and warnings are aggregated
// to the log topic when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Kafka.LogTopic,
			Publisher: producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	smetrics.Register()
	return metrics.New()
}

// ProvideAlertPublisher creates the Kafka alert publisher, or nil when Kafka is disabled.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlertPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertTopic, "moneypulse")
}

// ProvideCache creates the series cache backend: in-process LRU, fronting Redis when enabled.
func ProvideCache(cfg *config.Config) (pcache.Service, error) {
	acq := cfg.Acquisition
	if !acq.Redis.Enabled {
		return pcache.NewMemoryCache(
			pcache.WithMemoryMaxSize(acq.CacheSize),
			pcache.WithMemoryDefaultTTL(acq.CacheTTL),
		), nil
	}
	rc, err := pcache.NewRedisCache(
		pcache.WithRedisAddr(acq.Redis.Addr),
		pcache.WithRedisPassword(acq.Redis.Password),
		pcache.WithRedisDB(acq.Redis.DB),
		pcache.WithRedisPrefix(acq.Redis.Prefix),
		pcache.WithRedisPool(acq.Redis.PoolSize, acq.Redis.MinIdleConns, acq.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pcache.NewLayeredCache(rc,
		pcache.WithLayeredMemorySize(acq.CacheSize),
		pcache.WithLayeredMemoryTTL(acq.CacheTTL),
	), nil
}

func ProvideSeriesCache(svc pcache.Service, cfg *config.Config) *scache.SeriesCache {
	return scache.NewSeriesCache(svc, cfg.Acquisition.CacheTTL)
}

// ProvideLimiter spaces calls per provider.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	l := ratelimit.New(0)
	l.SetInterval(yahoo.Name, cfg.Providers.Yahoo.MinInterval)
	l.SetInterval(fred.Name, cfg.Providers.FRED.MinInterval)
	l.SetInterval(coingecko.Name, cfg.Providers.CoinGecko.MinInterval)
	return l
}

// ProvideSourceAdapters creates the upstream data source clients.
func ProvideSourceAdapters(cfg *config.Config) []repository.SourceAdapter {
	p := cfg.Providers
	yopts := []yahoo.Option{yahoo.WithTimeout(p.Yahoo.Timeout)}
	if p.Yahoo.BaseURL != "" {
		yopts = append(yopts, yahoo.WithBaseURL(p.Yahoo.BaseURL))
	}
	return []repository.SourceAdapter{
		yahoo.NewClient(yopts...),
		fred.NewClient(p.FRED.APIKey, p.FRED.BaseURL, p.FRED.Timeout),
		coingecko.NewClient(p.CoinGecko.APIKey, p.CoinGecko.BaseURL, p.CoinGecko.Timeout),
	}
}

// ProvideFallback returns the synthetic generator, or nil when fallbacks are disabled.
func ProvideFallback(cfg *config.Config) *fallback.Generator {
	if !cfg.Acquisition.Fallback {
		return nil
	}
	return fallback.NewGenerator()
}

func ProvideAcquirer(
	cfg *config.Config,
	adapters []repository.SourceAdapter,
	limiter *ratelimit.Limiter,
	cache *scache.SeriesCache,
	gen *fallback.Generator,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Acquirer {
	acq := cfg.Acquisition
	return usecase.NewAcquirer(adapters,
		usecase.WithLimiter(limiter),
		usecase.WithSeriesCache(cache),
		usecase.WithFallback(gen),
		usecase.WithAcquirerMetrics(m),
		usecase.WithAcquirerLogger(log.Component("acquisition")),
		usecase.WithRetryBackoff(acq.RetryBackoff),
		usecase.WithFetchTimeout(acq.FetchTimeout),
		usecase.WithBreaker(acq.BreakerTrip, acq.BreakerOpen),
	)
}

// ProvideQuantityTheoryEngine resamples M2, velocity and output onto the slowest of the three,
// carrying values no older than the signal staleness bound.
func ProvideQuantityTheoryEngine(cfg *config.Config) *analytics.QuantityTheoryEngine {
	return analytics.NewQuantityTheoryEngine(
		analytics.WithAlignment(analytics.AlignForwardFill),
		analytics.WithMaxStaleness(cfg.Signal.MaxStaleness),
	)
}

func ProvideReturnsAnalyzer(cfg *config.Config) *analytics.ReturnsAnalyzer {
	return analytics.NewReturnsAnalyzer(cfg.Analysis.RiskFreeRate)
}

func ProvideSignalDetector(cfg *config.Config) (*analytics.SignalDetector, error) {
	s := cfg.Signal
	sc := analytics.DefaultSignalConfig()
	sc.DivergenceWeight = s.DivergenceWeight
	sc.MomentumWeight = s.MomentumWeight
	sc.AccelerationWeight = s.AccelerationWeight
	sc.WatchThreshold = s.WatchThreshold
	sc.ElevatedThreshold = s.ElevatedThreshold
	sc.HighThreshold = s.HighThreshold
	sc.ClipBound = s.ClipBound
	sc.Window = s.Window
	sc.MomentumLookback = s.MomentumLookback
	sc.DivergenceScale = s.DivergenceScale
	sc.MomentumScale = s.MomentumScale
	sc.AccelerationScale = s.AccelerationScale
	sc.MaxStaleness = s.MaxStaleness
	d, err := analytics.NewSignalDetector(sc)
	if err != nil {
		return nil, fmt.Errorf("signal detector: %w", err)
	}
	return d, nil
}

func ProvidePipelineConfig(cfg *config.Config) (usecase.PipelineConfig, error) {
	pc := usecase.DefaultPipelineConfig()
	pc.TopN = cfg.Analysis.TopN
	pc.HedgeAsset = cfg.Signal.HedgeAsset
	if len(cfg.Analysis.Assets) > 0 {
		pc.DefaultAssets = cfg.Analysis.Assets
	}
	if cfg.Signal.History > 0 {
		pc.SignalHistory = cfg.Signal.History
	}
	period, err := models.ParsePeriod(cfg.Analysis.DefaultPeriod)
	if err != nil {
		return pc, fmt.Errorf("analysis.default_period: %w", err)
	}
	pc.DefaultPeriod = period
	return pc, nil
}

func ProvidePipeline(
	acq *usecase.Acquirer,
	engine *analytics.QuantityTheoryEngine,
	returns *analytics.ReturnsAnalyzer,
	detector *analytics.SignalDetector,
	pub repository.AlertPublisher,
	m repository.Metrics,
	log *applogger.Logger,
	pc usecase.PipelineConfig,
) *usecase.Pipeline {
	opts := []usecase.PipelineOption{
		usecase.WithPipelineMetrics(m),
		usecase.WithPipelineLogger(log.Component("pipeline")),
		usecase.WithPipelineConfig(pc),
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return usecase.NewPipeline(acq, engine, returns, detector, opts...)
}

// ProvideHTTPHandler registers the analytics routes.
func ProvideHTTPHandler(log *applogger.Logger, p *usecase.Pipeline, acq *usecase.Acquirer) xhttp.Handler {
	return api.NewAnalyticsEchoHandler(log.Component("http"), p, acq)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	p *usecase.Pipeline,
	acq *usecase.Acquirer,
	h xhttp.Handler,
	cache pcache.Service,
	pub repository.AlertPublisher,
) *server.App {
	app := server.New(cfg, log, p, acq, h)
	app.AddCloser(cache)
	// the publisher owns the producer
	if pub != nil {
		app.AddCloser(pub)
	}
	return app
}
