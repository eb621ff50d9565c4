package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal   *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	compositeScore prometheus.Gauge
	alertLevel     *prometheus.GaugeVec
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneypulse_series_fetches_total",
				Help: "Series fetches by provider and outcome (live, cached, fallback, unavailable)",
			},
			[]string{"provider", "outcome"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneypulse_series_cache_total",
				Help: "Series cache lookups by result",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneypulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moneypulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		compositeScore: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "moneypulse_signal_composite_score",
				Help: "Composite debasement score of the latest reading",
			},
		),
		alertLevel: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "moneypulse_signal_alert_level",
				Help: "1 for the alert level of the latest reading, 0 otherwise",
			},
			[]string{"level"},
		),
	}
}

// RecordFetch records the outcome of a single series fetch.
func (r *Recorder) RecordFetch(provider, outcome string) {
	r.fetchesTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordCache records a cache hit or miss.
func (r *Recorder) RecordCache(result string) {
	r.cacheTotal.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSignal publishes the latest reading's level and composite score.
func (r *Recorder) RecordSignal(level string, composite float64) {
	r.compositeScore.Set(composite)
	for _, l := range []string{"NONE", "WATCH", "ELEVATED", "HIGH"} {
		v := 0.0
		if l == level {
			v = 1
		}
		r.alertLevel.WithLabelValues(l).Set(v)
	}
}
