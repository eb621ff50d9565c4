package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moneypulse",
			Subsystem: "analytics",
			Name:      "latency_seconds",
			Help:      "Latency of analytics operations",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneypulse",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Errors by analytics operation",
		},
		[]string{"operation"},
	)

	ProviderUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "moneypulse",
			Subsystem: "provider",
			Name:      "up",
			Help:      "1 when the last liveness probe of the provider succeeded",
		},
		[]string{"provider"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors, ProviderUp)
	})
}

// Observe records the latency of operation since start and counts err when non-nil.
func Observe(operation string, start time.Time, err error) {
	AnalyticsLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		AnalyticsErrors.WithLabelValues(operation).Inc()
	}
}

// SetProviderUp records a liveness probe result.
func SetProviderUp(provider string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	ProviderUp.WithLabelValues(provider).Set(v)
}
