package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	applogger "MoneyPulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneypulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status class",
		},
		[]string{"route", "method", "class"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moneypulse",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration. Analytics routes fan out to upstream providers, hence the long tail buckets.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"route", "method", "class"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "moneypulse",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served",
		},
	)

	regOnce sync.Once
)

// Metrics records request metrics labelled by route template, and logs 5xx answers and
// requests slower than slowThreshold. Unmatched routes share the "unmatched" label.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	regOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, httpInFlight)
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			httpInFlight.Inc()
			defer httpInFlight.Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				// let echo render the error so the recorded status is the one sent
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			class := statusClass(status)
			dur := time.Since(start)

			httpRequests.WithLabelValues(route, method, class).Inc()
			httpDuration.WithLabelValues(route, method, class).Observe(dur.Seconds())

			if l == nil {
				return nil
			}
			fields := []applogger.Field{
				applogger.String("route", route),
				applogger.String("method", method),
				applogger.String("status", strconv.Itoa(status)),
				applogger.Duration("duration", dur),
				applogger.Int64("bytes", c.Response().Size),
			}
			switch {
			case status >= http.StatusInternalServerError:
				l.Error("http request failed", fields...)
			case slowThreshold > 0 && dur >= slowThreshold:
				l.Warn("http request slow", fields...)
			}
			return nil
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
