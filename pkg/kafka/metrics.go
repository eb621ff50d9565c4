package kafka

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	producerMetricsOnce sync.Once
	producerMetricsInst *producerMetrics
)

// sharedProducerMetrics registers the producer vectors once per process; every producer
// reports into them.
func sharedProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	producerMetricsOnce.Do(func() {
		m := &producerMetrics{
			messages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "moneypulse_kafka_producer_messages_total",
				Help: "Messages handed to Kafka, by outcome.",
			}, []string{"topic", "compression", "result"}),
			bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "moneypulse_kafka_producer_bytes_total",
				Help: "Encoded payload bytes handed to Kafka.",
			}, []string{"topic"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "moneypulse_kafka_producer_write_seconds",
				Help:    "Duration of one batch write.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			}, []string{"topic"}),
		}
		if reg != nil {
			reg.MustRegister(m.messages, m.bytes, m.latency)
		}
		producerMetricsInst = m
	})
	return producerMetricsInst
}

func (m *producerMetrics) observe(topic, comp string, count, size int, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, comp, result).Add(float64(count))
	if err == nil {
		m.bytes.WithLabelValues(topic).Add(float64(size))
	}
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}
