package repository

import (
	"context"
	"time"

	"MoneyPulse/internal/domain/models"
	"MoneyPulse/internal/domain/repository"
	pkgkafka "MoneyPulse/pkg/kafka"
)

// messageProducer is the subset of the Kafka producer used for alerts.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaAlertPublisher implements AlertPublisher for Kafka.
type KafkaAlertPublisher struct {
	producer messageProducer
	topic    string
	source   string
}

var _ repository.AlertPublisher = (*KafkaAlertPublisher)(nil)

// NewKafkaAlertPublisher creates a Kafka alert publisher. Messages are keyed by alert level.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic, source string) *KafkaAlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic, source: source}
}

type alertMessage struct {
	Type           string    `json:"type"`
	Source         string    `json:"source,omitempty"`
	Time           time.Time `json:"time"`
	Level          string    `json:"level"`
	Composite      float64   `json:"composite"`
	Divergence     *float64  `json:"divergence_score,omitempty"`
	Momentum       *float64  `json:"momentum_score,omitempty"`
	Acceleration   *float64  `json:"money_acceleration_score,omitempty"`
	DominantDriver string    `json:"dominant_driver,omitempty"`
	Recommendation string    `json:"recommendation"`
}

func (p *KafkaAlertPublisher) PublishReading(ctx context.Context, r models.SignalReading) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Level.String()), alertMessage{
		Type:           "debasement_signal",
		Source:         p.source,
		Time:           r.Time,
		Level:          r.Level.String(),
		Composite:      r.Composite,
		Divergence:     r.DivergenceScore,
		Momentum:       r.MomentumScore,
		Acceleration:   r.MoneyAccelerationScore,
		DominantDriver: string(r.DominantDriver),
		Recommendation: r.Recommendation,
	})
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
