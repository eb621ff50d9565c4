package repository

import (
	"context"
	"time"

	"MoneyPulse/internal/domain/models"
)

// SourceAdapter fetches one category of raw series from an external provider.
type SourceAdapter interface {
	// Name is the provider key used for routing, rate limiting and cache keys.
	Name() string
	FetchSeries(ctx context.Context, identifier string, start, end time.Time) ([]models.RawRow, error)
	// Ping is a cheap liveness probe.
	Ping(ctx context.Context) error
}

// AlertPublisher ships signal readings to downstream consumers.
type AlertPublisher interface {
	PublishReading(ctx context.Context, r models.SignalReading) error
	Close() error
}

type Metrics interface {
	RecordFetch(provider, outcome string)
	RecordCache(result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSignal(level string, composite float64)
}
