package repository

import (
	"context"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

// IndicatorSource provides per-country annual series from a statistics API.
// Implementations cache with a time-based expiry and absorb transient network
// failure by returning an empty series / absent observation, never an error
// that would propagate into the aggregation core.
type IndicatorSource interface {
	FetchSeries(ctx context.Context, code, indicator string) (models.Series, error)
	FetchLatest(ctx context.Context, code, indicator string) (models.Observation, bool, error)
	Countries(ctx context.Context) ([]models.Country, error)
}

// GroupResolver turns a user selection (explicit code list or preset key)
// into an immutable Group.
type GroupResolver interface {
	Resolve(selection models.Selection) (models.Group, error)
	Presets() []models.Group
}

// SnapshotPublisher publishes archived observations to a message broker.
type SnapshotPublisher interface {
	Publish(ctx context.Context, s *models.Snapshot) error
	PublishBatch(ctx context.Context, snaps []*models.Snapshot) error
	Close() error
}

// SnapshotStore persists archived observations.
type SnapshotStore interface {
	Store(ctx context.Context, s *models.Snapshot) error
	StoreBatch(ctx context.Context, snaps []*models.Snapshot) error
	QuerySeries(ctx context.Context, code, indicator string) (models.Series, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordFetch(indicator, country string)
	RecordCacheHit(kind string)
	RecordCacheMiss(kind string)
	RecordSnapshotRouted(backend, indicator string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
