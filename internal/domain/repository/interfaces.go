package repository

import (
	"context"
	"time"

	"MarketSentry/internal/domain/models"
)

// TickStream is a live trade feed from an exchange.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickPublisher publishes raw ticks to the message backbone.
type TickPublisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

// TickStorage persists raw ticks.
type TickStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, t *models.Tick) error
	StoreBatch(ctx context.Context, ticks []*models.Tick) error
	Health(ctx context.Context) error
	Close() error
}

// ChainSource reports large on-chain transfers for an asset.
type ChainSource interface {
	LargeTransfers(ctx context.Context, asset string, since time.Time) ([]models.Transfer, error)
}

// FlowSource reports aggregated flow queries (exchange netflow and friends).
type FlowSource interface {
	ExchangeNetflowUSD(ctx context.Context, asset string, since time.Time) (float64, error)
}

// SocialSource reports recent social posts with sentiment scores attached.
type SocialSource interface {
	RecentPosts(ctx context.Context, asset string, since time.Time) ([]models.SocialPost, error)
}

// EventSource reports scheduled macro events inside a window around now.
type EventSource interface {
	Upcoming(ctx context.Context, window time.Duration) ([]models.MacroEvent, error)
}

// PrecedentStore holds historical manipulation episodes keyed by fingerprint.
type PrecedentStore interface {
	Ensure(ctx context.Context, ps []models.Precedent) error
	FindSimilar(ctx context.Context, fp models.Fingerprint, limit int) ([]models.Precedent, []float64, error)
	ByAsset(ctx context.Context, asset string, limit int) ([]models.Precedent, error)
}

// AssessmentStore persists fused risk assessments and issued interventions.
type AssessmentStore interface {
	StoreRisk(ctx context.Context, r *models.RiskScore) error
	StoreIntervention(ctx context.Context, iv *models.Intervention) error
	RecentInterventions(ctx context.Context, asset string, limit int) ([]models.Intervention, error)
}

// AlertPublisher delivers interventions to downstream consumers.
type AlertPublisher interface {
	PublishIntervention(ctx context.Context, iv *models.Intervention) error
	Close() error
}

// Metrics records operational measurements for the pipeline.
type Metrics interface {
	RecordTickSent(backend, symbol string)
	RecordError(kind string)
	RecordAgentLatency(agent string, seconds float64)
	RecordRisk(asset string, confidence float64)
	RecordIntervention(asset string)
}
