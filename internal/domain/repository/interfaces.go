package repository

import (
	"context"

	"TrackBets/internal/domain/models"
)

// AnalysisService is the remote analysis collaborator.
type AnalysisService interface {
	Analyze(ctx context.Context, ticker string) (*models.Payload, error)
	Search(ctx context.Context, query string) (*models.SearchResult, error)
	Health(ctx context.Context) (*models.Health, error)
}

// UserStore persists the single local account under models.UserStorageKey.
// Load returns (nil, nil) when nobody signed up yet.
type UserStore interface {
	Load(ctx context.Context) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
	Clear(ctx context.Context) error
}

type PriceStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Close() error
	IsConnected() bool
}

type EventPublisher interface {
	Publish(ctx context.Context, e *models.FunnelEvent) error
	PublishBatch(ctx context.Context, events []*models.FunnelEvent) error
	Close() error
}

type EventStorage interface {
	Init(ctx context.Context) error // ensure tables
	Store(ctx context.Context, e *models.FunnelEvent) error
	StoreBatch(ctx context.Context, events []*models.FunnelEvent) error
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordAnalysis(source, signal string)
	RecordFunnelEvent(backend, kind string)
	RecordError(kind string)
	RecordLastPrice(ticker string, price float64)
	RecordLatency(op string, seconds float64)
}
