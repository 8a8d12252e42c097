package repository

import (
	"context"
	"time"

	"TrackBets/internal/domain/models"
)

// FunnelReader provides read-only aggregates over stored funnel events.
type FunnelReader interface {
	CountByKind(ctx context.Context, from, to time.Time, kind string) ([]models.FunnelCount, error)
}
