package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrackBets/internal/domain/models"
	drepo "TrackBets/internal/domain/repository"
	"TrackBets/pkg/logger"
)

// Funnel backends.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

var ErrUnknownBackend = errors.New("unknown events backend")

// FunnelProcessor routes funnel events to the configured backend.
type FunnelProcessor struct {
	pub     drepo.EventPublisher
	store   drepo.EventStorage
	metrics drepo.Metrics
	log     *logger.Logger
	backend string
}

func NewFunnelProcessor(
	backend string,
	pub drepo.EventPublisher,
	store drepo.EventStorage,
	metrics drepo.Metrics,
	l *logger.Logger,
) *FunnelProcessor {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = logger.Nop()
	}
	if backend == "" {
		backend = BackendNone
	}
	return &FunnelProcessor{pub: pub, store: store, metrics: metrics, log: l, backend: backend}
}

func (p *FunnelProcessor) Backend() string { return p.backend }

// Process delivers one event.
func (p *FunnelProcessor) Process(ctx context.Context, e *models.FunnelEvent) error {
	if e == nil {
		return errors.New("funnel event is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendNone:
		p.log.Debug("funnel event",
			logger.String("kind", string(e.Kind)),
			logger.String("screen", string(e.Screen)),
			logger.String("ticker", e.Ticker),
		)
	case BackendKafka:
		if p.pub == nil {
			err = errors.New("no kafka publisher")
			break
		}
		err = p.pub.Publish(ctx, e)
	case BackendClickHouse:
		if p.store == nil {
			err = errors.New("no clickhouse storage")
			break
		}
		err = p.store.Store(ctx, e)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownBackend, p.backend)
	}

	if err != nil {
		p.metrics.RecordError("funnel_process")
		return fmt.Errorf("process funnel event: %w", err)
	}

	p.metrics.RecordFunnelEvent(p.backend, string(e.Kind))
	p.metrics.RecordLatency("funnel_process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch delivers several events in one call.
func (p *FunnelProcessor) ProcessBatch(ctx context.Context, events []*models.FunnelEvent) error {
	if len(events) == 0 {
		return nil
	}

	var err error
	switch p.backend {
	case BackendNone:
	case BackendKafka:
		if p.pub == nil {
			err = errors.New("no kafka publisher")
			break
		}
		err = p.pub.PublishBatch(ctx, events)
	case BackendClickHouse:
		if p.store == nil {
			err = errors.New("no clickhouse storage")
			break
		}
		err = p.store.StoreBatch(ctx, events)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownBackend, p.backend)
	}

	if err != nil {
		p.metrics.RecordError("funnel_process_batch")
		return fmt.Errorf("process funnel batch: %w", err)
	}
	for _, e := range events {
		p.metrics.RecordFunnelEvent(p.backend, string(e.Kind))
	}
	return nil
}

// Close closes the underlying publisher and storage.
func (p *FunnelProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
