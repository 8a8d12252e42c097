package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TrackBets/internal/domain/models"
	drepo "TrackBets/internal/domain/repository"
	pkgkafka "TrackBets/pkg/kafka"
)

// FunnelIngest consumes funnel events from Kafka and writes them to storage.
type FunnelIngest struct {
	topic   string
	storage drepo.EventStorage
	metrics drepo.Metrics
	now     func() time.Time
}

func NewFunnelIngest(topic string, storage drepo.EventStorage, metrics drepo.Metrics) *FunnelIngest {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &FunnelIngest{topic: topic, storage: storage, metrics: metrics, now: time.Now}
}

func (h *FunnelIngest) Topic() string { return h.topic }

func (h *FunnelIngest) Handle(ctx context.Context, b []byte) error {
	var e models.FunnelEvent
	if err := json.Unmarshal(b, &e); err != nil {
		h.metrics.RecordError("ingest_unmarshal")
		return fmt.Errorf("decode funnel event: %w", err)
	}
	if e.Kind == "" {
		h.metrics.RecordError("ingest_invalid")
		return fmt.Errorf("funnel event %s has no kind", e.ID)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = h.now().UTC()
	}
	// events are keyed by session; older producers left the body field empty
	if e.SessionID == uuid.Nil {
		if id, err := uuid.Parse(pkgkafka.EventKey(ctx)); err == nil {
			e.SessionID = id
		}
	}
	h.metrics.RecordLatency("ingest_e2e", h.now().Sub(e.Timestamp).Seconds())

	start := h.now()
	err := h.storage.Store(ctx, &e)
	h.metrics.RecordLatency("ingest_store", h.now().Sub(start).Seconds())
	if err != nil {
		h.metrics.RecordError("ingest_store")
		return err
	}
	h.metrics.RecordFunnelEvent(BackendClickHouse, string(e.Kind))
	return nil
}

var _ pkgkafka.MessageHandler = (*FunnelIngest)(nil)
