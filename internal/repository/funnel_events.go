package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TrackBets/internal/domain/models"
	"TrackBets/internal/domain/repository"
	pkgkafka "TrackBets/pkg/kafka"
)

// DefaultFunnelTable holds one row per funnel event.
const DefaultFunnelTable = "funnel_events"

const funnelColumns = "(ts, event_id, session_id, kind, screen, ticker, intent, detail)"

// FunnelSchema returns the DDL for the funnel table.
func FunnelSchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts         DateTime64(3, 'UTC'),
            event_id   UUID,
            session_id UUID,
            kind       LowCardinality(String),
            screen     LowCardinality(String),
            ticker     String,
            intent     LowCardinality(String),
            detail     String
        )
        ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (kind, ts, event_id)
    `, table)}
}

// ClickHouseEventStorage writes funnel events to ClickHouse.
type ClickHouseEventStorage struct {
	db    *sql.DB
	table string
}

func NewClickHouseEventStorage(db *sql.DB, table string) repository.EventStorage {
	if table == "" {
		table = DefaultFunnelTable
	}
	return &ClickHouseEventStorage{db: db, table: table}
}

func (s *ClickHouseEventStorage) Init(ctx context.Context) error {
	for _, stmt := range FunnelSchema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *ClickHouseEventStorage) Store(ctx context.Context, e *models.FunnelEvent) error {
	return s.StoreBatch(ctx, []*models.FunnelEvent{e})
}

func (s *ClickHouseEventStorage) StoreBatch(ctx context.Context, events []*models.FunnelEvent) error {
	const chunkSize = 2000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}
		q, args := insertFunnelQuery(s.table, events[start:end])
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert funnel events: %w", err)
		}
	}
	return nil
}

// insertFunnelQuery builds one multi-row insert, skipping events without a
// kind. It returns an empty query when nothing is left.
func insertFunnelQuery(table string, events []*models.FunnelEvent) (string, []interface{}) {
	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*8)
	for _, e := range events {
		if e == nil || e.Kind == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.Timestamp.UTC(),
			e.ID.String(),
			e.SessionID.String(),
			string(e.Kind),
			string(e.Screen),
			e.Ticker,
			string(e.Intent),
			e.Detail,
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	return fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, funnelColumns, strings.Join(values, ",")), args
}

func (s *ClickHouseEventStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the connection belongs to pkg/clickhouse.Client.
func (s *ClickHouseEventStorage) Close() error { return nil }

// KafkaEventPublisher publishes funnel events keyed by session.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e *models.FunnelEvent) error {
	return p.producer.Publish(ctx, p.topic, eventKey(e), e)
}

func (p *KafkaEventPublisher) PublishBatch(ctx context.Context, events []*models.FunnelEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: eventKey(e), Value: e})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// eventKey keeps one session's events on one partition.
func eventKey(e *models.FunnelEvent) []byte {
	return []byte(e.SessionID.String())
}
