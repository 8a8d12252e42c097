package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TrackBets/internal/domain/models"
	domrepo "TrackBets/internal/domain/repository"
	pkgch "TrackBets/pkg/clickhouse"
	applogger "TrackBets/pkg/logger"
)

// CHFunnelReader implements FunnelReader backed by ClickHouse.
type CHFunnelReader struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHFunnelReader(ch *pkgch.Client, table string) *CHFunnelReader {
	if table == "" {
		table = DefaultFunnelTable
	}
	return &CHFunnelReader{db: ch.DB(), table: table, l: applogger.Nop()}
}

// SetLogger injects a structured logger.
func (r *CHFunnelReader) SetLogger(l *applogger.Logger) {
	if l != nil {
		r.l = l
	}
}

// countQuery returns the aggregate statement and its arguments. An empty kind
// counts every kind.
func countQuery(table string, from, to time.Time, kind string) (string, []interface{}) {
	q := fmt.Sprintf("SELECT kind, count() AS n FROM %s FINAL WHERE ts >= ? AND ts <= ?", table)
	args := []interface{}{from.UTC(), to.UTC()}
	if kind != "" {
		q += " AND kind = ?"
		args = append(args, kind)
	}
	q += " GROUP BY kind ORDER BY n DESC, kind ASC"
	return q, args
}

func (r *CHFunnelReader) CountByKind(ctx context.Context, from, to time.Time, kind string) ([]models.FunnelCount, error) {
	start := time.Now()
	q, args := countQuery(r.table, from, to, kind)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.l.Error("clickhouse funnel count query error",
			applogger.String("table", r.table),
			applogger.String("kind", kind),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("count funnel events: %w", err)
	}
	defer rows.Close()

	out := make([]models.FunnelCount, 0, len(models.FunnelKinds))
	for rows.Next() {
		var c models.FunnelCount
		if err := rows.Scan(&c.Kind, &c.Count); err != nil {
			return nil, fmt.Errorf("scan funnel count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	r.l.Debug("clickhouse funnel count ok",
		applogger.String("table", r.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

var _ domrepo.FunnelReader = (*CHFunnelReader)(nil)
