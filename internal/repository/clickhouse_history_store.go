package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CostCast/internal/domain/models"
	domrepo "CostCast/internal/domain/repository"
	pkgch "CostCast/pkg/clickhouse"
	applogger "CostCast/pkg/logger"
	"CostCast/pkg/util"
)

// HistorySchema returns the DDL for the history table.
func HistorySchema(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            dataset LowCardinality(String),
            ds      Date,
            y       Float64
        ) ENGINE = ReplacingMergeTree
        ORDER BY (dataset, ds)`, table),
	}
}

// CHHistoryStore implements HistoryStore backed by ClickHouse.
type CHHistoryStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHHistoryStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHHistoryStore{db: ch.DB(), table: table, l: l}
}

func (s *CHHistoryStore) Load(ctx context.Context, dataset string) (models.ForecastSeries, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT ds, y
        FROM %s FINAL
        WHERE dataset = ?
        ORDER BY ds ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, dataset)
	if err != nil {
		s.l.Error("clickhouse history query error",
			applogger.String("table", s.table),
			applogger.String("dataset", dataset),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make(models.ForecastSeries, 0, 128)
	for rows.Next() {
		var p models.ForecastPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			s.l.Error("clickhouse history scan error",
				applogger.String("table", s.table),
				applogger.String("dataset", dataset),
				applogger.Error(err),
			)
			return nil, fmt.Errorf("scan history: %w", err)
		}
		p.Date = util.MonthStart(p.Date)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("dataset %s has no history rows", dataset)
	}

	s.l.Debug("clickhouse history ok",
		applogger.String("dataset", dataset),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// Import writes a dataset's series in chunked multi-row inserts.
func (s *CHHistoryStore) Import(ctx context.Context, dataset string, series models.ForecastSeries) error {
	const chunkSize = 2000
	for start := 0; start < len(series); start += chunkSize {
		end := start + chunkSize
		if end > len(series) {
			end = len(series)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, p := range series[start:end] {
			values = append(values, "(?, ?, ?)")
			args = append(args, dataset, util.MonthStart(p.Date), p.Value)
		}
		q := fmt.Sprintf("INSERT INTO %s (dataset, ds, y) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("import %s: %w", dataset, err)
		}
	}
	return nil
}

func (s *CHHistoryStore) Close() error {
	return nil // Managed by pkg
}

var _ domrepo.HistoryStore = (*CHHistoryStore)(nil)
