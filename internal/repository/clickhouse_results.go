package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	pkgch "github.com/foreverwb/volatility-analysis/pkg/clickhouse"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
)

const resultsTable = "analysis_results"

var resultsSchema = []string{
	`CREATE TABLE IF NOT EXISTS analysis_results (
        ts              DateTime,
        symbol          LowCardinality(String),
        quadrant        LowCardinality(String),
        confidence      LowCardinality(String),
        liquidity       LowCardinality(String),
        direction_score Float64,
        vol_score       Float64,
        is_squeeze      UInt8,
        payload         String
    ) ENGINE = ReplacingMergeTree()
    PARTITION BY toYYYYMM(ts)
    ORDER BY (symbol, ts)`,
}

// ClickHouseResultStore persists analysis results. The full result document
// rides along as JSON in the payload column; the indexed columns cover the
// query paths (symbol + time range).
type ClickHouseResultStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewClickHouseResultStore(client *pkgch.Client) *ClickHouseResultStore {
	return &ClickHouseResultStore{client: client, db: client.DB()}
}

// SetLogger injects a structured logger.
func (s *ClickHouseResultStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseResultStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, resultsSchema)
}

func (s *ClickHouseResultStore) Store(ctx context.Context, r *models.AnalysisResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s
        (ts, symbol, quadrant, confidence, liquidity, direction_score, vol_score, is_squeeze, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, resultsTable)

	squeeze := uint8(0)
	if r.IsSqueeze {
		squeeze = 1
	}
	_, err = s.db.ExecContext(ctx, q,
		r.Timestamp,
		r.Symbol,
		string(r.Quadrant),
		string(r.Confidence),
		string(r.Liquidity),
		r.DirectionScore,
		r.VolScore,
		squeeze,
		string(payload),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store result",
				applogger.String("symbol", r.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

func (s *ClickHouseResultStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AnalysisResult, error) {
	q := fmt.Sprintf(`SELECT payload FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts DESC LIMIT ?`, resultsTable)

	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AnalysisResult, 0, limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var r models.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			if s.l != nil {
				s.l.Warn("skip undecodable result payload",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseResultStore) Delete(ctx context.Context, symbol string, ts time.Time) error {
	q := fmt.Sprintf("ALTER TABLE %s DELETE WHERE symbol = ? AND ts = ?", resultsTable)
	if _, err := s.db.ExecContext(ctx, q, symbol, ts); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

func (s *ClickHouseResultStore) DeleteByDate(ctx context.Context, date time.Time) error {
	day := date.Truncate(24 * time.Hour)
	q := fmt.Sprintf("ALTER TABLE %s DELETE WHERE ts >= ? AND ts < ?", resultsTable)
	if _, err := s.db.ExecContext(ctx, q, day, day.AddDate(0, 0, 1)); err != nil {
		return fmt.Errorf("delete results by date: %w", err)
	}
	return nil
}

func (s *ClickHouseResultStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseResultStore) Close() error {
	return nil // connection pool owned by pkg client
}

// NoopResultStore satisfies ResultStore when persistence is disabled.
type NoopResultStore struct{}

func (NoopResultStore) Init(context.Context) error                        { return nil }
func (NoopResultStore) Store(context.Context, *models.AnalysisResult) error { return nil }
func (NoopResultStore) Query(context.Context, string, time.Time, time.Time, int) ([]*models.AnalysisResult, error) {
	return nil, nil
}
func (NoopResultStore) Delete(context.Context, string, time.Time) error { return nil }
func (NoopResultStore) DeleteByDate(context.Context, time.Time) error   { return nil }
func (NoopResultStore) Health(context.Context) error                    { return nil }
func (NoopResultStore) Close() error                                    { return nil }
