package repository

import (
	"context"
	"errors"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
)

// ErrInsufficientHistory is returned by window queries when fewer than the
// minimum number of samples exist, or when the window has zero variance.
// Callers fall back to the non-adaptive scoring path; it is never fatal.
var ErrInsufficientHistory = errors.New("history: insufficient samples")

// HistoryStore keeps the per-symbol rolling sample window, the dynamic
// parameter EMA state, and recent direction scores.
//
// ReadWindow must return statistics over samples strictly preceding the
// current evaluation's own sample: callers read first and append after
// scoring. LockSymbol serializes that read-then-append sequence per symbol
// while leaving distinct symbols fully parallel.
type HistoryStore interface {
	// LockSymbol acquires the per-symbol lock and returns its release func.
	LockSymbol(symbol string) (unlock func())

	// ReadWindow returns mean/stdev of the trailing `window` samples of one
	// metric field. ErrInsufficientHistory when count < minSamples or the
	// stdev is zero.
	ReadWindow(ctx context.Context, symbol, field string, window, minSamples int) (models.WindowStats, error)

	// Append stores a sample, overwriting any sample with the same
	// (symbol, date) key.
	Append(ctx context.Context, sample models.HistorySample) error

	// AppendScore records a dated direction score, same-day overwrite.
	AppendScore(ctx context.Context, symbol string, date time.Time, score float64) error

	// RecentScores returns up to n most recent direction scores, newest first.
	RecentScores(ctx context.Context, symbol string, n int) ([]float64, error)

	// EMAState returns the persisted smoothing state for a symbol.
	EMAState(ctx context.Context, symbol string) (models.EMAState, error)

	// SetEMAState persists the smoothing state for a symbol.
	SetEMAState(ctx context.Context, symbol string, state models.EMAState) error

	// Prune drops samples and scores older than the retention cutoff.
	Prune(ctx context.Context, olderThan time.Duration) error

	Close() error
}

// ResultStore persists analysis results (write-once per symbol+timestamp).
type ResultStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, r *models.AnalysisResult) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.AnalysisResult, error)
	Delete(ctx context.Context, symbol string, ts time.Time) error
	DeleteByDate(ctx context.Context, date time.Time) error
	Health(ctx context.Context) error
	Close() error
}

// Publisher pushes evaluated results to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, r *models.AnalysisResult) error
	PublishBatch(ctx context.Context, rs []*models.AnalysisResult) error
	Close() error
}

// Metrics records operational metrics for the scoring pipeline.
type Metrics interface {
	RecordAnalysis(symbol string, quadrant string)
	RecordError(kind string)
	RecordMissingFields(symbol string, n int)
	RecordVIXFallback()
	RecordDynamicParams(symbol string, beta, lambda, alpha float64)
	RecordLatency(op string, seconds float64)
}
