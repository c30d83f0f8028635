package dynparams

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/internal/domain/repository"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// fakeStore serves canned window stats and keeps EMA state in memory.
type fakeStore struct {
	stats map[string]models.WindowStats
	ema   map[string]models.EMAState
	short bool
}

func (f *fakeStore) LockSymbol(string) func() { return func() {} }

func (f *fakeStore) ReadWindow(_ context.Context, _, field string, _, _ int) (models.WindowStats, error) {
	if f.short {
		return models.WindowStats{}, repository.ErrInsufficientHistory
	}
	return f.stats[field], nil
}

func (f *fakeStore) Append(context.Context, models.HistorySample) error { return nil }
func (f *fakeStore) AppendScore(context.Context, string, time.Time, float64) error {
	return nil
}
func (f *fakeStore) RecentScores(context.Context, string, int) ([]float64, error) {
	return nil, nil
}

func (f *fakeStore) EMAState(_ context.Context, symbol string) (models.EMAState, error) {
	return f.ema[symbol], nil
}

func (f *fakeStore) SetEMAState(_ context.Context, symbol string, st models.EMAState) error {
	if f.ema == nil {
		f.ema = map[string]models.EMAState{}
	}
	f.ema[symbol] = st
	return nil
}

func (f *fakeStore) Prune(context.Context, time.Duration) error { return nil }
func (f *fakeStore) Close() error                               { return nil }

func dynCfg() config.Dynamic {
	return config.Dynamic{
		Beta:    config.Coefficient{Base: 0.25, Min: 0.20, Max: 0.40, Span: 10},
		Lambda:  config.Coefficient{Base: 0.45, Min: 0.35, Max: 0.55, Span: 10},
		Alpha:   config.Coefficient{Base: 0.45, Min: 0.35, Max: 0.60, Span: 20},
	}
}

func testSnap() *models.MarketSnapshot {
	return &models.MarketSnapshot{
		Symbol:      "NVDA",
		RelVolTo90D: 1.4,
		OIPctRank:   60,
		IV30:        50,
		HV20:        45,
	}
}

func testStats() map[string]models.WindowStats {
	return map[string]models.WindowStats{
		models.FieldRelVolTo90D: {Mean: 1.0, Stdev: 0.2, Count: 30}, // z = 2
		models.FieldOIPctRank:   {Mean: 50, Stdev: 10, Count: 30},   // z = 1
		models.FieldIV30:        {Mean: 40, Stdev: 5, Count: 30},    // z = 2
		models.FieldHV20:        {Mean: 40, Stdev: 5, Count: 30},    // z = 1
		models.FieldVIX:         {Mean: 18, Stdev: 2, Count: 30},    // z = 2 at vix 22
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEvaluateFirstSeedAndBounds(t *testing.T) {
	store := &fakeStore{stats: testStats()}
	e := New(store, dynCfg(), 60, 10)

	p, err := e.Evaluate(context.Background(), testSnap(), 22)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// beta: 0.25 * (1 + 0.15*2 + 0.10*1) = 0.35, inside bounds.
	if !near(p.BetaRaw, 0.35) || !near(p.Beta, 0.35) {
		t.Fatalf("beta = %v raw %v", p.Beta, p.BetaRaw)
	}
	// lambda: 0.45 * (1 + 0.25*2 - 0.10*1) = 0.63, clamped to 0.55.
	if !near(p.LambdaRaw, 0.55) || !near(p.Lambda, 0.55) {
		t.Fatalf("lambda = %v raw %v", p.Lambda, p.LambdaRaw)
	}
	// alpha: 0.45 * (1 + 0.40*2) = 0.81, clamped to 0.60.
	if !near(p.AlphaRaw, 0.60) || !near(p.Alpha, 0.60) {
		t.Fatalf("alpha = %v raw %v", p.Alpha, p.AlphaRaw)
	}

	st := store.ema["NVDA"]
	if st.Beta == nil || !near(*st.Beta, 0.35) {
		t.Fatalf("ema state not persisted: %+v", st)
	}
}

func TestEvaluateEMASmoothing(t *testing.T) {
	prev := 0.25
	store := &fakeStore{
		stats: testStats(),
		ema:   map[string]models.EMAState{"NVDA": {Beta: &prev}},
	}
	e := New(store, dynCfg(), 60, 10)

	p, err := e.Evaluate(context.Background(), testSnap(), 22)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// alpha_s = 2/11; smoothed = 2/11*0.35 + 9/11*0.25
	want := (2.0/11.0)*0.35 + (9.0/11.0)*0.25
	if !near(p.Beta, want) {
		t.Fatalf("smoothed beta = %v, want %v", p.Beta, want)
	}
	// Lambda had no prior state: seeds with the bounded value.
	if !near(p.Lambda, 0.55) {
		t.Fatalf("lambda = %v", p.Lambda)
	}
}

func TestEvaluateZClamp(t *testing.T) {
	store := &fakeStore{stats: testStats()}
	e := New(store, dynCfg(), 60, 10)

	snap := testSnap()
	snap.RelVolTo90D = 100 // z way past 3
	snap.OIPctRank = 100   // z = 5, clamped to 3

	p, err := e.Evaluate(context.Background(), snap, 22)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// beta raw: 0.25 * (1 + 0.15*3 + 0.10*3) = 0.4375, clamped to 0.40.
	if !near(p.BetaRaw, 0.40) {
		t.Fatalf("beta raw = %v", p.BetaRaw)
	}
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	store := &fakeStore{short: true}
	e := New(store, dynCfg(), 60, 10)

	_, err := e.Evaluate(context.Background(), testSnap(), 22)
	if err == nil || !IsInsufficient(err) {
		t.Fatalf("expected insufficient-history error, got %v", err)
	}
	if _, ok := store.ema["NVDA"]; ok {
		t.Fatalf("ema state must not advance on fallback")
	}
}
