package repository

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	domrepo "github.com/foreverwb/volatility-analysis/internal/domain/repository"
)

var ctx = context.Background()

func date(d int) time.Time {
	return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func seed(t *testing.T, store *MemoryHistoryStore, symbol string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := store.Append(ctx, models.HistorySample{
			Symbol:      symbol,
			Date:        date(i),
			RelVolTo90D: 1.0 + 0.1*float64(i%5),
			OIPctRank:   50 + float64(i%10),
			IV30:        40 + float64(i%7),
			HV20:        38 + float64(i%3),
			VIX:         16 + float64(i%4),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestReadWindowInsufficientSamples(t *testing.T) {
	store := NewMemoryHistoryStore()
	seed(t, store, "NVDA", 9)

	_, err := store.ReadWindow(ctx, "NVDA", models.FieldIV30, 60, 10)
	if !errors.Is(err, domrepo.ErrInsufficientHistory) {
		t.Fatalf("err = %v", err)
	}

	// One more sample crosses the threshold.
	seed(t, store, "NVDA", 10)
	stats, err := store.ReadWindow(ctx, "NVDA", models.FieldIV30, 60, 10)
	if err != nil {
		t.Fatalf("read window: %v", err)
	}
	if stats.Count != 10 || stats.Stdev <= 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestReadWindowZeroVariance(t *testing.T) {
	store := NewMemoryHistoryStore()
	for i := 0; i < 15; i++ {
		_ = store.Append(ctx, models.HistorySample{
			Symbol: "FLAT", Date: date(i), IV30: 42, HV20: float64(i),
		})
	}
	_, err := store.ReadWindow(ctx, "FLAT", models.FieldIV30, 60, 10)
	if !errors.Is(err, domrepo.ErrInsufficientHistory) {
		t.Fatalf("flat series must be insufficient, got %v", err)
	}
	// A varying field on the same symbol works fine.
	if _, err := store.ReadWindow(ctx, "FLAT", models.FieldHV20, 60, 10); err != nil {
		t.Fatalf("hv20 window: %v", err)
	}
}

func TestReadWindowTrailingWindowOnly(t *testing.T) {
	store := NewMemoryHistoryStore()
	// 70 samples, window 60: the first 10 must fall out of the stats.
	for i := 0; i < 70; i++ {
		v := 10.0
		if i >= 10 {
			v = 20.0 + float64(i%2) // keep variance non-zero
		}
		_ = store.Append(ctx, models.HistorySample{Symbol: "NVDA", Date: date(i), IV30: v})
	}
	stats, err := store.ReadWindow(ctx, "NVDA", models.FieldIV30, 60, 10)
	if err != nil {
		t.Fatalf("read window: %v", err)
	}
	if stats.Count != 60 {
		t.Fatalf("count = %d", stats.Count)
	}
	if stats.Mean < 20 || stats.Mean > 21 {
		t.Fatalf("mean leaked old samples: %v", stats.Mean)
	}
}

func TestAppendIdempotentPerDay(t *testing.T) {
	store := NewMemoryHistoryStore()
	d := date(3)
	_ = store.Append(ctx, models.HistorySample{Symbol: "NVDA", Date: d, IV30: 40})
	_ = store.Append(ctx, models.HistorySample{Symbol: "NVDA", Date: d.Add(5 * time.Hour), IV30: 44})

	store.mu.RLock()
	samples := store.data["NVDA"].samples
	store.mu.RUnlock()

	if len(samples) != 1 {
		t.Fatalf("samples = %d", len(samples))
	}
	if samples[0].IV30 != 44 {
		t.Fatalf("second append must overwrite, iv30 = %v", samples[0].IV30)
	}
}

func TestRecentScoresNewestFirst(t *testing.T) {
	store := NewMemoryHistoryStore()
	for i := 0; i < 8; i++ {
		_ = store.AppendScore(ctx, "NVDA", date(i), float64(i))
	}
	// Same-day overwrite.
	_ = store.AppendScore(ctx, "NVDA", date(7), 99)

	scores, err := store.RecentScores(ctx, "NVDA", 5)
	if err != nil {
		t.Fatalf("recent scores: %v", err)
	}
	want := []float64{99, 6, 5, 4, 3}
	if len(scores) != len(want) {
		t.Fatalf("scores = %v", scores)
	}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("scores = %v", scores)
		}
	}

	if s, _ := store.RecentScores(ctx, "UNKNOWN", 5); s != nil {
		t.Fatalf("unknown symbol should have no scores")
	}
}

func TestEMAStateRoundTrip(t *testing.T) {
	store := NewMemoryHistoryStore()

	st, err := store.EMAState(ctx, "NVDA")
	if err != nil || st.Beta != nil {
		t.Fatalf("fresh symbol: %+v %v", st, err)
	}

	b, l, a := 0.3, 0.5, 0.45
	if err := store.SetEMAState(ctx, "NVDA", models.EMAState{Beta: &b, Lambda: &l, Alpha: &a}); err != nil {
		t.Fatalf("set: %v", err)
	}
	st, _ = store.EMAState(ctx, "NVDA")
	if st.Beta == nil || *st.Beta != 0.3 || *st.Lambda != 0.5 || *st.Alpha != 0.45 {
		t.Fatalf("state = %+v", st)
	}
}

func TestPruneDropsOldSamples(t *testing.T) {
	store := NewMemoryHistoryStore()
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -120)
	_ = store.Append(ctx, models.HistorySample{Symbol: "NVDA", Date: old, IV30: 40})
	_ = store.Append(ctx, models.HistorySample{Symbol: "NVDA", Date: now, IV30: 44})
	_ = store.AppendScore(ctx, "NVDA", old, 1)
	_ = store.AppendScore(ctx, "NVDA", now, 2)

	if err := store.Prune(ctx, 90*24*time.Hour); err != nil {
		t.Fatalf("prune: %v", err)
	}

	store.mu.RLock()
	h := store.data["NVDA"]
	store.mu.RUnlock()
	if len(h.samples) != 1 || len(h.scores) != 1 {
		t.Fatalf("prune left %d samples, %d scores", len(h.samples), len(h.scores))
	}
	if !h.samples[0].Date.Equal(day(now)) {
		t.Fatalf("wrong survivor: %v", h.samples[0].Date)
	}
}

func TestLockSymbolSerializesPerSymbol(t *testing.T) {
	store := NewMemoryHistoryStore()

	var inside int32
	var maxSeen int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.LockSymbol("NVDA")
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("lock admitted %d holders", maxSeen)
	}
}

func TestWindowStatsMath(t *testing.T) {
	store := NewMemoryHistoryStore()
	vals := []float64{10, 12, 14, 16, 18, 20, 22, 24, 26, 28}
	for i, v := range vals {
		_ = store.Append(ctx, models.HistorySample{Symbol: "NVDA", Date: date(i), IV30: v})
	}
	stats, err := store.ReadWindow(ctx, "NVDA", models.FieldIV30, 60, 10)
	if err != nil {
		t.Fatalf("read window: %v", err)
	}
	if stats.Mean != 19 {
		t.Fatalf("mean = %v", stats.Mean)
	}
	// Population stdev of an arithmetic series 10..28 step 2.
	want := math.Sqrt(33)
	if math.Abs(stats.Stdev-want) > 1e-9 {
		t.Fatalf("stdev = %v, want %v", stats.Stdev, want)
	}
}
