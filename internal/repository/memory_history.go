package repository

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	domrepo "github.com/foreverwb/volatility-analysis/internal/domain/repository"
)

// symbolHistory is one symbol's rolling state. Samples and scores are kept
// sorted by date ascending; idempotency is per calendar day.
type symbolHistory struct {
	samples []models.HistorySample
	scores  []models.ScoreEntry
	ema     models.EMAState
}

// MemoryHistoryStore is the default HistoryStore: per-symbol sample windows,
// scores and EMA state held in process memory. The per-symbol lock map
// serializes the read-then-append sequence for one symbol while distinct
// symbols proceed in parallel.
type MemoryHistoryStore struct {
	mu    sync.RWMutex
	data  map[string]*symbolHistory
	locks sync.Map // symbol -> *sync.Mutex
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{data: make(map[string]*symbolHistory)}
}

func (m *MemoryHistoryStore) LockSymbol(symbol string) func() {
	v, _ := m.locks.LoadOrStore(symbol, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (m *MemoryHistoryStore) ReadWindow(_ context.Context, symbol, field string, window, minSamples int) (models.WindowStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.data[symbol]
	if !ok || len(h.samples) < minSamples {
		return models.WindowStats{}, domrepo.ErrInsufficientHistory
	}

	samples := h.samples
	if len(samples) > window {
		samples = samples[len(samples)-window:]
	}

	var sum float64
	n := 0
	for _, s := range samples {
		if v, ok := s.Field(field); ok {
			sum += v
			n++
		}
	}
	if n < minSamples {
		return models.WindowStats{}, domrepo.ErrInsufficientHistory
	}
	mean := sum / float64(n)

	var ss float64
	for _, s := range samples {
		if v, ok := s.Field(field); ok {
			d := v - mean
			ss += d * d
		}
	}
	stdev := math.Sqrt(ss / float64(n))
	if stdev == 0 {
		return models.WindowStats{}, domrepo.ErrInsufficientHistory
	}
	return models.WindowStats{Mean: mean, Stdev: stdev, Count: n}, nil
}

func (m *MemoryHistoryStore) Append(_ context.Context, sample models.HistorySample) error {
	sample.Date = day(sample.Date)

	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.symbol(sample.Symbol)
	for i := range h.samples {
		if h.samples[i].Date.Equal(sample.Date) {
			h.samples[i] = sample
			return nil
		}
	}
	h.samples = append(h.samples, sample)
	sort.Slice(h.samples, func(i, j int) bool { return h.samples[i].Date.Before(h.samples[j].Date) })
	return nil
}

func (m *MemoryHistoryStore) AppendScore(_ context.Context, symbol string, date time.Time, score float64) error {
	date = day(date)

	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.symbol(symbol)
	for i := range h.scores {
		if h.scores[i].Date.Equal(date) {
			h.scores[i].Score = score
			return nil
		}
	}
	h.scores = append(h.scores, models.ScoreEntry{Date: date, Score: score})
	sort.Slice(h.scores, func(i, j int) bool { return h.scores[i].Date.Before(h.scores[j].Date) })
	return nil
}

func (m *MemoryHistoryStore) RecentScores(_ context.Context, symbol string, n int) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.data[symbol]
	if !ok {
		return nil, nil
	}
	out := make([]float64, 0, n)
	for i := len(h.scores) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.scores[i].Score)
	}
	return out, nil
}

func (m *MemoryHistoryStore) EMAState(_ context.Context, symbol string) (models.EMAState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if h, ok := m.data[symbol]; ok {
		return h.ema, nil
	}
	return models.EMAState{}, nil
}

func (m *MemoryHistoryStore) SetEMAState(_ context.Context, symbol string, state models.EMAState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.symbol(symbol).ema = state
	return nil
}

func (m *MemoryHistoryStore) Prune(_ context.Context, olderThan time.Duration) error {
	cutoff := day(time.Now().Add(-olderThan))

	m.mu.Lock()
	defer m.mu.Unlock()

	for sym, h := range m.data {
		h.samples = trimSamples(h.samples, cutoff)
		h.scores = trimScores(h.scores, cutoff)
		if len(h.samples) == 0 && len(h.scores) == 0 && h.ema == (models.EMAState{}) {
			delete(m.data, sym)
		}
	}
	return nil
}

func (m *MemoryHistoryStore) Close() error { return nil }

// symbol returns the state bucket, creating it when absent. Caller holds mu.
func (m *MemoryHistoryStore) symbol(sym string) *symbolHistory {
	h, ok := m.data[sym]
	if !ok {
		h = &symbolHistory{}
		m.data[sym] = h
	}
	return h
}

func trimSamples(in []models.HistorySample, cutoff time.Time) []models.HistorySample {
	i := 0
	for i < len(in) && in[i].Date.Before(cutoff) {
		i++
	}
	return in[i:]
}

func trimScores(in []models.ScoreEntry, cutoff time.Time) []models.ScoreEntry {
	i := 0
	for i < len(in) && in[i].Date.Before(cutoff) {
		i++
	}
	return in[i:]
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
