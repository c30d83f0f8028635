package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	domrepo "github.com/foreverwb/volatility-analysis/internal/domain/repository"
)

const dayLayout = "2006-01-02"

// RedisHistoryStore is the HistoryStore backend for deployments that need
// rolling state to survive restarts. Samples and scores live in per-symbol
// hashes keyed by day, which makes the same-day overwrite a plain HSET.
//
// The symbol lock is process-local: the store serializes evaluations within
// one instance. Running several writer instances against the same keys needs
// external coordination.
type RedisHistoryStore struct {
	client *redis.Client
	prefix string
	locks  sync.Map // symbol -> *sync.Mutex
}

func NewRedisHistoryStore(client *redis.Client, prefix string) *RedisHistoryStore {
	return &RedisHistoryStore{client: client, prefix: prefix}
}

func (r *RedisHistoryStore) sampleKey(symbol string) string {
	return fmt.Sprintf("%s:hist:%s", r.prefix, symbol)
}

func (r *RedisHistoryStore) scoreKey(symbol string) string {
	return fmt.Sprintf("%s:scores:%s", r.prefix, symbol)
}

func (r *RedisHistoryStore) emaKey(symbol string) string {
	return fmt.Sprintf("%s:ema:%s", r.prefix, symbol)
}

func (r *RedisHistoryStore) LockSymbol(symbol string) func() {
	v, _ := r.locks.LoadOrStore(symbol, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (r *RedisHistoryStore) ReadWindow(ctx context.Context, symbol, field string, window, minSamples int) (models.WindowStats, error) {
	samples, err := r.loadSamples(ctx, symbol)
	if err != nil {
		return models.WindowStats{}, err
	}
	if len(samples) < minSamples {
		return models.WindowStats{}, domrepo.ErrInsufficientHistory
	}
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

func (r *RedisHistoryStore) Append(ctx context.Context, sample models.HistorySample) error {
	sample.Date = sample.Date.UTC().Truncate(24 * time.Hour)
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	if err := r.client.HSet(ctx, r.sampleKey(sample.Symbol), sample.Date.Format(dayLayout), data).Err(); err != nil {
		return fmt.Errorf("append sample: %w", err)
	}
	return nil
}

func (r *RedisHistoryStore) AppendScore(ctx context.Context, symbol string, date time.Time, score float64) error {
	day := date.UTC().Truncate(24 * time.Hour).Format(dayLayout)
	if err := r.client.HSet(ctx, r.scoreKey(symbol), day, score).Err(); err != nil {
		return fmt.Errorf("append score: %w", err)
	}
	return nil
}

func (r *RedisHistoryStore) RecentScores(ctx context.Context, symbol string, n int) ([]float64, error) {
	raw, err := r.client.HGetAll(ctx, r.scoreKey(symbol)).Result()
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	type dated struct {
		day   string
		score float64
	}
	entries := make([]dated, 0, len(raw))
	for day, v := range raw {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			continue
		}
		entries = append(entries, dated{day: day, score: f})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].day > entries[j].day })

	out := make([]float64, 0, n)
	for _, e := range entries {
		if len(out) == n {
			break
		}
		out = append(out, e.score)
	}
	return out, nil
}

func (r *RedisHistoryStore) EMAState(ctx context.Context, symbol string) (models.EMAState, error) {
	data, err := r.client.Get(ctx, r.emaKey(symbol)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return models.EMAState{}, nil
		}
		return models.EMAState{}, fmt.Errorf("load ema state: %w", err)
	}
	var st models.EMAState
	if err := json.Unmarshal(data, &st); err != nil {
		return models.EMAState{}, fmt.Errorf("decode ema state: %w", err)
	}
	return st, nil
}

func (r *RedisHistoryStore) SetEMAState(ctx context.Context, symbol string, state models.EMAState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal ema state: %w", err)
	}
	if err := r.client.Set(ctx, r.emaKey(symbol), data, 0).Err(); err != nil {
		return fmt.Errorf("persist ema state: %w", err)
	}
	return nil
}

func (r *RedisHistoryStore) Prune(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan).Format(dayLayout)

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+":hist:*", 100).Result()
		if err != nil {
			return fmt.Errorf("scan history keys: %w", err)
		}
		for _, key := range keys {
			if err := r.pruneHash(ctx, key, cutoff); err != nil {
				return err
			}
			scoreKey := r.prefix + ":scores:" + key[len(r.prefix+":hist:"):]
			if err := r.pruneHash(ctx, scoreKey, cutoff); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// pruneHash drops hash fields whose day key sorts before the cutoff. Day
// keys use a fixed-width layout, so string order is date order.
func (r *RedisHistoryStore) pruneHash(ctx context.Context, key, cutoff string) error {
	days, err := r.client.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("hkeys %s: %w", key, err)
	}
	stale := days[:0]
	for _, d := range days {
		if d < cutoff {
			stale = append(stale, d)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := r.client.HDel(ctx, key, stale...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", key, err)
	}
	return nil
}

func (r *RedisHistoryStore) Close() error { return nil }

// loadSamples reads and date-orders every sample in the symbol's hash.
func (r *RedisHistoryStore) loadSamples(ctx context.Context, symbol string) ([]models.HistorySample, error) {
	raw, err := r.client.HGetAll(ctx, r.sampleKey(symbol)).Result()
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	samples := make([]models.HistorySample, 0, len(raw))
	for _, v := range raw {
		var s models.HistorySample
		if err := json.Unmarshal([]byte(v), &s); err != nil {
			continue
		}
		samples = append(samples, s)
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })
	return samples, nil
}
