package dynparams

import (
	"context"
	"errors"
	"fmt"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/internal/domain/repository"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// Params holds one evaluation's adaptive coefficients. The Raw fields are
// the bounded pre-smoothing values for the day (after the z-score formula
// and the min/max clamp, before the EMA); the plain fields are the
// EMA-smoothed values the scoring engine consumes.
type Params struct {
	Beta      float64
	Lambda    float64
	Alpha     float64
	BetaRaw   float64
	LambdaRaw float64
	AlphaRaw  float64
}

// weight ties a history metric field to its contribution on one coefficient.
type weight struct {
	field string
	w     float64
}

var (
	betaWeights   = []weight{{models.FieldRelVolTo90D, 0.15}, {models.FieldOIPctRank, 0.10}}
	lambdaWeights = []weight{{models.FieldIV30, 0.25}, {models.FieldHV20, -0.10}}
	alphaWeights  = []weight{{models.FieldVIX, 0.40}}
)

// Engine computes the adaptive coefficients beta_t, lambda_t, alpha_t from
// z-scored rolling-history metrics. Each coefficient follows the same
// pattern: raw = base * (1 + sum(w_i * clamp(z_i, -3, 3))), clamped to its
// bounds, then EMA-smoothed with alpha_s = 2/(span+1).
type Engine struct {
	store      repository.HistoryStore
	window     int
	minSamples int
	cfg        config.Dynamic
}

func New(store repository.HistoryStore, dyn config.Dynamic, window, minSamples int) *Engine {
	return &Engine{store: store, window: window, minSamples: minSamples, cfg: dyn}
}

// Evaluate computes the coefficients for one snapshot against the symbol's
// pre-append history window, persisting the updated EMA state on success.
// ErrInsufficientHistory on any input metric disables all three coefficients
// for this evaluation; the caller then scores on the fixed legacy path.
//
// The caller must hold the symbol lock: Evaluate reads window stats and
// writes EMA state, and that sequence must not interleave with a concurrent
// append for the same symbol.
func (e *Engine) Evaluate(ctx context.Context, snap *models.MarketSnapshot, vix float64) (*Params, error) {
	zBeta, err := e.weightedZ(ctx, snap, vix, betaWeights)
	if err != nil {
		return nil, err
	}
	zLambda, err := e.weightedZ(ctx, snap, vix, lambdaWeights)
	if err != nil {
		return nil, err
	}
	zAlpha, err := e.weightedZ(ctx, snap, vix, alphaWeights)
	if err != nil {
		return nil, err
	}

	state, err := e.store.EMAState(ctx, snap.Symbol)
	if err != nil {
		return nil, fmt.Errorf("load ema state: %w", err)
	}

	p := &Params{}
	p.BetaRaw = bound(e.cfg.Beta, e.cfg.Beta.Base*(1+zBeta))
	p.LambdaRaw = bound(e.cfg.Lambda, e.cfg.Lambda.Base*(1+zLambda))
	p.AlphaRaw = bound(e.cfg.Alpha, e.cfg.Alpha.Base*(1+zAlpha))

	p.Beta = smooth(e.cfg.Beta.Span, p.BetaRaw, state.Beta)
	p.Lambda = smooth(e.cfg.Lambda.Span, p.LambdaRaw, state.Lambda)
	p.Alpha = smooth(e.cfg.Alpha.Span, p.AlphaRaw, state.Alpha)

	next := models.EMAState{Beta: &p.Beta, Lambda: &p.Lambda, Alpha: &p.Alpha}
	if err := e.store.SetEMAState(ctx, snap.Symbol, next); err != nil {
		return nil, fmt.Errorf("persist ema state: %w", err)
	}
	return p, nil
}

// IsInsufficient reports whether err is the documented degraded-history case.
func IsInsufficient(err error) bool {
	return errors.Is(err, repository.ErrInsufficientHistory)
}

// weightedZ computes sum(w_i * clamp(z_i)) over one coefficient's metrics.
func (e *Engine) weightedZ(ctx context.Context, snap *models.MarketSnapshot, vix float64, weights []weight) (float64, error) {
	var sum float64
	for _, wt := range weights {
		stats, err := e.store.ReadWindow(ctx, snap.Symbol, wt.field, e.window, e.minSamples)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientHistory) {
				return 0, err
			}
			return 0, fmt.Errorf("read window %s/%s: %w", snap.Symbol, wt.field, err)
		}
		sum += wt.w * clampZ((metricValue(snap, vix, wt.field)-stats.Mean)/stats.Stdev)
	}
	return sum, nil
}

func metricValue(snap *models.MarketSnapshot, vix float64, field string) float64 {
	switch field {
	case models.FieldRelVolTo90D:
		return snap.RelVolTo90D
	case models.FieldOIPctRank:
		return snap.OIPctRank
	case models.FieldIV30:
		return snap.IV30
	case models.FieldHV20:
		return snap.HV20
	case models.FieldVIX:
		return vix
	default:
		return 0
	}
}

func clampZ(z float64) float64 {
	if z > 3 {
		return 3
	}
	if z < -3 {
		return -3
	}
	return z
}

func bound(c config.Coefficient, raw float64) float64 {
	if raw < c.Min {
		return c.Min
	}
	if raw > c.Max {
		return c.Max
	}
	return raw
}

// smooth applies one EMA step. A nil prior means first evaluation for the
// symbol; the bounded value seeds the series.
func smooth(span int, bounded float64, prev *float64) float64 {
	if prev == nil {
		return bounded
	}
	alphaS := 2.0 / (float64(span) + 1.0)
	return alphaS*bounded + (1-alphaS)**prev
}
