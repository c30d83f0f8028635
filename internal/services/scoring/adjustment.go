package scoring

import (
	"math"

	"github.com/foreverwb/volatility-analysis/internal/services/dynparams"
)

// Adjustment is the behavioral/market correction layer applied on top of the
// base scores. Which implementation runs is decided once per evaluation:
// adaptive coefficients when the symbol has enough history, fixed legacy
// multipliers otherwise.
type Adjustment interface {
	// Direction scales the direction score by the active-open-ratio signal.
	Direction(score, activeOpenRatio float64) float64
	// Vol scales the volatility score by the market environment.
	Vol(score float64) float64
}

// DynamicAdjustment applies the adaptive coefficients:
// direction × (1 + β_t·tanh(3·AOR)), vol × (1 + α_t·λ_t).
type DynamicAdjustment struct {
	Params *dynparams.Params
}

func (a DynamicAdjustment) Direction(score, activeOpenRatio float64) float64 {
	return score * (1 + a.Params.Beta*math.Tanh(3*activeOpenRatio))
}

func (a DynamicAdjustment) Vol(score float64) float64 {
	return score * (1 + a.Params.Alpha*a.Params.Lambda)
}

// LegacyAdjustment is the fixed-multiplier fallback: a step multiplier on
// the direction score by active-open-ratio band, and no vol correction.
type LegacyAdjustment struct {
	BullBand float64 // fresh-positioning threshold, typically +0.05
	BearBand float64 // unwinding threshold, typically -0.05
}

func (a LegacyAdjustment) Direction(score, activeOpenRatio float64) float64 {
	switch {
	case activeOpenRatio >= a.BullBand:
		return score * 1.1
	case activeOpenRatio <= a.BearBand:
		return score * 0.9
	default:
		return score
	}
}

func (a LegacyAdjustment) Vol(score float64) float64 { return score }
