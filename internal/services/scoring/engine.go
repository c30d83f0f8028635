package scoring

import (
	"math"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/internal/services/indicators"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// Engine computes the direction and volatility scores for one snapshot.
// Scores are unbounded by construction; downstream classification and
// consumers handle magnitude.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// DirectionScore combines the spot move, flow skews, relative volume, the
// call/put and put-share triggers, and the spot-vol correlation, then runs
// the behavioral correction and the trade-structure weighting.
func (e *Engine) DirectionScore(s *models.MarketSnapshot, cfg config.Scoring, activeOpenRatio float64, adj Adjustment) float64 {
	priceTerm := 0.90 * math.Tanh(s.PriceChgPct/1.75)
	notionalTerm := 0.60 * indicators.NotionalBias(s)
	volBiasTerm := 0.35 * indicators.VolumeBias(s)

	relVolTerm := 0.0
	if s.RelVolTo90D >= cfg.RelVolHot {
		relVolTerm = 0.18
	} else if s.RelVolTo90D <= cfg.RelVolCold {
		relVolTerm = -0.05
	}

	cprTerm := 0.0
	cpRatio := indicators.CallPutRatio(s)
	if cpRatio >= cfg.CallPutRatioBull {
		cprTerm = 0.30
	} else if cpRatio <= cfg.CallPutRatioBear {
		cprTerm = -0.30
	}

	// Put share: hard trigger outside the band, linear interpolation inside.
	putTerm := 0.0
	switch {
	case s.PutPct >= cfg.PutPctBear:
		putTerm = -0.20
	case s.PutPct <= cfg.PutPctBull:
		putTerm = 0.20
	default:
		putTerm = 0.20 * (50.0 - s.PutPct) / 50.0
	}

	score := priceTerm + notionalTerm + volBiasTerm + relVolTerm + cprTerm + putTerm
	score += indicators.SpotVolCorrelation(s)

	score = adj.Direction(score, activeOpenRatio)

	if s.SingleLegPct >= cfg.SingleLegHigh {
		score *= 1.10
	}
	if s.MultiLegPct >= cfg.MultiLegHigh {
		score *= 0.90
	}
	if s.ContingentPct >= cfg.ContingentHigh {
		score *= 0.90
	}

	return score
}

// VolScore is BuySide minus SellSide, corrected for term structure, heavy
// multi-leg hedging, and the market environment.
func (e *Engine) VolScore(s *models.MarketSnapshot, cfg config.Scoring, term models.TermStructureSnapshot, ignoreEarnings bool, adj Adjustment) float64 {
	ivrCenter := (s.IVR - 50.0) / 50.0
	sellPressure := 1.2*ivrCenter + 1.2*indicators.IVRVLog(s)

	ivRatio := indicators.IVRVRatio(s)

	// Same-day IV pop: a crush favors buying vol back, a spike favors selling.
	ivChgBuy := 0.0
	if s.IV30ChgPct <= cfg.IVPopDown {
		ivChgBuy = 0.5
	}
	ivChgSell := 0.0
	if s.IV30ChgPct >= cfg.IVPopUp {
		ivChgSell = 0.5
	}

	discountTerm := 0.0
	if s.HV20 > 0 {
		discountTerm = math.Max(0, (s.HV20-s.IV30)/s.HV20)
	}

	cheapBoost := 0.0
	if s.IVR <= cfg.IVLongCheapRank || ivRatio <= cfg.IVLongCheapRatio {
		cheapBoost = 0.6
	}
	richPressure := 0.0
	if s.IVR >= cfg.IVShortRichRank || ivRatio >= cfg.IVShortRichRatio {
		richPressure = 0.6
	}

	earnBoost := 0.0
	if !ignoreEarnings {
		if dte := s.DaysToEarnings(); dte != nil && *dte > 0 {
			switch {
			case *dte <= 2:
				earnBoost = 0.8
			case *dte <= 7:
				earnBoost = 0.4
			case *dte <= cfg.EarningsWindowDays:
				earnBoost = 0.2
			}
		}
	}

	regime := indicators.RegimeRatio(s)
	fearSell := 0.0
	if s.IVR >= cfg.FearIVRankMin && ivRatio >= cfg.FearIVRVRatioMin && regime <= cfg.FearRegimeMax {
		fearSell = 0.4
	}

	regimeTerm := 0.0
	if regime >= cfg.RegimeHot {
		regimeTerm = 0.2
	} else if regime <= cfg.RegimeCalm {
		regimeTerm = -0.2
	}

	buySide := 0.8*discountTerm + ivChgBuy + cheapBoost + earnBoost + regimeTerm
	sellSide := sellPressure + richPressure + ivChgSell + fearSell
	score := buySide - sellSide

	// External term-structure adjustment, 0.0 unless a source supplies one.
	score += term.Adjustment

	if s.MultiLegPct > 40 {
		if s.IVR > 70 {
			score *= 0.8
		} else if s.IVR < 30 {
			score *= 0.9
		}
	}

	return adj.Vol(score)
}
