package confidence

import (
	"math"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/internal/services/indicators"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// Classifier grades liquidity, confidence, and the quadrant for one
// evaluated snapshot.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// Liquidity grades option-market tradeability from volume, notional, open
// interest crowding and relative volume. Any single qualifier lifts the tier.
func (c *Classifier) Liquidity(s *models.MarketSnapshot, cfg config.Scoring) models.LiquidityTier {
	totalVol := s.CallVolume + s.PutVolume
	totalNotional := s.TotalNotional()

	if totalVol >= cfg.LiqHighVolume ||
		totalNotional >= cfg.LiqHighNotional ||
		s.RelVolTo90D >= cfg.RelVolHot ||
		s.OIPctRank >= cfg.LiqHighOIRank {
		return models.LiquidityHigh
	}
	if totalVol >= cfg.LiqMedVolume ||
		totalNotional >= cfg.LiqMedNotional ||
		s.RelVolTo90D >= 1.0 ||
		s.OIPctRank >= cfg.LiqMedOIRank {
		return models.LiquidityMedium
	}
	return models.LiquidityLow
}

// Result carries the confidence grade plus the intermediate factors that the
// output contract exposes.
type Result struct {
	Level           models.ConfidenceLevel
	StructureFactor float64
	Consistency     float64
}

// Grade computes the confidence strength from the score magnitudes,
// liquidity, data quality, trade structure, trailing sign consistency and
// positioning, then maps it to a level (high >= 1.5, medium >= 0.75).
func (c *Classifier) Grade(
	s *models.MarketSnapshot,
	cfg config.Scoring,
	dirScore, volScore, activeOpenRatio float64,
	liquidity models.LiquidityTier,
	recentScores []float64,
) Result {
	strength := 0.0

	switch {
	case math.Abs(dirScore) >= 1.0:
		strength += 0.6
	case math.Abs(dirScore) >= 0.6:
		strength += 0.3
	}

	vAbs := math.Abs(volScore)
	switch {
	case vAbs >= cfg.PenaltyVolPctThresh+0.4:
		strength += 0.6
	case vAbs >= cfg.PenaltyVolPctThresh:
		strength += 0.3
	}

	switch liquidity {
	case models.LiquidityHigh:
		strength += 0.5
	case models.LiquidityMedium:
		strength += 0.25
	}

	ivRatio := indicators.IVRVRatio(s)
	regime := indicators.RegimeRatio(s)
	if s.IVR >= cfg.FearIVRankMin && ivRatio >= cfg.FearIVRVRatioMin && regime <= cfg.FearRegimeMax {
		strength -= 0.2
	}

	strength -= 0.1 * float64(s.MissingFields)

	if math.Abs(s.PriceChgPct) >= cfg.PenaltyExtremeChg && s.RelVolTo90D <= cfg.RelVolCold {
		strength -= 0.3
	}

	structureFactor := c.structureFactor(s, cfg)
	strength *= structureFactor

	consistency := Consistency(recentScores, cfg.ConsistencyDays)
	if consistency > cfg.ConsistencyStrong {
		strength *= 1 + cfg.ConsistencyWeight*consistency
	} else if consistency < -cfg.ConsistencyStrong {
		// Floor the penalty so a run of opposite days cannot zero the grade.
		strength *= math.Max(0.1, 1-cfg.ConsistencyWeight*math.Abs(consistency))
	}

	if s.OIPctRank >= cfg.LiqHighOIRank {
		strength *= 1.2
	}
	if s.RelVolTo90D >= cfg.RelVolHot {
		strength *= 1.1
	}
	if activeOpenRatio < cfg.ActiveOpenRatioBear {
		strength *= 0.8
	}

	strength = math.Max(0, strength)

	level := models.ConfidenceLow
	if strength >= 1.5 {
		level = models.ConfidenceHigh
	} else if strength >= 0.75 {
		level = models.ConfidenceMedium
	}

	return Result{Level: level, StructureFactor: structureFactor, Consistency: consistency}
}

// structureFactor maps trade structure onto a confidence multiplier. Heavy
// multi-leg flow dominates, clean single-leg flow boosts, contingent orders
// slightly discount.
func (c *Classifier) structureFactor(s *models.MarketSnapshot, cfg config.Scoring) float64 {
	switch {
	case s.MultiLegPct >= cfg.MultiLegConfThresh:
		return 0.8
	case s.SingleLegPct >= cfg.SingleLegConfThresh:
		return 1.1
	case s.ContingentPct >= cfg.ContingentConfThresh:
		return 0.9
	default:
		return 1.0
	}
}

// Consistency is the mean sign of the most recent direction scores,
// clamped to [-1, 1]. Empty history is neutral.
func Consistency(recentScores []float64, nDays int) float64 {
	if len(recentScores) == 0 {
		return 0.0
	}
	scores := recentScores
	if len(scores) > nDays {
		scores = scores[:nDays]
	}
	sum := 0
	for _, s := range scores {
		if s > 0 {
			sum++
		} else if s < 0 {
			sum--
		}
	}
	v := float64(sum) / float64(len(scores))
	return math.Max(-1, math.Min(1, v))
}

// PenalizeExtremeMoveLowVol flags a large spot move unsupported by volume
// or accompanied by an IV crush.
func PenalizeExtremeMoveLowVol(s *models.MarketSnapshot, cfg config.Scoring) bool {
	if math.Abs(s.PriceChgPct) < cfg.PenaltyExtremeChg {
		return false
	}
	return s.RelVolTo90D <= cfg.RelVolCold || s.IV30ChgPct <= cfg.IVPopDown
}

// DirectionPref maps the direction score to its axis preference.
func DirectionPref(score float64) models.DirectionBias {
	switch {
	case score >= 1.0:
		return models.DirBullish
	case score <= -1.0:
		return models.DirBearish
	default:
		return models.DirNeutral
	}
}

// VolPref maps the vol score to its axis preference using the configured
// threshold (default 0.4).
func VolPref(score float64, cfg config.Scoring) models.VolBias {
	switch {
	case score >= cfg.PenaltyVolPctThresh:
		return models.VolBuy
	case score <= -cfg.PenaltyVolPctThresh:
		return models.VolSell
	default:
		return models.VolNeutral
	}
}

// CombineQuadrant folds the two axis preferences into the quadrant label.
// Neutrality on either axis collapses to watch.
func CombineQuadrant(dir models.DirectionBias, vol models.VolBias) models.Quadrant {
	if dir == models.DirNeutral || vol == models.VolNeutral {
		return models.QuadrantNeutralWatch
	}
	switch {
	case dir == models.DirBullish && vol == models.VolBuy:
		return models.QuadrantBullBuyVol
	case dir == models.DirBullish && vol == models.VolSell:
		return models.QuadrantBullSellVol
	case dir == models.DirBearish && vol == models.VolBuy:
		return models.QuadrantBearBuyVol
	default:
		return models.QuadrantBearSellVol
	}
}
