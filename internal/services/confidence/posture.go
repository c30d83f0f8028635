package confidence

import (
	"fmt"
	"math"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// PostureResult is the five-day stance classification with its reasoning.
type PostureResult struct {
	Label       models.PostureLabel
	Confidence  models.ConfidenceLevel
	Reasons     []string
	ReasonCodes []string
}

// Posture5D classifies the symbol's stance from trailing sign consistency
// and today's direction strength: a strong consistent run aligned with today
// confirms the trend, a strong run against today is countertrend, a strong
// day out of a flat run is a one-day shock, everything else is chop.
func Posture5D(dirScore float64, recent []float64, cfg config.Scoring) PostureResult {
	consistency := Consistency(recent, cfg.ConsistencyDays)
	absCons := math.Abs(consistency)

	todaySign := sign(dirScore)
	trendSign := sign(consistency)
	bucket := strengthBucket(dirScore, cfg)

	reasons := []string{
		fmt.Sprintf("5-day consistency %s (%.2f)", consistencyWord(absCons, cfg), consistency),
	}
	switch {
	case todaySign != 0 && todaySign == trendSign:
		reasons = append(reasons, "aligned with today's direction")
	case todaySign != 0 && trendSign != 0:
		reasons = append(reasons, "against today's direction")
	default:
		reasons = append(reasons, "no trend formed yet")
	}
	reasons = append(reasons, "today's direction strength: "+bucket)

	label := models.PostureChop
	code := "POSTURE_CHOP"
	switch {
	case absCons >= cfg.PostureConsistencyStrong && todaySign != 0 && todaySign == trendSign:
		label, code = models.PostureTrendConfirm, "POSTURE_TREND_CONFIRM"
	case absCons >= cfg.PostureConsistencyStrong && todaySign != 0 && trendSign != 0:
		label, code = models.PostureCountertrend, "POSTURE_COUNTERTREND"
	case absCons <= cfg.PostureConsistencyWeak && bucket == "strong":
		label, code = models.PostureOneDayShock, "POSTURE_ONE_DAY_SHOCK"
	}

	conf := models.ConfidenceMedium
	if (label == models.PostureTrendConfirm || label == models.PostureCountertrend) &&
		absCons >= cfg.PostureConsistencyStrong && bucket != "weak" {
		conf = models.ConfidenceHigh
	} else if label == models.PostureChop && bucket == "weak" && absCons <= cfg.PostureConsistencyWeak {
		conf = models.ConfidenceLow
	}

	return PostureResult{
		Label:       label,
		Confidence:  conf,
		Reasons:     reasons,
		ReasonCodes: []string{code},
	}
}

func strengthBucket(dirScore float64, cfg config.Scoring) string {
	abs := math.Abs(dirScore)
	switch {
	case abs >= cfg.PostureDirectionStrong:
		return "strong"
	case abs >= cfg.PostureDirectionMed:
		return "medium"
	default:
		return "weak"
	}
}

func consistencyWord(absCons float64, cfg config.Scoring) string {
	switch {
	case absCons >= cfg.PostureConsistencyStrong:
		return "strong"
	case absCons <= cfg.PostureConsistencyWeak:
		return "weak"
	default:
		return "moderate"
	}
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
