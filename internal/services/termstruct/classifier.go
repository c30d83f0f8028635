package termstruct

import (
	"math"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
)

// Classifier computes tenor ratios from the IV curve and maps them to a
// term-structure label. Labels are only assigned when the short, mid and
// long ratios are all computable; partial curves stay NotAvailable.
type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// Horizon bias by label. Positive values favor that expiry bucket for long
// volatility, negative values disfavor it.
var horizonBias = map[models.TermLabel]models.HorizonBias{
	models.TermFullInversion:  {Short: 0.25, Mid: -0.10, Long: -0.20},
	models.TermShortInversion: {Short: 0.25, Mid: -0.05, Long: -0.15},
	models.TermMidBulge:       {Short: -0.2, Mid: 0.6, Long: 0.3},
	models.TermFarElevated:    {Short: -0.05, Mid: 0.10, Long: 0.20},
	models.TermShortLow:       {Short: 0.20, Mid: -0.05, Long: -0.10},
}

// Classify builds the term-structure snapshot for a market snapshot. The
// adjustment field is pass-through from an external source and stays 0.0
// here.
func (c *Classifier) Classify(s *models.MarketSnapshot) models.TermStructureSnapshot {
	ratios := make(map[string]float64, 4)

	iv30 := s.IV30
	putRatio(ratios, models.Ratio730, s.IV7, &iv30)
	putRatio(ratios, models.Ratio3060, &iv30, s.IV60)
	putRatio(ratios, models.Ratio6090, s.IV60, s.IV90)
	putRatio(ratios, models.Ratio3090, &iv30, s.IV90)

	ts := models.TermStructureSnapshot{
		Ratios: ratios,
		Label:  classify(ratios),
	}
	if r, ok := ratios[models.Ratio3090]; ok {
		v := r
		ts.Ratio3090 = &v
	}
	ts.HorizonBias = horizonBias[ts.Label]
	ts.StateFlags = stateFlags(ts.Label)
	return ts
}

func classify(ratios map[string]float64) models.TermLabel {
	short, okS := ratios[models.Ratio730]
	mid, okM := ratios[models.Ratio3060]
	long, okL := ratios[models.Ratio6090]
	if !okS || !okM || !okL {
		return models.TermNotAvailable
	}

	switch {
	case short > 1.05 && mid > 1.05 && long > 1.05:
		return models.TermFullInversion
	case short > 1.05 && mid <= 1.0:
		return models.TermShortInversion
	case mid > 1.05 && short <= 1.02 && long <= 1.0:
		return models.TermMidBulge
	case long > 1.05 && mid <= 1.0:
		return models.TermFarElevated
	case short < 0.9 && mid >= 0.95:
		return models.TermShortLow
	default:
		return models.TermNormalSteep
	}
}

func stateFlags(label models.TermLabel) models.TermStateFlags {
	return models.TermStateFlags{
		FullInversion:  label == models.TermFullInversion,
		ShortInversion: label == models.TermShortInversion,
		MidBulge:       label == models.TermMidBulge,
		FarElevated:    label == models.TermFarElevated,
		ShortLow:       label == models.TermShortLow,
		NormalSteep:    label == models.TermNormalSteep,
	}
}

// putRatio stores num/den under key when both tenors are present, finite,
// and the denominator is non-zero.
func putRatio(ratios map[string]float64, key string, num, den *float64) {
	if num == nil || den == nil {
		return
	}
	if *den == 0 || math.IsNaN(*num) || math.IsNaN(*den) || math.IsInf(*num, 0) || math.IsInf(*den, 0) {
		return
	}
	ratios[key] = *num / *den
}
