// Package trend fits a short linear regression over recent direction scores
// and labels the drift as up, down, or sideways.
package trend

import (
	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// Overlay is the trend summary attached to an analysis result.
type Overlay struct {
	Slope    float64
	Label    models.TrendLabel
	DaysUsed int
}

// Compute regresses the most recent direction scores against time and maps
// the slope onto a label. The input is newest first (as RecentScores
// returns it); the regression runs in chronological order, so a positive
// slope means the score has been rising into the present. Fewer than two
// points is a flat line.
func Compute(recent []float64, cfg config.Scoring) Overlay {
	k := cfg.TrendDays
	if k > len(recent) {
		k = len(recent)
	}
	if k <= 1 {
		return Overlay{Label: models.TrendSideways, DaysUsed: k}
	}

	// Oldest to newest.
	y := make([]float64, k)
	for i := 0; i < k; i++ {
		y[i] = recent[k-1-i]
	}

	meanX := float64(k-1) / 2
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= float64(k)

	num, den := 0.0, 0.0
	for i, v := range y {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	if den == 0 {
		return Overlay{Label: models.TrendSideways, DaysUsed: k}
	}

	slope := num / den
	label := models.TrendSideways
	if slope > cfg.TrendSlopeUp {
		label = models.TrendUp
	} else if slope < -cfg.TrendSlopeDown {
		label = models.TrendDown
	}
	return Overlay{Slope: slope, Label: label, DaysUsed: k}
}
