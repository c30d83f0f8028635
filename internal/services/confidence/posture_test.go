package confidence

import (
	"testing"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

func postureCfg() config.Scoring {
	return config.Scoring{
		ConsistencyDays:          5,
		PostureDirectionStrong:   1.0,
		PostureDirectionMed:      0.6,
		PostureConsistencyStrong: 0.6,
		PostureConsistencyWeak:   0.2,
	}
}

func TestPosture5DTrendConfirm(t *testing.T) {
	recent := []float64{1.0, 0.8, 0.9, 1.1, 0.7} // consistency +1.0

	p := Posture5D(1.2, recent, postureCfg())

	if p.Label != models.PostureTrendConfirm {
		t.Fatalf("label = %q, want TREND_CONFIRM", p.Label)
	}
	if p.Confidence != models.ConfidenceHigh {
		t.Fatalf("confidence = %q, want high", p.Confidence)
	}
	if len(p.ReasonCodes) != 1 || p.ReasonCodes[0] != "POSTURE_TREND_CONFIRM" {
		t.Fatalf("reason codes = %v", p.ReasonCodes)
	}
	if len(p.Reasons) != 3 {
		t.Fatalf("want 3 reasons, got %v", p.Reasons)
	}
}

func TestPosture5DCountertrend(t *testing.T) {
	recent := []float64{1.0, 0.8, 0.9, 1.1, 0.7}

	p := Posture5D(-1.2, recent, postureCfg())

	if p.Label != models.PostureCountertrend {
		t.Fatalf("label = %q, want COUNTERTREND", p.Label)
	}
	if p.Confidence != models.ConfidenceHigh {
		t.Fatalf("confidence = %q, want high", p.Confidence)
	}
}

func TestPosture5DOneDayShock(t *testing.T) {
	recent := []float64{1.0, -1.0, 0.5, -0.5} // consistency 0

	p := Posture5D(1.5, recent, postureCfg())

	if p.Label != models.PostureOneDayShock {
		t.Fatalf("label = %q, want ONE_DAY_SHOCK", p.Label)
	}
	if p.Confidence != models.ConfidenceMedium {
		t.Fatalf("confidence = %q, want medium", p.Confidence)
	}
}

func TestPosture5DChopWeakEverything(t *testing.T) {
	p := Posture5D(0.2, []float64{0.1, -0.1}, postureCfg())

	if p.Label != models.PostureChop {
		t.Fatalf("label = %q, want CHOP", p.Label)
	}
	if p.Confidence != models.ConfidenceLow {
		t.Fatalf("confidence = %q, want low", p.Confidence)
	}
}

func TestPosture5DEmptyHistoryIsChop(t *testing.T) {
	p := Posture5D(0.8, nil, postureCfg())

	if p.Label != models.PostureChop {
		t.Fatalf("label = %q, want CHOP", p.Label)
	}
}
