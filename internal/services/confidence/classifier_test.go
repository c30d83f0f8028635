package confidence

import (
	"testing"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

func cfg(t *testing.T) config.Scoring {
	t.Helper()
	c, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return c.Scoring
}

func TestLiquidityTiers(t *testing.T) {
	c := New()
	sc := cfg(t)

	cases := []struct {
		name string
		s    models.MarketSnapshot
		want models.LiquidityTier
	}{
		{"big volume", models.MarketSnapshot{CallVolume: 800_000, PutVolume: 400_000}, models.LiquidityHigh},
		{"big notional", models.MarketSnapshot{CallNotional: 2e8, PutNotional: 1.5e8}, models.LiquidityHigh},
		{"hot tape", models.MarketSnapshot{RelVolTo90D: 1.3}, models.LiquidityHigh},
		{"crowded oi", models.MarketSnapshot{OIPctRank: 65}, models.LiquidityHigh},
		{"mid volume", models.MarketSnapshot{CallVolume: 150_000, PutVolume: 80_000, RelVolTo90D: 0.9}, models.LiquidityMedium},
		{"mid oi", models.MarketSnapshot{OIPctRank: 45, RelVolTo90D: 0.9}, models.LiquidityMedium},
		{"thin", models.MarketSnapshot{CallVolume: 1000, PutVolume: 500, RelVolTo90D: 0.5}, models.LiquidityLow},
	}
	for _, tc := range cases {
		if got := c.Liquidity(&tc.s, sc); got != tc.want {
			t.Fatalf("%s: liquidity = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGradeStrongSetupIsHigh(t *testing.T) {
	c := New()
	sc := cfg(t)
	s := &models.MarketSnapshot{
		Symbol: "NVDA", IVR: 60, IV30: 47, HV20: 40, HV1Y: 40,
		RelVolTo90D: 1.3, OIPctRank: 70,
	}
	// dir 0.6 + vol 0.6 + liquidity 0.5 = 1.7, then x1.2 (oi) x1.1 (relvol).
	res := c.Grade(s, sc, 1.7, -1.1, 0, models.LiquidityHigh, nil)
	if res.Level != models.ConfidenceHigh {
		t.Fatalf("level = %v", res.Level)
	}
	if res.StructureFactor != 1.0 || res.Consistency != 0 {
		t.Fatalf("factors: %+v", res)
	}
}

func TestGradeMissingFieldsDragDown(t *testing.T) {
	c := New()
	sc := cfg(t)
	s := &models.MarketSnapshot{Symbol: "XYZ", MissingFields: 7, RelVolTo90D: 0.5}
	res := c.Grade(s, sc, 0.2, 0.1, 0, models.LiquidityLow, nil)
	if res.Level != models.ConfidenceLow {
		t.Fatalf("level = %v", res.Level)
	}
}

func TestGradeUnwindingDiscount(t *testing.T) {
	c := New()
	sc := cfg(t)
	s := &models.MarketSnapshot{Symbol: "NVDA", RelVolTo90D: 1.0}

	with := c.Grade(s, sc, 1.2, 1.0, -0.10, models.LiquidityHigh, nil)
	without := c.Grade(s, sc, 1.2, 1.0, 0, models.LiquidityHigh, nil)
	// Same inputs, the closing-flow discount can only lower the grade.
	if with.Level == models.ConfidenceHigh && without.Level != models.ConfidenceHigh {
		t.Fatalf("unwinding must not raise confidence")
	}
	if without.Level != models.ConfidenceHigh {
		t.Fatalf("baseline should grade high, got %v", without.Level)
	}
	if with.Level != models.ConfidenceMedium {
		t.Fatalf("discounted grade = %v", with.Level)
	}
}

func TestConsistency(t *testing.T) {
	if got := Consistency(nil, 5); got != 0 {
		t.Fatalf("empty = %v", got)
	}
	if got := Consistency([]float64{1, 2, 0.5, 3, 1}, 5); got != 1 {
		t.Fatalf("all positive = %v", got)
	}
	if got := Consistency([]float64{1, -1, 1, -1, 0}, 5); got != 0 {
		t.Fatalf("mixed = %v", got)
	}
	// Only the most recent n_days count.
	if got := Consistency([]float64{-1, -1, -1, -1, -1, 9, 9, 9}, 5); got != -1 {
		t.Fatalf("window = %v", got)
	}
}

func TestGradeConsistencyMultiplier(t *testing.T) {
	c := New()
	sc := cfg(t)
	s := &models.MarketSnapshot{Symbol: "NVDA", RelVolTo90D: 1.0}

	aligned := c.Grade(s, sc, 1.2, 1.0, 0, models.LiquidityMedium, []float64{1, 1, 1, 1, 1})
	opposed := c.Grade(s, sc, 1.2, 1.0, 0, models.LiquidityMedium, []float64{-1, -1, -1, -1, -1})

	if aligned.Consistency != 1 || opposed.Consistency != -1 {
		t.Fatalf("consistency: %v / %v", aligned.Consistency, opposed.Consistency)
	}
	// base strength 0.6+0.6+0.25 = 1.45; x1.3 -> high, x0.7 -> medium.
	if aligned.Level != models.ConfidenceHigh {
		t.Fatalf("aligned = %v", aligned.Level)
	}
	if opposed.Level != models.ConfidenceMedium {
		t.Fatalf("opposed = %v", opposed.Level)
	}
}

func TestPenalizeExtremeMoveLowVol(t *testing.T) {
	sc := cfg(t)
	cases := []struct {
		name string
		s    models.MarketSnapshot
		want bool
	}{
		{"big move thin tape", models.MarketSnapshot{PriceChgPct: 25, RelVolTo90D: 0.7}, true},
		{"big move iv crush", models.MarketSnapshot{PriceChgPct: -22, RelVolTo90D: 1.5, IV30ChgPct: -15}, true},
		{"big move supported", models.MarketSnapshot{PriceChgPct: 25, RelVolTo90D: 1.5, IV30ChgPct: 5}, false},
		{"small move", models.MarketSnapshot{PriceChgPct: 5, RelVolTo90D: 0.5}, false},
	}
	for _, tc := range cases {
		if got := PenalizeExtremeMoveLowVol(&tc.s, sc); got != tc.want {
			t.Fatalf("%s: %v", tc.name, got)
		}
	}
}

func TestQuadrantMapping(t *testing.T) {
	sc := cfg(t)
	cases := []struct {
		dir, vol float64
		want     models.Quadrant
	}{
		{1.5, 0.8, models.QuadrantBullBuyVol},
		{1.5, -0.8, models.QuadrantBullSellVol},
		{-1.5, 0.8, models.QuadrantBearBuyVol},
		{-1.5, -0.8, models.QuadrantBearSellVol},
		{0.5, 0.8, models.QuadrantNeutralWatch},
		{1.5, 0.2, models.QuadrantNeutralWatch},
		{0, 0, models.QuadrantNeutralWatch},
	}
	for _, tc := range cases {
		got := CombineQuadrant(DirectionPref(tc.dir), VolPref(tc.vol, sc))
		if got != tc.want {
			t.Fatalf("(%v, %v) = %v, want %v", tc.dir, tc.vol, got, tc.want)
		}
	}
}
