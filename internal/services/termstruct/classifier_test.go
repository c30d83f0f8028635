package termstruct

import (
	"testing"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func snap(iv7, iv30, iv60, iv90 float64) *models.MarketSnapshot {
	return &models.MarketSnapshot{
		IV7:  fp(iv7),
		IV30: iv30,
		IV60: fp(iv60),
		IV90: fp(iv90),
	}
}

func TestClassifyLabels(t *testing.T) {
	cases := []struct {
		name string
		s    *models.MarketSnapshot
		want models.TermLabel
	}{
		// All three ratios above 1.05.
		{"full inversion", snap(60, 50, 42, 35), models.TermFullInversion},
		// Short inverted, mid flat-or-down.
		{"short inversion", snap(55, 50, 51, 52), models.TermShortInversion},
		// Mid bulge: 30/60 elevated, short calm, long soft.
		{"mid bulge", snap(50, 50, 45, 46), models.TermMidBulge},
		// Long elevated with mid at or below 1.0.
		{"far elevated", snap(48, 50, 52, 48), models.TermFarElevated},
		// Short cheap, mid near flat.
		{"short low", snap(40, 50, 51, 52), models.TermShortLow},
		// Monotonic upward curve.
		{"normal steep", snap(48, 50, 53, 56), models.TermNormalSteep},
	}
	c := New()
	for _, tc := range cases {
		got := c.Classify(tc.s)
		if got.Label != tc.want {
			t.Fatalf("%s: label = %v, want %v (ratios %v)", tc.name, got.Label, tc.want, got.Ratios)
		}
	}
}

func TestClassifyPartialCurveNotAvailable(t *testing.T) {
	c := New()
	// IV60 absent: only 7_30 and 30_90 computable.
	s := &models.MarketSnapshot{IV7: fp(55), IV30: 50, IV90: fp(45)}
	got := c.Classify(s)
	if got.Label != models.TermNotAvailable {
		t.Fatalf("label = %v, want NotAvailable", got.Label)
	}
	if _, ok := got.Ratios[models.Ratio3090]; !ok {
		t.Fatalf("expected 30_90 ratio present")
	}
	if got.Ratio3090 == nil || *got.Ratio3090 != 50.0/45.0 {
		t.Fatalf("ratio_30_90 = %v", got.Ratio3090)
	}
	if got.StateFlags != (models.TermStateFlags{}) {
		t.Fatalf("flags should be all false: %+v", got.StateFlags)
	}
	if got.HorizonBias != (models.HorizonBias{}) {
		t.Fatalf("bias should be zero: %+v", got.HorizonBias)
	}
}

func TestClassifyZeroDenominatorOmitsRatio(t *testing.T) {
	c := New()
	s := &models.MarketSnapshot{IV7: fp(55), IV30: 0, IV60: fp(45), IV90: fp(40)}
	got := c.Classify(s)
	if _, ok := got.Ratios[models.Ratio730]; ok {
		t.Fatalf("7_30 should be omitted on zero denominator")
	}
	if got.Label != models.TermNotAvailable {
		t.Fatalf("label = %v", got.Label)
	}
}

func TestClassifyStateFlagsOneHot(t *testing.T) {
	c := New()
	got := c.Classify(snap(60, 50, 42, 35))
	f := got.StateFlags
	ons := 0
	for _, b := range []bool{f.FullInversion, f.ShortInversion, f.MidBulge, f.FarElevated, f.ShortLow, f.NormalSteep} {
		if b {
			ons++
		}
	}
	if ons != 1 || !f.FullInversion {
		t.Fatalf("flags not one-hot: %+v", f)
	}
}

func TestClassifyHorizonBias(t *testing.T) {
	c := New()
	got := c.Classify(snap(50, 50, 45, 46))
	if got.Label != models.TermMidBulge {
		t.Fatalf("label = %v", got.Label)
	}
	want := models.HorizonBias{Short: -0.2, Mid: 0.6, Long: 0.3}
	if got.HorizonBias != want {
		t.Fatalf("bias = %+v", got.HorizonBias)
	}
}
