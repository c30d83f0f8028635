package indicators

import (
	"math"
	"testing"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
)

func fp(v float64) *float64 { return &v }

func TestActiveOpenRatio(t *testing.T) {
	s := &models.MarketSnapshot{DeltaOI1D: fp(5000), Volume: 100000}
	if got := ActiveOpenRatio(s); got != 0.05 {
		t.Fatalf("aor = %v", got)
	}

	// Missing delta feed is neutral, never an error.
	s = &models.MarketSnapshot{Volume: 100000}
	if got := ActiveOpenRatio(s); got != 0 {
		t.Fatalf("aor without delta = %v", got)
	}

	// Zero volume is neutral too.
	s = &models.MarketSnapshot{DeltaOI1D: fp(5000)}
	if got := ActiveOpenRatio(s); got != 0 {
		t.Fatalf("aor with zero volume = %v", got)
	}

	// Falls back to call+put legs when Volume is absent.
	s = &models.MarketSnapshot{DeltaOI1D: fp(-300), CallVolume: 4000, PutVolume: 2000}
	if got := ActiveOpenRatio(s); got != -0.05 {
		t.Fatalf("aor from legs = %v", got)
	}
}

func TestSpotVolCorrelation(t *testing.T) {
	cases := []struct {
		price, iv float64
		want      float64
	}{
		{2.0, 5.0, 0.4},   // momentum
		{-2.0, 5.0, -0.5}, // panic
		{1.0, -3.0, 0.2},  // grind up
		{0.2, 0.5, 0.0},   // quiet
		{-0.2, 5.0, 0.0},  // small move, vol pop
	}
	for _, tc := range cases {
		s := &models.MarketSnapshot{PriceChgPct: tc.price, IV30ChgPct: tc.iv}
		if got := SpotVolCorrelation(s); got != tc.want {
			t.Fatalf("spot-vol (%v, %v) = %v, want %v", tc.price, tc.iv, got, tc.want)
		}
	}
}

func TestSqueezePotential(t *testing.T) {
	base := models.MarketSnapshot{
		IV30: 30, HV20: 40, OIPctRank: 80, PriceChgPct: 2.0, RelVolTo90D: 1.5,
	}
	if !SqueezePotential(&base) {
		t.Fatalf("expected squeeze")
	}

	// Each condition individually breaks the flag.
	for name, mut := range map[string]func(*models.MarketSnapshot){
		"rich iv":    func(s *models.MarketSnapshot) { s.IV30 = 45 },
		"low oi":     func(s *models.MarketSnapshot) { s.OIPctRank = 50 },
		"flat price": func(s *models.MarketSnapshot) { s.PriceChgPct = 0.5 },
		"thin vol":   func(s *models.MarketSnapshot) { s.RelVolTo90D = 1.0 },
		"no hv":      func(s *models.MarketSnapshot) { s.HV20 = 0 },
	} {
		s := base
		mut(&s)
		if SqueezePotential(&s) {
			t.Fatalf("%s: squeeze should not fire", name)
		}
	}
}

func TestBiases(t *testing.T) {
	s := &models.MarketSnapshot{
		CallVolume: 6000, PutVolume: 4000,
		CallNotional: 3e8, PutNotional: 1e8,
	}
	if got := VolumeBias(s); got != 0.2 {
		t.Fatalf("volume bias = %v", got)
	}
	if got := NotionalBias(s); got != 0.5 {
		t.Fatalf("notional bias = %v", got)
	}
	if got := CallPutRatio(s); got != 3.0 {
		t.Fatalf("cp ratio = %v", got)
	}

	// No notional: ratio falls back to volume legs.
	s = &models.MarketSnapshot{CallVolume: 5000, PutVolume: 2500}
	if got := CallPutRatio(s); got != 2.0 {
		t.Fatalf("cp ratio from volume = %v", got)
	}

	// Empty tape is neutral everywhere.
	s = &models.MarketSnapshot{}
	if VolumeBias(s) != 0 || NotionalBias(s) != 0 || CallPutRatio(s) != 1.0 {
		t.Fatalf("empty tape should be neutral")
	}
}

func TestIVRVAndRegime(t *testing.T) {
	s := &models.MarketSnapshot{IV30: 44, HV20: 40, HV1Y: 32}
	if got := IVRVRatio(s); got != 1.1 {
		t.Fatalf("ivrv ratio = %v", got)
	}
	if got := IVRVLog(s); math.Abs(got-math.Log(1.1)) > 1e-12 {
		t.Fatalf("ivrv log = %v", got)
	}
	if got := RegimeRatio(s); got != 1.25 {
		t.Fatalf("regime = %v", got)
	}

	s = &models.MarketSnapshot{IV30: 44}
	if IVRVRatio(s) != 1.0 || IVRVLog(s) != 0.0 || RegimeRatio(s) != 1.0 {
		t.Fatalf("zero history vols should be neutral")
	}
}

func TestLegacyTermRatioBand(t *testing.T) {
	s := &models.MarketSnapshot{IV30: 50, IV90: fp(40)}
	if got := LegacyTermRatioBand(s); got != "inversion" {
		t.Fatalf("band = %v", got)
	}
	s = &models.MarketSnapshot{IV30: 34, IV90: fp(40)}
	if got := LegacyTermRatioBand(s); got != "steep" {
		t.Fatalf("band = %v", got)
	}
	s = &models.MarketSnapshot{IV30: 40, IV90: fp(40)}
	if got := LegacyTermRatioBand(s); got != "flat" {
		t.Fatalf("band = %v", got)
	}
	s = &models.MarketSnapshot{IV30: 40}
	if got := LegacyTermRatioBand(s); got != "n/a" {
		t.Fatalf("band = %v", got)
	}
}
