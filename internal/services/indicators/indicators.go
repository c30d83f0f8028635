package indicators

import (
	"math"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
)

// safeDiv guards every ratio in this package. Division by zero yields the
// neutral default instead of Inf/NaN.
func safeDiv(a, b, def float64) float64 {
	if b == 0 {
		return def
	}
	return a / b
}

// VolumeBias is the call/put volume skew in [-1, 1].
func VolumeBias(s *models.MarketSnapshot) float64 {
	return safeDiv(s.CallVolume-s.PutVolume, s.CallVolume+s.PutVolume, 0.0)
}

// NotionalBias (flow bias) is the call/put notional skew in [-1, 1].
func NotionalBias(s *models.MarketSnapshot) float64 {
	return safeDiv(s.CallNotional-s.PutNotional, s.CallNotional+s.PutNotional, 0.0)
}

// CallPutRatio prefers notional and falls back to volume legs.
func CallPutRatio(s *models.MarketSnapshot) float64 {
	if s.CallNotional > 0 && s.PutNotional > 0 {
		return s.CallNotional / s.PutNotional
	}
	return safeDiv(s.CallVolume, s.PutVolume, 1.0)
}

// IVRVRatio is IV30/HV20, 1.0 when HV20 is unusable.
func IVRVRatio(s *models.MarketSnapshot) float64 {
	if s.HV20 <= 0 {
		return 1.0
	}
	return s.IV30 / s.HV20
}

// IVRVLog is ln(IV30/HV20), 0.0 when either side is non-positive.
func IVRVLog(s *models.MarketSnapshot) float64 {
	if s.IV30 <= 0 || s.HV20 <= 0 {
		return 0.0
	}
	return math.Log(s.IV30 / s.HV20)
}

// RegimeRatio is HV20/HV1Y, 1.0 when HV1Y is unusable.
func RegimeRatio(s *models.MarketSnapshot) float64 {
	if s.HV1Y <= 0 {
		return 1.0
	}
	return s.HV20 / s.HV1Y
}

// SpotVolCorrelation scores the joint move of spot and implied vol.
// Momentum (both up) +0.4, panic (spot down, vol up) -0.5, grind
// (spot up, vol down) +0.2, else neutral.
func SpotVolCorrelation(s *models.MarketSnapshot) float64 {
	priceChg, ivChg := s.PriceChgPct, s.IV30ChgPct
	switch {
	case priceChg > 0.5 && ivChg > 2.0:
		return 0.4
	case priceChg < -0.5 && ivChg > 2.0:
		return -0.5
	case priceChg > 0 && ivChg < -2.0:
		return 0.2
	default:
		return 0.0
	}
}

// ActiveOpenRatio is the 1-day open-interest delta over total option volume.
// Without a delta feed, or with zero volume, the signal is neutral (0.0).
// Readings at or above +0.05 indicate fresh positioning, at or below -0.05
// indicate unwinding.
func ActiveOpenRatio(s *models.MarketSnapshot) float64 {
	if s.DeltaOI1D == nil {
		return 0.0
	}
	vol := s.TotalVolume()
	if vol == 0 {
		return 0.0
	}
	return *s.DeltaOI1D / vol
}

// SqueezePotential flags gamma-squeeze setups: cheap options, crowded open
// interest, a price move already underway, and expanded volume. All four
// must hold, and HV20 must be positive for the cheapness test to mean
// anything.
func SqueezePotential(s *models.MarketSnapshot) bool {
	if s.HV20 <= 0 {
		return false
	}
	return s.IV30/s.HV20 < 0.95 &&
		s.OIPctRank > 70 &&
		s.PriceChgPct > 1.5 &&
		s.RelVolTo90D > 1.2
}

// LegacyTermRatioBand maps the display-level IV30/IV90 ratio onto coarse
// bands: "inversion" above 1.1, "steep" below 0.9, "flat" between, and
// "n/a" when IV90 is missing or zero.
func LegacyTermRatioBand(s *models.MarketSnapshot) string {
	if s.IV90 == nil || *s.IV90 == 0 {
		return "n/a"
	}
	r := s.IV30 / *s.IV90
	switch {
	case r > 1.1:
		return "inversion"
	case r < 0.9:
		return "steep"
	default:
		return "flat"
	}
}

// Derived assembles the indicator bundle attached to every analysis result.
func Derived(s *models.MarketSnapshot) models.DerivedMetrics {
	return models.DerivedMetrics{
		IVRVRatio:      IVRVRatio(s),
		IVRVDiff:       s.IV30 - s.HV20,
		IVRVLog:        IVRVLog(s),
		RegimeRatio:    RegimeRatio(s),
		CPRatio:        CallPutRatio(s),
		DaysToEarnings: s.DaysToEarnings(),
		FlowBias:       NotionalBias(s),
		VolumeBias:     VolumeBias(s),
		NotionalBias:   NotionalBias(s),
	}
}
