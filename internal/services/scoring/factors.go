package scoring

import (
	"fmt"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	"github.com/foreverwb/volatility-analysis/internal/services/indicators"
	"github.com/foreverwb/volatility-analysis/pkg/config"
)

// DirectionFactors lists the direction-score drivers in evaluation order.
// The always-on readings come first, then the conditional triggers.
func DirectionFactors(s *models.MarketSnapshot, cfg config.Scoring, activeOpenRatio float64) []string {
	factors := make([]string, 0, 8)

	switch {
	case s.PriceChgPct >= 1.0:
		factors = append(factors, fmt.Sprintf("up %.1f%%", s.PriceChgPct))
	case s.PriceChgPct <= -1.0:
		factors = append(factors, fmt.Sprintf("down %.1f%%", s.PriceChgPct))
	default:
		factors = append(factors, fmt.Sprintf("flat %.1f%%", s.PriceChgPct))
	}

	factors = append(factors,
		fmt.Sprintf("volume bias %.2f", indicators.VolumeBias(s)),
		fmt.Sprintf("notional bias %.2f", indicators.NotionalBias(s)),
		fmt.Sprintf("call/put ratio %.2f", indicators.CallPutRatio(s)),
		fmt.Sprintf("relative volume %.2fx", s.RelVolTo90D),
	)

	if activeOpenRatio >= cfg.ActiveOpenRatioBull {
		factors = append(factors, fmt.Sprintf("active opening %.3f", activeOpenRatio))
	} else if activeOpenRatio <= cfg.ActiveOpenRatioBear {
		factors = append(factors, fmt.Sprintf("position unwinding %.3f", activeOpenRatio))
	}

	switch corr := indicators.SpotVolCorrelation(s); {
	case corr >= 0.4:
		factors = append(factors, "squeeze/momentum (price up, vol up)")
	case corr <= -0.5:
		factors = append(factors, "panic selling (price down, vol up)")
	case corr >= 0.2:
		factors = append(factors, "grind higher (price up, vol down)")
	}

	return factors
}

// VolFactors lists the vol-score drivers in evaluation order.
func VolFactors(s *models.MarketSnapshot, cfg config.Scoring, ignoreEarnings bool) []string {
	factors := make([]string, 0, 7)

	factors = append(factors,
		fmt.Sprintf("IVR %.1f%%", s.IVR),
		fmt.Sprintf("IV/RV log %.3f", indicators.IVRVLog(s)),
		fmt.Sprintf("IV/RV ratio %.2f", indicators.IVRVRatio(s)),
		fmt.Sprintf("IV change %.1f%%", s.IV30ChgPct),
		fmt.Sprintf("regime %.2f", indicators.RegimeRatio(s)),
	)

	if !ignoreEarnings {
		if dte := s.DaysToEarnings(); dte != nil && *dte > 0 && *dte <= cfg.EarningsWindowDays {
			factors = append(factors, fmt.Sprintf("earnings in %dd", *dte))
		}
	}

	switch indicators.LegacyTermRatioBand(s) {
	case "inversion":
		factors = append(factors, "term inversion (fear)")
	case "steep":
		factors = append(factors, "term steep (normal)")
	}

	return factors
}
