package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
)

// Raw record keys as they arrive from upstream scanners. Delta open interest
// comes under several spellings depending on the export path.
const (
	keySymbol    = "Symbol"
	keyEarnings  = "Earnings"
	keyDeltaOI   = "DeltaOI_1D"
	keyDeltaOIGr = "ΔOI_1D"
	keyDeltaOILo = "delta_oi_1d"
)

var notionalRe = regexp.MustCompile(`^([0-9.]+)\s*([KMBkmb]?)`)

// Normalizer turns a raw heterogeneous record (string percentages, comma
// separated volumes, K/M/B notional shorthand, mixed key aliases) into a
// typed MarketSnapshot. Parsing never fails: a field that cannot be read
// falls back to its class default and bumps the missing counter.
type Normalizer struct{}

func New() *Normalizer {
	return &Normalizer{}
}

// Fill values per field class.
const (
	fillVolatility = 0.0
	fillVolume     = 1.0
	fillRank       = 50.0
	fillNotional   = 0.0
	fillPutPct     = 50.0
)

// Fields whose absence lowers confidence downstream.
var confidenceFields = []string{
	"PriceChgPct", "RelVolTo90D", "CallVolume", "PutVolume", "IV30", "HV20", "IVR",
}

// Normalize produces a snapshot for one symbol at the given evaluation time.
func (n *Normalizer) Normalize(rec map[string]interface{}, asOf time.Time) *models.MarketSnapshot {
	s := &models.MarketSnapshot{Timestamp: asOf}

	if sym, ok := rec[keySymbol].(string); ok {
		s.Symbol = strings.ToUpper(strings.TrimSpace(sym))
	}

	// Volatility class: missing means no signal, not unknown midpoint.
	s.PriceChgPct = percentOr(rec, "PriceChgPct", fillVolatility)
	s.IV30 = numberOr(rec, "IV30", fillVolatility)
	s.IV30ChgPct = percentOr(rec, "IV30ChgPct", fillVolatility)
	s.HV20 = numberOr(rec, "HV20", fillVolatility)
	s.HV1Y = numberOr(rec, "HV1Y", fillVolatility)

	// Rank class: 50 is the uninformative midpoint.
	s.IVR = rankOr(rec, "IVR")
	s.IV52WPos = rankOr(rec, "IV_52W_P")
	s.OIPctRank = rankOr(rec, "OI_PctRank")

	s.Volume = numberOr(rec, "Volume", fillVolume)
	s.CallVolume = numberOr(rec, "CallVolume", fillVolume)
	s.PutVolume = numberOr(rec, "PutVolume", fillVolume)
	s.RelVolTo90D = numberOr(rec, "RelVolTo90D", fillVolume)
	s.RelNotionalTo90D = numberOr(rec, "RelNotionalTo90D", fillVolume)

	s.PutPct = pctScaleOr(rec, "PutPct", fillPutPct)
	s.SingleLegPct = pctScaleOr(rec, "SingleLegPct", fillVolatility)
	s.MultiLegPct = pctScaleOr(rec, "MultiLegPct", fillVolatility)
	s.ContingentPct = pctScaleOr(rec, "ContingentPct", fillVolatility)

	s.CallNotional = notionalOr(rec, "CallNotional", fillNotional)
	s.PutNotional = notionalOr(rec, "PutNotional", fillNotional)

	s.IV7 = optionalNumber(rec, "IV7")
	s.IV60 = optionalNumber(rec, "IV60")
	s.IV90 = optionalNumber(rec, "IV90")
	s.VIX = optionalNumber(rec, "VIX")

	s.DeltaOI1D = optionalNumber(rec, keyDeltaOI)
	if s.DeltaOI1D == nil {
		s.DeltaOI1D = optionalNumber(rec, keyDeltaOIGr)
	}
	if s.DeltaOI1D == nil {
		s.DeltaOI1D = optionalNumber(rec, keyDeltaOILo)
	}

	if raw, ok := rec[keyEarnings]; ok {
		if d, parsed := ParseEarningsDate(toString(raw)); parsed {
			s.EarningsDate = &d
		}
	}

	for _, f := range confidenceFields {
		if _, ok := parseNumeric(rec[f]); !ok {
			s.MissingFields++
		}
	}

	return s
}

// ParseEarningsDate parses earnings strings like "22-Oct-2025 BMO",
// "19-Nov-2025 AMC" or "22 Oct 2025". The session suffix is dropped.
func ParseEarningsDate(s string) (time.Time, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return time.Time{}, false
	}
	parts := strings.Fields(t)
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if last == "AMC" || last == "BMO" {
			parts = parts[:len(parts)-1]
		}
	}
	t = strings.Join(parts, " ")
	for _, layout := range []string{"2-Jan-2006", "2 Jan 2006", "2-Jan-06", "2 Jan 06", "2006-01-02"} {
		if d, err := time.Parse(layout, t); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// parseNumeric accepts numbers and numeric strings with "%", "+" and comma
// noise. Returns false for anything it cannot read.
func parseNumeric(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		cleaned := strings.NewReplacer("%", "", "+", "", ",", "").Replace(strings.TrimSpace(x))
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// parseNotional additionally understands K/M/B magnitude suffixes,
// e.g. "261.75 M" reads as 261750000.
func parseNotional(v interface{}) (float64, bool) {
	if s, ok := v.(string); ok {
		t := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if m := notionalRe.FindStringSubmatch(t); m != nil && m[1] != "" {
			f, err := strconv.ParseFloat(m[1], 64)
			if err == nil {
				switch strings.ToUpper(m[2]) {
				case "K":
					return f * 1e3, true
				case "M":
					return f * 1e6, true
				case "B":
					return f * 1e9, true
				default:
					return f, true
				}
			}
		}
	}
	return parseNumeric(v)
}

func percentOr(rec map[string]interface{}, key string, fill float64) float64 {
	if f, ok := parseNumeric(rec[key]); ok {
		return f
	}
	return fill
}

func numberOr(rec map[string]interface{}, key string, fill float64) float64 {
	if f, ok := parseNumeric(rec[key]); ok {
		return f
	}
	return fill
}

func notionalOr(rec map[string]interface{}, key string, fill float64) float64 {
	if f, ok := parseNotional(rec[key]); ok {
		return f
	}
	return fill
}

// pctScaleOr parses a 0..100 percentage field: fractional inputs (0,1] are
// treated as ratios and scaled up.
func pctScaleOr(rec map[string]interface{}, key string, fill float64) float64 {
	f, ok := parseNumeric(rec[key])
	if !ok {
		return fill
	}
	return scalePercent(f)
}

// rankOr parses a percent-rank field, applies fraction scaling, and clamps
// the result into [0,100]. Rank fields outside that range are data errors.
func rankOr(rec map[string]interface{}, key string) float64 {
	f, ok := parseNumeric(rec[key])
	if !ok {
		return fillRank
	}
	f = scalePercent(f)
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}

func scalePercent(f float64) float64 {
	if f > 0 && f <= 1.0 {
		return f * 100.0
	}
	return f
}

func optionalNumber(rec map[string]interface{}, key string) *float64 {
	v, ok := rec[key]
	if !ok {
		return nil
	}
	f, ok := parseNumeric(v)
	if !ok {
		return nil
	}
	return &f
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
