package models

// TermLabel is the closed set of term-structure shapes. Keeping it an enum
// (rather than free-form text) makes the state-flag derivation exhaustive.
type TermLabel int

const (
	TermNotAvailable TermLabel = iota
	TermFullInversion
	TermShortInversion
	TermMidBulge
	TermFarElevated
	TermShortLow
	TermNormalSteep
)

// String returns the wire name of the label.
func (l TermLabel) String() string {
	switch l {
	case TermFullInversion:
		return "full_inversion"
	case TermShortInversion:
		return "short_inversion"
	case TermMidBulge:
		return "mid_bulge"
	case TermFarElevated:
		return "far_elevated"
	case TermShortLow:
		return "short_low"
	case TermNormalSteep:
		return "normal_steep"
	default:
		return "n/a"
	}
}

// MarshalText implements encoding.TextMarshaler so labels serialize by name.
func (l TermLabel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Term-structure ratio keys. A key is present in the ratio map only when
// both tenors were available and the denominator was finite and non-zero.
const (
	Ratio730  = "7_30"
	Ratio3060 = "30_60"
	Ratio6090 = "60_90"
	Ratio3090 = "30_90"
)

// HorizonBias expresses how strongly a curve shape favors each expiry bucket,
// each value in [-1, 1]. Downstream horizon selection consumes it as-is.
type HorizonBias struct {
	Short float64 `json:"short"`
	Mid   float64 `json:"mid"`
	Long  float64 `json:"long"`
}

// TermStateFlags is the one-hot encoding of TermLabel. All flags are false
// exactly when the label is TermNotAvailable.
type TermStateFlags struct {
	FullInversion  bool `json:"full_inversion"`
	ShortInversion bool `json:"short_inversion"`
	MidBulge       bool `json:"mid_bulge"`
	FarElevated    bool `json:"far_elevated"`
	ShortLow       bool `json:"short_low"`
	NormalSteep    bool `json:"normal_steep"`
}

// TermStructureSnapshot is the per-record classification of the IV curve.
// It is computed fresh per snapshot and immutable once built.
type TermStructureSnapshot struct {
	Ratios      map[string]float64 `json:"ratios"`
	Label       TermLabel          `json:"label"`
	Ratio3090   *float64           `json:"ratio_30_90"`
	Adjustment  float64            `json:"adjustment"`
	HorizonBias HorizonBias        `json:"horizon_bias"`
	StateFlags  TermStateFlags     `json:"state_flags"`
}
