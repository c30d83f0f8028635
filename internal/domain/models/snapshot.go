package models

import "time"

// Metric field keys used by the rolling history store and the dynamic
// parameter engine. The store indexes window queries by these names.
const (
	FieldRelVolTo90D = "rel_vol_to_90d"
	FieldOIPctRank   = "oi_pct_rank"
	FieldIV30        = "iv30"
	FieldHV20        = "hv20"
	FieldVIX         = "vix"
)

// MarketSnapshot is a fully-typed option-market snapshot for one symbol at
// one point in time. It is the output of the field normalizer: every numeric
// field carries either a parsed value or its class fallback, never NaN.
// Note: no transport (json/http) concerns here.
type MarketSnapshot struct {
	Symbol    string
	Timestamp time.Time

	PriceChgPct float64
	IV30        float64
	IV30ChgPct  float64
	HV20        float64
	HV1Y        float64
	IVR         float64
	IV52WPos    float64

	Volume           float64
	CallVolume       float64
	PutVolume        float64
	PutPct           float64
	OIPctRank        float64
	RelVolTo90D      float64
	CallNotional     float64
	PutNotional      float64
	RelNotionalTo90D float64

	SingleLegPct  float64
	MultiLegPct   float64
	ContingentPct float64

	// Optional tenors: nil when the data source does not carry them. The
	// term-structure classifier requires all of IV7/IV60/IV90 for a label.
	IV7  *float64
	IV60 *float64
	IV90 *float64

	// DeltaOI1D is nil when the OI feed had no 1-day delta; ActiveOpenRatio
	// is neutral (0.0) in that case.
	DeltaOI1D *float64

	// VIX, when non-nil, was supplied with the record and overrides the
	// market-data provider.
	VIX *float64

	EarningsDate *time.Time

	// MissingFields counts confidence-relevant fields that could not be
	// parsed and fell back to their class default.
	MissingFields int
}

// TotalVolume returns the snapshot's option volume, preferring the explicit
// Volume field and falling back to call+put legs.
func (s *MarketSnapshot) TotalVolume() float64 {
	if s.Volume > 0 {
		return s.Volume
	}
	return s.CallVolume + s.PutVolume
}

// TotalNotional returns combined call and put notional value.
func (s *MarketSnapshot) TotalNotional() float64 {
	return s.CallNotional + s.PutNotional
}

// DaysToEarnings returns calendar days until the earnings date relative to
// the snapshot timestamp, or nil when no earnings date is known.
func (s *MarketSnapshot) DaysToEarnings() *int {
	if s.EarningsDate == nil {
		return nil
	}
	asOf := s.Timestamp
	if asOf.IsZero() {
		asOf = time.Now()
	}
	days := int(s.EarningsDate.Sub(asOf.Truncate(24*time.Hour)).Hours() / 24)
	return &days
}
