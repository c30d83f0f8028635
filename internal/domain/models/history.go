package models

import "time"

// HistorySample is one day's worth of rolling-history inputs for a symbol.
// Samples are keyed by (symbol, date): re-analysis of the same day replaces
// the earlier sample instead of duplicating it.
type HistorySample struct {
	Symbol      string    `json:"symbol"`
	Date        time.Time `json:"date"`
	RelVolTo90D float64   `json:"rel_vol_to_90d"`
	OIPctRank   float64   `json:"oi_pct_rank"`
	IV30        float64   `json:"iv30"`
	HV20        float64   `json:"hv20"`
	VIX         float64   `json:"vix"`
}

// Field returns the sample value for a metric field key.
func (s HistorySample) Field(name string) (float64, bool) {
	switch name {
	case FieldRelVolTo90D:
		return s.RelVolTo90D, true
	case FieldOIPctRank:
		return s.OIPctRank, true
	case FieldIV30:
		return s.IV30, true
	case FieldHV20:
		return s.HV20, true
	case FieldVIX:
		return s.VIX, true
	default:
		return 0, false
	}
}

// WindowStats summarizes a trailing window of one metric field.
type WindowStats struct {
	Mean  float64
	Stdev float64
	Count int
}

// EMAState carries the last smoothed dynamic-parameter values for a symbol.
// Nil pointers mean no prior evaluation; the engine then seeds the EMA with
// the first bounded value. The state is persisted next to the symbol's
// samples so smoothing survives process restarts.
type EMAState struct {
	Beta   *float64 `json:"beta_t"`
	Lambda *float64 `json:"lambda_t"`
	Alpha  *float64 `json:"alpha_t"`
}

// ScoreEntry is a dated direction score kept for the intertemporal
// consistency factor (trailing sign agreement over recent evaluations).
type ScoreEntry struct {
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}
