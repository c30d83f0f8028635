package models

import "time"

// DirectionBias is the direction-axis preference derived from the score.
type DirectionBias string

const (
	DirBullish DirectionBias = "bullish"
	DirBearish DirectionBias = "bearish"
	DirNeutral DirectionBias = "neutral"
)

// VolBias is the volatility-axis preference derived from the score.
type VolBias string

const (
	VolBuy     VolBias = "buy_vol"
	VolSell    VolBias = "sell_vol"
	VolNeutral VolBias = "neutral"
)

// Quadrant is the combined market-state classification. A neutral reading on
// either axis collapses to QuadrantNeutralWatch regardless of the other axis.
type Quadrant string

const (
	QuadrantBullBuyVol   Quadrant = "bullish/buy_vol"
	QuadrantBullSellVol  Quadrant = "bullish/sell_vol"
	QuadrantBearBuyVol   Quadrant = "bearish/buy_vol"
	QuadrantBearSellVol  Quadrant = "bearish/sell_vol"
	QuadrantNeutralWatch Quadrant = "neutral/watch"
)

// LiquidityTier grades how tradeable the underlying option market is.
type LiquidityTier string

const (
	LiquidityHigh   LiquidityTier = "high"
	LiquidityMedium LiquidityTier = "medium"
	LiquidityLow    LiquidityTier = "low"
)

// TrendLabel classifies the short-horizon drift of the direction score.
type TrendLabel string

const (
	TrendUp       TrendLabel = "up"
	TrendDown     TrendLabel = "down"
	TrendSideways TrendLabel = "sideways"
)

// PostureLabel is the five-day stance classification.
type PostureLabel string

const (
	PostureTrendConfirm PostureLabel = "TREND_CONFIRM"
	PostureCountertrend PostureLabel = "COUNTERTREND"
	PostureOneDayShock  PostureLabel = "ONE_DAY_SHOCK"
	PostureChop         PostureLabel = "CHOP"
)

// DataQuality grades how trustworthy the raw input record looked.
type DataQuality string

const (
	DataQualityHigh   DataQuality = "high"
	DataQualityMedium DataQuality = "medium"
	DataQualityLow    DataQuality = "low"
)

// ConfidenceLevel grades how much weight the scores deserve.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// DynamicParams reports the adaptive coefficients used (or not) for one
// evaluation. Pointer fields are nil when the engine fell back to the legacy
// fixed multipliers (disabled, or insufficient history for the symbol).
// The *_t_raw fields carry the day's bounded pre-smoothing values.
type DynamicParams struct {
	Enabled       bool     `json:"enabled"`
	VIX           *float64 `json:"vix"`
	VIXIsFallback bool     `json:"vix_is_fallback"`
	BetaT         *float64 `json:"beta_t"`
	LambdaT       *float64 `json:"lambda_t"`
	AlphaT        *float64 `json:"alpha_t"`
	BetaTRaw      *float64 `json:"beta_t_raw"`
	LambdaTRaw    *float64 `json:"lambda_t_raw"`
	AlphaTRaw     *float64 `json:"alpha_t_raw"`
}

// DerivedMetrics exposes the intermediate ratios behind the scores.
type DerivedMetrics struct {
	IVRVRatio      float64 `json:"ivrv_ratio"`
	IVRVDiff       float64 `json:"ivrv_diff"`
	IVRVLog        float64 `json:"ivrv_log"`
	RegimeRatio    float64 `json:"regime_ratio"`
	CPRatio        float64 `json:"cp_ratio"`
	DaysToEarnings *int    `json:"days_to_earnings"`
	FlowBias       float64 `json:"flow_bias"`
	VolumeBias     float64 `json:"volume_bias"`
	NotionalBias   float64 `json:"notional_bias"`
}

// AnalysisResult is the full, stable output contract for one evaluated
// snapshot: write-once per symbol+timestamp. Field presence rules (nil
// dynamic params, omitted ratio keys) are part of the contract.
type AnalysisResult struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`

	Quadrant   Quadrant        `json:"quadrant"`
	Confidence ConfidenceLevel `json:"confidence"`
	Liquidity  LiquidityTier   `json:"liquidity"`

	IsSqueeze                  bool `json:"is_squeeze"`
	IsIndex                    bool `json:"is_index"`
	PenalizedExtremeMoveLowVol bool `json:"penalized_extreme_move_low_vol"`

	DirectionScore float64       `json:"direction_score"`
	VolScore       float64       `json:"vol_score"`
	DirectionBias  DirectionBias `json:"direction_bias"`
	VolBias        VolBias       `json:"vol_bias"`

	ActiveOpenRatio  float64 `json:"active_open_ratio"`
	SpotVolCorrScore float64 `json:"spot_vol_corr_score"`
	StructureFactor  float64 `json:"structure_factor"`
	Consistency      float64 `json:"consistency"`

	TermStructure TermStructureSnapshot `json:"term_structure"`
	DynamicParams DynamicParams         `json:"dynamic_params"`
	Derived       DerivedMetrics        `json:"derived_metrics"`

	DirSlope      float64    `json:"dir_slope_nd"`
	DirTrendLabel TrendLabel `json:"dir_trend_label"`
	TrendDaysUsed int        `json:"trend_days_used"`

	Posture5D          PostureLabel    `json:"posture_5d"`
	PostureConfidence  ConfidenceLevel `json:"posture_confidence"`
	PostureReasons     []string        `json:"posture_reasons"`
	PostureReasonCodes []string        `json:"posture_reason_codes"`

	DataQuality       DataQuality `json:"data_quality"`
	DataQualityIssues []string    `json:"data_quality_issues"`

	DirectionFactors []string `json:"direction_factors"`
	VolFactors       []string `json:"vol_factors"`

	Strategy string `json:"strategy"`
	Risk     string `json:"risk"`
}
