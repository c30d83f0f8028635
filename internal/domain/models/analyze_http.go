package models

// Requests for the analysis HTTP endpoints. Defined in domain for
// consistency and reuse.

// AnalyzeRequest carries one raw snapshot record. Record values are
// heterogeneous ("+3.4%", "1,234,567", "500M", plain floats); the field
// normalizer turns them into a typed MarketSnapshot.
type AnalyzeRequest struct {
	Record         map[string]interface{} `json:"record" validate:"required"`
	IgnoreEarnings bool                   `json:"ignore_earnings"`
}

// AnalyzeBatchRequest carries many raw records; each is evaluated
// independently and failures are reported per item.
type AnalyzeBatchRequest struct {
	Records        []map[string]interface{} `json:"records" validate:"required,min=1,max=500"`
	IgnoreEarnings bool                     `json:"ignore_earnings"`
}

// BatchItem is the per-record outcome of a batch analysis.
type BatchItem struct {
	Symbol string          `json:"symbol,omitempty"`
	Result *AnalysisResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RecordsRequest filters stored analysis results.
type RecordsRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Date   string `query:"date" json:"date"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

// DeleteRecordsRequest deletes stored results by symbol+timestamp or by date.
type DeleteRecordsRequest struct {
	Symbol    string `json:"symbol"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
}
