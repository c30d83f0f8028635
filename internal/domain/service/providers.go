package service

import "context"

// VIXQuote is the market-volatility index reading used by the dynamic
// parameter engine. IsFallback is true when the provider could not reach its
// source and returned the configured constant instead; downstream consumers
// may discount confidence accordingly.
type VIXQuote struct {
	Value      float64
	IsFallback bool
}

// VIXProvider returns the current VIX level. Implementations cache with a
// short TTL and never block on source failure: they fall back immediately.
type VIXProvider interface {
	Quote(ctx context.Context) VIXQuote
}
