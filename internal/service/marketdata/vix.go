package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/foreverwb/volatility-analysis/internal/domain/service"
	"github.com/foreverwb/volatility-analysis/pkg/cache"
	xhttp "github.com/foreverwb/volatility-analysis/pkg/http"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
)

const vixCacheKey = "vix:latest"

// Config holds the VIX source settings.
type Config struct {
	SourceURL string
	APIKey    string
	Timeout   time.Duration
	CacheTTL  time.Duration
	Fallback  float64
}

// VIXProvider fetches the latest VIX print over HTTP with a short-TTL cache
// in front. Acquisition never blocks an evaluation: on any failure the
// configured fallback value is returned and flagged, so downstream can tell
// a real print from the default.
type VIXProvider struct {
	cfg    Config
	client *xhttp.Client
	cache  cache.Service
	log    *applogger.Logger
}

func NewVIXProvider(cfg Config, cacheSvc cache.Service, log *applogger.Logger) *VIXProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &VIXProvider{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:  cacheSvc,
		log:    log,
	}
}

var _ service.VIXProvider = (*VIXProvider)(nil)

// Quote returns the current VIX value. Cache hit first, then a fresh fetch,
// then the fallback. Values are cached as strings so both cache backends
// round-trip them the same way.
func (p *VIXProvider) Quote(ctx context.Context) service.VIXQuote {
	var cached string
	if err := p.cache.Get(ctx, vixCacheKey, &cached); err == nil {
		if v, perr := strconv.ParseFloat(cached, 64); perr == nil && v > 0 {
			return service.VIXQuote{Value: v}
		}
	}

	value, err := p.Refresh(ctx)
	if err != nil {
		p.log.Warn("vix fetch failed, using fallback",
			applogger.Error(err),
			applogger.Any("fallback", p.cfg.Fallback),
		)
		return service.VIXQuote{Value: p.cfg.Fallback, IsFallback: true}
	}
	return service.VIXQuote{Value: value}
}

// Refresh fetches a fresh print and stores it in the cache. The cron
// maintenance job calls this hourly so request-path fetches stay rare.
func (p *VIXProvider) Refresh(ctx context.Context) (float64, error) {
	if p.cfg.SourceURL == "" {
		return 0, fmt.Errorf("vix source url not configured")
	}

	var value float64
	fetch := func() error {
		v, err := p.fetch(ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(fetch, policy); err != nil {
		return 0, err
	}

	if err := p.cache.Set(ctx, vixCacheKey, strconv.FormatFloat(value, 'f', -1, 64), p.cfg.CacheTTL); err != nil {
		p.log.Warn("vix cache store failed", applogger.Error(err))
	}
	p.log.Debug("vix refreshed", applogger.Any("value", value))
	return value, nil
}

// quoteResponse matches the Alpha Vantage GLOBAL_QUOTE shape.
type quoteResponse struct {
	GlobalQuote struct {
		Price string `json:"05. price"`
	} `json:"Global Quote"`
	Note string `json:"Note"`
}

func (p *VIXProvider) fetch(ctx context.Context) (float64, error) {
	var resp quoteResponse
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.cfg.SourceURL,
		QueryParams: map[string][]string{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {"VIX"},
			"apikey":   {p.cfg.APIKey},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("vix request: %w", err)
	}
	if resp.Note != "" {
		return 0, fmt.Errorf("vix source throttled: %s", resp.Note)
	}
	price := strings.TrimSpace(resp.GlobalQuote.Price)
	if price == "" {
		return 0, fmt.Errorf("vix response missing price")
	}
	v, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse vix price %q: %w", price, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("vix price out of range: %v", v)
	}
	return v, nil
}

// StaticVIXProvider serves a fixed value; used in tests and when a VIX value
// arrives embedded in the input record.
type StaticVIXProvider struct {
	Value float64
}

func (s StaticVIXProvider) Quote(context.Context) service.VIXQuote {
	return service.VIXQuote{Value: s.Value}
}
