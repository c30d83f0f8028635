package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	drepo "github.com/foreverwb/volatility-analysis/internal/domain/repository"
	dservice "github.com/foreverwb/volatility-analysis/internal/domain/service"
	"github.com/foreverwb/volatility-analysis/internal/services/confidence"
	"github.com/foreverwb/volatility-analysis/internal/services/dynparams"
	"github.com/foreverwb/volatility-analysis/internal/services/indicators"
	"github.com/foreverwb/volatility-analysis/internal/services/normalize"
	"github.com/foreverwb/volatility-analysis/internal/services/scoring"
	"github.com/foreverwb/volatility-analysis/internal/services/strategy"
	"github.com/foreverwb/volatility-analysis/internal/services/termstruct"
	"github.com/foreverwb/volatility-analysis/internal/services/trend"
	"github.com/foreverwb/volatility-analysis/pkg/config"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
)

// Analyzer runs the full evaluation pipeline for one raw record: normalize,
// classify the term structure, compute adaptive parameters against the
// symbol's history, score both axes, grade confidence, attach strategy text,
// then persist and publish the result.
type Analyzer struct {
	cfg     *config.Config
	norm    *normalize.Normalizer
	term    *termstruct.Classifier
	scorer  *scoring.Engine
	conf    *confidence.Classifier
	dyn     *dynparams.Engine
	history drepo.HistoryStore
	results drepo.ResultStore
	pub     drepo.Publisher
	vix     dservice.VIXProvider
	metrics drepo.Metrics
	log     *applogger.Logger
}

// NewAnalyzer creates an Analyzer instance.
func NewAnalyzer(
	cfg *config.Config,
	history drepo.HistoryStore,
	results drepo.ResultStore,
	pub drepo.Publisher,
	vix dservice.VIXProvider,
	metrics drepo.Metrics,
	log *applogger.Logger,
) *Analyzer {
	return &Analyzer{
		cfg:     cfg,
		norm:    normalize.New(),
		term:    termstruct.New(),
		scorer:  scoring.NewEngine(),
		conf:    confidence.New(),
		dyn:     dynparams.New(history, cfg.Dynamic, cfg.History.Window, cfg.History.MinSamples),
		history: history,
		results: results,
		pub:     pub,
		vix:     vix,
		metrics: metrics,
		log:     log,
	}
}

// Analyze evaluates a single raw record and returns the full result.
//
// The symbol lock is held from before the history window reads until after
// the day's sample is appended, so concurrent evaluations of the same symbol
// never score against a window that already contains their own sample.
func (a *Analyzer) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	start := time.Now()

	snap := a.norm.Normalize(req.Record, time.Now().UTC())
	if snap.Symbol == "" {
		a.metrics.RecordError("normalize")
		return nil, fmt.Errorf("record has no symbol")
	}
	a.metrics.RecordMissingFields(snap.Symbol, snap.MissingFields)

	unlock := a.history.LockSymbol(snap.Symbol)
	defer unlock()

	quote := a.quoteVIX(ctx, snap)

	scfg := a.cfg.Scoring.EffectiveFor(snap.Symbol)
	quality, qualityIssues := normalize.Quality(req.Record, scfg)
	aor := indicators.ActiveOpenRatio(snap)

	adj, dp := a.adjustment(ctx, snap, quote, scfg)

	term := a.term.Classify(snap)
	dirScore := a.scorer.DirectionScore(snap, scfg, aor, adj)
	volScore := a.scorer.VolScore(snap, scfg, term, req.IgnoreEarnings, adj)

	liquidity := a.conf.Liquidity(snap, scfg)
	recent, err := a.history.RecentScores(ctx, snap.Symbol, scfg.ConsistencyDays)
	if err != nil {
		a.metrics.RecordError("history_read")
		a.log.Warn("recent scores unavailable", applogger.String("symbol", snap.Symbol), applogger.Error(err))
	}
	grade := a.conf.Grade(snap, scfg, dirScore, volScore, aor, liquidity, recent)
	overlay := trend.Compute(recent, scfg)
	posture := confidence.Posture5D(dirScore, recent, scfg)

	dirBias := confidence.DirectionPref(dirScore)
	volBias := confidence.VolPref(volScore, scfg)
	quadrant := confidence.CombineQuadrant(dirBias, volBias)

	isSqueeze := indicators.SqueezePotential(snap)
	strat := strategy.For(quadrant, liquidity, isSqueeze)

	res := &models.AnalysisResult{
		Symbol:    snap.Symbol,
		Timestamp: snap.Timestamp,

		Quadrant:   quadrant,
		Confidence: grade.Level,
		Liquidity:  liquidity,

		IsSqueeze:                  isSqueeze,
		IsIndex:                    a.cfg.Scoring.IsIndex(snap.Symbol),
		PenalizedExtremeMoveLowVol: confidence.PenalizeExtremeMoveLowVol(snap, scfg),

		DirectionScore: dirScore,
		VolScore:       volScore,
		DirectionBias:  dirBias,
		VolBias:        volBias,

		ActiveOpenRatio:  aor,
		SpotVolCorrScore: indicators.SpotVolCorrelation(snap),
		StructureFactor:  grade.StructureFactor,
		Consistency:      grade.Consistency,

		TermStructure: term,
		DynamicParams: dp,
		Derived:       indicators.Derived(snap),

		DirSlope:      overlay.Slope,
		DirTrendLabel: overlay.Label,
		TrendDaysUsed: overlay.DaysUsed,

		Posture5D:          posture.Label,
		PostureConfidence:  posture.Confidence,
		PostureReasons:     posture.Reasons,
		PostureReasonCodes: posture.ReasonCodes,

		DataQuality:       quality,
		DataQualityIssues: qualityIssues,

		DirectionFactors: scoring.DirectionFactors(snap, scfg, aor),
		VolFactors:       scoring.VolFactors(snap, scfg, req.IgnoreEarnings),

		Strategy: strat.Strategy,
		Risk:     strat.Risk,
	}

	a.recordHistory(ctx, snap, quote.Value, dirScore)

	if err := a.results.Store(ctx, res); err != nil {
		a.metrics.RecordError("store")
		a.log.Warn("result store failed", applogger.String("symbol", snap.Symbol), applogger.Error(err))
	}
	if err := a.pub.Publish(ctx, res); err != nil {
		a.metrics.RecordError("publish")
		a.log.Warn("result publish failed", applogger.String("symbol", snap.Symbol), applogger.Error(err))
	}

	a.metrics.RecordAnalysis(snap.Symbol, string(quadrant))
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())

	return res, nil
}

// AnalyzeBatch evaluates records concurrently on a fixed worker pool.
// Failures are reported per item; item order matches the input order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, req *models.AnalyzeBatchRequest) []models.BatchItem {
	items := make([]models.BatchItem, len(req.Records))

	workers := a.cfg.Batch.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(req.Records) {
		workers = len(req.Records)
	}

	type job struct {
		idx int
		rec map[string]interface{}
	}
	jobs := make(chan job)

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for j := range jobs {
				res, err := a.Analyze(ctx, &models.AnalyzeRequest{
					Record:         j.rec,
					IgnoreEarnings: req.IgnoreEarnings,
				})
				if err != nil {
					items[j.idx] = models.BatchItem{Error: err.Error()}
					continue
				}
				items[j.idx] = models.BatchItem{Symbol: res.Symbol, Result: res}
			}
			done <- struct{}{}
		}()
	}

	for i, rec := range req.Records {
		jobs <- job{idx: i, rec: rec}
	}
	close(jobs)
	for w := 0; w < workers; w++ {
		<-done
	}

	return items
}

// quoteVIX prefers a VIX value embedded in the record over the provider.
func (a *Analyzer) quoteVIX(ctx context.Context, snap *models.MarketSnapshot) dservice.VIXQuote {
	if snap.VIX != nil {
		return dservice.VIXQuote{Value: *snap.VIX}
	}
	quote := a.vix.Quote(ctx)
	if quote.IsFallback {
		a.metrics.RecordVIXFallback()
	}
	return quote
}

// adjustment picks the scoring correction for this evaluation: the adaptive
// coefficients when enabled and backed by enough history, the fixed legacy
// multipliers otherwise. The reported DynamicParams always carry the
// configured enabled flag; the coefficient fields stay nil on the legacy
// path.
func (a *Analyzer) adjustment(
	ctx context.Context,
	snap *models.MarketSnapshot,
	quote dservice.VIXQuote,
	scfg config.Scoring,
) (scoring.Adjustment, models.DynamicParams) {
	vixVal := quote.Value
	dp := models.DynamicParams{
		Enabled:       a.cfg.Dynamic.IsEnabled(),
		VIX:           &vixVal,
		VIXIsFallback: quote.IsFallback,
	}
	legacy := scoring.LegacyAdjustment{
		BullBand: scfg.ActiveOpenRatioBull,
		BearBand: scfg.ActiveOpenRatioBear,
	}

	if !a.cfg.Dynamic.IsEnabled() {
		return legacy, dp
	}

	params, err := a.dyn.Evaluate(ctx, snap, vixVal)
	if err != nil {
		if dynparams.IsInsufficient(err) {
			a.log.Debug("insufficient history, fixed multipliers",
				applogger.String("symbol", snap.Symbol))
		} else {
			a.metrics.RecordError("dynparams")
			a.log.Warn("dynamic params unavailable, fixed multipliers",
				applogger.String("symbol", snap.Symbol), applogger.Error(err))
		}
		return legacy, dp
	}

	dp.BetaT = &params.Beta
	dp.LambdaT = &params.Lambda
	dp.AlphaT = &params.Alpha
	dp.BetaTRaw = &params.BetaRaw
	dp.LambdaTRaw = &params.LambdaRaw
	dp.AlphaTRaw = &params.AlphaRaw
	a.metrics.RecordDynamicParams(snap.Symbol, params.Beta, params.Lambda, params.Alpha)

	return scoring.DynamicAdjustment{Params: params}, dp
}

// recordHistory appends the day's sample and direction score after scoring,
// so the next evaluation's window includes today.
func (a *Analyzer) recordHistory(ctx context.Context, snap *models.MarketSnapshot, vix, dirScore float64) {
	sample := models.HistorySample{
		Symbol:      snap.Symbol,
		Date:        snap.Timestamp,
		RelVolTo90D: snap.RelVolTo90D,
		OIPctRank:   snap.OIPctRank,
		IV30:        snap.IV30,
		HV20:        snap.HV20,
		VIX:         vix,
	}
	if err := a.history.Append(ctx, sample); err != nil {
		a.metrics.RecordError("history_write")
		a.log.Warn("history append failed", applogger.String("symbol", snap.Symbol), applogger.Error(err))
	}
	if err := a.history.AppendScore(ctx, snap.Symbol, snap.Timestamp, dirScore); err != nil {
		a.metrics.RecordError("history_write")
		a.log.Warn("score append failed", applogger.String("symbol", snap.Symbol), applogger.Error(err))
	}
}
