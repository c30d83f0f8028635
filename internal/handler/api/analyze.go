package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/foreverwb/volatility-analysis/internal/domain/models"
	drepo "github.com/foreverwb/volatility-analysis/internal/domain/repository"
	"github.com/foreverwb/volatility-analysis/internal/service/ratelimit"
	"github.com/foreverwb/volatility-analysis/internal/usecase"
	xhttp "github.com/foreverwb/volatility-analysis/pkg/http"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
)

// AnalyzeHandler exposes the evaluation pipeline and the stored-result
// queries over HTTP.
type AnalyzeHandler struct {
	analyzer *usecase.Analyzer
	results  drepo.ResultStore
	rl       *ratelimit.Limiter
	logger   *applogger.Logger
}

func NewAnalyzeHandler(analyzer *usecase.Analyzer, results drepo.ResultStore, logger *applogger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer, results: results, rl: ratelimit.New(), logger: logger}
}

func (h *AnalyzeHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.POST("/analyze/batch", h.AnalyzeBatch)
	g.GET("/records", h.Records)
	g.DELETE("/records", h.DeleteRecords)
}

func (h *AnalyzeHandler) Analyze(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":analyze", 20, 10) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Analyze(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("analyze failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalyzeHandler) AnalyzeBatch(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":batch", 5, 1) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", 429))
	}

	req := &models.AnalyzeBatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	items := h.analyzer.AnalyzeBatch(c.Request().Context(), req)
	return xhttp.ListResponse(c, items, int64(len(items)))
}

func (h *AnalyzeHandler) Records(c echo.Context) error {
	req := &models.RecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var from, to time.Time
	if req.Date != "" {
		day, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestErrorf("invalid date %q, want YYYY-MM-DD", req.Date))
		}
		from = day
		to = day.Add(24 * time.Hour)
	}

	rows, err := h.results.Query(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("records query failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AnalyzeHandler) DeleteRecords(c echo.Context) error {
	req := &models.DeleteRecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	switch {
	case req.Symbol != "" && req.Timestamp != "":
		ts, ok := xhttp.ParseTime(req.Timestamp)
		if !ok {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestErrorf("invalid timestamp %q", req.Timestamp))
		}
		if err := h.results.Delete(ctx, req.Symbol, ts); err != nil {
			h.logger.Error("record delete failed", applogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
	case req.Date != "":
		day, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestErrorf("invalid date %q, want YYYY-MM-DD", req.Date))
		}
		if err := h.results.DeleteByDate(ctx, day); err != nil {
			h.logger.Error("records delete failed", applogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
	default:
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError("symbol+timestamp or date required"))
	}

	return xhttp.NoContentResponse(c)
}

func (h *AnalyzeHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if err := h.results.Health(c.Request().Context()); err != nil {
		status["status"] = "degraded"
		status["results"] = err.Error()
	}
	return xhttp.SuccessResponse(c, status)
}
