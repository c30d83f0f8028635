package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/foreverwb/volatility-analysis/internal/repository"
	"github.com/foreverwb/volatility-analysis/internal/service/marketdata"
	"github.com/foreverwb/volatility-analysis/internal/usecase"
	"github.com/foreverwb/volatility-analysis/pkg/config"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
	"github.com/foreverwb/volatility-analysis/pkg/metrics"
)

func newTestHandler(t *testing.T) *AnalyzeHandler {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	results := repository.NoopResultStore{}
	analyzer := usecase.NewAnalyzer(
		cfg,
		repository.NewMemoryHistoryStore(),
		results,
		repository.NoopPublisher{},
		marketdata.StaticVIXProvider{Value: 18.4},
		metrics.NewWith(prometheus.NewRegistry()),
		log,
	)
	return NewAnalyzeHandler(analyzer, results, log)
}

func do(t *testing.T, h *AnalyzeHandler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestHandler(t)
	body := `{"record": {"Symbol": "NVDA", "PriceChgPct": "+3.4%", "IV30": 47.2, "HV20": 40.0, "IVR": 63.0, "CallVolume": 900000, "PutVolume": 300000, "PutPct": 25.0, "RelVolTo90D": 1.4}}`

	rec := do(t, h, http.MethodPost, "/api/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			Symbol        string `json:"symbol"`
			Quadrant      string `json:"quadrant"`
			DirectionBias string `json:"direction_bias"`
			Strategy      string `json:"strategy"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Symbol != "NVDA" {
		t.Fatalf("symbol = %q", resp.Data.Symbol)
	}
	if resp.Data.DirectionBias != "bullish" {
		t.Fatalf("direction bias = %q", resp.Data.DirectionBias)
	}
	if resp.Data.Strategy == "" {
		t.Fatal("strategy text missing")
	}
}

func TestAnalyzeEndpointRejectsMissingRecord(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodPost, "/api/analyze", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status field = %d, want 400", resp.Status)
	}
}

func TestAnalyzeBatchEndpoint(t *testing.T) {
	h := newTestHandler(t)
	body := `{"records": [
		{"Symbol": "NVDA", "PriceChgPct": 3.4, "IV30": 47.2, "HV20": 40.0},
		{"IV30": 40.0}
	]}`

	rec := do(t, h, http.MethodPost, "/api/analyze/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Rows []struct {
				Symbol string `json:"symbol"`
				Error  string `json:"error"`
			} `json:"rows"`
			Total int64 `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Total != 2 {
		t.Fatalf("total = %d", resp.Data.Total)
	}
	if resp.Data.Rows[0].Symbol != "NVDA" {
		t.Fatalf("rows[0] = %+v", resp.Data.Rows[0])
	}
	if resp.Data.Rows[1].Error == "" {
		t.Fatalf("rows[1] should carry an error, got %+v", resp.Data.Rows[1])
	}
}

func TestDeleteRecordsRequiresSelector(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodDelete, "/api/records", `{}`)
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status field = %d, want 400", resp.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)
	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
