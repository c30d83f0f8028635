package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foreverwb/volatility-analysis/pkg/cache"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestProvider(t *testing.T, url string) *VIXProvider {
	t.Helper()
	return NewVIXProvider(Config{
		SourceURL: url,
		APIKey:    "test-key",
		Timeout:   2 * time.Second,
		CacheTTL:  time.Hour,
		Fallback:  18.0,
	}, cache.NewMemoryCache(), testLogger(t))
}

func TestQuoteFetchesAndCaches(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if got := r.URL.Query().Get("function"); got != "GLOBAL_QUOTE" {
			t.Errorf("function = %q, want GLOBAL_QUOTE", got)
		}
		if got := r.URL.Query().Get("symbol"); got != "VIX" {
			t.Errorf("symbol = %q, want VIX", got)
		}
		w.Write([]byte(`{"Global Quote": {"05. price": "18.4200"}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	ctx := context.Background()

	q := p.Quote(ctx)
	if q.IsFallback {
		t.Fatal("expected live quote, got fallback")
	}
	if q.Value != 18.42 {
		t.Fatalf("value = %v, want 18.42", q.Value)
	}

	q = p.Quote(ctx)
	if q.Value != 18.42 || q.IsFallback {
		t.Fatalf("cached quote = %+v", q)
	}
	if n := atomic.LoadInt64(&hits); n != 1 {
		t.Fatalf("source hits = %d, want 1", n)
	}
}

func TestQuoteFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	q := p.Quote(context.Background())
	if !q.IsFallback {
		t.Fatal("expected fallback quote")
	}
	if q.Value != 18.0 {
		t.Fatalf("value = %v, want 18.0", q.Value)
	}
}

func TestQuoteFallbackOnThrottleNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	q := p.Quote(context.Background())
	if !q.IsFallback || q.Value != 18.0 {
		t.Fatalf("quote = %+v, want fallback 18.0", q)
	}
}

func TestQuoteFallbackWhenUnconfigured(t *testing.T) {
	p := newTestProvider(t, "")
	q := p.Quote(context.Background())
	if !q.IsFallback || q.Value != 18.0 {
		t.Fatalf("quote = %+v, want fallback 18.0", q)
	}
}

func TestRefreshRetriesTransientFailure(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"Global Quote": {"05. price": "22.10"}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	v, err := p.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if v != 22.10 {
		t.Fatalf("value = %v, want 22.10", v)
	}
	if n := atomic.LoadInt64(&hits); n != 3 {
		t.Fatalf("source hits = %d, want 3", n)
	}
}
