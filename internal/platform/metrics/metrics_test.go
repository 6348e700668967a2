package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestInit_Idempotent(t *testing.T) {
	// Registering twice must not panic.
	Init(nil)
	Init(nil)
}

func TestObserveHelpers(t *testing.T) {
	Init(nil)

	ObserveHTTPRequest(http.MethodGet, "/api/camps", http.StatusOK, 25*time.Millisecond)
	ObserveHTTPRequest(http.MethodPost, "", http.StatusCreated, 10*time.Millisecond)
	ObserveHeatmap("computed", ResultSuccess, 120*time.Millisecond)
	ObserveHeatmap("", "", 5*time.Millisecond)
	ObserveInference(ModelTranslation, ResultError, 2*time.Second)
	ObserveInference("", "", time.Second)
	ObserveReportExport("xlsx", ResultSuccess, 300*time.Millisecond)
	IncWSSession()
	IncWSMessage()
	DecWSSession()
}

func TestMiddleware_RecordsRequest(t *testing.T) {
	Init(nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/camps", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/camps")

	mw := Middleware()
	h := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The scrape endpoint should now expose the request series.
	scrapeReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	scrapeRec := httptest.NewRecorder()
	scrapeCtx := e.NewContext(scrapeReq, scrapeRec)
	scrapeCtx.SetPath("/metrics")

	if err := Handler()(scrapeCtx); err != nil {
		t.Fatalf("scrape handler failed: %v", err)
	}
	if scrapeRec.Code != http.StatusOK {
		t.Fatalf("expected 200 from scrape endpoint, got %d", scrapeRec.Code)
	}
	if body := scrapeRec.Body.String(); !strings.Contains(body, "medcamp_http_requests_total") {
		t.Error("expected scrape output to contain medcamp_http_requests_total")
	}
}

func TestMiddleware_UsesErrorStatus(t *testing.T) {
	Init(nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/organizer/camps", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/organizer/camps")

	mw := Middleware()
	h := mw(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "nope")
	})
	err := h(c)
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
}
