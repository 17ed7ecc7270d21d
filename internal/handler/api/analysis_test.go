package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"WxEdge/internal/engine"
	"WxEdge/internal/usecase"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

func testHandler(t *testing.T) *AnalysisHandler {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	an := usecase.NewAnalyzer("NYC", loc, nil, nil, nil, engine.New(engine.DefaultConfig()), nil, l)
	cal := usecase.NewCalibrator("NYC", nil, nil, l)
	return NewAnalysisHandler(l, an, cal, "NYC")
}

func doGet(t *testing.T, h func(echo.Context) error, target string) xhttp.APIResponse {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	var resp xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestAnalysisUnknownCity(t *testing.T) {
	h := testHandler(t)
	resp := doGet(t, h.Analysis, "/api/analysis?city=LAX")
	if resp.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.Status, http.StatusNotFound)
	}
}

func TestAnalysisBeforeFirstTick(t *testing.T) {
	h := testHandler(t)
	resp := doGet(t, h.Analysis, "/api/analysis?city=NYC")
	if resp.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.Status, http.StatusServiceUnavailable)
	}
}

func TestSignalsKnownCityDefault(t *testing.T) {
	h := testHandler(t)
	// default city is NYC; no tick has run, so the handler must report 503
	// rather than an unknown-city 404
	resp := doGet(t, h.Signals, "/api/signals")
	if resp.Status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", resp.Status, http.StatusServiceUnavailable)
	}
}

func TestHealthWithoutTick(t *testing.T) {
	h := testHandler(t)
	resp := doGet(t, h.Health, "/healthz")
	if resp.Status != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.Status, http.StatusOK)
	}
}
