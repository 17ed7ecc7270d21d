package api

import (
	"time"

	models "WxEdge/internal/domain/models"
	"WxEdge/internal/usecase"
	"WxEdge/pkg/config"
	xhttp "WxEdge/pkg/http"
	applogger "WxEdge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler serves the latest analysis state over HTTP. All reads are
// against the in-memory result of the most recent tick; nothing here
// triggers a fetch.
type AnalysisHandler struct {
	logger     *applogger.Logger
	analyzer   *usecase.Analyzer
	calibrator *usecase.Calibrator
	city       string
}

func NewAnalysisHandler(l *applogger.Logger, an *usecase.Analyzer, cal *usecase.Calibrator, city string) *AnalysisHandler {
	return &AnalysisHandler{logger: l, analyzer: an, calibrator: cal, city: city}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analysis", h.Analysis)
	g.GET("/signals", h.Signals)
	g.GET("/brackets", h.Brackets)
	g.GET("/forecast", h.Forecast)
	g.GET("/calibration", h.Calibration)
	g.GET("/cities", h.Cities)
	e.GET("/healthz", h.Health)
}

// latest validates the city and returns the current analysis, or an
// AppError when no tick has completed yet.
func (h *AnalysisHandler) latest(city string) (*models.Analysis, error) {
	if _, err := config.GetCity(city); err != nil {
		return nil, xhttp.NotFoundErrorf("unknown city %q", city)
	}
	a := h.analyzer.Latest()
	if a == nil {
		return nil, xhttp.UnavailableError("no analysis available yet")
	}
	return a, nil
}

func (h *AnalysisHandler) Analysis(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	a, err := h.latest(req.City)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if req.Date != "" && req.Date != a.TargetDate {
		return xhttp.AppErrorResponse(c,
			xhttp.NotFoundErrorf("no analysis for date %s", req.Date))
	}
	return xhttp.SuccessResponse(c, a)
}

func (h *AnalysisHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	a, err := h.latest(req.City)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	signals := a.Signals
	if req.MinEdge > 0 {
		filtered := make([]models.TradingSignal, 0, len(signals))
		for _, s := range signals {
			if s.Edge >= req.MinEdge {
				filtered = append(filtered, s)
			}
		}
		signals = filtered
	}
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

func (h *AnalysisHandler) Brackets(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	a, err := h.latest(req.City)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, a.Probs, int64(len(a.Probs)))
}

func (h *AnalysisHandler) Forecast(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	a, err := h.latest(req.City)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, echo.Map{
		"target_date": a.TargetDate,
		"forecasts":   a.Forecasts,
		"combined":    a.Combined,
		"refined":     a.Refined,
		"observation": a.Observation,
	})
}

func (h *AnalysisHandler) Calibration(c echo.Context) error {
	req := &models.CalibrationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	to := time.Now()
	from := to.AddDate(0, 0, -req.Days)
	rows, err := h.calibrator.ForecastErrors(c.Request().Context(), from, to)
	if err != nil {
		h.logger.Error("calibration query error", applogger.Error(err))
		return xhttp.AppErrorResponse(c,
			xhttp.UnavailableError("calibration archive unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AnalysisHandler) Cities(c echo.Context) error {
	return xhttp.ListResponse(c, config.ListCities(), int64(len(config.ListCities())))
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	status := echo.Map{"status": "ok", "city": h.city}
	if a := h.analyzer.Latest(); a != nil {
		status["last_tick"] = a.AnalyzedAt
		status["target_date"] = a.TargetDate
	}
	return xhttp.SuccessResponse(c, status)
}
