package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TrackBets/internal/domain/models"
	domrepo "TrackBets/internal/domain/repository"
	"TrackBets/internal/services/analysis"
	"TrackBets/internal/usecase"
	xhttp "TrackBets/pkg/http"
	xlogger "TrackBets/pkg/logger"
)

const serviceName = "TrackBets API"

// AnalysisHandler serves the demo catalog over the analysis API contract.
type AnalysisHandler struct {
	logger  *xlogger.Logger
	catalog *analysis.Catalog
	search  *usecase.Search
	metrics domrepo.Metrics
}

func NewAnalysisHandler(logger *xlogger.Logger, catalog *analysis.Catalog, search *usecase.Search, metrics domrepo.Metrics) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, catalog: catalog, search: search, metrics: metrics}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/analyze", h.Analyze)
	g.POST("/analyze", h.Analyze)
	g.GET("/analyze/:ticker", h.Analyze)
	g.POST("/search", h.Search)
	g.GET("/health", h.Health)
	g.GET("/mock-tickers", h.MockTickers)
}

// Analyze answers with the catalog entry in the flat verdict shape, or the
// normalized nested shape when format=nested.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	start := time.Now()
	req := &models.AnalyzeRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}

	payload, ok := h.catalog.Flat(req.Ticker)
	if !ok {
		h.metrics.RecordError("analyze_not_found")
		return xhttp.Fail(c, xhttp.NotFound("Could not find stock data for %s", req.Ticker))
	}
	h.metrics.RecordAnalysis(models.SourceCatalog, payload.Analysis.Verdict.Signal)
	h.metrics.RecordLatency("api_analyze", time.Since(start).Seconds())

	if req.Format == "nested" {
		return xhttp.OK(c, analysis.Normalize(payload))
	}
	return xhttp.OK(c, payload)
}

func (h *AnalysisHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}

	res, err := h.search.Find(c.Request().Context(), req.Query)
	if errors.Is(err, usecase.ErrTickerNotFound) {
		return xhttp.Fail(c, xhttp.NotFound("No ticker matches %q", req.Query))
	}
	if err != nil {
		h.logger.Error("search usecase error", xlogger.Error(err))
		return xhttp.Fail(c, err)
	}
	return xhttp.OK(c, res)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	return xhttp.OK(c, models.Health{
		Status:      "healthy",
		Service:     serviceName,
		MockTickers: h.catalog.Keys(),
	})
}

func (h *AnalysisHandler) MockTickers(c echo.Context) error {
	return c.JSON(http.StatusOK, models.MockTickers{
		MockTickers: h.catalog.Tickers(),
		Description: "These tickers return instant mock data for reliable demos",
	})
}
