package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"TrackBets/internal/domain/models"
	domrepo "TrackBets/internal/domain/repository"
	xhttp "TrackBets/pkg/http"
	xlogger "TrackBets/pkg/logger"
	"TrackBets/pkg/util"
)

// FunnelHandler exposes aggregate funnel counts.
type FunnelHandler struct {
	logger   *xlogger.Logger
	reader   domrepo.FunnelReader
	lookback time.Duration
	now      func() time.Time
}

func NewFunnelHandler(logger *xlogger.Logger, reader domrepo.FunnelReader) *FunnelHandler {
	return &FunnelHandler{logger: logger, reader: reader, lookback: 24 * time.Hour, now: time.Now}
}

func (h *FunnelHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/funnel", h.Counts)
}

// Counts returns events per kind between from and to (default: the last day).
func (h *FunnelHandler) Counts(c echo.Context) error {
	req := &models.FunnelRequest{}
	if verr := xhttp.Bind(c, req); verr != nil {
		return xhttp.Invalid(c, verr)
	}
	if h.reader == nil {
		return xhttp.Fail(c, xhttp.Unavailable("funnel storage is not configured"))
	}

	from, to := util.ResolveRange(req.From, req.To, h.lookback, h.now())
	counts, err := h.reader.CountByKind(c.Request().Context(), from, to, req.Kind)
	if err != nil {
		h.logger.Error("funnel count error", xlogger.Error(err))
		return xhttp.Fail(c, xhttp.Unavailable("funnel storage unavailable").Wrap(err))
	}
	return xhttp.OK(c, counts)
}
