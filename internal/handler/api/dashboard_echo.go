package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	"github.com/J-Mash24/worldz1/internal/usecase"
	xhttp "github.com/J-Mash24/worldz1/pkg/http"
	xlogger "github.com/J-Mash24/worldz1/pkg/logger"
)

// DashboardEchoHandler exposes the dashboard API over Echo.
type DashboardEchoHandler struct {
	logger    *xlogger.Logger
	dashboard *usecase.DashboardUseCase
	ticker    *usecase.GrowthTicker
	live      *liveStreamer
}

func NewDashboardEchoHandler(logger *xlogger.Logger, dashboard *usecase.DashboardUseCase, ticker *usecase.GrowthTicker, streamInterval time.Duration) *DashboardEchoHandler {
	return &DashboardEchoHandler{
		logger:    logger,
		dashboard: dashboard,
		ticker:    ticker,
		live:      newLiveStreamer(logger, ticker, streamInterval),
	}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/countries", h.CountriesHandler)
	g.GET("/groups", h.Groups)
	g.GET("/compare", h.Compare)
	g.GET("/trends", h.Trends)
	g.GET("/map", h.Map)
	g.GET("/export.csv", h.ExportCSV)
	g.GET("/live", h.Live)
}

func (h *DashboardEchoHandler) CountriesHandler(c echo.Context) error {
	countries, err := h.dashboard.Countries(c.Request().Context())
	if err != nil {
		h.logger.Error("countries listing error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("country listing unavailable").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.ListResponse(c, countries, int64(len(countries)))
}

func (h *DashboardEchoHandler) Groups(c echo.Context) error {
	presets := h.dashboard.Presets()
	return xhttp.ListResponse(c, presets, int64(len(presets)))
}

func (h *DashboardEchoHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dashboard.Compare(c.Request().Context(), usecase.CompareParams{
		Indicator: req.Indicator,
		Selection: toSelection(req.Codes, req.Preset),
		Mode:      models.AggregateMode(req.Mode),
	})
	if err != nil {
		h.logger.Error("compare usecase error", xlogger.Error(err))
		return selectionErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Trends(c echo.Context) error {
	req := &models.TrendsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dashboard.Trends(c.Request().Context(), usecase.TrendsParams{
		Indicator: req.Indicator,
		Selection: toSelection(req.Codes, req.Preset),
		Mode:      models.AggregateMode(req.Mode),
		Rebase:    req.Rebase,
		FromYear:  req.From,
		ToYear:    req.To,
	})
	if err != nil {
		h.logger.Error("trends usecase error", xlogger.Error(err))
		return selectionErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Map(c echo.Context) error {
	req := &models.MapRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entries, err := h.dashboard.MapData(c.Request().Context(), req.Indicator)
	if err != nil {
		h.logger.Error("map usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

func (h *DashboardEchoHandler) ExportCSV(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.dashboard.Trends(c.Request().Context(), usecase.TrendsParams{
		Indicator: req.Indicator,
		Selection: toSelection(req.Codes, req.Preset),
		Mode:      models.AggregateMode(req.Mode),
		Rebase:    req.Rebase,
	})
	if err != nil {
		h.logger.Error("export usecase error", xlogger.Error(err))
		return selectionErrorResponse(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+exportFilename(res)+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return usecase.WriteCSV(c.Response(), []*models.AggregatedSeries{res})
}

// Live upgrades to WebSocket and streams growth estimates.
func (h *DashboardEchoHandler) Live(c echo.Context) error {
	req := &models.LiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	group, err := h.dashboard.ResolveSelection(toSelection(req.Codes, req.Preset))
	if err != nil {
		return selectionErrorResponse(c, err)
	}
	return h.live.Serve(c, group)
}

func toSelection(codes, preset string) models.Selection {
	sel := models.Selection{Preset: preset}
	if codes != "" {
		sel.Codes = strings.Split(codes, ",")
	}
	return sel
}

// selectionErrorResponse maps resolver failures to 404 and everything else
// to the standard error envelope.
func selectionErrorResponse(c echo.Context, err error) error {
	if strings.Contains(err.Error(), "unknown preset") {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	if strings.Contains(err.Error(), "no valid country codes") {
		return xhttp.BadRequestResponse(c, err.Error())
	}
	return xhttp.AppErrorResponse(c, err)
}

func exportFilename(s *models.AggregatedSeries) string {
	name := strings.ToLower(strings.ReplaceAll(s.Group, " ", "_"))
	return name + "_" + strings.ToLower(s.Indicator) + ".csv"
}
