package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	models "MoneyPulse/internal/domain/models"
	xhttp "MoneyPulse/pkg/http"
	xlogger "MoneyPulse/pkg/logger"
	"MoneyPulse/pkg/util"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

func init() {
	_ = xhttp.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		_, err := models.ParsePeriod(fl.Field().String())
		return err == nil
	})
}

// Analytics is the inbound surface of the analytics pipeline.
type Analytics interface {
	GetDataset(ctx context.Context, names []string, start, end time.Time) (*models.Dataset, error)
	GetRealReturns(ctx context.Context, assets []string, period models.Period, end time.Time) (*models.ReturnsReport, error)
	GetSignal(ctx context.Context, asOf time.Time) (*models.SignalReport, error)
	GetSignalRange(ctx context.Context, start, end time.Time) (*models.SignalReport, error)
}

// Prober reports provider liveness.
type Prober interface {
	Probe(ctx context.Context) map[string]error
}

// AnalyticsEchoHandler exposes the analytics pipeline over HTTP.
type AnalyticsEchoHandler struct {
	logger *xlogger.Logger
	svc    Analytics
	prober Prober
}

func NewAnalyticsEchoHandler(logger *xlogger.Logger, svc Analytics, prober Prober) *AnalyticsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalyticsEchoHandler{logger: logger, svc: svc, prober: prober}
}

func (h *AnalyticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/dataset", h.Dataset)
	g.GET("/returns", h.Returns)
	g.GET("/signal", h.Signal)
	g.GET("/signal/range", h.SignalRange)
}

func (h *AnalyticsEchoHandler) Dataset(c echo.Context) error {
	req := &models.DatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, _ := util.ParseTime(req.Start)
	end, _ := util.ParseTime(req.End)

	ds, err := h.svc.GetDataset(c.Request().Context(), util.SplitList(req.Series), start, end)
	if err != nil {
		return h.fail(c, "dataset", err)
	}
	return xhttp.SuccessResponse(c, ds)
}

func (h *AnalyticsEchoHandler) Returns(c echo.Context) error {
	req := &models.ReturnsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var period models.Period
	if req.Period != "" {
		p, err := models.ParsePeriod(req.Period)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		period = p
	}
	end, _ := util.ParseTime(req.End)

	rep, err := h.svc.GetRealReturns(c.Request().Context(), util.SplitList(req.Assets), period, end)
	if err != nil {
		return h.fail(c, "returns", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, rep)
}

func (h *AnalyticsEchoHandler) Signal(c echo.Context) error {
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	asOf, _ := util.ParseTime(req.AsOf)

	rep, err := h.svc.GetSignal(c.Request().Context(), asOf)
	if err != nil {
		return h.fail(c, "signal", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *AnalyticsEchoHandler) SignalRange(c echo.Context) error {
	req := &models.SignalRangeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, _ := util.ParseTime(req.Start)
	end, _ := util.ParseTime(req.End)

	rep, err := h.svc.GetSignalRange(c.Request().Context(), start, end)
	if err != nil {
		return h.fail(c, "signal range", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

type healthResponse struct {
	Status    string            `json:"status"`
	Providers map[string]string `json:"providers"`
}

// Health reports provider liveness. Some providers down is "degraded" (fallbacks
// still serve); all of them down is 503.
func (h *AnalyticsEchoHandler) Health(c echo.Context) error {
	res := healthResponse{Status: "ok", Providers: map[string]string{}}
	if h.prober == nil {
		return xhttp.SuccessResponse(c, res)
	}
	probes := h.prober.Probe(c.Request().Context())
	names := make([]string, 0, len(probes))
	for n := range probes {
		names = append(names, n)
	}
	sort.Strings(names)

	down := 0
	for _, n := range names {
		if err := probes[n]; err != nil {
			res.Providers[n] = err.Error()
			down++
			continue
		}
		res.Providers[n] = "ok"
	}
	switch {
	case down > 0 && down == len(names):
		res.Status = "down"
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, res)
	case down > 0:
		res.Status = "degraded"
	}
	return xhttp.SuccessResponse(c, res)
}

// fail maps pipeline errors onto HTTP errors.
func (h *AnalyticsEchoHandler) fail(c echo.Context, op string, err error) error {
	var missing *models.MissingSeriesError
	switch {
	case errors.As(err, &missing):
		h.logger.Warn(op+": required series unavailable", xlogger.Strings("missing", missing.Names))
		return xhttp.AppErrorResponse(c, xhttp.UnprocessableError("required series unavailable").
			WithParam("missing", missing.Names).
			WithError(err))
	case errors.Is(err, models.ErrInvalidRange):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.logger.Warn(op+" timed out", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.GatewayTimeoutError("request timed out").WithError(err))
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}
