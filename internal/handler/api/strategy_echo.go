package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "InOut/internal/domain/models"
	apimetrics "InOut/internal/service/metrics"
	"InOut/internal/services/inout"
	xhttp "InOut/pkg/http"
	xlogger "InOut/pkg/logger"
	"InOut/pkg/util"

	"github.com/labstack/echo/v4"
)

// StrategyService is the read and trigger surface of the running strategy.
type StrategyService interface {
	State() models.StrategyState
	Density(n int) []float64
	RegimeHistory(limit int) []int
	PortfolioValues() []float64
	RunDailyCycle(ctx context.Context) (models.CycleReport, error)
}

// BarIngest accepts bars pushed over HTTP.
type BarIngest interface {
	Process(ctx context.Context, b models.Bar) error
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// StrategyEchoHandler serves strategy state, manual bar ingestion and
// cycle triggering.
type StrategyEchoHandler struct {
	logger   *xlogger.Logger
	strategy StrategyService
	ingest   BarIngest
	checks   map[string]HealthCheck
}

func NewStrategyEchoHandler(logger *xlogger.Logger, strategy StrategyService, ingest BarIngest, checks map[string]HealthCheck) *StrategyEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	apimetrics.Register()
	return &StrategyEchoHandler{logger: logger, strategy: strategy, ingest: ingest, checks: checks}
}

func (h *StrategyEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api", observe)
	g.GET("/state", h.State)
	g.GET("/density", h.Density)
	g.GET("/regime", h.Regime)
	g.GET("/equity", h.Equity)
	g.POST("/bars", h.Bars)
	g.POST("/cycle", h.Cycle)
}

func (h *StrategyEchoHandler) State(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, h.strategy.State())
}

func (h *StrategyEchoHandler) Density(c echo.Context) error {
	req := &models.DensityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"values": h.strategy.Density(req.N),
	})
}

func (h *StrategyEchoHandler) Regime(c echo.Context) error {
	req := &models.RegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	flags := h.strategy.RegimeHistory(req.Limit)
	current := 1
	if len(flags) > 0 {
		current = flags[len(flags)-1]
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"current": current,
		"flags":   flags,
	})
}

func (h *StrategyEchoHandler) Equity(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"values": h.strategy.PortfolioValues(),
	})
}

// observe records per-endpoint latency and error counts.
func observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		endpoint := c.Path()
		apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil || c.Response().Status >= http.StatusBadRequest {
			apimetrics.APIErrors.WithLabelValues(endpoint).Inc()
		}
		return err
	}
}

type barRejection struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Bars pushes closes through the ingestion pipeline. Bars rejected by the
// pipeline are listed; the rest are applied.
func (h *StrategyEchoHandler) Bars(c echo.Context) error {
	req := &models.BarBatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.ingest == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("bar ingestion disabled"))
	}

	ctx := c.Request().Context()
	rejected := []barRejection{}
	for i, br := range req.Bars {
		ts, ok := util.ParseTime(br.Time)
		if !ok {
			rejected = append(rejected, barRejection{Index: i, Error: "time: unrecognized format"})
			continue
		}
		if err := h.ingest.Process(ctx, models.Bar{Symbol: br.Symbol, Time: ts, Close: br.Close}); err != nil {
			rejected = append(rejected, barRejection{Index: i, Error: err.Error()})
		}
	}
	return xhttp.AcceptedResponse(c, map[string]interface{}{
		"accepted": len(req.Bars) - len(rejected),
		"rejected": rejected,
	})
}

// Cycle runs the daily cycle immediately.
func (h *StrategyEchoHandler) Cycle(c echo.Context) error {
	rep, err := h.strategy.RunDailyCycle(c.Request().Context())
	switch {
	case errors.Is(err, inout.ErrEmptyHistory):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("price history is empty").WithError(err))
	case err != nil && rep.Timestamp.IsZero():
		h.logger.Error("cycle usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("cycle failed").WithError(err))
	case err != nil:
		h.logger.Warn("cycle completed with error", xlogger.Error(err))
	}
	return xhttp.SuccessResponse(c, rep)
}

// Health runs every dependency check with a short deadline.
func (h *StrategyEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	return xhttp.DataResponse(c, status, results)
}
