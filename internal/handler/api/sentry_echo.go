package api

import (
	"net/http"
	"time"

	models "MarketSentry/internal/domain/models"
	domrepo "MarketSentry/internal/domain/repository"
	"MarketSentry/internal/usecase"
	pkgcache "MarketSentry/pkg/cache"
	xhttp "MarketSentry/pkg/http"
	xlogger "MarketSentry/pkg/logger"
	"MarketSentry/pkg/util"

	"github.com/labstack/echo/v4"
)

// SentryEchoHandler exposes the detection pipeline over HTTP.
type SentryEchoHandler struct {
	logger     *xlogger.Logger
	monitor    *usecase.Monitor
	precedents domrepo.PrecedentStore
	store      domrepo.AssessmentStore
	cache      pkgcache.Service
	cacheTTL   time.Duration
	health     func() bool
}

// assessResult is the cached shape of one on-demand assessment.
type assessResult struct {
	Risk         models.RiskScore     `json:"risk"`
	Intervention *models.Intervention `json:"intervention,omitempty"`
}

func NewSentryEchoHandler(
	logger *xlogger.Logger,
	monitor *usecase.Monitor,
	precedents domrepo.PrecedentStore,
	store domrepo.AssessmentStore,
) *SentryEchoHandler {
	return &SentryEchoHandler{
		logger:     logger,
		monitor:    monitor,
		precedents: precedents,
		store:      store,
	}
}

// SetHealthCheck injects a liveness probe for the stream collector.
func (h *SentryEchoHandler) SetHealthCheck(f func() bool) { h.health = f }

// SetCache enables short-lived caching of assess responses so dashboard
// polling does not re-run the full agent fan-out every request.
func (h *SentryEchoHandler) SetCache(c pkgcache.Service, ttl time.Duration) {
	h.cache = c
	h.cacheTTL = ttl
}

func (h *SentryEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	g := e.Group("/api")
	g.GET("/assess", h.Assess)
	g.GET("/signals", h.Signals)
	g.GET("/precedents", h.Precedents)
	g.GET("/interventions", h.Interventions)
}

// Assess runs a full detection cycle for one asset on demand.
func (h *SentryEchoHandler) Assess(c echo.Context) error {
	req := &models.AssessRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	window := util.ParseWindow(req.Window, time.Hour)
	ctx := c.Request().Context()

	cacheKey := "assess:" + req.Asset + ":" + window.String()
	if h.cache != nil {
		var cached assessResult
		if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
			return xhttp.SuccessResponse(c, cached)
		}
	}

	risk, iv, err := h.monitor.Assess(ctx, req.Asset, window)
	if err != nil {
		h.logger.Error("assess usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	result := assessResult{Risk: risk, Intervention: iv}
	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, result, h.cacheTTL); err != nil {
			h.logger.Warn("assess cache set failed", xlogger.Error(err))
		}
	}
	return xhttp.SuccessResponse(c, result)
}

// Signals runs one agent (or all) over a fresh context without fusing.
func (h *SentryEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, errs, err := h.monitor.Signals(c.Request().Context(), req.Asset, req.Agent, 0)
	if err != nil {
		h.logger.Error("signals usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	resp := map[string]interface{}{"signals": signals}
	if len(errs) > 0 {
		resp["degraded"] = errs
	}
	return xhttp.SuccessResponse(c, resp)
}

// Precedents lists stored case studies for an asset.
func (h *SentryEchoHandler) Precedents(c echo.Context) error {
	req := &models.PrecedentsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ps, err := h.precedents.ByAsset(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		h.logger.Error("precedents usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, ps)
}

// Interventions lists recently issued interventions.
func (h *SentryEchoHandler) Interventions(c echo.Context) error {
	req := &models.InterventionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ivs, err := h.store.RecentInterventions(c.Request().Context(), req.Asset, req.Limit)
	if err != nil {
		h.logger.Error("interventions usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, ivs)
}

// Healthz reports liveness; degraded when the stream collector is down.
func (h *SentryEchoHandler) Healthz(c echo.Context) error {
	status := map[string]interface{}{"status": "ok"}
	if h.health != nil && !h.health() {
		status["status"] = "degraded"
		status["stream"] = "disconnected"
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}
