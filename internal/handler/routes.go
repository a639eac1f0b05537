package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seo-gateway/internal/config"
	"seo-gateway/internal/metrics"
	"seo-gateway/internal/middleware"
)

// RegisterRoutes wires all route handlers onto the Echo instance. The
// three /api routes require a valid caller bearer token.
func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	m *metrics.Metrics,
	v middleware.TokenValidator,
	logger *slog.Logger,
	proxy *ProxyHandler,
	search *SearchHandler,
	llm *LLMHandler,
	health *HealthHandler,
) {
	e.GET("/health", health.Health)
	e.GET("/gateway/status", health.Status)
	e.GET("/config", health.ClientConfig)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api", middleware.RequireUser(v, logger))
	api.POST("/dataforseo/*", search.Handle)
	api.POST("/llm/openai-compatible", llm.Handle)
	api.POST("/proxy", proxy.Handle)
}
