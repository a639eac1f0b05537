package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"seo-gateway/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health, status and public-config endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Health returns a simple OK response for liveness probes.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": string(h.version),
	})
}

// Status reports which upstream credentials are configured, by name only.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":          "ok",
		"version":         string(h.version),
		"missing_secrets": h.cfg.MissingSecrets(),
	})
}

// ClientConfig exposes the public configuration the frontend needs to
// initialize its identity-provider SDK. Only the anon key is public;
// the service key must never appear here.
func (h *HealthHandler) ClientConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"identityUrl":     h.cfg.Auth.BaseURL,
		"identityAnonKey": h.cfg.Auth.AnonKey,
	})
}
