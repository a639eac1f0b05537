package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"seo-gateway/internal/gwerror"
	"seo-gateway/internal/model"
	"seo-gateway/internal/service"
)

// ProxyHandler serves POST /api/proxy, the generic allowlist proxy.
type ProxyHandler struct {
	service *service.ForwardService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ForwardService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle forwards a caller-described request to a whitelisted third-party
// API and relays the buffered response.
func (h *ProxyHandler) Handle(c echo.Context) error {
	var pr model.ProxyRequest
	if err := c.Bind(&pr); err != nil {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "request body must be a JSON object"))
	}
	if pr.URL == "" {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "url is required"))
	}

	resp, err := h.service.Forward(c.Request().Context(), &pr)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Blob(resp.StatusCode, resp.ContentType, resp.Body)
}
