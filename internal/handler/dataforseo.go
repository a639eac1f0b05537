package handler

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/labstack/echo/v4"

	"seo-gateway/internal/gwerror"
	"seo-gateway/internal/service"
)

// SearchHandler serves POST /api/dataforseo/*, proxying to the DataForSEO
// API with injected credentials.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger.With("component", "search_handler"),
	}
}

// Handle forwards the JSON payload to the endpoint path following
// /api/dataforseo/ and relays status and body verbatim.
func (h *SearchHandler) Handle(c echo.Context) error {
	endpoint := c.Param("*")
	if endpoint == "" {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "endpoint path is required"))
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "could not read request body"))
	}
	if len(payload) == 0 || !json.Valid(payload) {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "request body must be a JSON value"))
	}

	resp, err := h.service.Forward(c.Request().Context(), endpoint, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Blob(resp.StatusCode, resp.ContentType, resp.Body)
}
