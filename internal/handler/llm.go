package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"seo-gateway/internal/gwerror"
	"seo-gateway/internal/service"
	"seo-gateway/internal/stream"
)

// LLMHandler serves POST /api/llm/openai-compatible: chat completions with
// server-side key injection and optional streaming.
type LLMHandler struct {
	service *service.LLMService
	logger  *slog.Logger
}

// NewLLMHandler creates an LLMHandler.
func NewLLMHandler(svc *service.LLMService, logger *slog.Logger) *LLMHandler {
	return &LLMHandler{
		service: svc,
		logger:  logger.With("component", "llm_handler"),
	}
}

// Handle extracts the model id from the payload, resolves the provider and
// either relays a buffered completion or switches to a server-sent-event
// stream when the payload asks for one.
func (h *LLMHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "could not read request body"))
	}

	var meta struct {
		Model  string `json:"model"`
		Stream bool   `json:"stream"`
	}
	if err := json.Unmarshal(payload, &meta); err != nil {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "request body must be a JSON object"))
	}
	if meta.Model == "" {
		return writeError(c, h.logger, gwerror.New(gwerror.KindValidation, "model is required"))
	}

	if meta.Stream {
		return h.handleStream(c, meta.Model, payload)
	}

	resp, err := h.service.Complete(c.Request().Context(), meta.Model, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Blob(resp.StatusCode, resp.ContentType, resp.Body)
}

func (h *LLMHandler) handleStream(c echo.Context, modelID string, payload []byte) error {
	resp, err := h.service.OpenStream(c.Request().Context(), modelID, payload)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	defer func() { _ = resp.Body.Close() }()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, stream.ContentType)
	res.Header().Set("Cache-Control", "no-cache")
	res.WriteHeader(http.StatusOK)

	// Past this point the status line is already on the wire; relay
	// failures can only be logged, not reported to the caller.
	if err := stream.Relay(res, resp, h.logger); err != nil {
		h.logger.Error("llm stream relay ended abnormally",
			"model", modelID,
			"err", err,
		)
	}

	return nil
}
