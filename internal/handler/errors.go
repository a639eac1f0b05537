package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"seo-gateway/internal/gwerror"
)

// writeError converts a service error into the structured JSON error
// response. The full error (with its wrapped cause) goes to the log; the
// client only sees the classified kind and detail.
func writeError(c echo.Context, logger *slog.Logger, err error) error {
	status, body := gwerror.ResponseFor(err)

	logger.Error("request failed",
		"kind", gwerror.KindOf(err),
		"status", status,
		"path", c.Request().URL.Path,
		"err", err,
	)

	return c.JSON(status, body)
}
