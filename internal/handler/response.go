package handler // handler defines the HTTP handlers of the ticket API

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Machine-readable error codes used in the response envelope.
const (
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeDebugDisabled      = "debug_disabled_in_production"
	CodeDebugOnlyLocalhost = "debug_only_localhost"
	CodeInvalidJSON        = "invalid_json"
	CodeMethodNotAllowed   = "method_not_allowed"
	CodePayloadTooLarge    = "payload_too_large"
	CodeInternal           = "internal_error"
)

// fail writes the error envelope {success:false, error:code}.
func fail(c echo.Context, status int, code string) error {
	return c.JSON(status, echo.Map{"success": false, "error": code})
}

// errorCode maps an HTTP status to the envelope error code.
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeInvalidJSON
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case http.StatusRequestEntityTooLarge:
		return CodePayloadTooLarge
	case http.StatusInternalServerError:
		return CodeInternal
	}
	text := http.StatusText(status)
	if text == "" {
		return CodeInternal
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

// ErrorHandler renders framework errors (unknown route, wrong method, body
// too large, panics) in the same envelope the handlers use.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("error", err.Error()),
			)
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = fail(c, status, errorCode(status))
		}
		if werr != nil {
			logger.Error("write error response", slog.String("error", werr.Error()))
		}
	}
}
