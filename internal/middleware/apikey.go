package middleware // middleware provides the request gates that run ahead of handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Julioneves77/sr-backend-api/internal/auth"
)

// APIKeyConfig configures the shared-secret gate.
type APIKeyConfig struct {
	// Expected is the configured secret.  Empty disables the gate.
	Expected string
	// Trace logs one "auth decision" record per request on watched paths.
	// Records never contain secret material.
	Trace bool
	// Logger receives trace records; defaults to slog.Default().
	Logger *slog.Logger
}

// APIKeyAuth returns a middleware that admits or rejects requests according
// to auth.Evaluate.  Rejections answer 401 with the standard error envelope.
func APIKeyAuth(cfg APIKeyConfig) echo.MiddlewareFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			d := auth.Evaluate(cfg.Expected, r.Host, r.Header)

			if cfg.Trace && auth.IsWatchedPath(r.URL.Path) {
				logger.LogAttrs(r.Context(), slog.LevelInfo, "auth decision",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("host", r.Host),
					slog.Bool("admit", d.Admit),
					slog.String("reason", d.Reason),
					slog.Bool("has_key", auth.KeyFromHeaders(r.Header) != ""),
					slog.Any("header_names", auth.HeaderNames(r.Header)),
					slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				)
			}

			if !d.Admit {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
			}
			return next(c)
		}
	}
}
