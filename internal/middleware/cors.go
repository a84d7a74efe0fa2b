package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORS response values shared by every request.
const (
	corsAllowMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsAllowHeaders = "Content-Type, x-api-key"
)

// devOrigins lists the local front-end origins (portal and platform).
var devOrigins = []string{
	"http://localhost:4000",
	"http://localhost:4001",
	"http://127.0.0.1:4000",
	"http://127.0.0.1:4001",
}

// AllowOrigin returns the Access-Control-Allow-Origin value for a request
// Origin.  Empty origins get "*", local origins are echoed back and any other
// origin also falls back to "*", so the list never rejects anybody.
func AllowOrigin(origin string) string {
	if origin == "" {
		return "*"
	}
	if slices.Contains(devOrigins, origin) ||
		strings.Contains(origin, "localhost") ||
		strings.Contains(origin, "127.0.0.1") {
		return origin
	}
	return "*"
}

// CORS sets the CORS response headers and answers preflight requests with
// 204.  It is meant to run before routing (echo.Pre) so preflight never
// reaches the API key gate.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, AllowOrigin(c.Request().Header.Get(echo.HeaderOrigin)))
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
