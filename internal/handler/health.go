package handler // declare the package name; contains HTTP handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Julioneves77/sr-backend-api/internal/model"
	"github.com/Julioneves77/sr-backend-api/internal/repository"
)

// ServiceName identifies the API in health output.
const ServiceName = "sr-backend-api"

// HealthHandler serves the liveness endpoints.
type HealthHandler struct {
	Store     repository.TicketStore
	StartedAt time.Time
	Now       func() time.Time
}

// NewHealthHandler constructs a HealthHandler whose uptime counts from now.
func NewHealthHandler(store repository.TicketStore) *HealthHandler {
	if store == nil {
		panic("nil store passed to NewHealthHandler")
	}
	return &HealthHandler{Store: store, StartedAt: time.Now(), Now: time.Now}
}

// Root handles GET / with a plain text banner.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.String(http.StatusOK, ServiceName+" OK")
}

// Health handles GET /health.  uptime is in seconds.
func (h *HealthHandler) Health(c echo.Context) error {
	now := h.Now()
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"service":   ServiceName,
		"uptime":    now.Sub(h.StartedAt).Seconds(),
		"timestamp": model.FormatTimestamp(now),
		"tickets":   h.Store.Count(c.Request().Context()),
	})
}
