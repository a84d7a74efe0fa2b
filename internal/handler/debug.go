package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Julioneves77/sr-backend-api/internal/auth"
	"github.com/Julioneves77/sr-backend-api/internal/repository"
)

// DebugHandler serves the development-only dump of the ticket store.  Its
// access rules live in auth.DebugAccess and are independent of the API key
// middleware.
type DebugHandler struct {
	Store      repository.TicketStore
	APIKey     string // shared secret; when set it must be passed as ?key=
	Production bool   // production refuses unconditionally
}

// DumpTickets handles GET /api/debug/tickets.
func (h *DebugHandler) DumpTickets(c echo.Context) error {
	switch auth.DebugAccess(h.Production, h.APIKey, c.QueryParam("key"), c.Request().Host) {
	case auth.DebugDisabledInProduction:
		return fail(c, http.StatusForbidden, CodeDebugDisabled)
	case auth.DebugUnauthorized:
		return fail(c, http.StatusUnauthorized, CodeUnauthorized)
	case auth.DebugOnlyLocalhost:
		return fail(c, http.StatusForbidden, CodeDebugOnlyLocalhost)
	}
	items, err := h.Store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": items})
}
