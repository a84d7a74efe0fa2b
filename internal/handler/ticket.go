package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Julioneves77/sr-backend-api/internal/model"
	"github.com/Julioneves77/sr-backend-api/internal/queue"
	"github.com/Julioneves77/sr-backend-api/internal/repository"
	"github.com/Julioneves77/sr-backend-api/internal/service"
)

// TicketHandler serves the /api/tickets endpoints.
type TicketHandler struct {
	Store  repository.TicketStore // ticket storage
	Events service.EventPublisher // lifecycle event sink
	Logger *slog.Logger
}

// NewTicketHandler constructs a TicketHandler.  A nil publisher disables
// events and a nil logger uses slog.Default().
func NewTicketHandler(store repository.TicketStore, events service.EventPublisher, logger *slog.Logger) *TicketHandler {
	if store == nil {
		panic("nil store passed to NewTicketHandler")
	}
	if events == nil {
		events = service.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketHandler{Store: store, Events: events, Logger: logger}
}

// CreateTicket handles POST /api/tickets.  Any JSON object is accepted and
// stored verbatim next to the generated id, code and timestamp.
func (h *TicketHandler) CreateTicket(c echo.Context) error {
	attrs, err := decodeAttrs(c)
	if err != nil {
		return err
	}
	h.logSummary(c.Request().Context(), "ticket create requested", attrs)

	t, err := h.Store.Create(c.Request().Context(), attrs)
	if err != nil {
		return err
	}
	h.publish(c.Request().Context(), queue.TicketEvent{
		Type:       queue.EventTicketCreated,
		TicketID:   t.ID,
		Codigo:     t.Codigo,
		OccurredAt: model.FormatTimestamp(t.CreatedAt),
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "ticket": t})
}

// ListTickets handles GET /api/tickets, newest ticket first.
func (h *TicketHandler) ListTickets(c echo.Context) error {
	items, err := h.Store.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": items})
}

// GetTicket handles GET /api/tickets/:id.  A non-numeric id simply matches
// nothing and yields 404.
func (h *TicketHandler) GetTicket(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return fail(c, http.StatusNotFound, CodeNotFound)
	}
	t, err := h.Store.Get(c.Request().Context(), id)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return fail(c, http.StatusNotFound, CodeNotFound)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "ticket": t})
}

// UpdateTicket handles PATCH /api/tickets/:id.  Every supplied key except id,
// codigo and createdAt is merged into the ticket and updatedAt is refreshed.
func (h *TicketHandler) UpdateTicket(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return fail(c, http.StatusNotFound, CodeNotFound)
	}
	patch, err := decodeAttrs(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	t, err := h.Store.Update(ctx, id, patch)
	if errors.Is(err, repository.ErrTicketNotFound) {
		return fail(c, http.StatusNotFound, CodeNotFound)
	}
	if err != nil {
		return err
	}

	keys := sortedKeys(patch)
	h.Logger.InfoContext(ctx, "ticket updated", slog.Int64("id", id), slog.Any("keys", keys))
	h.publish(ctx, queue.TicketEvent{
		Type:        queue.EventTicketUpdated,
		TicketID:    t.ID,
		Codigo:      t.Codigo,
		UpdatedKeys: keys,
		OccurredAt:  model.FormatTimestamp(*t.UpdatedAt),
	})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "ticket": t})
}

// publish hands ev to the event publisher; failures are logged and never
// reach the client.  The publisher must queue, not block on the broker.
func (h *TicketHandler) publish(ctx context.Context, ev queue.TicketEvent) {
	if err := h.Events.Publish(ctx, ev); err != nil {
		h.Logger.WarnContext(ctx, "ticket event not queued",
			slog.String("type", ev.Type),
			slog.Int64("ticket_id", ev.TicketID),
			slog.String("error", err.Error()),
		)
	}
}

// logSummary logs which kind of ticket was requested without any of the
// personal data it carries.
func (h *TicketHandler) logSummary(ctx context.Context, msg string, attrs map[string]any) {
	h.Logger.InfoContext(ctx, msg,
		slog.Any("tipo_servico", firstTruthy(attrs, "tipoServico", "servico", "service")),
		slog.Any("origem", firstTruthy(attrs, "origem")),
		slog.Bool("has_cpf", truthy(attrs["cpf"])),
		slog.Bool("has_email", truthy(attrs["email"])),
		slog.Bool("has_whatsapp", firstTruthy(attrs, "celularWhatsApp", "whatsapp", "telefone") != nil),
	)
}

// parseID converts a path id the way a numeric coercion would: surrounding
// space is ignored and decimal or exponent forms of a whole number ("1.0",
// "1e0") are accepted.  ok is false when the value is not an integer.
func parseID(raw string) (int64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// decodeAttrs reads the request body as an open JSON object.  Bodies that are
// empty or not declared as JSON decode to an empty map.  A top-level array is
// spread into index keys ("0", "1", ...); any other non-object value, and any
// data after the first value, is rejected.  Numbers keep their literal form.
func decodeAttrs(c echo.Context) (map[string]any, error) {
	req := c.Request()
	attrs := map[string]any{}
	if req.Body == nil || !isJSONContent(req.Header.Get(echo.HeaderContentType)) {
		return attrs, nil
	}
	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return attrs, nil
		}
		return nil, invalidJSON(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
		return nil, invalidJSON(err)
	}
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			attrs[k] = val
		}
	case []any:
		for i, val := range t {
			attrs[strconv.Itoa(i)] = val
		}
	default:
		return nil, invalidJSON(errors.New("JSON body must be an object or array"))
	}
	return attrs, nil
}

// invalidJSON maps a decode failure to 400, letting body limit errors from
// echo through unchanged.
func invalidJSON(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusBadRequest, CodeInvalidJSON).SetInternal(err)
}

func isJSONContent(ctype string) bool {
	if ctype == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(ctype)
	if err != nil {
		return false
	}
	return mt == echo.MIMEApplicationJSON || strings.HasSuffix(mt, "+json")
}

// truthy mirrors loose JSON truthiness: null, false, "" and 0 are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	}
	return true
}

func firstTruthy(attrs map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := attrs[k]; truthy(v) {
			return v
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
