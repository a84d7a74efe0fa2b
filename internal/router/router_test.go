package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Julioneves77/sr-backend-api/internal/config"
	"github.com/Julioneves77/sr-backend-api/internal/repository"
	"github.com/Julioneves77/sr-backend-api/internal/utils"
)

func newServer(t *testing.T, cfg config.Config) *echo.Echo {
	t.Helper()
	e := echo.New()
	RegisterRoutes(e, Deps{
		Config: cfg,
		Store:  repository.NewMemoryTicketRepo(utils.NewCodeGenerator(), nil),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return e
}

type request struct {
	method string
	path   string
	host   string
	key    string
	body   string
}

func (r request) do(e *echo.Echo) *httptest.ResponseRecorder {
	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.host != "" {
		req.Host = r.host
	}
	if r.key != "" {
		req.Header.Set("x-api-key", r.key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestTicketLifecycle(t *testing.T) {
	e := newServer(t, config.Config{})

	first := decode(t, request{method: http.MethodPost, path: "/api/tickets", body: `{"a":1}`}.do(e))
	assert.Equal(t, true, first["success"])
	ticket := first["ticket"].(map[string]any)
	assert.EqualValues(t, 1, ticket["id"])
	assert.Regexp(t, `^SR-\d{8}-\d{6}-[0-9A-Z]{4}$`, ticket["codigo"])
	assert.NotEmpty(t, ticket["createdAt"])
	assert.EqualValues(t, 1, ticket["a"])

	second := decode(t, request{method: http.MethodPost, path: "/api/tickets", body: `{"b":2}`}.do(e))
	assert.EqualValues(t, 2, second["ticket"].(map[string]any)["id"])

	list := decode(t, request{method: http.MethodGet, path: "/api/tickets"}.do(e))
	data := list["data"].([]any)
	require.Len(t, data, 2)
	assert.EqualValues(t, 2, data[0].(map[string]any)["id"])
	assert.EqualValues(t, 1, data[1].(map[string]any)["id"])

	rec := request{method: http.MethodPatch, path: "/api/tickets/1", body: `{"id":999,"codigo":"X","status":"paid"}`}.do(e)
	require.Equal(t, http.StatusOK, rec.Code)
	patched := decode(t, rec)["ticket"].(map[string]any)
	assert.EqualValues(t, 1, patched["id"])
	assert.Equal(t, ticket["codigo"], patched["codigo"])
	assert.Equal(t, "paid", patched["status"])
	assert.GreaterOrEqual(t, patched["updatedAt"].(string), patched["createdAt"].(string))
}

func TestUnknownTicket(t *testing.T) {
	e := newServer(t, config.Config{})

	rec := request{method: http.MethodGet, path: "/api/tickets/999"}.do(e)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"not_found"}`, rec.Body.String())
}

func TestAuthDisabledWithoutAPIKey(t *testing.T) {
	e := newServer(t, config.Config{})

	rec := request{method: http.MethodGet, path: "/api/tickets", host: "example.com"}.do(e)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthWithAPIKey(t *testing.T) {
	e := newServer(t, config.Config{APIKey: "secret"})

	tests := []struct {
		name   string
		req    request
		status int
	}{
		{"remote without key", request{method: http.MethodGet, path: "/api/tickets", host: "example.com"}, http.StatusUnauthorized},
		{"remote wrong key", request{method: http.MethodGet, path: "/api/tickets", host: "example.com", key: "nope"}, http.StatusUnauthorized},
		{"remote right key", request{method: http.MethodGet, path: "/api/tickets", host: "example.com", key: " secret "}, http.StatusOK},
		{"remote create without key", request{method: http.MethodPost, path: "/api/tickets", host: "example.com", body: `{}`}, http.StatusUnauthorized},
		{"remote health is gated too", request{method: http.MethodGet, path: "/health", host: "example.com"}, http.StatusUnauthorized},
		{"remote unknown route is gated first", request{method: http.MethodGet, path: "/nope", host: "example.com"}, http.StatusUnauthorized},
		{"local without key", request{method: http.MethodGet, path: "/api/tickets", host: "localhost:3000"}, http.StatusOK},
		{"local wrong key", request{method: http.MethodGet, path: "/api/tickets", host: "localhost:3000", key: "nope"}, http.StatusOK},
		{"local unknown route", request{method: http.MethodGet, path: "/nope", host: "localhost:3000"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.req.do(e)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"success":false,"error":"unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestPreflightAlwaysNoContent(t *testing.T) {
	for _, cfg := range []config.Config{{}, {APIKey: "secret"}} {
		e := newServer(t, cfg)

		rec := request{method: http.MethodOptions, path: "/api/tickets", host: "example.com"}.do(e)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	}
}

func TestCORSHeadersOnRejectedRequest(t *testing.T) {
	e := newServer(t, config.Config{APIKey: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	req.Host = "example.com"
	req.Header.Set(echo.HeaderOrigin, "http://localhost:4001")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "http://localhost:4001", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRootAndHealth(t *testing.T) {
	e := newServer(t, config.Config{})

	rec := request{method: http.MethodGet, path: "/"}.do(e)
	assert.Equal(t, "sr-backend-api OK", rec.Body.String())

	health := decode(t, request{method: http.MethodGet, path: "/health"}.do(e))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "sr-backend-api", health["service"])
	assert.Contains(t, health, "uptime")
	assert.Contains(t, health, "timestamp")
}

func TestDebugEndpoint(t *testing.T) {
	prod := newServer(t, config.Config{Env: "production"})
	rec := request{method: http.MethodGet, path: "/api/debug/tickets", host: "localhost"}.do(prod)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"debug_disabled_in_production"}`, rec.Body.String())

	dev := newServer(t, config.Config{APIKey: "secret"})
	rec = request{method: http.MethodGet, path: "/api/debug/tickets?key=secret", host: "localhost"}.do(dev)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())

	rec = request{method: http.MethodGet, path: "/api/debug/tickets", host: "localhost:3000"}.do(dev)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = request{method: http.MethodGet, path: "/api/debug/tickets?key=secret", host: "localhost:3000"}.do(dev)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"debug_only_localhost"}`, rec.Body.String())

	rec = request{method: http.MethodGet, path: "/api/debug/tickets?key=secret", host: "example.com", key: "secret"}.do(dev)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"debug_only_localhost"}`, rec.Body.String())
}

func TestRegisterRoutes_NilStorePanics(t *testing.T) {
	assert.Panics(t, func() { RegisterRoutes(echo.New(), Deps{}) })
}

func TestWrongMethodOnTickets(t *testing.T) {
	e := newServer(t, config.Config{})

	rec := request{method: http.MethodDelete, path: "/api/tickets/1"}.do(e)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"method_not_allowed"}`, rec.Body.String())
}

func TestCachedTicketReads(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	RegisterRoutes(e, Deps{
		Config: config.Config{Cache: config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20}},
		Store:  repository.NewMemoryTicketRepo(utils.NewCodeGenerator(), nil),
		Redis:  rdb,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	request{method: http.MethodPost, path: "/api/tickets", body: `{"n":"one"}`}.do(e)
	request{method: http.MethodPost, path: "/api/tickets", body: `{"n":"two"}`}.do(e)

	rec := request{method: http.MethodGet, path: "/api/tickets/1"}.do(e)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, decode(t, rec)["ticket"].(map[string]any)["id"])

	rec = request{method: http.MethodGet, path: "/api/tickets/2"}.do(e)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 2, decode(t, rec)["ticket"].(map[string]any)["id"])

	rec = request{method: http.MethodGet, path: "/api/tickets/999"}.do(e)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"not_found"}`, rec.Body.String())

	rec = request{method: http.MethodGet, path: "/api/tickets/1"}.do(e)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, decode(t, rec)["ticket"].(map[string]any)["id"])

	request{method: http.MethodPatch, path: "/api/tickets/1", body: `{"n":"uno"}`}.do(e)
	rec = request{method: http.MethodGet, path: "/api/tickets/1"}.do(e)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "uno", decode(t, rec)["ticket"].(map[string]any)["n"])
}
