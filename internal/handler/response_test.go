package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "invalid_json", errorCode(http.StatusBadRequest))
	assert.Equal(t, "unauthorized", errorCode(http.StatusUnauthorized))
	assert.Equal(t, "not_found", errorCode(http.StatusNotFound))
	assert.Equal(t, "method_not_allowed", errorCode(http.StatusMethodNotAllowed))
	assert.Equal(t, "payload_too_large", errorCode(http.StatusRequestEntityTooLarge))
	assert.Equal(t, "unsupported_media_type", errorCode(http.StatusUnsupportedMediaType))
	assert.Equal(t, "internal_error", errorCode(599))
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(discardLogger())
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/api/tickets", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodGet, "/boom", http.StatusInternalServerError, `{"success":false,"error":"internal_error"}`},
		{http.MethodGet, "/missing", http.StatusNotFound, `{"success":false,"error":"not_found"}`},
		{http.MethodDelete, "/api/tickets", http.StatusMethodNotAllowed, `{"success":false,"error":"method_not_allowed"}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, tt.path)
		assert.JSONEq(t, tt.body, rec.Body.String(), tt.path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
