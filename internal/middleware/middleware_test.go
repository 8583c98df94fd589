package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/contentfilter/internal/config"
	"github.com/deppfellow/contentfilter/internal/errs"
	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/server"
	"github.com/deppfellow/contentfilter/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(buf *bytes.Buffer) *server.Server {
	log := zerolog.New(buf)
	return &server.Server{
		Config: config.DefaultConfig(),
		Logger: &log,
	}
}

func newTestEcho(s *server.Server) *echo.Echo {
	e := echo.New()
	m := NewMiddlewares(s)
	e.HTTPErrorHandler = m.Global.GlobalErrorHandler
	e.Use(RequestID(), m.ContextEnhancer.EnhanceContext())
	return e
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestIDGeneratedAndReused(t *testing.T) {
	e := newTestEcho(newTestServer(&bytes.Buffer{}))
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	for _, bad := range []string{strings.Repeat("a", 65), "id with spaces", "idé"} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, bad)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Len(t, rec.Header().Get(RequestIDHeader), 36, "id %q should be replaced", bad)
	}
}

func TestEnhanceContextStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	e := newTestEcho(newTestServer(&buf))
	e.GET("/log", func(c echo.Context) error {
		LoggerFromContext(c.Request().Context()).Info().Msg("from context")
		GetLogger(c).Info().Msg("from echo")
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	e.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"request_id":"req-1"`)
	assert.Contains(t, buf.String(), `"from context"`)
	assert.Contains(t, buf.String(), `"path":"/log"`)
}

func TestGetLoggerFallback(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.NotNil(t, GetLogger(c))
	assert.NotNil(t, LoggerFromContext(c.Request().Context()))
}

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"http error", errs.NewForbiddenError("no", true), http.StatusForbidden, "FORBIDDEN"},
		{"empty input", fmt.Errorf("check: %w", filter.ErrEmptyInput), http.StatusBadRequest, "EMPTY_INPUT"},
		{"unknown kind", filter.ErrUnknownKind, http.StatusBadRequest, "UNKNOWN_KIND"},
		{"rejected", filter.ErrRejected, http.StatusUnprocessableEntity, "REJECTED"},
		{"missing smiley", sqlerr.NoRows("smiles"), http.StatusNotFound, "SMILE_NOT_FOUND"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho(newTestServer(&bytes.Buffer{}))
			e.GET("/", func(c echo.Context) error { return tt.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.status, body.Status)
		})
	}
}

func TestGlobalErrorHandlerRouteNotFound(t *testing.T) {
	e := newTestEcho(newTestServer(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeError(t, rec).Message)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(&bytes.Buffer{})
	s.Config.Server.RateLimit = 1
	s.Config.Server.RateBurst = 2

	e := newTestEcho(s)
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewRateLimitMiddleware(s).Limit())

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDisabled(t *testing.T) {
	s := newTestServer(&bytes.Buffer{})
	s.Config.Server.RateLimit = 0

	e := newTestEcho(s)
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewRateLimitMiddleware(s).Limit())

	for range 5 {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestTracingWithoutNewRelic(t *testing.T) {
	s := newTestServer(&bytes.Buffer{})
	tm := NewTracingMiddleware(s, nil)

	e := newTestEcho(s)
	e.Use(tm.NewRelicMiddleware(), tm.EnhanceTracing())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	s := newTestServer(&bytes.Buffer{})
	e := newTestEcho(s)
	e.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		NewAuthMiddleware(s).RequireAuth)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)
}
