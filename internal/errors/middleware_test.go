package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMiddleware(t *testing.T, handlerErr error) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware()(func(c echo.Context) error {
		return handlerErr
	})

	require.NoError(t, handler(c))
	return rec
}

func TestMiddleware_NoError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware()(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_ValidationError(t *testing.T) {
	rec := runMiddleware(t, ValidationError("missing code parameter"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing code parameter")
	assert.Contains(t, rec.Body.String(), `"type":"validation"`)
}

func TestMiddleware_PlainErrorBecomesInternal(t *testing.T) {
	rec := runMiddleware(t, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestMiddleware_EchoHTTPErrorPassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "csrf token invalid")
	})

	err := handler(c)
	require.Error(t, err)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}
