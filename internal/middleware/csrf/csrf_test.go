package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{SkipPaths: []string{"/health/live"}}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/shopcarts/1", ok)
	e.POST("/shopcarts/1", ok)
	e.POST("/health/live", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_BearerClientsPass(t *testing.T) {
	e := newEcho()

	req := httptest.NewRequest(http.MethodPost, "/shopcarts/1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer abc")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestMiddleware_CookieSession(t *testing.T) {
	e := newEcho()

	get := httptest.NewRequest(http.MethodGet, "/shopcarts/1", nil)
	get.AddCookie(&http.Cookie{Name: "accessToken", Value: "tok"})
	rec := serve(e, get)
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)

	post := func(header string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/shopcarts/1", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: "tok"})
		req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
		req.Header.Set("Origin", "http://example.com")
		if header != "" {
			req.Header.Set("X-CSRF-Token", header)
		}
		return req
	}

	assert.Equal(t, http.StatusForbidden, serve(e, post("")).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, post("wrong")).Code)
	assert.Equal(t, http.StatusOK, serve(e, post(token)).Code)

	cross := post(token)
	cross.Header.Set("Origin", "http://evil.test")
	assert.Equal(t, http.StatusForbidden, serve(e, cross).Code)
}

func TestMiddleware_SkipPaths(t *testing.T) {
	e := newEcho()

	req := httptest.NewRequest(http.MethodPost, "/health/live", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "tok"})
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}
