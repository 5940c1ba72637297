package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func sign(t *testing.T, secret []byte, subject, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := SignAccessToken(secret, subject, role, ttl)
	require.NoError(t, err)
	return tok
}

func newGuardedEcho(g *OwnerGuard) *echo.Echo {
	e := echo.New()
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/shopcarts", ok, g.RequireAdmin)
	e.GET("/shopcarts/:owner_id", ok, g.RequireOwner)
	return e
}

func TestOwnerGuard(t *testing.T) {
	t.Parallel()

	e := newGuardedEcho(NewOwnerGuard(testSecret))

	tests := []struct {
		name   string
		path   string
		token  string
		cookie bool
		want   int
	}{
		{name: "no token", path: "/shopcarts/7", want: http.StatusUnauthorized},
		{name: "owner bearer", path: "/shopcarts/7", token: sign(t, testSecret, "7", "user", time.Minute), want: http.StatusOK},
		{name: "owner cookie", path: "/shopcarts/7", token: sign(t, testSecret, "7", "user", time.Minute), cookie: true, want: http.StatusOK},
		{name: "owner padded id", path: "/shopcarts/007", token: sign(t, testSecret, "7", "user", time.Minute), want: http.StatusOK},
		{name: "non-numeric subject", path: "/shopcarts/7", token: sign(t, testSecret, "seven", "user", time.Minute), want: http.StatusForbidden},
		{name: "other user", path: "/shopcarts/7", token: sign(t, testSecret, "8", "user", time.Minute), want: http.StatusForbidden},
		{name: "admin any cart", path: "/shopcarts/7", token: sign(t, testSecret, "1", RoleAdmin, time.Minute), want: http.StatusOK},
		{name: "expired", path: "/shopcarts/7", token: sign(t, testSecret, "7", "user", -time.Minute), want: http.StatusUnauthorized},
		{name: "wrong secret", path: "/shopcarts/7", token: sign(t, []byte("other"), "7", "user", time.Minute), want: http.StatusUnauthorized},
		{name: "all carts needs admin", path: "/shopcarts", token: sign(t, testSecret, "7", "user", time.Minute), want: http.StatusForbidden},
		{name: "all carts admin", path: "/shopcarts", token: sign(t, testSecret, "1", RoleAdmin, time.Minute), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				if tt.cookie {
					req.AddCookie(&http.Cookie{Name: "accessToken", Value: tt.token})
				} else {
					req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
				}
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestOwnerGuard_Disabled(t *testing.T) {
	t.Parallel()

	e := newGuardedEcho(NewOwnerGuard(nil))
	req := httptest.NewRequest(http.MethodGet, "/shopcarts/7", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessClaimsFromToken_RejectsOtherAlg(t *testing.T) {
	t.Parallel()

	// "none"-signed token with subject 7
	raw := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiI3In0."
	_, err := AccessClaimsFromToken(raw, testSecret)
	require.Error(t, err)
}
