package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Skotchmaster/shopcarts/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// OwnerGuard checks bearer or cookie access tokens against the :owner_id
// path parameter. A guard with an empty secret lets every request through.
type OwnerGuard struct {
	JWTSecret []byte
}

func NewOwnerGuard(secret []byte) *OwnerGuard {
	return &OwnerGuard{JWTSecret: secret}
}

func (g *OwnerGuard) Enabled() bool {
	return len(g.JWTSecret) > 0
}

type ValidatorFunc func(c echo.Context, claims *AccessClaims) error

// RequireOwner admits the cart's owner and admins.
func (g *OwnerGuard) RequireOwner(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, func(c echo.Context, claims *AccessClaims) error {
		if claims.Role == RoleAdmin || sameOwner(claims.Subject, c.Param("owner_id")) {
			return nil
		}
		return echo.NewHTTPError(http.StatusForbidden, "access to this cart is not allowed")
	})
}

func (g *OwnerGuard) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(next, func(_ echo.Context, claims *AccessClaims) error {
		if claims.Role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (g *OwnerGuard) require(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	if !g.Enabled() {
		return next
	}
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("middleware", "owner_guard")

		raw := tokenFromRequest(c)
		if raw == "" {
			l.Warn("auth_error", "status", 401, "reason", "missing access token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := AccessClaimsFromToken(raw, g.JWTSecret)
		if err != nil {
			reason := "invalid access token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				reason = "access token expired"
			}
			l.Warn("auth_error", "status", 401, "reason", reason, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, reason)
		}

		if err := validator(c, claims); err != nil {
			l.Warn("auth_error", "status", 403, "subject", claims.Subject, "role", claims.Role)
			return err
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		return next(c)
	}
}

// sameOwner compares ids numerically so "007" and "7" name the same cart.
func sameOwner(subject, param string) bool {
	sub, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return false
	}
	owner, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return false
	}
	return sub == owner
}

func tokenFromRequest(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if ck, err := c.Cookie("accessToken"); err == nil {
		return ck.Value
	}
	return ""
}
