package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"dieselhub/internal/auth"

	"github.com/labstack/echo/v4"
)

// AdminTokenHeader carries the shared admin token
const AdminTokenHeader = "x-admin-token"

// SyncKeyHeader carries the inventory sync key
const SyncKeyHeader = "x-sync-key"

// AdminAuth accepts either the x-admin-token header or a Bearer access token
// issued by the admin login endpoint.
func AdminAuth(authService *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := c.Request().Header.Get(AdminTokenHeader); token != "" {
				if authService.CheckAdminToken(token) {
					c.Set("user_role", auth.RoleAdmin)
					return next(c)
				}
				return unauthorized(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return unauthorized(c)
			}

			claims, err := authService.ValidateToken(strings.TrimSpace(authHeader[7:]))
			if err != nil {
				return unauthorized(c)
			}

			c.Set("claims", claims)
			c.Set("user_role", claims.Role)
			return next(c)
		}
	}
}

// SyncKey guards the inventory sync endpoint. An empty key rejects everything.
func SyncKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(SyncKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{"ok": false, "error": "unauthorized"})
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
}
