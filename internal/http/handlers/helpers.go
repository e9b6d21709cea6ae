package handlers

import (
	"net"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// clientIP returns the first X-Forwarded-For hop, else the peer address
func clientIP(c echo.Context) string {
	if forwarded := c.Request().Header.Get(echo.HeaderXForwardedFor); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	remote := c.Request().RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func errorJSON(msg string) map[string]string {
	return map[string]string{"error": msg}
}
