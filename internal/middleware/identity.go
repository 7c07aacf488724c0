package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// ClientIDHeader names the calling client for rate limiting.  Requests
// without it share the "anon" bucket for their IP.
const ClientIDHeader = "X-Client-ID"

func clientID(c echo.Context) string {
	if v := strings.TrimSpace(c.Request().Header.Get(ClientIDHeader)); v != "" {
		return v
	}
	return "anon"
}
