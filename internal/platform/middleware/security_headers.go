package middleware

import (
	"github.com/labstack/echo/v4"
)

// Content security policies for the two kinds of responses the service
// produces.
const (
	// APIPolicy denies all resource loading; JSON needs none.
	APIPolicy = "default-src 'none'; frame-ancestors 'none'"
	// ReportPolicy lets the printable report use its inline stylesheet and
	// the print button's handler, and nothing from other origins.
	ReportPolicy = "default-src 'self'; style-src 'unsafe-inline'; script-src 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"
)

// SecurityHeaders returns middleware that sets security response headers on
// every request, using csp as the Content-Security-Policy.
func SecurityHeaders(csp string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// Prevent MIME type sniffing
			h.Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			h.Set("X-Frame-Options", "DENY")

			h.Set("X-XSS-Protection", "0")
			h.Set("Content-Security-Policy", csp)
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// Billing records carry patient details.
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
