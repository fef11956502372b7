package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// UploadRateLimiter limits upload requests per client IP. The limit is
// generous because peers are LAN-local, but it still stops a runaway client
// script from filling the disk.
func UploadRateLimiter() echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		// In-memory store; the relay is a single instance by design.
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  rate.Limit(0.5), // 30 uploads per minute
			Burst: 10,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.String(http.StatusTooManyRequests, "Too many uploads. Please try again later.")
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
