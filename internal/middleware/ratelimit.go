package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "cardshop/internal/errors"
	"cardshop/internal/ratelimit"
)

// RateLimit throttles a route group per client IP before any handler runs.
func RateLimit(limiter ratelimit.Limiter, scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, err := limiter.Allow(c.Request().Context(), scope+":ip:"+c.RealIP())
			if err == nil && !ok {
				httpErr := apperrors.MapErrorToHTTP(apperrors.RateLimited("Too many requests, please try again later"))
				return echo.NewHTTPError(http.StatusTooManyRequests, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}
