package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/internal/observability"
)

// RequestLogger logs one line per request and feeds the operation metrics.
// Each request carries a generated X-Request-ID response header for
// correlation.
func RequestLogger(metrics *observability.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			requestID := observability.NewRequestID()
			c.Response().Header().Set("X-Request-ID", requestID)

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			failed := err != nil || status >= 500
			metrics.RecordRequest(c.Request().Method+" "+c.Path(), duration, failed)

			level := slog.LevelInfo
			if failed {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}
			slog.Default().Log(c.Request().Context(), level, "http request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"user_id", c.Request().Header.Get("X-User-ID"),
			)
			return err
		}
	}
}
