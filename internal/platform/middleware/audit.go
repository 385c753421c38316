package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Audit logs a structured record for every mutating request. Billing
// and stock endpoints change money and inventory, so each write is
// traceable to a user, a request ID and an outcome.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			method := c.Request().Method
			if method == "GET" || method == "HEAD" || method == "OPTIONS" {
				return err
			}

			event := logger.Info()
			if err != nil {
				event = logger.Warn().Err(err)
			}

			userID, _ := c.Get("user_id").(string)
			requestID, _ := c.Get("request_id").(string)

			event.
				Str("audit", "write").
				Str("method", method).
				Str("path", c.Request().URL.Path).
				Str("user_id", userID).
				Str("request_id", requestID).
				Int("status", c.Response().Status).
				Dur("duration", time.Since(start)).
				Msg("audit event")

			return err
		}
	}
}
