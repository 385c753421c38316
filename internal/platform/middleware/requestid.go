package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader carries the request id between the clinic frontend
// and this API.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id the audit and access logs
// key on. A caller-supplied X-Request-ID wins so the frontend can
// correlate a failed bill submission end to end; anonymous requests
// get a fresh UUID. The id is always echoed back in the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}
