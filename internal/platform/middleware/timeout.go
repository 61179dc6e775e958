package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kindercare/kindercare/pkg/envelope"
)

// RequestTimeout bounds each request with a context deadline. The handler
// runs on the request goroutine; repositories observe the deadline through
// the request context. If the deadline has passed when the handler returns
// and nothing was written yet, a 504 envelope is written.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if c.Response().Committed {
				return err
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return envelope.Fail(c, http.StatusGatewayTimeout, "request timed out")
			}
			return err
		}
	}
}
