package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout returns middleware that sets a context deadline on each
// incoming request. If the deadline is exceeded before the handler completes,
// the request context is cancelled and a 504 Gateway Timeout response is
// returned.
//
// The websocket upgrade path (/api/ws) is excluded because those connections
// are long-lived by design.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return RequestTimeoutWithOverrides(timeout, nil)
}

// RequestTimeoutWithOverrides behaves like RequestTimeout but lets specific
// path prefixes carry their own deadline. Report rendering and the hosted
// model endpoints run far longer than a normal database read, so they get a
// wider window without loosening the default for everything else. The longest
// matching prefix wins.
func RequestTimeoutWithOverrides(timeout time.Duration, overrides map[string]time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			// Skip timeout for websocket connections
			if strings.HasPrefix(path, "/api/ws") {
				return next(c)
			}

			deadline := timeoutForPath(path, timeout, overrides)
			ctx, cancel := context.WithTimeout(c.Request().Context(), deadline)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			// Run handler in a goroutine so we can select on the context.
			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				// If the context was cancelled due to timeout, return 504.
				if ctx.Err() == context.DeadlineExceeded {
					return gatewayTimeoutError(c)
				}
				// For other cancellation reasons (e.g. client disconnect),
				// just return the context error.
				return ctx.Err()
			}
		}
	}
}

func timeoutForPath(path string, base time.Duration, overrides map[string]time.Duration) time.Duration {
	deadline := base
	matched := 0
	for prefix, d := range overrides {
		if len(prefix) > matched && strings.HasPrefix(path, prefix) {
			deadline = d
			matched = len(prefix)
		}
	}
	return deadline
}

func gatewayTimeoutError(c echo.Context) error {
	// Attempt to write the timeout response. If the response was already
	// committed (partial write), this will be a no-op.
	if !c.Response().Committed {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "request processing exceeded the allowed time limit",
		})
	}
	return nil
}
