package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	rerrors "github.com/hrygo/chronorec/internal/errors"
	"github.com/hrygo/chronorec/internal/observability"
)

// HeaderRequestID carries the request id in requests and responses.
const HeaderRequestID = "X-Request-Id"

// RateLimit rejects requests of clients over their budget with 429. Clients
// are keyed by their real IP.
func RateLimit(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				err := rerrors.RateLimitExceeded("too many requests")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"code":    string(err.Code),
					"message": err.Message,
				})
			}
			return next(c)
		}
	}
}

// RequestContext attaches an observability.RequestContext to every request,
// reusing the caller's X-Request-Id when present, and logs the outcome.
func RequestContext(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			var reqCtx *observability.RequestContext
			if id := req.Header.Get(HeaderRequestID); id != "" {
				reqCtx = observability.NewRequestContextWithID(logger, id, "")
			} else {
				reqCtx = observability.NewRequestContext(logger, "")
			}
			c.SetRequest(req.WithContext(observability.WithRequestContext(req.Context(), reqCtx)))
			c.Response().Header().Set(HeaderRequestID, reqCtx.RequestID)

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			reqCtx.Info("request completed",
				slog.String("method", req.Method),
				slog.String("path", c.Path()),
				slog.Int("status", c.Response().Status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
			)
			return nil
		}
	}
}
