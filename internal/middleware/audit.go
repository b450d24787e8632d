package middleware

import (
	"strings"
	"time"

	"invoicedesk/internal/common"
	"invoicedesk/internal/logger"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger attaches a request-scoped zerolog logger to the context and
// writes one access line per request once the handler returns
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = req.Header.Get(echo.HeaderXRequestID)
			}

			l := log.Logger.With().Str("request_id", requestID).Logger()
			ctx := logger.Into(req.Context(), l)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if shouldSkipLogging(c.Path()) {
				return nil
			}

			status := c.Response().Status
			event := levelFor(&l, status).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("ip", c.RealIP()).
				Str("user_agent", req.UserAgent())
			if actor := common.GetActorFromContext(c.Request().Context()); actor != nil {
				event = event.Str("actor_id", actor.ID.String())
			}
			if err != nil {
				event = event.Err(err)
			}
			event.Msg("request")

			return nil
		}
	}
}

func levelFor(l *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return l.Error()
	case status >= 400:
		return l.Warn()
	default:
		return l.Info()
	}
}

func shouldSkipLogging(path string) bool {
	for _, prefix := range []string{"/health", "/swagger"} {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
