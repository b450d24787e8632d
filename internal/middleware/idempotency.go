package middleware

import (
	"bytes"
	"net/http"
	"time"

	"invoicedesk/internal/caching"
	"invoicedesk/internal/common"
	"invoicedesk/internal/logger"

	"github.com/labstack/echo/v4"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "X-Idempotency-Replayed"

	maxIdempotencyKeyLen = 255
	idempotencyTTL       = 24 * time.Hour
)

// Idempotency replays the first 2xx response recorded for an
// (actor, Idempotency-Key) pair. Requests without the header pass through.
// Store failures degrade to normal processing.
func Idempotency(store caching.IdempotencyStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderIdempotencyKey)
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return common.SendValidationError(c, HeaderIdempotencyKey, "Ensure this field has no more than 255 characters.")
			}

			ctx := c.Request().Context()
			actor := common.GetActorFromContext(ctx)
			if actor == nil {
				return next(c)
			}
			actorID := actor.ID.String()
			scopedKey := c.Request().Method + " " + c.Path() + " " + c.Param("id") + " " + key
			log := logger.FromContext(ctx)

			stored, err := store.Get(ctx, actorID, scopedKey)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency lookup failed")
			} else if stored != nil {
				c.Response().Header().Set(HeaderReplayed, "true")
				return c.Blob(stored.Status, stored.ContentType, stored.Body)
			}

			recorder := &bodyRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = recorder
			if err := next(c); err != nil {
				return err
			}

			status := c.Response().Status
			if status < http.StatusOK || status >= http.StatusMultipleChoices {
				return nil
			}
			resp := &caching.StoredResponse{
				Status:      status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        recorder.body.Bytes(),
			}
			if err := store.Set(ctx, actorID, scopedKey, resp, idempotencyTTL); err != nil {
				log.Warn().Err(err).Msg("idempotency store failed")
			}
			return nil
		}
	}
}

type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
