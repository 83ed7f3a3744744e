package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"pettie-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const errorLogLimit = 50

// ErrorHandler returns the global error handler. Server errors are logged and,
// when rdb is set, appended to the health error log (newest first, capped).
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("method", c.Method()).Str("path", c.Path()).Msg("unhandled error")
			if rdb != nil {
				entry, _ := json.Marshal(map[string]interface{}{
					"time":     time.Now(),
					"method":   c.Method(),
					"path":     c.OriginalURL(),
					"message":  err.Error(),
					"trace_id": GetTraceID(c),
				})
				ctx := context.Background()
				rdb.LPush(ctx, KeyErrorLog, entry)
				rdb.LTrim(ctx, KeyErrorLog, 0, errorLogLimit-1)
			}
		}
		return response.Error(c, message, code, nil)
	}
}
