package middleware

import (
	"time"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CanonicalLoggerMiddleware writes exactly one line per request, after the
// response status is known. Handlers, usecases and the dispatch registry
// contribute fields to it through logger.AddToContext on c.UserContext().
//
// Stream responses are written after this returns, so their line reports
// when streaming began, not when it ended.
func CanonicalLoggerMiddleware(log *logger.CanonicalLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID, _ := c.Locals("requestid").(string)
		ctx, fields := logger.Begin(c.UserContext(), requestID)
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler set the status before the line is written.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		line := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
			line = append(line, zap.String("route", route.Path))
		}
		line = append(line, fields.Fields()...)

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("http_request", line...)
		case status >= fiber.StatusBadRequest:
			log.Info("http_request_client_error", line...)
		default:
			log.Info("http_request", line...)
		}
		return nil
	}
}
