package middleware

import (
	"errors"
	"net/http"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/wrapper"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders anything a handler returned, including recovered
// panics, as an error envelope. Internal error text is logged, not sent.
func ErrorHandler(log *logger.CanonicalLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := http.StatusText(code)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		log.HTTPError(c.Method(), c.Path(), code, err)

		return wrapper.ResponseFailed(code, message).Send(c)
	}
}
