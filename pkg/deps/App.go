package deps

import (
	"context"
	"time"

	"github.com/Alwanly/mcs-agent/internal/dispatch"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/middleware"
	"github.com/Alwanly/mcs-agent/pkg/poll"
	"github.com/Alwanly/mcs-agent/pkg/pubsub"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type App struct {
	// Ctx outlives every request and is cancelled at shutdown. Streams are
	// bound to it.
	Ctx        context.Context
	StartTime  time.Time
	Fiber      *fiber.App
	Logger     *logger.CanonicalLogger
	Database   *gorm.DB
	Middleware *middleware.AuthMiddleware
	Registry   *dispatch.Registry
	Poller     poll.Poller
	Pub        pubsub.Publisher
}
