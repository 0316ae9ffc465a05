package middleware

import (
	"net/http"

	authentication "github.com/Alwanly/mcs-agent/pkg/auth"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/metrics"
	"github.com/Alwanly/mcs-agent/pkg/wrapper"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ForbiddenMessage is the only thing a rejected caller learns.
const ForbiddenMessage = "forbidden"

type IAuthMiddleware interface {
	TokenAuth() fiber.Handler
}

type AuthMiddleware struct {
	Token authentication.ITokenAuthService
	log   *logger.CanonicalLogger
}

// mockery:ignore
type AuthConfig func(*AuthOpts)

type AuthOpts struct {
	*authentication.TokenAuthConfig
	Logger *logger.CanonicalLogger
}

func SetTokenAuth(tokenAuthConfig *authentication.TokenAuthConfig) AuthConfig {
	return func(o *AuthOpts) {
		o.TokenAuthConfig = tokenAuthConfig
	}
}

func SetLogger(log *logger.CanonicalLogger) AuthConfig {
	return func(o *AuthOpts) {
		o.Logger = log
	}
}

func NewAuthMiddleware(opts ...AuthConfig) *AuthMiddleware {
	o := AuthOpts{TokenAuthConfig: &authentication.TokenAuthConfig{}}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &AuthMiddleware{
		Token: authentication.NewTokenAuthService(o.TokenAuthConfig),
		log:   log,
	}
}

// TokenAuth rejects any request without a fresh, valid X-MCS-TOKEN /
// X-MCS-TIMESTAMP pair.
func (a *AuthMiddleware) TokenAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h, err := authentication.ParseHeaders(
			c.Get(authentication.HeaderToken),
			c.Get(authentication.HeaderTimestamp),
		)
		if err != nil {
			return a.forbidden(c, "malformed")
		}
		if !a.Token.Verify(h) {
			return a.forbidden(c, "rejected")
		}
		return c.Next()
	}
}

func (a *AuthMiddleware) forbidden(c *fiber.Ctx, reason string) error {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	a.log.Debug("token check failed",
		zap.String("reason", reason),
		zap.String("path", c.Path()),
		zap.String("ip", c.IP()),
	)
	return wrapper.ResponseFailed(http.StatusForbidden, ForbiddenMessage).Send(c)
}
