package logger

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type CanonicalLogger struct {
	l *zap.Logger
}

// NewLoggerFromEnv builds a logger from LOG_FORMAT and LOG_LEVEL.
//   - LOG_FORMAT "console" or "development": human-readable output
//   - LOG_FORMAT "json" or "production" (default): structured JSON
//   - LOG_LEVEL: debug, info (default), warn, error
//
// One caller frame is skipped so the caller field points at the code using
// the wrapper rather than the wrapper itself.
func NewLoggerFromEnv(component string) (*CanonicalLogger, error) {
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "production"
	}

	var cfg zap.Config
	if logFormat == "console" || logFormat == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	zapLogger, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.Fields(zap.String("component", component)),
	)
	if err != nil {
		return nil, err
	}

	return &CanonicalLogger{
		l: zapLogger,
	}, nil
}

// New wraps an existing zap logger.
func New(l *zap.Logger) *CanonicalLogger {
	return &CanonicalLogger{l: l}
}

// NewNop returns a logger that discards everything.
func NewNop() *CanonicalLogger {
	return &CanonicalLogger{l: zap.NewNop()}
}

// Zap exposes the underlying logger for libraries that take a *zap.Logger.
func (c *CanonicalLogger) Zap() *zap.Logger {
	return c.l
}

func (c *CanonicalLogger) Sync() {
	_ = c.l.Sync()
}

func (c *CanonicalLogger) Info(msg string, fields ...zap.Field) {
	c.l.Info(msg, fields...)
}

func (c *CanonicalLogger) Debug(msg string, fields ...zap.Field) {
	c.l.Debug(msg, fields...)
}

func (c *CanonicalLogger) Error(msg string, fields ...zap.Field) {
	c.l.Error(msg, fields...)
}

func (c *CanonicalLogger) Fatal(msg string, fields ...zap.Field) {
	c.l.Fatal(msg, fields...)
}

func (c *CanonicalLogger) WithError(err error) *CanonicalLogger {
	return &CanonicalLogger{l: c.l.With(zap.Error(err))}
}

func (c *CanonicalLogger) Warn(msg string, fields ...zap.Field) {
	c.l.Warn(msg, fields...)
}

// With returns a child logger carrying fields.
func (c *CanonicalLogger) With(fields ...zap.Field) *CanonicalLogger {
	return &CanonicalLogger{l: c.l.With(fields...)}
}

func (c *CanonicalLogger) Component(name string) *CanonicalLogger {
	return &CanonicalLogger{l: c.l.With(zap.String("component", name))}
}

// HTTPError logs an error a handler returned instead of answering itself.
// Below 500 it is the client's fault and logged at info.
func (c *CanonicalLogger) HTTPError(method, path string, status int, err error) {
	fields := []zap.Field{zap.String("method", method), zap.String("path", path), zap.Int("status", status), zap.Error(err)}
	if status < http.StatusInternalServerError {
		c.l.Info("http_error", fields...)
		return
	}
	c.l.Error("http_error", fields...)
}
