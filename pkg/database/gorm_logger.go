package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alwanly/mcs-agent/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger adapts gorm's logger to the canonical logger. Statement errors
// are also added to the request's log context so the http_request line shows
// that history writes failed.
type gormLogger struct {
	log   *logger.CanonicalLogger
	level gormlogger.LogLevel
	slow  time.Duration
}

var _ gormlogger.Interface = (*gormLogger)(nil)

func newGormLogger(log *logger.CanonicalLogger, slow time.Duration) *gormLogger {
	return &gormLogger{log: log, level: gormlogger.Warn, slow: slow}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Info {
		g.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Warn {
		g.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if g.level >= gormlogger.Error {
		g.log.Error(fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		logger.AddToContext(ctx, zap.NamedError("sql_error", err))
		g.log.Error("sql_error", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed), zap.Error(err))
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.log.Warn("slow_sql", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.log.Debug("sql", zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	}
}
