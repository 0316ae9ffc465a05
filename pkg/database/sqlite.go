package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/Alwanly/mcs-agent/internal/models"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DefaultSlowQuery is the duration above which a statement is logged at warn.
const DefaultSlowQuery = 200 * time.Millisecond

type options struct {
	log  *logger.CanonicalLogger
	slow time.Duration
}

type Option func(*options)

// WithLogger sends gorm's errors and slow statements to log.
func WithLogger(log *logger.CanonicalLogger) Option {
	return func(o *options) { o.log = log }
}

// NewSQLiteDB opens the run history database. An empty path or ":memory:"
// keeps it in memory for the life of the process. On-disk databases run in
// WAL mode with a busy timeout so readers never block the dispatch path.
func NewSQLiteDB(path string, opts ...Option) (*gorm.DB, error) {
	o := options{log: logger.NewNop(), slow: DefaultSlowQuery}
	for _, opt := range opts {
		opt(&o)
	}

	memory := path == "" || strings.Contains(path, ":memory:")
	dsn := path
	switch {
	case path == "":
		dsn = ":memory:"
	case !memory && !strings.Contains(path, "?"):
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newGormLogger(o.log.Component("gorm"), o.slow),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to :memory: is its own database.
	if memory {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// RunMigrations creates or updates the dispatch_runs table.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.DispatchRun{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
