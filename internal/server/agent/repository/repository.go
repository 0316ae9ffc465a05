package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Alwanly/mcs-agent/internal/logwindow"
	"github.com/Alwanly/mcs-agent/internal/models"
	"github.com/Alwanly/mcs-agent/pkg/pubsub"
	"gorm.io/gorm"
)

// DefaultLogPattern names the log file of a target.
const DefaultLogPattern = "%s.log"

var ErrLogNotFound = errors.New("log not found")

type Repository struct {
	DB  *gorm.DB
	Pub pubsub.Publisher

	LogDir     string
	LogPattern string
	Host       string
}

func NewRepository(db *gorm.DB, publisher pubsub.Publisher, logDir, logPattern, host string) *Repository {
	if publisher == nil {
		publisher = pubsub.Noop{}
	}
	if logPattern == "" {
		logPattern = DefaultLogPattern
	}
	return &Repository{DB: db, Pub: publisher, LogDir: logDir, LogPattern: logPattern, Host: host}
}

func (r *Repository) logPath(name string) string {
	return filepath.Join(r.LogDir, fmt.Sprintf(r.LogPattern, name))
}

func (r *Repository) ReadLog(ctx context.Context, name string) (string, error) {
	b, err := os.ReadFile(r.logPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", name, ErrLogNotFound)
		}
		return "", fmt.Errorf("failed to read log %s: %w", name, err)
	}
	return string(b), nil
}

func (r *Repository) ReadLogWindow(ctx context.Context, name string, stride int, cursor *int) (logwindow.Window, error) {
	f, err := os.Open(r.logPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return logwindow.Window{}, fmt.Errorf("%s: %w", name, ErrLogNotFound)
		}
		return logwindow.Window{}, fmt.Errorf("failed to open log %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return logwindow.Window{}, fmt.Errorf("failed to stat log %s: %w", name, err)
	}
	if cursor != nil {
		return logwindow.ReadWindow(f, info.Size(), stride, *cursor)
	}
	return logwindow.ReadWindow(f, info.Size(), stride)
}

func (r *Repository) CreateRun(ctx context.Context, run *models.DispatchRun) error {
	if err := r.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (r *Repository) FinishRun(ctx context.Context, run *models.DispatchRun) error {
	result := r.DB.WithContext(ctx).Model(&models.DispatchRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"state":       run.State,
			"exit_code":   run.ExitCode,
			"error":       run.Error,
			"finished_at": run.FinishedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to finish run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

func (r *Repository) ListRuns(ctx context.Context, target string, limit int) ([]models.DispatchRun, error) {
	var runs []models.DispatchRun
	q := r.DB.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if target != "" {
		q = q.Where("target = ?", target)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (r *Repository) PruneRuns(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("started_at < ? AND state <> ?", cutoff, models.RunStateRunning).
		Delete(&models.DispatchRun{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *Repository) PublishEvent(ctx context.Context, event models.DispatchEvent) error {
	event.Host = r.Host
	return pubsub.PublishJSON(ctx, r.Pub, pubsub.DispatchChannel(r.Host), event)
}
