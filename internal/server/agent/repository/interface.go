package repository

import (
	"context"
	"time"

	"github.com/Alwanly/mcs-agent/internal/logwindow"
	"github.com/Alwanly/mcs-agent/internal/models"
)

type IRepository interface {
	// ReadLog returns the whole content of the named log.
	ReadLog(ctx context.Context, name string) (string, error)
	// ReadLogWindow reads only the part of the named log the window covers.
	ReadLogWindow(ctx context.Context, name string, stride int, cursor *int) (logwindow.Window, error)

	CreateRun(ctx context.Context, run *models.DispatchRun) error
	FinishRun(ctx context.Context, run *models.DispatchRun) error
	ListRuns(ctx context.Context, target string, limit int) ([]models.DispatchRun, error)
	// PruneRuns deletes finished runs that started before cutoff.
	PruneRuns(ctx context.Context, cutoff time.Time) (int64, error)

	PublishEvent(ctx context.Context, event models.DispatchEvent) error
}
