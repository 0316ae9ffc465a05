package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Alwanly/mcs-agent/internal/dispatch"
	"github.com/Alwanly/mcs-agent/internal/models"
	"github.com/Alwanly/mcs-agent/internal/server/agent/dto"
	"github.com/Alwanly/mcs-agent/internal/server/agent/repository"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/metrics"
	"github.com/Alwanly/mcs-agent/pkg/wrapper"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatusTarget is the query target behind /server-status.
const StatusTarget = "server-status"

// DefaultLogTargets are the logs /log may read.
var DefaultLogTargets = []string{"minecraft", "agent"}

type UseCase struct {
	Repo       repository.IRepository
	Dispatcher IDispatcher
	Logger     *logger.CanonicalLogger

	LogTargets   []string
	RunRetention time.Duration
	Now          func() time.Time
}

func NewUseCase(uc UseCase) *UseCase {
	if uc.Logger == nil {
		uc.Logger = logger.NewNop()
	}
	if len(uc.LogTargets) == 0 {
		uc.LogTargets = DefaultLogTargets
	}
	if uc.Now == nil {
		uc.Now = time.Now
	}
	return &uc
}

func (uc *UseCase) logAllowed(name string) bool {
	for _, t := range uc.LogTargets {
		if t == name {
			return true
		}
	}
	return false
}

func (uc *UseCase) loadLog(ctx context.Context, target string) (string, wrapper.Outcome, bool) {
	if !uc.logAllowed(target) {
		return "", wrapper.Failed(http.StatusBadRequest, "unknown log target: "+target), false
	}
	buf, err := uc.Repo.ReadLog(ctx, target)
	if err != nil {
		return "", uc.failure(ctx, err), false
	}
	metrics.LogWindowReads.WithLabelValues(target).Inc()
	return buf, wrapper.Outcome{}, true
}

// ReadLog returns one window of the target's log.
func (uc *UseCase) ReadLog(ctx context.Context, req *dto.LogRequest) wrapper.Outcome {
	logger.AddToContext(ctx,
		logger.Target(req.Target),
		zap.Int(logger.FieldStride, req.Stride),
	)
	if !uc.logAllowed(req.Target) {
		return wrapper.Failed(http.StatusBadRequest, "unknown log target: "+req.Target)
	}
	if req.Cursor != nil {
		logger.AddToContext(ctx, zap.Int(logger.FieldCursor, *req.Cursor))
	}

	w, err := uc.Repo.ReadLogWindow(ctx, req.Target, req.Stride, req.Cursor)
	if err != nil {
		return uc.failure(ctx, err)
	}
	metrics.LogWindowReads.WithLabelValues(req.Target).Inc()
	return wrapper.Completed(dto.LogWindowResponse{Data: w.Data, Start: w.Start, End: w.End})
}

// ReadWholeLog returns the entire log, for the raw /log/:target form.
func (uc *UseCase) ReadWholeLog(ctx context.Context, target string) (string, wrapper.Outcome) {
	logger.AddToContext(ctx, logger.Target(target))
	buf, failed, ok := uc.loadLog(ctx, target)
	if !ok {
		return "", failed
	}
	return buf, wrapper.AlreadyResponded()
}

// Make runs an action target to completion.
func (uc *UseCase) Make(ctx context.Context, req *dto.MakeRequest) wrapper.Outcome {
	params := map[string]string(req.Params)
	if err := uc.Dispatcher.Validate(req.Target, dispatch.Action, params); err != nil {
		return uc.failure(ctx, err)
	}

	run := uc.startRun(ctx, req.Target, dispatch.Action, params)
	err := uc.Dispatcher.Dispatch(ctx, req.Target, params)
	uc.finishRun(ctx, run, err)
	if err != nil {
		return uc.failure(ctx, err)
	}
	return wrapper.Completed(dto.MakeResponse{RunID: run.ID})
}

// ServerStatus runs the status query and returns its decoded result.
func (uc *UseCase) ServerStatus(ctx context.Context) wrapper.Outcome {
	run := uc.startRun(ctx, StatusTarget, dispatch.Query, nil)
	var status dto.ServerStatus
	err := uc.Dispatcher.Query(ctx, StatusTarget, nil, &status)
	uc.finishRun(ctx, run, err)
	if err != nil {
		return uc.failure(ctx, err)
	}
	return wrapper.Completed(status)
}

// CheckStream validates a stream request before any response is committed.
func (uc *UseCase) CheckStream(target string, params map[string]string) wrapper.Outcome {
	if err := uc.Dispatcher.Validate(target, dispatch.Stream, params); err != nil {
		return uc.failure(context.Background(), err)
	}
	return wrapper.Completed(nil)
}

// Stream attaches sink to a new stream child and blocks until the child is
// gone. Cancelling ctx kills the child.
func (uc *UseCase) Stream(ctx context.Context, target string, params map[string]string, sink dispatch.Sink) error {
	h, err := uc.Dispatcher.Stream(ctx, target, params, sink)
	if err != nil {
		return err
	}
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	log := uc.Logger.With(logger.Target(target), logger.Pid(h.Pid))
	log.Info("stream attached")
	<-h.Done()
	code, _ := h.ExitCode()
	log.Info("stream detached", zap.Stringer("state", h.State()), logger.ExitCode(code))
	return nil
}

func (uc *UseCase) ListRuns(ctx context.Context, req *dto.RunsRequest) wrapper.Outcome {
	limit := req.Limit
	if limit == 0 {
		limit = dto.DefaultRunsLimit
	}
	runs, err := uc.Repo.ListRuns(ctx, req.Target, limit)
	if err != nil {
		return uc.failure(ctx, err)
	}
	if runs == nil {
		runs = []models.DispatchRun{}
	}
	return wrapper.Completed(runs)
}

// PruneRuns drops run history older than the retention window.
func (uc *UseCase) PruneRuns(ctx context.Context) error {
	if uc.RunRetention <= 0 {
		return nil
	}
	n, err := uc.Repo.PruneRuns(ctx, uc.Now().Add(-uc.RunRetention))
	if err != nil {
		return err
	}
	metrics.PrunedRuns.Add(float64(n))
	logger.AddToContext(ctx, zap.Int64(logger.FieldAffected, n))
	return nil
}

// startRun records and announces a run. History and events are best effort:
// failing to write them never blocks the dispatch.
func (uc *UseCase) startRun(ctx context.Context, target string, d dispatch.Discipline, params map[string]string) *models.DispatchRun {
	encoded, _ := json.Marshal(params)
	run := &models.DispatchRun{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Target:     target,
		Discipline: string(d),
		Params:     string(encoded),
		State:      models.RunStateRunning,
		RequestID:  logger.RequestID(ctx),
		StartedAt:  uc.Now(),
	}
	logger.AddToContext(ctx, logger.RunID(run.ID))

	if err := uc.Repo.CreateRun(ctx, run); err != nil {
		uc.Logger.Warn("failed to record run", logger.RunID(run.ID), zap.Error(err))
	}
	uc.publish(ctx, run)
	return run
}

func (uc *UseCase) finishRun(ctx context.Context, run *models.DispatchRun, err error) {
	finished := uc.Now()
	run.FinishedAt = &finished

	result := "success"
	var exitErr *dispatch.ProcessExitError
	switch {
	case err == nil:
		code := 0
		run.ExitCode = &code
		run.State = models.RunStateSucceeded
	case errors.As(err, &exitErr):
		code := exitErr.Code
		run.ExitCode = &code
		run.State = models.RunStateFailed
		run.Error = err.Error()
		result = "exit_error"
	default:
		run.State = models.RunStateFailed
		run.Error = err.Error()
		result = "error"
	}
	if run.ExitCode != nil {
		logger.AddToContext(ctx, logger.ExitCode(*run.ExitCode))
	}

	metrics.DispatchRuns.WithLabelValues(run.Target, run.Discipline, result).Inc()
	metrics.DispatchDuration.WithLabelValues(run.Target).Observe(finished.Sub(run.StartedAt).Seconds())

	if err := uc.Repo.FinishRun(ctx, run); err != nil {
		uc.Logger.Warn("failed to update run", logger.RunID(run.ID), zap.Error(err))
	}
	uc.publish(ctx, run)
}

func (uc *UseCase) publish(ctx context.Context, run *models.DispatchRun) {
	ev := models.DispatchEvent{
		RunID:      run.ID,
		Target:     run.Target,
		Discipline: run.Discipline,
		State:      run.State,
		ExitCode:   run.ExitCode,
		At:         uc.Now(),
	}
	if err := uc.Repo.PublishEvent(ctx, ev); err != nil {
		uc.Logger.Warn("failed to publish dispatch event", logger.RunID(run.ID), zap.Error(err))
	}
}

// failure maps an error to the response the caller sees.
func (uc *UseCase) failure(ctx context.Context, err error) wrapper.Outcome {
	logger.AddToContext(ctx, zap.Error(err))

	var (
		unknown  *dispatch.UnknownTargetError
		invalid  *dispatch.InvalidParamsError
		exitErr  *dispatch.ProcessExitError
		parseErr *dispatch.QueryParseError
	)
	switch {
	case errors.As(err, &unknown), errors.As(err, &invalid):
		return wrapper.Failed(http.StatusBadRequest, err.Error())
	case errors.As(err, &exitErr):
		return wrapper.Failed(http.StatusInternalServerError, exitErr.Error())
	case errors.As(err, &parseErr):
		return wrapper.Failed(http.StatusBadGateway, "status query returned unparsable output")
	case errors.Is(err, repository.ErrLogNotFound):
		return wrapper.Failed(http.StatusNotFound, "log not found")
	default:
		uc.Logger.Error("request failed", zap.Error(err))
		return wrapper.Failed(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
