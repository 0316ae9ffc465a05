package handler

import (
	"bufio"
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Alwanly/mcs-agent/internal/config"
	"github.com/Alwanly/mcs-agent/internal/server/agent/dto"
	"github.com/Alwanly/mcs-agent/internal/server/agent/repository"
	"github.com/Alwanly/mcs-agent/internal/server/agent/usecase"
	"github.com/Alwanly/mcs-agent/pkg/deps"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/poll"
	"github.com/Alwanly/mcs-agent/pkg/validator"
	"github.com/Alwanly/mcs-agent/pkg/wrapper"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Version is reported by /health.
var Version = "dev"

type Handler struct {
	Logger  *logger.CanonicalLogger
	UseCase *usecase.UseCase
	Config  *config.AgentConfig

	streamCtx context.Context
	startTime time.Time
}

func NewHandler(d deps.App, cfg *config.AgentConfig) *Handler {
	repo := repository.NewRepository(d.Database, d.Pub, cfg.WorkDir, cfg.LogPattern, cfg.Hostname)

	uc := usecase.NewUseCase(usecase.UseCase{
		Repo:         repo,
		Dispatcher:   d.Registry,
		Logger:       d.Logger.Component("agent"),
		LogTargets:   cfg.LogTargets,
		RunRetention: cfg.RunRetention,
	})

	streamCtx := d.Ctx
	if streamCtx == nil {
		streamCtx = context.Background()
	}
	h := &Handler{
		Logger:    d.Logger,
		UseCase:   uc,
		Config:    cfg,
		streamCtx: streamCtx,
		startTime: d.StartTime,
	}

	api := d.Fiber.Group("", d.Middleware.TokenAuth())

	api.Get("/health", h.health)

	api.Get("/log", h.getLog)
	api.Get("/log/:target", h.getLog)

	api.Post("/make", h.postMake)
	api.Post("/make-dispatch/:target", h.postMakeDispatch)
	api.Get("/make-stream/:target", h.getMakeStream)

	api.Get("/server-status", h.getServerStatus)
	api.Get("/status", h.getServerStatus)

	api.Get("/runs", h.listRuns)

	if d.Poller != nil && cfg.RetentionSweep > 0 && cfg.RunRetention > 0 {
		err := d.Poller.Register("prune_runs", uc.PruneRuns, poll.JobConfig{
			Interval:   cfg.RetentionSweep,
			RunOnStart: true,
		})
		if err != nil {
			d.Logger.WithError(err).Error("failed to register run retention job")
		}
	}

	return h
}

// health godoc
// @Summary      Agent health
// @Tags         agent
// @Produce      json
// @Success      200 {object} wrapper.JSONResult{data=dto.HealthResponse}
// @Failure      403 {object} wrapper.JSONResult
// @Router       /health [get]
// @Security     McsToken
func (h *Handler) health(c *fiber.Ctx) error {
	return wrapper.Completed(dto.HealthResponse{
		Status:    "ok",
		Hostname:  h.Config.Hostname,
		Zone:      h.Config.Zone,
		Version:   Version,
		StartTime: h.startTime,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}).Respond(c)
}

// getLog godoc
// @Summary      Read a log window
// @Description  Returns up to |stride| lines of <target>.log before (negative stride) or after the cursor.
// @Description  Without stride, /log/{target} returns the whole file as text.
// @Tags         log
// @Produce      json
// @Param        target query    string false "log name (query form)"
// @Param        target path     string false "log name (path form)"
// @Param        stride query    int    false "line count, sign gives the direction, clamped to 32"
// @Param        cursor query    int    false "byte offset, defaults to end of file"
// @Success      200 {object} wrapper.JSONResult{data=dto.LogWindowResponse}
// @Failure      400 {object} wrapper.JSONResult
// @Failure      404 {object} wrapper.JSONResult
// @Router       /log [get]
// @Router       /log/{target} [get]
// @Security     McsToken
func (h *Handler) getLog(c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger.AddToContext(ctx, logger.Operation("read_log"))

	pathForm := c.Params("target") != ""
	req := &dto.LogRequest{Target: c.Params("target", c.Query("target"))}

	rawStride := c.Query("stride")
	if rawStride == "" {
		if !pathForm {
			return wrapper.Failed(http.StatusBadRequest, "stride is required").Respond(c)
		}
		if err := validator.ValidateStruct(req); err != nil {
			return badRequest(c, err)
		}
		data, out := h.UseCase.ReadWholeLog(ctx, req.Target)
		if out.Kind == wrapper.KindFailed {
			return out.Respond(c)
		}
		c.Type("txt", "utf-8")
		return c.SendString(data)
	}

	stride, err := strconv.Atoi(rawStride)
	if err != nil {
		return wrapper.Failed(http.StatusBadRequest, "stride must be an integer").Respond(c)
	}
	req.Stride = stride
	if raw := c.Query("cursor"); raw != "" {
		cursor, err := strconv.Atoi(raw)
		if err != nil {
			return wrapper.Failed(http.StatusBadRequest, "cursor must be an integer").Respond(c)
		}
		req.Cursor = &cursor
	}
	if err := validator.ValidateStruct(req); err != nil {
		return badRequest(c, err)
	}

	return h.UseCase.ReadLog(ctx, req).Respond(c)
}

// postMake godoc
// @Summary      Run an action target
// @Description  Blocks until the target exits. A non-zero exit answers 500 with the exit code in the message.
// @Tags         make
// @Accept       json
// @Produce      json
// @Param        request body dto.MakeRequest true "target and params"
// @Success      200 {object} wrapper.JSONResult{data=dto.MakeResponse}
// @Failure      400 {object} wrapper.JSONResult
// @Failure      500 {object} wrapper.JSONResult
// @Router       /make [post]
// @Security     McsToken
func (h *Handler) postMake(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.Operation("make"))

	req := new(dto.MakeRequest)
	if err := c.BodyParser(req); err != nil {
		logger.AddToContext(c.UserContext(), zap.Error(err))
		return wrapper.Failed(http.StatusBadRequest, "invalid request body").Respond(c)
	}
	if err := validator.ValidateStruct(req); err != nil {
		return badRequest(c, err)
	}

	return h.UseCase.Make(c.UserContext(), req).Respond(c)
}

// postMakeDispatch godoc
// @Summary      Run an action target (path form)
// @Tags         make
// @Accept       json
// @Produce      json
// @Param        target  path string           true  "action target"
// @Param        request body map[string]string false "params"
// @Success      200 {object} wrapper.JSONResult{data=dto.MakeResponse}
// @Failure      400 {object} wrapper.JSONResult
// @Failure      500 {object} wrapper.JSONResult
// @Router       /make-dispatch/{target} [post]
// @Security     McsToken
func (h *Handler) postMakeDispatch(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.Operation("make"))

	req := &dto.MakeRequest{Target: c.Params("target")}
	if len(c.Body()) > 0 {
		if err := req.Params.UnmarshalJSON(c.Body()); err != nil {
			logger.AddToContext(c.UserContext(), zap.Error(err))
			return wrapper.Failed(http.StatusBadRequest, "invalid request body").Respond(c)
		}
	}
	if err := validator.ValidateStruct(req); err != nil {
		return badRequest(c, err)
	}

	return h.UseCase.Make(c.UserContext(), req).Respond(c)
}

// getServerStatus godoc
// @Summary      Minecraft server status
// @Tags         status
// @Produce      json
// @Success      200 {object} wrapper.JSONResult{data=dto.ServerStatus}
// @Failure      500 {object} wrapper.JSONResult
// @Failure      502 {object} wrapper.JSONResult
// @Router       /server-status [get]
// @Router       /status [get]
// @Security     McsToken
func (h *Handler) getServerStatus(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.Operation("server_status"))
	return h.UseCase.ServerStatus(c.UserContext()).Respond(c)
}

// getMakeStream godoc
// @Summary      Stream a target's output
// @Description  Query parameters are passed to the target as params. The body is the raw process output and ends when the process exits.
// @Tags         make
// @Produce      plain
// @Param        target path string true "stream target"
// @Success      200 {string} string "process output"
// @Failure      400 {object} wrapper.JSONResult
// @Router       /make-stream/{target} [get]
// @Security     McsToken
func (h *Handler) getMakeStream(c *fiber.Ctx) error {
	logger.AddToContext(c.UserContext(), logger.Operation("make_stream"))

	// The stream body is written after this handler returns, when the
	// request buffers have been recycled.
	target := strings.Clone(c.Params("target"))
	params := make(map[string]string)
	for k, v := range c.Queries() {
		params[strings.Clone(k)] = strings.Clone(v)
	}
	logger.AddToContext(c.UserContext(), logger.Target(target))

	if out := h.UseCase.CheckStream(target, params); out.Kind == wrapper.KindFailed {
		return out.Respond(c)
	}

	c.Type("txt", "utf-8")
	c.Set("X-Content-Type-Options", "nosniff")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	// The watcher reads from the connection, so it cannot be reused.
	rc := c.Context()
	rc.SetConnectionClose()
	rc.SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, stop := hangupContext(h.streamCtx, rc.Conn())
		defer stop()
		if err := h.UseCase.Stream(ctx, target, params, &streamSink{w: w}); err != nil {
			h.Logger.Error("stream failed to start", logger.Target(target), zap.Error(err))
			_, _ = w.WriteString(err.Error() + "\n")
			_ = w.Flush()
		}
	})
	return wrapper.AlreadyResponded().Respond(c)
}

// listRuns godoc
// @Summary      Recent dispatch runs
// @Tags         runs
// @Produce      json
// @Param        limit  query int    false "max rows, default 50"
// @Param        target query string false "only this target"
// @Success      200 {object} wrapper.JSONResult{data=[]models.DispatchRun}
// @Router       /runs [get]
// @Security     McsToken
func (h *Handler) listRuns(c *fiber.Ctx) error {
	req := &dto.RunsRequest{
		Limit:  c.QueryInt("limit", 0),
		Target: c.Query("target"),
	}
	if err := validator.ValidateStruct(req); err != nil {
		return badRequest(c, err)
	}
	return h.UseCase.ListRuns(c.UserContext(), req).Respond(c)
}

func badRequest(c *fiber.Ctx, err error) error {
	logger.AddToContext(c.UserContext(), zap.Error(err))
	fields := validator.TranslateError(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fields[k])
	}
	return wrapper.Failed(http.StatusBadRequest, strings.Join(parts, "; ")).Respond(c)
}
