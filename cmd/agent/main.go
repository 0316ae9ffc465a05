package main

// @title           Minecraft Server Agent API
// @version         1.0
// @description     Per-instance agent that runs make targets and serves log windows for the dashboard.
// @host      localhost:8000
// @BasePath  /
// @securityDefinitions.apikey  McsToken
// @in                          header
// @name                        X-MCS-TOKEN
// @description                 Hex SHA-1 of hostname + X-MCS-TIMESTAMP + secret. Send X-MCS-TIMESTAMP (unix millis) alongside.

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/Alwanly/mcs-agent/docs/agent"
	"github.com/Alwanly/mcs-agent/internal/config"
	"github.com/Alwanly/mcs-agent/internal/dispatch"
	"github.com/Alwanly/mcs-agent/internal/metadata"
	"github.com/Alwanly/mcs-agent/internal/server/agent/handler"
	authentication "github.com/Alwanly/mcs-agent/pkg/auth"
	"github.com/Alwanly/mcs-agent/pkg/database"
	"github.com/Alwanly/mcs-agent/pkg/deps"
	"github.com/Alwanly/mcs-agent/pkg/logger"
	"github.com/Alwanly/mcs-agent/pkg/metrics"
	"github.com/Alwanly/mcs-agent/pkg/middleware"
	"github.com/Alwanly/mcs-agent/pkg/poll"
	"github.com/Alwanly/mcs-agent/pkg/pubsub"
	swagger "github.com/gofiber/swagger"
)

func main() {
	log, err := logger.NewLoggerFromEnv("agent")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting agent service", logger.String("version", handler.Version))

	if err := config.LoadDotEnv(); err != nil {
		log.WithError(err).Fatal("failed to load .env")
	}
	cfg, err := config.LoadAgentConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	// Cancelled at shutdown. Streams and background jobs hang off it.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	meta := metadata.NewClient(cfg.MetadataURL, cfg.MetadataRequestTimeout, cfg.MetadataRetry(), log.Component("metadata"))
	if err := meta.ResolveIdentity(ctx, cfg); err != nil {
		log.WithError(err).Fatal("failed to resolve agent identity")
	}
	if cfg.Zone == "" {
		// Zone is informational; off GCE this must not hold up startup.
		zctx, zcancel := context.WithTimeout(ctx, cfg.MetadataRequestTimeout)
		zone, err := meta.Zone(zctx)
		zcancel()
		if err != nil {
			log.WithError(err).Warn("zone unavailable")
		} else {
			cfg.Zone = zone
		}
	}

	log.Info("configuration loaded",
		logger.String("server_addr", cfg.ServerAddr),
		logger.String("hostname", cfg.Hostname),
		logger.String("zone", cfg.Zone),
		logger.String("work_dir", cfg.WorkDir),
		logger.String("database_path", cfg.DatabasePath),
		logger.Bool("dispatch_dedupe", cfg.DispatchDedupe),
	)

	registry, err := dispatch.NewRegistry(dispatch.Options{
		Dir:       cfg.WorkDir,
		Program:   cfg.MakeProgram,
		KillGrace: cfg.StreamKillGrace,
		Dedupe:    cfg.DispatchDedupe,
		Logger:    log.Component("dispatch"),
	}, dispatch.DefaultTargets()...)
	if err != nil {
		log.WithError(err).Fatal("failed to build dispatch registry")
	}

	mid := middleware.NewAuthMiddleware(
		middleware.SetTokenAuth(&authentication.TokenAuthConfig{
			Hostname:      cfg.Hostname,
			Secret:        cfg.TokenSecret,
			MaxFutureSkew: cfg.MaxFutureSkew,
		}),
		middleware.SetLogger(log.Component("auth")),
	)
	log.Info("authentication initialized")

	db, err := database.NewSQLiteDB(cfg.DatabasePath, database.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	log.Info("database initialized", logger.String("path", cfg.DatabasePath))

	app := fiber.New(fiber.Config{
		AppName:               "MCS Agent",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(requestid.New())
	app.Use(middleware.CanonicalLoggerMiddleware(log))
	app.Use(recover.New())

	// Outside the token group: scraped by the local collector.
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if cfg.SwaggerEnabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	poller := poll.NewPoller(log.Component("poll"))

	d := deps.App{
		Ctx:        ctx,
		StartTime:  time.Now(),
		Fiber:      app,
		Logger:     log,
		Database:   db,
		Middleware: mid,
		Registry:   registry,
		Poller:     poller,
	}

	if cfg.Redis.Enabled() {
		redisPub, err := pubsub.NewRedisPubSub(ctx, pubsub.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log.Component("pubsub"))
		if err != nil {
			log.WithError(err).Error("failed to initialize Redis pub/sub, dispatch events disabled",
				logger.String("addr", cfg.Redis.Addr()))
		} else {
			d.Pub = redisPub
			log.Info("Redis pub/sub initialized",
				logger.String("addr", cfg.Redis.Addr()),
				logger.String("channel", pubsub.DispatchChannel(cfg.Hostname)))
			defer redisPub.Close()
		}
	} else {
		log.Info("no Redis configuration provided; dispatch events disabled")
	}

	handler.NewHandler(d, cfg)

	if err := poller.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start background jobs")
	}

	gErr, gCtx := errgroup.WithContext(ctx)

	gErr.Go(func() error {
		log.Info("agent service is running", logger.String("address", cfg.ServerAddr))
		if err := app.Listen(cfg.ServerAddr); err != nil {
			cancel()
			return err
		}
		return nil
	})

	gErr.Go(func() error {
		<-gCtx.Done()

		// Cancelling ctx already signalled every live stream; give them the
		// shutdown timeout to drain before connections are dropped.
		if err := poller.Stop(); err != nil {
			log.WithError(err).Error("failed to stop background jobs")
		}
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.WithError(err).Error("failed to shutdown fiber app")
			return err
		}

		conn, err := db.DB()
		if err != nil {
			return err
		}
		if err := conn.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
			return err
		}
		return nil
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
		cancel()
	}()

	if err := gErr.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("agent service encountered an error")
	}

	log.Info("agent service stopped gracefully")
}
