package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadops_backend/internal/bootstrap"
	"leadops_backend/internal/dashboard"
	"leadops_backend/internal/email"
	"leadops_backend/internal/events"
	"leadops_backend/internal/exports"
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/http/router"
	"leadops_backend/internal/leads/normalize"
	"leadops_backend/internal/maintenance"
	"leadops_backend/internal/notification"
	"leadops_backend/internal/scheduler"
	"leadops_backend/internal/webhook"
	"leadops_backend/platform/config"
	"leadops_backend/platform/db"
	"leadops_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "timezone", cfg.GetTimeZone())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := bootstrap.WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := bootstrap.WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	services, err := bootstrap.Build(ctx, cfg, pool, eventBus, log)
	if err != nil {
		log.Error("failed to initialize services", "error", err)
		panic("failed to initialize services: " + err.Error())
	}
	defer services.Close()

	// ========================================================================
	// Event Subscribers
	// ========================================================================

	notification.New(email.NewSender(cfg), log).RegisterHandlers(eventBus)

	if cfg.GetRedisURL() != "" {
		queue, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize task client", "error", err)
			panic("failed to initialize task client: " + err.Error())
		}
		defer func() { _ = queue.Close() }()
		scheduler.NewAssignmentTrigger(queue, log).RegisterHandlers(eventBus)
	} else {
		log.Warn("REDIS_URL not configured; new leads wait for the scheduled assignment pass")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	tables, err := normalize.LoadProjectTables(cfg.GetProjectsFile())
	if err != nil {
		log.Error("failed to load project tables", "error", err, "path", cfg.GetProjectsFile())
		panic("failed to load project tables: " + err.Error())
	}

	var instrumentation apphttp.Instrumentation
	if services.Telemetry != nil {
		instrumentation = services.Telemetry
	}

	app := &apphttp.App{
		Config:    cfg,
		Logger:    log,
		Health:    pool,
		EventBus:  eventBus,
		Telemetry: instrumentation,
		Modules: []apphttp.Module{
			services.Leads,
			dashboard.NewModule(dashboard.Deps{
				Leads:     services.Leads.Service(),
				Team:      services.Team,
				Metrics:   services.Metrics,
				Workspace: services.Workspace,
				Validator: services.Validator,
				Log:       log,
			}),
			webhook.NewModule(cfg, services.Leads.Pipeline(), normalize.NewProjectResolver(tables), services.Leads.Pipeline().IDs(), log),
			maintenance.NewModule(services.Runner),
			exports.NewModule(services.Leads.Repository(), cfg.Location()),
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}
