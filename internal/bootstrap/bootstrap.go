// Package bootstrap builds the services shared by the api and scheduler
// binaries from a connected pool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leadops_backend/internal/assignment"
	"leadops_backend/internal/events"
	"leadops_backend/internal/inbox"
	"leadops_backend/internal/leads"
	"leadops_backend/internal/leads/normalize"
	"leadops_backend/internal/maintenance"
	"leadops_backend/internal/metrics"
	"leadops_backend/internal/storage"
	"leadops_backend/internal/team"
	"leadops_backend/internal/telemetry"
	"leadops_backend/internal/timetracking"
	"leadops_backend/internal/workspace"
	"leadops_backend/platform/cache"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Services holds every domain service wired against one pool and bus.
type Services struct {
	Leads      *leads.Module
	Team       *team.Service
	TeamRepo   *team.Repository
	Assignment *assignment.Service
	Metrics    *metrics.Service
	Workspace  *workspace.Service
	Runner     *maintenance.Runner
	Validator  *validator.Validator
	// Telemetry is nil when metrics are disabled.
	Telemetry *telemetry.Metrics

	closers []func() error
}

// Close releases the connections opened by Build.
func (s *Services) Close() {
	for _, c := range s.closers {
		_ = c()
	}
}

// Build wires the domain services. Redis backs open break starts when
// configured; otherwise starts are kept in process memory.
func Build(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Services, error) {
	loc := cfg.Location()
	val := validator.New()
	svc := &Services{Validator: val}

	if cfg.IsMetricsEnabled() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		svc.Telemetry = telemetry.New(reg)
		svc.Telemetry.RegisterHandlers(bus)
	}

	leadsModule := leads.NewModule(pool, bus, val, cfg.GetInboxBatchSize(), log)
	svc.Leads = leadsModule

	teamRepo := team.NewRepository(pool)
	starts, err := svc.breakStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	machine := timetracking.NewMachine(timetracking.Options{
		Store:    starts,
		Recorder: teamRepo,
		TTL:      cfg.GetBreakStartTTL(),
		Location: loc,
		EventBus: bus,
		Log:      log,
	})
	svc.TeamRepo = teamRepo
	svc.Team = team.NewService(teamRepo, machine, loc)

	svc.Assignment = assignment.NewService(leadsModule.Repository(), teamRepo, assignment.NewCursorRepository(pool), bus, log)

	svc.Metrics = metrics.NewService(metrics.Options{
		Leads:    leadsModule.Repository(),
		Delays:   leadsModule.Repository(),
		Agents:   teamRepo,
		Tracker:  metrics.NewTrackerRepository(pool),
		Location: loc,
		Log:      log,
	})

	wsOpts := workspace.Options{
		Store:    workspace.NewRepository(pool),
		Tallier:  svc.Metrics,
		IDs:      leadsModule.Pipeline().IDs(),
		Location: loc,
		Log:      log,
	}
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucketExists(ctx, cfg.GetMinioBucketBrochures()); err != nil {
			return nil, err
		}
		wsOpts.Storage = store
		wsOpts.Bucket = cfg.GetMinioBucketBrochures()
		log.Info("brochure storage initialized", slog.String("bucket", cfg.GetMinioBucketBrochures()))
	}
	svc.Workspace = workspace.NewService(wsOpts)

	runnerOpts := maintenance.Options{
		Ingester: leadsModule.Pipeline(),
		Assigner: svc.Assignment,
		Delays:   svc.Metrics,
		Tracker:  svc.Metrics,
		Breaks:   svc.Team,
		Log:      log,
	}
	if svc.Telemetry != nil {
		runnerOpts.Observer = svc.Telemetry
	}
	if cfg.IsInboxEnabled() {
		runnerOpts.OpenMailbox = mailboxOpener(inbox.NewClient(cfg, normalize.SearchSubjects(normalize.DefaultTextRules), log))
	} else {
		log.Warn("IMAP not configured; inbox polling disabled")
	}
	svc.Runner = maintenance.NewRunner(runnerOpts)

	return svc, nil
}

// breakStore picks where open break starts live. Without REDIS_URL they stay
// in process memory, which only suits a single api process with no scheduler.
// A configured but unreachable Redis is an error: falling back would split
// break starts between processes.
func (s *Services) breakStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (timetracking.StartStore, error) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; break starts kept in memory")
		return timetracking.NewMemoryStore(), nil
	}
	client, err := cache.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, fmt.Errorf("connect break store: %w", err)
	}
	s.closers = append(s.closers, client.Close)
	return timetracking.NewRedisStore(client), nil
}

func mailboxOpener(client *inbox.Client) maintenance.MailboxOpener {
	return func(ctx context.Context) (maintenance.MailboxSession, error) {
		session, err := client.Open(ctx)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
}

// WithRetry runs fn until it succeeds, backing off quadratically between
// attempts.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
