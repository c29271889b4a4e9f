// Package leads provides the lead bounded context module: storage,
// ingestion pipeline, workflow service and the append route.
package leads

import (
	"leadops_backend/internal/events"
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/leads/handler"
	"leadops_backend/internal/leads/ingest"
	"leadops_backend/internal/leads/normalize"
	"leadops_backend/internal/leads/repository"
	"leadops_backend/internal/leads/service"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	repo     *repository.Repository
	pipeline *ingest.Pipeline
	service  *service.Service
	handler  *handler.Handler
}

// NewModule wires repository, pipeline and service. batchSize bounds one
// mailbox poll.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, batchSize int, log *logger.Logger) *Module {
	repo := repository.New(pool)
	pipeline := ingest.New(ingest.Options{
		Store:     repo,
		Text:      normalize.NewTextNormalizer(nil),
		EventBus:  eventBus,
		Log:       log,
		BatchSize: batchSize,
	})
	return &Module{
		repo:     repo,
		pipeline: pipeline,
		service:  service.New(repo),
		handler:  handler.New(pipeline, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Repository returns the lead store for other modules.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Pipeline returns the shared ingestion pipeline.
func (m *Module) Pipeline() *ingest.Pipeline {
	return m.pipeline
}

// Service returns the lead workflow service.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the append API under /api/v1/leads.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/leads")
	if ctx.WebhookRateLimiter != nil {
		group.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
