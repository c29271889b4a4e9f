// Package webhook receives lead ads notifications and hands the resulting
// leads to a LeadSink.
package webhook

import (
	apphttp "leadops_backend/internal/http"
	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/normalize"
	"leadops_backend/platform/config"
	"leadops_backend/platform/logger"
)

// Module mounts /api/fb-webhook and /api/test-webhook.
type Module struct {
	handler *Handler
}

// NewModule wires the Graph client and sink. When LEAD_APPEND_URL is set
// leads are forwarded there instead of the local sink.
func NewModule(cfg config.WebhookConfig, local LeadSink, projects *normalize.ProjectResolver, ids *domain.IDGenerator, log *logger.Logger) *Module {
	var sink LeadSink = local
	if url := cfg.GetLeadAppendURL(); url != "" {
		sink = NewRemoteSink(url)
	}

	var fetcher LeadFetcher
	if token := cfg.GetFBPageAccessToken(); token != "" {
		fetcher = NewGraphClient(cfg.GetFBGraphBaseURL(), token)
	}

	service := NewService(Options{
		Sink:        sink,
		Fetcher:     fetcher,
		Normalizer:  normalize.NewPayloadNormalizer(projects),
		IDs:         ids,
		VerifyToken: cfg.GetFBVerifyToken(),
		Log:         log,
	})
	return &Module{handler: NewHandler(service, log)}
}

func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the public webhook endpoints on /api.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.API.Group("")
	if ctx.WebhookRateLimiter != nil {
		group.Use(ctx.WebhookRateLimiter.RateLimit())
	}
	group.GET("/fb-webhook", m.handler.Verify)
	group.POST("/fb-webhook", m.handler.Receive)
	group.POST("/test-webhook", m.handler.TestLead)
}

var _ apphttp.Module = (*Module)(nil)
