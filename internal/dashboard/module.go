package dashboard

import (
	apphttp "leadops_backend/internal/http"
	leadsvc "leadops_backend/internal/leads/service"
	"leadops_backend/internal/metrics"
	"leadops_backend/internal/team"
	"leadops_backend/internal/workspace"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/validator"
)

// Deps are the services the dashboard fronts.
type Deps struct {
	Leads     *leadsvc.Service
	Team      *team.Service
	Metrics   *metrics.Service
	Workspace *workspace.Service
	Validator *validator.Validator
	Log       *logger.Logger
}

// Module mounts /api/v1/exec and the admin roster routes.
type Module struct {
	handler *Handler
	admin   *AdminHandler
}

func NewModule(deps Deps) *Module {
	return &Module{
		handler: New(deps.Leads, deps.Team, deps.Metrics, deps.Workspace, deps.Log),
		admin:   NewAdminHandler(deps.Team, deps.Workspace, deps.Validator),
	}
}

func (m *Module) Name() string {
	return "dashboard"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
	m.admin.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
