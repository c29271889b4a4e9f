package maintenance

import (
	apphttp "leadops_backend/internal/http"
)

// Module mounts the ops routes on the admin group.
type Module struct {
	handler *Handler
}

func NewModule(runner JobRunner) *Module {
	return &Module{handler: NewHandler(runner)}
}

func (m *Module) Name() string {
	return "maintenance"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
