// Package exports serves admin CSV downloads of the lead table.
package exports

import (
	"time"

	apphttp "leadops_backend/internal/http"
)

// Module is the exports module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates the exports module.
func NewModule(leads LeadLister, loc *time.Location) *Module {
	return &Module{handler: NewHandler(leads, loc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts the export under the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)
