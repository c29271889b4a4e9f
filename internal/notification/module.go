// Package notification reacts to domain events with outbound messages.
// Domain modules publish events and never talk to the mail relay directly.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"leadops_backend/internal/email"
	"leadops_backend/internal/events"
	"leadops_backend/platform/logger"
)

// Module handles notification-related event subscriptions.
type Module struct {
	sender email.Sender
	log    *logger.Logger
}

func New(sender email.Sender, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{sender: sender, log: log}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.BreakClosed{}.EventName(), m)
}

// Handle dispatches one event.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.BreakClosed:
		return m.handleBreakClosed(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

// handleLeadAssigned emails the agent. A lead without an assigned email is
// logged and skipped.
func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	log := m.log.WithContext(ctx)
	to := strings.TrimSpace(e.AssignedEmail)
	if to == "" {
		log.Warn("no assigned email for lead", slog.String("leadId", e.LeadID))
		return nil
	}

	err := m.sender.SendLeadAssigned(ctx, email.LeadAssignment{
		AgentName:  e.AssignedTo,
		AgentEmail: to,
		LeadID:     e.LeadID,
		Name:       e.Name,
		Phone:      e.Phone,
		Email:      e.Email,
		Project:    e.Project,
		Source:     e.Source,
		City:       e.City,
	})
	if err != nil {
		return fmt.Errorf("notify %s of %s: %w", to, e.LeadID, err)
	}
	log.Info("assignment email sent", slog.String("leadId", e.LeadID), slog.String("to", to))
	return nil
}

func (m *Module) handleBreakClosed(ctx context.Context, e events.BreakClosed) error {
	m.log.WithContext(ctx).Info("break closed",
		slog.String("agent", e.AgentEmail),
		slog.Int("minutes", e.DurationMinutes),
		slog.String("trigger", e.Trigger),
	)
	return nil
}
