package scheduler

import (
	"context"
	"log/slog"

	"leadops_backend/internal/events"
	"leadops_backend/platform/logger"
)

// AssignmentTrigger requests an assignment pass whenever a new lead lands.
type AssignmentTrigger struct {
	enqueuer AssignmentEnqueuer
	log      *logger.Logger
}

func NewAssignmentTrigger(enqueuer AssignmentEnqueuer, log *logger.Logger) *AssignmentTrigger {
	return &AssignmentTrigger{enqueuer: enqueuer, log: log}
}

func (t *AssignmentTrigger) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadIngested{}.EventName(), t)
}

// Handle enqueues the pass. A failed enqueue is logged; the cron pass picks
// the lead up later.
func (t *AssignmentTrigger) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadIngested)
	if !ok {
		return nil
	}
	if err := t.enqueuer.EnqueueAssignment(ctx, TriggerLeadIngested); err != nil {
		t.log.WithContext(ctx).Warn("assignment enqueue failed",
			slog.String("leadId", e.LeadID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
